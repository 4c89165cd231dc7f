package csvread

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

const peekSize = 64 * 1024

// ErrEmptyInput is returned by Open when the input has no header row.
var ErrEmptyInput = errors.New("empty input: no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Record is one data row. Row is 1-based with the header as row 1.
// Err is set when the row itself could not be parsed; the reader can
// still continue past it.
type Record struct {
	Row    int
	Fields []string
	Err    error
}

// Value returns the raw (untrimmed) cell for f. An unmapped field yields
// "" and ok=true; a mapped field beyond the end of the row yields ok=false.
func (r Record) Value(cols *ColumnMap, f Field) (string, bool) {
	i := cols.Index(f)
	if i < 0 {
		return "", true
	}
	if i >= len(r.Fields) {
		return "", false
	}
	return r.Fields[i], true
}

// Reader streams delimited text with a header row.
type Reader struct {
	csv   *csv.Reader
	comma rune
	cols  *ColumnMap
	row   int
}

// Open reads the header row from r, detects the delimiter and maps the
// header cells to logical fields. Column validation is left to the caller.
func Open(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, peekSize)

	// Skip UTF-8 BOM if present
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	first, err := peekLine(br)
	if err != nil {
		return nil, fmt.Errorf("peek header: %w", err)
	}
	comma := SniffDelimiter(first)

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	return &Reader{
		csv:   cr,
		comma: comma,
		cols:  MapColumns(header),
		row:   1,
	}, nil
}

// peekLine returns the first line without consuming it. A header longer
// than the peek buffer is sniffed on its first peekSize bytes.
func peekLine(br *bufio.Reader) ([]byte, error) {
	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		return buf[:i], nil
	}
	return buf, nil
}

// Columns returns the header mapping.
func (r *Reader) Columns() *ColumnMap {
	return r.cols
}

// Rows returns the number of data rows read so far, malformed ones included.
func (r *Reader) Rows() int {
	return r.row - 1
}

// Comma returns the detected delimiter.
func (r *Reader) Comma() rune {
	return r.comma
}

// Next returns the next data row, or io.EOF when the input is exhausted.
// A row that fails to parse is returned with Err set and a nil error;
// a non-nil error means the underlying input failed.
func (r *Reader) Next() (Record, error) {
	fields, err := r.csv.Read()
	if err == io.EOF {
		return Record{}, io.EOF
	}
	r.row++
	// LazyQuotes and a variable field count leave few parse errors;
	// any that remain fail only this row.
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return Record{Row: r.row, Err: err}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read row %d: %w", r.row, err)
	}
	return Record{Row: r.row, Fields: fields}, nil
}

// SniffDelimiter picks the most frequent of ',', ';' and '\t' outside
// double quotes in line. Ties resolve in that order; comma is the default.
func SniffDelimiter(line []byte) rune {
	candidates := []rune{',', ';', '\t'}
	counts := make(map[rune]int, len(candidates))
	inQuotes := false
	for _, b := range line {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case !inQuotes:
			counts[rune(b)]++
		}
	}
	best := ','
	for _, c := range candidates {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
