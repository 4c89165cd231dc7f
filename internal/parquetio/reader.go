package parquetio

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/amecontrol/sigtapload/internal/model"
)

const readBatch = 256

// Export is an open catalogue export whose schema has been checked.
type Export struct {
	path string
	file *os.File
	rows *parquet.GenericReader[model.ProcedureCodeRow]
}

// OpenExport opens a catalogue export and rejects files that lack any of
// model.ExportColumns.
func OpenExport(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat export: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, fmt.Errorf("export %s: %w", path, err)
	}

	return &Export{
		path: path,
		file: f,
		rows: parquet.NewGenericReader[model.ProcedureCodeRow](pf),
	}, nil
}

// NumRows returns the number of catalogue rows in the export.
func (e *Export) NumRows() int64 {
	return e.rows.NumRows()
}

// Records reads every row of the export in file order.
func (e *Export) Records() ([]model.ProcedureCodeRow, error) {
	all := make([]model.ProcedureCodeRow, 0, e.NumRows())
	buf := make([]model.ProcedureCodeRow, readBatch)
	for {
		n, err := e.rows.Read(buf)
		all = append(all, buf[:n]...)
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read export %s: %w", e.path, err)
		}
	}
}

// Close releases the file.
func (e *Export) Close() error {
	if err := e.rows.Close(); err != nil {
		e.file.Close()
		return err
	}
	return e.file.Close()
}
