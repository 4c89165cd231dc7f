package csvread

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amecontrol/sigtapload/internal/normalize"
)

// Field is a logical import column.
type Field int

const (
	FieldCode Field = iota
	FieldDescription
	FieldPrice
	FieldClass
	FieldSpecialty
	numFields
)

// AllFields lists the logical fields in header-rule order.
var AllFields = []Field{FieldCode, FieldDescription, FieldPrice, FieldClass, FieldSpecialty}

func (f Field) String() string {
	switch f {
	case FieldCode:
		return "code"
	case FieldDescription:
		return "description"
	case FieldPrice:
		return "price"
	case FieldClass:
		return "class"
	case FieldSpecialty:
		return "specialty"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ErrRequiredColumns is returned when the header lacks a code or a
// description column.
var ErrRequiredColumns = errors.New("cannot map required columns")

// headerRule classifies a folded header cell that contains any of its
// substrings. Rules are tried in order; the first match classifies the cell.
type headerRule struct {
	field      Field
	substrings []string
}

var headerRules = []headerRule{
	{FieldCode, []string{"codigo", "sigtap"}},
	{FieldDescription, []string{"descri"}},
	{FieldPrice, []string{"valor", "preco", "pre"}},
	{FieldClass, []string{"tipo"}},
	{FieldSpecialty, []string{"especialidade"}},
}

// IgnoredColumn is a header cell that matched a field already owned by an
// earlier cell.
type IgnoredColumn struct {
	Index  int
	Header string
	Field  Field
}

// ColumnMap records which header cell feeds each logical field.
// The first cell classified into a field owns it.
type ColumnMap struct {
	Headers []string
	index   [numFields]int
	Ignored []IgnoredColumn
}

// MapColumns classifies header cells into logical fields.
func MapColumns(headers []string) *ColumnMap {
	m := &ColumnMap{Headers: headers}
	for i := range m.index {
		m.index[i] = -1
	}
	for i, h := range headers {
		folded := normalize.FoldHeader(h)
		if folded == "" {
			continue
		}
		f, ok := classify(folded)
		if !ok {
			continue
		}
		if m.index[f] >= 0 {
			m.Ignored = append(m.Ignored, IgnoredColumn{Index: i, Header: h, Field: f})
			continue
		}
		m.index[f] = i
	}
	return m
}

func classify(folded string) (Field, bool) {
	for _, r := range headerRules {
		for _, sub := range r.substrings {
			if strings.Contains(folded, sub) {
				return r.field, true
			}
		}
	}
	return 0, false
}

// Index returns the column index mapped to f, or -1.
func (m *ColumnMap) Index(f Field) int {
	return m.index[f]
}

// Has reports whether f is mapped to a column.
func (m *ColumnMap) Has(f Field) bool {
	return m.index[f] >= 0
}

// Header returns the original header text mapped to f, or "".
func (m *ColumnMap) Header(f Field) string {
	if i := m.index[f]; i >= 0 {
		return m.Headers[i]
	}
	return ""
}

// Validate checks that the code and description fields are mapped.
func (m *ColumnMap) Validate() error {
	var missing []string
	for _, f := range []Field{FieldCode, FieldDescription} {
		if !m.Has(f) {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s (headers: %s)",
			ErrRequiredColumns, strings.Join(missing, ", "), strings.Join(m.Headers, ", "))
	}
	return nil
}
