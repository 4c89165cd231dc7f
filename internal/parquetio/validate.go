package parquetio

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/amecontrol/sigtapload/internal/model"
)

// ValidateSchema checks that the Parquet schema carries every export column.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range model.ExportColumns() {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Verify reopens an export and checks its row count.
func Verify(path string, wantRows int64) error {
	e, err := OpenExport(path)
	if err != nil {
		return err
	}
	defer e.Close()

	if got := e.NumRows(); got != wantRows {
		return fmt.Errorf("verify %s: %d rows, want %d", path, got, wantRows)
	}
	return nil
}
