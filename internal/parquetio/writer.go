// Package parquetio writes and reads catalogue snapshots as Parquet.
package parquetio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/amecontrol/sigtapload/internal/model"
)

// WriteFile writes rows to path. The file is written under a temporary
// name in the same directory and renamed into place on success.
func WriteFile(path string, rows []model.ProcedureCodeRow) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.parquet")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := parquet.NewGenericWriter[model.ProcedureCodeRow](tmp, parquet.Compression(&parquet.Zstd))
	n, err := w.Write(rows)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename export: %w", err)
	}
	return int64(n), nil
}

// Rows converts catalogue records into export rows.
func Rows(records []*model.ProcedureCode) []model.ProcedureCodeRow {
	rows := make([]model.ProcedureCodeRow, len(records))
	for i, p := range records {
		rows[i] = model.NewProcedureCodeRow(p)
	}
	return rows
}
