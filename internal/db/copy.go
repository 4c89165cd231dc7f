package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/amecontrol/sigtapload/internal/model"
)

// FailureSource implements pgx.CopyFromSource over a slice of FailureRows.
type FailureSource struct {
	rows []model.FailureRow
	pos  int
}

// NewFailureSource creates a CopyFromSource over rows.
func NewFailureSource(rows []model.FailureRow) *FailureSource {
	return &FailureSource{rows: rows, pos: -1}
}

// Next advances to the next row. Returns false after the last row.
func (s *FailureSource) Next() bool {
	s.pos++
	return s.pos < len(s.rows)
}

// Values returns the current row's values in COPY column order.
func (s *FailureSource) Values() ([]any, error) {
	return s.rows[s.pos].CopyValues(), nil
}

// Err always returns nil; the rows are already in memory.
func (s *FailureSource) Err() error {
	return nil
}

// Compile-time check that FailureSource satisfies the interface.
var _ pgx.CopyFromSource = (*FailureSource)(nil)
