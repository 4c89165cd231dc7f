package model

import "github.com/google/uuid"

// FailureRow is a RowFailure tagged with its import run, in the shape COPY
// loads into ingest.import_row_failures.
type FailureRow struct {
	RunID uuid.UUID
	RowFailure
}

// FailureColumns returns the ordered column names for COPY into
// ingest.import_row_failures.
func FailureColumns() []string {
	return []string{"run_id", "row_number", "reason"}
}

// CopyValues returns the row's values in FailureColumns order.
func (f *FailureRow) CopyValues() []any {
	return []any{f.RunID, int32(f.Row), f.Reason}
}
