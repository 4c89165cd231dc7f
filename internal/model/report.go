package model

import "time"

// Row failure reasons recorded in ImportReport.Failures and in
// ingest.import_row_failures.
const (
	ReasonMissingCode        = "missing_code"
	ReasonMissingDescription = "missing_description"
	ReasonInvalidPrice       = "invalid_price"
	ReasonMalformedRow       = "malformed_row"
	ReasonShortRow           = "short_row"
	ReasonInvalidText        = "invalid_text"
)

// RowFailure identifies one data row that was not applied.
// Row is 1-based and counts the header as row 1.
type RowFailure struct {
	Row    int
	Reason string
}

// ImportReport is the reconciliation result of one import.
// Rows skipped because the code exists and overwrite is off appear nowhere.
type ImportReport struct {
	Created    int
	Updated    int
	FailedRows []int
	Failures   []RowFailure
}

// Fail records a failed row.
func (r *ImportReport) Fail(row int, reason string) {
	r.FailedRows = append(r.FailedRows, row)
	r.Failures = append(r.Failures, RowFailure{Row: row, Reason: reason})
}

// ImportSummary wraps a report with run metadata for callers that log or
// render it.
type ImportSummary struct {
	RunID       string
	FileName    string
	FileSHA256  string
	SubmittedBy Identity
	Overwrite   bool
	RowsRead    int
	Report      ImportReport
	Duration    time.Duration
}
