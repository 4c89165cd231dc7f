package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/model"
	embedsql "github.com/amecontrol/sigtapload/internal/sql"
)

// Import run statuses stored in ingest.import_runs.
const (
	StatusRunning   = "running"
	StatusCommitted = "committed"
	StatusFailed    = "failed"
)

func registerRun(ctx context.Context, q db.Querier, runID uuid.UUID, opts Options, sha string) (time.Time, error) {
	var submittedBy *string
	if opts.SubmittedBy != "" {
		s := string(opts.SubmittedBy)
		submittedBy = &s
	}

	var startedAt time.Time
	err := q.QueryRow(ctx, embedsql.RegisterImportRun,
		runID, opts.FileName, sha, submittedBy, opts.Overwrite,
	).Scan(&startedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("register import run: %w", err)
	}
	return startedAt, nil
}

func finishRun(ctx context.Context, q db.Querier, runID uuid.UUID, status string, report *model.ImportReport, runErr error) error {
	var created, updated, failed int
	if report != nil {
		created, updated, failed = report.Created, report.Updated, len(report.FailedRows)
	}
	var msg *string
	if runErr != nil {
		s := runErr.Error()
		msg = &s
	}

	_, err := q.Exec(ctx, embedsql.FinishImportRun,
		runID, status, created, updated, failed, msg)
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	return nil
}

// copyFailures bulk-loads the row failures of a run.
func copyFailures(ctx context.Context, tx pgx.Tx, runID uuid.UUID, failures []model.RowFailure) (int64, error) {
	if len(failures) == 0 {
		return 0, nil
	}
	rows := make([]model.FailureRow, len(failures))
	for i, f := range failures {
		rows[i] = model.FailureRow{RunID: runID, RowFailure: f}
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ingest", "import_row_failures"},
		model.FailureColumns(),
		db.NewFailureSource(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy row failures: %w", err)
	}
	return n, nil
}
