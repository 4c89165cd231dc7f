package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/catalog"
	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/model"
	"github.com/amecontrol/sigtapload/internal/normalize"
)

// Service runs imports against Postgres and records each run in
// ingest.import_runs.
type Service struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewService creates a Service.
func NewService(pool *pgxpool.Pool, log zerolog.Logger) *Service {
	return &Service{pool: pool, log: log}
}

// Run imports r in a single transaction. Nothing is written to the
// catalogue unless every row was processed and the commit succeeded.
// Inputs rejected before the header is mapped are not registered as runs.
func (s *Service) Run(ctx context.Context, r io.Reader, opts Options) (*model.ImportSummary, error) {
	start := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ImportError{Phase: PhaseRead, Err: fmt.Errorf("read input: %w", err)}
	}
	sha := normalize.BytesHash(data)

	rd, err := Open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	log := s.log.With().Str("run_id", runID.String()).Logger()

	if _, err := registerRun(ctx, s.pool, runID, opts, sha); err != nil {
		return nil, storeError(err)
	}
	log.Info().Str("sha256", sha).Msg("registered import run")

	var t *tally
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		t, err = reconcile(ctx, catalog.NewPGRepository(tx), rd, opts, log)
		if err != nil {
			return err
		}
		n, err := copyFailures(ctx, tx, runID, t.report.Failures)
		if err != nil {
			return storeError(err)
		}
		if n > 0 {
			log.Debug().Int64("rows", n).Msg("recorded row failures")
		}
		return nil
	})
	if err != nil {
		if ferr := finishRun(context.WithoutCancel(ctx), s.pool, runID, StatusFailed, nil, err); ferr != nil {
			log.Error().Err(ferr).Msg("could not mark import run failed")
		}
		log.Error().Err(err).Msg("import rolled back")
		var ie *ImportError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, storeError(err)
	}

	if err := finishRun(ctx, s.pool, runID, StatusCommitted, &t.report, nil); err != nil {
		// The catalogue is already committed; the registry is bookkeeping.
		log.Error().Err(err).Msg("could not mark import run committed")
	}

	summary := &model.ImportSummary{
		RunID:       runID.String(),
		FileName:    opts.FileName,
		FileSHA256:  sha,
		SubmittedBy: opts.SubmittedBy,
		Overwrite:   opts.Overwrite,
		RowsRead:    rd.Rows(),
		Report:      t.report,
		Duration:    time.Since(start),
	}
	log.Info().
		Int("created", summary.Report.Created).
		Int("updated", summary.Report.Updated).
		Int("failed", len(summary.Report.FailedRows)).
		Dur("duration", summary.Duration).
		Msg("import committed")
	return summary, nil
}

// Lookup returns the catalogue record for code, or nil when absent.
func (s *Service) Lookup(ctx context.Context, code string) (*model.ProcedureCode, error) {
	return catalog.NewPGRepository(s.pool).FindByCode(ctx, normalize.NormalizeCode(code))
}

// Plan runs the import against a read-only view of the catalogue.
func (s *Service) Plan(ctx context.Context, r io.Reader, opts Options) (*Plan, error) {
	return PlanImport(ctx, catalog.NewPGRepository(s.pool), r, opts, s.log)
}
