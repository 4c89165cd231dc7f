// Package importer reconciles a procedure-code CSV against the catalogue.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/csvread"
	"github.com/amecontrol/sigtapload/internal/model"
)

// Store is the catalogue the importer writes to. FindByCode returns nil, nil
// when the code is absent. Every method must observe the same transaction.
type Store interface {
	FindByCode(ctx context.Context, code string) (*model.ProcedureCode, error)
	Create(ctx context.Context, f model.ProcedureFields, createdBy model.Identity) (*model.ProcedureCode, error)
	Update(ctx context.Context, rec *model.ProcedureCode, f model.ProcedureFields) error
}

// Options controls one import.
type Options struct {
	Overwrite   bool
	SubmittedBy model.Identity
	FileName    string
}

// tally aggregates row outcomes. Skipped rows are tracked for plans only;
// they never appear in the report.
type tally struct {
	report  model.ImportReport
	skipped int
}

// Import reads r and applies every row to store. The caller owns the
// transaction store runs in and must roll it back when Import fails.
func Import(ctx context.Context, store Store, r io.Reader, opts Options, log zerolog.Logger) (*model.ImportReport, error) {
	rd, err := Open(r)
	if err != nil {
		return nil, err
	}
	t, err := reconcile(ctx, store, rd, opts, log)
	if err != nil {
		return nil, err
	}
	return &t.report, nil
}

// Open reads the header of r and validates the column mapping.
func Open(r io.Reader) (*csvread.Reader, error) {
	rd, err := csvread.Open(r)
	if err != nil {
		return nil, &ImportError{Phase: PhaseRead, Err: err}
	}
	if err := rd.Columns().Validate(); err != nil {
		return nil, &ImportError{Phase: PhaseColumns, Err: err}
	}
	return rd, nil
}

func reconcile(ctx context.Context, store Store, rd *csvread.Reader, opts Options, log zerolog.Logger) (*tally, error) {
	start := time.Now()
	cols := rd.Columns()

	log.Info().
		Str("file", opts.FileName).
		Bool("overwrite", opts.Overwrite).
		Str("submitted_by", string(opts.SubmittedBy)).
		Str("delimiter", string(rd.Comma())).
		Msg("starting import")
	for _, ig := range cols.Ignored {
		log.Warn().
			Int("column", ig.Index+1).
			Str("header", ig.Header).
			Str("field", ig.Field.String()).
			Str("owner", cols.Header(ig.Field)).
			Msg("ignoring duplicate column")
	}

	t := &tally{report: model.ImportReport{FailedRows: []int{}}}
	for {
		if err := ctx.Err(); err != nil {
			return nil, storeError(err)
		}

		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ImportError{Phase: PhaseRead, Err: err}
		}

		res, err := applyRow(ctx, store, rec, cols, opts)
		if err != nil {
			return nil, storeError(fmt.Errorf("row %d: %w", rec.Row, err))
		}

		switch res.outcome {
		case outcomeCreated:
			t.report.Created++
		case outcomeUpdated:
			t.report.Updated++
		case outcomeSkipped:
			t.skipped++
		case outcomeFailed:
			t.report.Fail(rec.Row, res.reason)
			log.Warn().Int("row", rec.Row).Str("reason", res.reason).Msg("row failed")
			continue
		}
		log.Debug().Int("row", rec.Row).Stringer("outcome", res.outcome).Msg("row applied")
	}

	log.Info().
		Int("rows", rd.Rows()).
		Int("created", t.report.Created).
		Int("updated", t.report.Updated).
		Int("skipped", t.skipped).
		Int("failed", len(t.report.FailedRows)).
		Dur("duration", time.Since(start)).
		Msg("import reconciled")
	return t, nil
}

// applyRow returns an error only when the store fails; everything else is
// a row outcome.
func applyRow(ctx context.Context, store Store, rec csvread.Record, cols *csvread.ColumnMap, opts Options) (rowResult, error) {
	fields, reason := parseRow(rec, cols)
	if reason != "" {
		return failed(reason), nil
	}

	existing, err := store.FindByCode(ctx, fields.Code)
	if err != nil {
		return rowResult{}, err
	}

	if existing != nil {
		if !opts.Overwrite {
			return rowResult{outcome: outcomeSkipped}, nil
		}
		if err := store.Update(ctx, existing, fields); err != nil {
			return rowResult{}, err
		}
		return rowResult{outcome: outcomeUpdated}, nil
	}

	if _, err := store.Create(ctx, fields, opts.SubmittedBy); err != nil {
		return rowResult{}, err
	}
	return rowResult{outcome: outcomeCreated}, nil
}

// IsColumnError reports whether err is a header mapping failure.
func IsColumnError(err error) bool {
	return errors.Is(err, ErrRequiredColumns)
}
