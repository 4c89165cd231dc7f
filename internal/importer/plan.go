package importer

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/csvread"
	"github.com/amecontrol/sigtapload/internal/model"
)

// Finder is the read side of Store.
type Finder interface {
	FindByCode(ctx context.Context, code string) (*model.ProcedureCode, error)
}

// Plan is the outcome an import would have, computed without writing.
type Plan struct {
	Delimiter rune
	Columns   *csvread.ColumnMap
	RowsRead  int
	Skipped   int
	Report    model.ImportReport
}

// PlanImport reconciles r against find without writing anything. Codes the
// file itself would create are remembered so later rows see them, as they
// would inside the real transaction. A nil find treats the catalogue as
// empty.
func PlanImport(ctx context.Context, find Finder, r io.Reader, opts Options, log zerolog.Logger) (*Plan, error) {
	rd, err := Open(r)
	if err != nil {
		return nil, err
	}

	store := &dryRunStore{find: find, created: make(map[string]*model.ProcedureCode)}
	t, err := reconcile(ctx, store, rd, opts, log)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Delimiter: rd.Comma(),
		Columns:   rd.Columns(),
		RowsRead:  rd.Rows(),
		Skipped:   t.skipped,
		Report:    t.report,
	}, nil
}

type dryRunStore struct {
	find    Finder
	created map[string]*model.ProcedureCode
}

func (s *dryRunStore) FindByCode(ctx context.Context, code string) (*model.ProcedureCode, error) {
	if p, ok := s.created[code]; ok {
		return p, nil
	}
	if s.find == nil {
		return nil, nil
	}
	return s.find.FindByCode(ctx, code)
}

func (s *dryRunStore) Create(_ context.Context, f model.ProcedureFields, createdBy model.Identity) (*model.ProcedureCode, error) {
	p := &model.ProcedureCode{Active: true}
	p.Code = f.Code
	p.Apply(f)
	if createdBy != "" {
		p.CreatedBy = &createdBy
	}
	s.created[f.Code] = p
	return p, nil
}

func (s *dryRunStore) Update(_ context.Context, rec *model.ProcedureCode, f model.ProcedureFields) error {
	return nil
}
