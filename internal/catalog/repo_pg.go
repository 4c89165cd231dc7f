package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/model"
	embedsql "github.com/amecontrol/sigtapload/internal/sql"
)

// ErrConflict is returned when a write collides with the unique code
// constraint, typically because a concurrent import created the code first.
var ErrConflict = errors.New("procedure code already exists")

const pgUniqueViolation = "23505"

// ListFilter narrows List. Zero values disable each filter.
type ListFilter struct {
	Class      model.ProcedureClass
	Specialty  string
	Search     string
	ActiveOnly bool
}

// PGRepository reads and writes catalog.procedure_codes. It runs on a pool
// for reads and on a pgx.Tx when writes must share a transaction.
type PGRepository struct {
	q db.Querier
}

// NewPGRepository returns a repository over q.
func NewPGRepository(q db.Querier) *PGRepository {
	return &PGRepository{q: q}
}

// FindByCode returns the record for code, or nil, nil when absent.
func (r *PGRepository) FindByCode(ctx context.Context, code string) (*model.ProcedureCode, error) {
	p, err := scanProcedure(r.q.QueryRow(ctx, embedsql.FindProcedureByCode, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find procedure %q: %w", code, err)
	}
	return p, nil
}

// Create inserts a new active record. createdBy may be empty, in which case
// the provenance column is left NULL.
func (r *PGRepository) Create(ctx context.Context, f model.ProcedureFields, createdBy model.Identity) (*model.ProcedureCode, error) {
	var by *string
	if createdBy != "" {
		s := string(createdBy)
		by = &s
	}

	p := &model.ProcedureCode{
		Code:           f.Code,
		Description:    f.Description,
		Price:          f.Price,
		ProcedureClass: f.ProcedureClass,
		Specialty:      f.Specialty,
	}
	if by != nil {
		id := createdBy
		p.CreatedBy = &id
	}

	err := r.q.QueryRow(ctx, embedsql.InsertProcedure,
		f.Code, f.Description, f.Price.StringFixed(2), string(f.ProcedureClass), f.Specialty, by,
	).Scan(&p.ID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert procedure %q: %w", f.Code, mapPgError(err))
	}
	return p, nil
}

// Update rewrites the mutable fields of rec with f and refreshes
// rec.UpdatedAt. The code is never changed.
func (r *PGRepository) Update(ctx context.Context, rec *model.ProcedureCode, f model.ProcedureFields) error {
	var updatedAt time.Time
	err := r.q.QueryRow(ctx, embedsql.UpdateProcedure,
		rec.ID, f.Description, f.Price.StringFixed(2), string(f.ProcedureClass), f.Specialty,
	).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update procedure %q: record %d no longer exists", rec.Code, rec.ID)
	}
	if err != nil {
		return fmt.Errorf("update procedure %q: %w", rec.Code, mapPgError(err))
	}
	rec.Apply(f)
	rec.UpdatedAt = updatedAt
	return nil
}

// List returns the records matching filter ordered by description.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]*model.ProcedureCode, error) {
	rows, err := r.q.Query(ctx, embedsql.ListProcedures,
		string(filter.Class), filter.Specialty, filter.Search, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	defer rows.Close()

	var out []*model.ProcedureCode
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	return out, nil
}

func scanProcedure(row pgx.Row) (*model.ProcedureCode, error) {
	var (
		p         model.ProcedureCode
		price     string
		class     string
		createdBy *string
	)
	err := row.Scan(&p.ID, &p.Code, &p.Description, &price, &class,
		&p.Specialty, &p.Active, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", price, err)
	}
	p.ProcedureClass = model.ProcedureClass(class)
	if createdBy != nil {
		id := model.Identity(*createdBy)
		p.CreatedBy = &id
	}
	return &p, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
