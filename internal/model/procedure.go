package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity names the user that submitted an import. It is stored as
// provenance only; nothing in the catalogue is owned by it.
type Identity string

// ProcedureCode is one billable procedure in the catalogue, keyed by Code.
type ProcedureCode struct {
	ID             int64
	Code           string
	Description    string
	Price          decimal.Decimal
	ProcedureClass ProcedureClass
	Specialty      string
	Active         bool
	CreatedBy      *Identity // nil once the submitting user is gone
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProcedureFields are the values an import row carries. Code is the
// business key and is never rewritten on update.
type ProcedureFields struct {
	Code           string
	Description    string
	Price          decimal.Decimal
	ProcedureClass ProcedureClass
	Specialty      string
}

// Apply overwrites the mutable fields of p with f.
func (p *ProcedureCode) Apply(f ProcedureFields) {
	p.Description = f.Description
	p.Price = f.Price
	p.ProcedureClass = f.ProcedureClass
	p.Specialty = f.Specialty
}

// Fields returns the import-visible values of p.
func (p *ProcedureCode) Fields() ProcedureFields {
	return ProcedureFields{
		Code:           p.Code,
		Description:    p.Description,
		Price:          p.Price,
		ProcedureClass: p.ProcedureClass,
		Specialty:      p.Specialty,
	}
}

// Equal reports whether two field sets hold the same values.
// Prices compare numerically, so 150.5 equals 150.50.
func (f ProcedureFields) Equal(o ProcedureFields) bool {
	return f.Code == o.Code &&
		f.Description == o.Description &&
		f.Price.Equal(o.Price) &&
		f.ProcedureClass == o.ProcedureClass &&
		f.Specialty == o.Specialty
}
