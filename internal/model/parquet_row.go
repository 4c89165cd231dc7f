package model

// ProcedureCodeRow mirrors the Parquet schema of a catalogue export.
// Price is carried twice: as exact decimal text and as integer cents.
type ProcedureCodeRow struct {
	Code           string  `parquet:"code"`
	Description    string  `parquet:"description"`
	Price          string  `parquet:"price"`
	PriceCents     int64   `parquet:"price_cents"`
	ProcedureClass string  `parquet:"procedure_class"`
	Specialty      string  `parquet:"specialty"`
	Active         bool    `parquet:"active"`
	CreatedBy      *string `parquet:"created_by,optional"`
	UpdatedAtUnix  int64   `parquet:"updated_at_unix"`
}

// ExportColumns lists the columns every export file must carry.
func ExportColumns() []string {
	return []string{"code", "description", "price", "price_cents", "procedure_class"}
}

// NewProcedureCodeRow converts a catalogue record into its export row.
func NewProcedureCodeRow(p *ProcedureCode) ProcedureCodeRow {
	row := ProcedureCodeRow{
		Code:           p.Code,
		Description:    p.Description,
		Price:          p.Price.StringFixed(2),
		PriceCents:     p.Price.Shift(2).Round(0).IntPart(),
		ProcedureClass: string(p.ProcedureClass),
		Specialty:      p.Specialty,
		Active:         p.Active,
		UpdatedAtUnix:  p.UpdatedAt.Unix(),
	}
	if p.CreatedBy != nil {
		s := string(*p.CreatedBy)
		row.CreatedBy = &s
	}
	return row
}
