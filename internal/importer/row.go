package importer

import (
	"strings"
	"unicode/utf8"

	"github.com/amecontrol/sigtapload/internal/csvread"
	"github.com/amecontrol/sigtapload/internal/model"
	"github.com/amecontrol/sigtapload/internal/normalize"
)

// outcome is what happened to one data row.
type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeCreated:
		return "created"
	case outcomeUpdated:
		return "updated"
	case outcomeSkipped:
		return "skipped"
	case outcomeFailed:
		return "failed"
	}
	return "unknown"
}

type rowResult struct {
	outcome outcome
	reason  string
}

func failed(reason string) rowResult {
	return rowResult{outcome: outcomeFailed, reason: reason}
}

// parseRow extracts and validates the import fields of rec. A non-empty
// reason means the row cannot be applied.
func parseRow(rec csvread.Record, cols *csvread.ColumnMap) (model.ProcedureFields, string) {
	if rec.Err != nil {
		return model.ProcedureFields{}, model.ReasonMalformedRow
	}

	var raw [5]string
	for i, f := range csvread.AllFields {
		v, ok := rec.Value(cols, f)
		if !ok {
			return model.ProcedureFields{}, model.ReasonShortRow
		}
		if !validText(v) {
			return model.ProcedureFields{}, model.ReasonInvalidText
		}
		raw[i] = strings.TrimSpace(v)
	}
	code, desc, priceText, classText, specialty := raw[0], raw[1], raw[2], raw[3], raw[4]

	code = normalize.NormalizeCode(code)
	if code == "" {
		return model.ProcedureFields{}, model.ReasonMissingCode
	}
	if desc == "" {
		return model.ProcedureFields{}, model.ReasonMissingDescription
	}

	price, err := normalize.ParsePrice(priceText)
	if err != nil {
		return model.ProcedureFields{}, model.ReasonInvalidPrice
	}

	return model.ProcedureFields{
		Code:           code,
		Description:    desc,
		Price:          price,
		ProcedureClass: normalize.NormalizeClass(classText),
		Specialty:      specialty,
	}, ""
}

// validText reports whether s can be stored as Postgres text: valid UTF-8
// with no NUL bytes.
func validText(s string) bool {
	return utf8.ValidString(s) && strings.IndexByte(s, 0) < 0
}
