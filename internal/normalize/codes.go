package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/amecontrol/sigtapload/internal/model"
)

// classAliases folds accented and unaccented spellings onto one class.
var classAliases = map[string]model.ProcedureClass{
	"ELETIVA":      model.ClassElective,
	"URGENCIA":     model.ClassUrgent,
	"URGÊNCIA":     model.ClassUrgent,
	"EMERGENCIA":   model.ClassEmergency,
	"EMERGÊNCIA":   model.ClassEmergency,
	"AMBULATORIAL": model.ClassOutpatient,
}

// NormalizeClass maps free-text class input onto a ProcedureClass.
// Unrecognized or blank input yields model.DefaultClass, never an error.
func NormalizeClass(s string) model.ProcedureClass {
	if c, ok := classAliases[strings.ToUpper(norm.NFC.String(strings.TrimSpace(s)))]; ok {
		return c
	}
	return model.DefaultClass
}

// NormalizeCode trims surrounding whitespace. Codes are otherwise kept
// verbatim: leading zeros are significant.
func NormalizeCode(s string) string {
	return strings.TrimSpace(s)
}
