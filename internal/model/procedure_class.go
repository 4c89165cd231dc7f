package model

// ProcedureClass is the scheduling class of a procedure. Values are the
// tokens persisted in catalog.procedure_codes.procedure_class.
type ProcedureClass string

const (
	ClassElective   ProcedureClass = "ELETIVA"
	ClassUrgent     ProcedureClass = "URGENCIA"
	ClassEmergency  ProcedureClass = "EMERGENCIA"
	ClassOutpatient ProcedureClass = "AMBULATORIAL"
)

// DefaultClass is used whenever an input value is not recognized.
const DefaultClass = ClassElective

// AllClasses lists the supported classes in canonical order.
var AllClasses = []ProcedureClass{
	ClassElective,
	ClassUrgent,
	ClassEmergency,
	ClassOutpatient,
}

// ClassByName returns the class whose token equals name exactly, or ok=false.
func ClassByName(name string) (ProcedureClass, bool) {
	for _, c := range AllClasses {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}
