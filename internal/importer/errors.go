package importer

import (
	"errors"
	"fmt"

	"github.com/amecontrol/sigtapload/internal/catalog"
	"github.com/amecontrol/sigtapload/internal/csvread"
)

// Phases reported in ImportError.
const (
	PhaseRead    = "read"
	PhaseColumns = "columns"
	PhaseStore   = "store"
)

var (
	// ErrRequiredColumns means the header has no code or description column.
	ErrRequiredColumns = csvread.ErrRequiredColumns

	// ErrStorage wraps every failure that aborted the import transaction.
	ErrStorage = errors.New("storage failure")

	// ErrConflict means another writer created a code during the import.
	ErrConflict = catalog.ErrConflict
)

// ImportError wraps an error with the phase where it occurred.
type ImportError struct {
	Phase string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

func storeError(err error) *ImportError {
	if errors.Is(err, ErrStorage) {
		return &ImportError{Phase: PhaseStore, Err: err}
	}
	return &ImportError{Phase: PhaseStore, Err: fmt.Errorf("%w: %w", ErrStorage, err)}
}
