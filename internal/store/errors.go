package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates an integrity constraint,
	// such as the unique email index.
	ErrConflict = errors.New("integrity violation")

	// ErrStoreFailure wraps every other persistence fault.
	ErrStoreFailure = errors.New("store failure")
)

// integrityViolationClass is the SQLSTATE class for constraint violations.
const integrityViolationClass = "23"

// classifyError maps a driver error onto ErrConflict or ErrStoreFailure,
// keeping the original error in the chain for logging.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreFailure) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code.Class()) == integrityViolationClass {
		return fmt.Errorf("%w: %s: %w", ErrConflict, pqErr.Constraint, err)
	}
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}
