package product

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrCatalogUnavailable is returned for any catalog store failure.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a missing or malformed input field. It is always
// returned before the store is contacted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold for validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UnavailableError wraps a store failure for the operation Op.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrCatalogUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCatalogUnavailable) hold.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}

func unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}
