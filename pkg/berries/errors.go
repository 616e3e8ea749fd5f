package berries

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/berry-stats/pkg/stats"
)

// ErrEmptyDataset is returned when the catalog has no berries.
var ErrEmptyDataset = stats.ErrEmptyDataset

// ErrMissingField matches every *MissingFieldError via errors.Is.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError reports a required field that was absent or invalid in
// an upstream document.
type MissingFieldError struct {
	URL   string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("missing or invalid field %q in %s", e.Field, e.URL)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Unwrap returns the underlying cause, if any.
func (e *MissingFieldError) Unwrap() error {
	return e.Err
}
