package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is the sentinel ValidationError unwraps to, so callers
// along the URL-intake path (ValidateURL, feeding pipeline.Driver) can test
// for it with errors.Is without depending on the concrete ValidationError type.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidationFailed) match any ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
