package validation

import (
	"errors"
	"maps"
)

// Message is the summary sent to clients alongside the field errors.
const Message = "The given data was invalid."

var (
	ErrValidation = errors.New("validation: the given data was invalid")
	ErrNoLookup   = errors.New("validation: exists and unique rules need a lookup")
	ErrLookup     = errors.New("validation: lookup failed")
)

// ValidationError carries one message per failed field.
type ValidationError struct {
	Errors map[string]string
}

// NewValidationError builds a ValidationError from a field to message map,
// for failures decided outside a rule chain (wrong credentials, stock checks).
func NewValidationError(errs map[string]string) *ValidationError {
	return &ValidationError{Errors: maps.Clone(errs)}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field returns the message recorded for field.
func (e *ValidationError) Field(name string) (string, bool) {
	msg, ok := e.Errors[name]
	return msg, ok
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
