// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBody        = errors.New("request body is empty")
	ErrMalformedBody    = errors.New("request body must be a JSON object")
	ErrMissingField     = errors.New("missing required parameter")
	ErrInvalidField     = errors.New("invalid parameter")
	ErrUnsupportedValue = errors.New("unsupported value type")
	ErrInternal         = errors.New("error while executing query")
)

// MissingFieldError names the first required key absent from a payload.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField.Error(), e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
