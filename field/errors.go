package field

import (
	"errors"
	"fmt"
)

// Sentinel errors for field conversion.
var (
	ErrNoDefault  = errors.New("field: no default value")
	ErrOutOfRange = errors.New("field: value out of range")
	ErrType       = errors.New("field: unsupported value type")
	ErrInvalid    = errors.New("field: invalid value")
)

// Error is a conversion failure on a named field.
type Error struct {
	Field string
	Owner string
	Err   error
}

func (e *Error) Error() string {
	if errors.Is(e.Err, ErrNoDefault) {
		return fmt.Sprintf(
			"there is no default value for non-nullable field %s on class %s, yet there was no value provided",
			e.Field, e.Owner,
		)
	}
	return fmt.Sprintf("field %s on class %s: %v", e.Field, e.Owner, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
