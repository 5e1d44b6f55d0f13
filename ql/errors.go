package ql

import (
	"errors"
	"fmt"
)

// ErrType is returned when a filter value has the wrong shape for its operator.
var ErrType = errors.New("invalid filter value type")

// LookupError is returned when a filter names a field the schema lacks.
type LookupError struct {
	Field  string
	Schema string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("Prop name %s not in the field list for %s", e.Field, e.Schema)
}

// BadValueError is returned when a field rejects a filter value.
type BadValueError struct {
	Value  any
	Schema string
	Field  string
	Type   string
	Err    error
}

func (e *BadValueError) Error() string {
	return fmt.Sprintf("Value %v invalid for filtering on %s.%s (a %s)", e.Value, e.Schema, e.Field, e.Type)
}

func (e *BadValueError) Unwrap() error {
	return e.Err
}
