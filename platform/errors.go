package platform

import "errors"

// Sentinel errors for platform operations.
var (
	ErrDocumentNotFound = errors.New("platform: document not found")
	ErrInvalidQuery     = errors.New("platform: invalid query")
	ErrInvalidRequest   = errors.New("platform: invalid request")
)

// Op constants name the platform call for error context.
const (
	OpPut      = "put"
	OpDelete   = "delete"
	OpGet      = "get"
	OpGetRange = "get_range"
	OpSearch   = "search"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
