package docsearch

import "errors"

// Index errors.
var (
	ErrInvalidIndexName = errors.New("index names must be non empty and can't start with a '!' or contain spaces")
	ErrSchemaRequired   = errors.New("a document schema is required to build documents from search results")
)

// Window errors. Every bound is checked before the platform is called.
var (
	ErrOffsetNegative  = errors.New("offset cannot be less than 0")
	ErrOffsetTooLarge  = errors.New("offset cannot be larger than the maximum offset")
	ErrNegativeSlice   = errors.New("negative indexing not supported")
	ErrSliceTooLarge   = errors.New("slice is too large, it must be smaller than the maximum limit")
	ErrIndexTooLarge   = errors.New("cannot index higher than the maximum offset")
	ErrNegativeIndex   = errors.New("negative indexing not supported")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Query errors.
var (
	ErrUnknownSnippetField = errors.New("can't snippet a field the schema does not declare")
	ErrIDsOnly             = errors.New("query returns ids only")
	ErrEmptyPage           = errors.New("that page number is less than 1")
)
