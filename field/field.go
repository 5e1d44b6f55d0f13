// Package field converts application values to and from the representation a
// search platform accepts. Each Field knows its platform type, the sentinel it
// stores for "no value", and how to render a value inside a filter comparison.
package field

import (
	"fmt"

	"github.com/kailas-cloud/docsearch/platform"
)

// Platform numeric bounds. Numbers outside this range are rejected.
const (
	MaxInt   int64   = 2147483647 // 2^31 - 1
	MinInt   int64   = -MaxInt
	MaxFloat float64 = float64(MaxInt)
	MinFloat float64 = -MaxFloat
)

type notSet struct{}

// NotSet is the default of a field declared without one.
var NotSet any = notSet{}

// Field is a typed converter between Go values and platform values.
//
// Fields are immutable once declared. A schema binds each field to its name
// and owner with Bind, which returns a bound copy.
type Field interface {
	Name() string
	Owner() string
	Kind() platform.FieldType
	Nullable() bool
	// Default returns the configured default and whether one was set.
	Default() (any, bool)
	// NoneValue is the in-range sentinel stored when the field has no value.
	NoneValue() any
	// ToSearchValue validates and converts v to its search representation.
	ToSearchValue(v any) (any, error)
	// ToGo converts a search representation back to a Go value. The
	// NoneValue sentinel converts to nil.
	ToGo(v any) (any, error)
	// PrepValueFromSearch adapts a raw value returned by the platform before
	// it is assigned to a document.
	PrepValueFromSearch(v any) (any, error)
	// PrepValueForFilter converts v for use in a filter comparison with op.
	PrepValueForFilter(v any, op string) (any, error)
	Bind(name, owner string) Field
}

// Option configures a field at declaration.
type Option func(*config)

type config struct {
	def      any
	nullable bool
	indexer  Indexer
	minimum  *float64
	maximum  *float64
}

func newConfig(opts []Option) config {
	c := config{def: NotSet, nullable: true}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithDefault sets the value used for nil on a non-nullable field.
func WithDefault(v any) Option {
	return func(c *config) { c.def = v }
}

// NotNull rejects nil values unless a default is configured.
func NotNull() Option {
	return func(c *config) { c.nullable = false }
}

// WithIndexer tokenizes text values before they are sent to the platform.
func WithIndexer(fn Indexer) Option {
	return func(c *config) { c.indexer = fn }
}

// WithMinimum sets the inclusive lower bound of a numeric field.
func WithMinimum(v float64) Option {
	return func(c *config) { c.minimum = &v }
}

// WithMaximum sets the inclusive upper bound of a numeric field.
func WithMaximum(v float64) Option {
	return func(c *config) { c.maximum = &v }
}

// base carries the state shared by every field type.
type base struct {
	name     string
	owner    string
	def      any
	nullable bool
}

func newBase(c config) base {
	return base{def: c.def, nullable: c.nullable}
}

func (b *base) Name() string   { return b.name }
func (b *base) Owner() string  { return b.owner }
func (b *base) Nullable() bool { return b.nullable }

func (b *base) Default() (any, bool) {
	if b.def == NotSet {
		return nil, false
	}
	return b.def, true
}

// resolve applies the nil rules: nullable fields store their none value,
// others fall back to the default or fail.
func (b *base) resolve(v any) (value any, none bool, err error) {
	if v != nil {
		return v, false, nil
	}
	if b.nullable {
		return nil, true, nil
	}
	if b.def == NotSet {
		return nil, false, b.fail(ErrNoDefault)
	}
	if b.def == nil {
		return nil, true, nil
	}
	return b.def, false, nil
}

func (b *base) fail(err error) error {
	return &Error{Field: b.name, Owner: b.owner, Err: err}
}

// TypeName is the descriptive type name of f used in error messages.
func TypeName(f Field) string {
	return fmt.Sprintf("%T", f)
}
