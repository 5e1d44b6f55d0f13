package field

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docsearch/platform"
)

// Integer is a whole-number field stored as a platform number.
type Integer struct {
	base
	minimum int64
	maximum int64
}

// NewInteger declares an integer field. Bounds default to the platform range.
func NewInteger(opts ...Option) *Integer {
	c := newConfig(opts)
	f := &Integer{base: newBase(c), minimum: MinInt, maximum: MaxInt}
	if c.minimum != nil {
		f.minimum = int64(*c.minimum)
	}
	if c.maximum != nil {
		f.maximum = int64(*c.maximum)
	}
	return f
}

func (f *Integer) Kind() platform.FieldType { return platform.FieldNumber }
func (f *Integer) NoneValue() any           { return MinInt }

// Bounds returns the inclusive range accepted by the field.
func (f *Integer) Bounds() (minimum, maximum int64) { return f.minimum, f.maximum }

func (f *Integer) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *Integer) ToSearchValue(v any) (any, error) {
	v, none, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	if none || v == nil {
		return MinInt, nil
	}

	n, err := toInt64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if n == MinInt {
		return MinInt, nil
	}
	if n < f.minimum || n > f.maximum {
		return nil, f.fail(fmt.Errorf("%w: value %d is outwith %d-%d", ErrOutOfRange, n, f.minimum, f.maximum))
	}
	return n, nil
}

func (f *Integer) ToGo(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if n == MinInt {
		return nil, nil
	}
	return n, nil
}

func (f *Integer) PrepValueFromSearch(v any) (any, error) { return v, nil }

func (f *Integer) PrepValueForFilter(v any, _ string) (any, error) {
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(sv.(int64), 10), nil
}

// Float is a floating point field stored as a platform number.
type Float struct {
	base
	minimum float64
	maximum float64
}

// NewFloat declares a float field. Bounds default to the platform range.
func NewFloat(opts ...Option) *Float {
	c := newConfig(opts)
	f := &Float{base: newBase(c), minimum: MinFloat, maximum: MaxFloat}
	if c.minimum != nil {
		f.minimum = *c.minimum
	}
	if c.maximum != nil {
		f.maximum = *c.maximum
	}
	return f
}

func (f *Float) Kind() platform.FieldType { return platform.FieldNumber }
func (f *Float) NoneValue() any           { return MinFloat }

// Bounds returns the inclusive range accepted by the field.
func (f *Float) Bounds() (minimum, maximum float64) { return f.minimum, f.maximum }

func (f *Float) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *Float) ToSearchValue(v any) (any, error) {
	v, none, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	if none || v == nil {
		return MinFloat, nil
	}

	x, err := toFloat64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if x == MinFloat {
		return MinFloat, nil
	}
	if math.IsNaN(x) || x < f.minimum || x > f.maximum {
		return nil, f.fail(fmt.Errorf("%w: value %s is outwith %s-%s",
			ErrOutOfRange, FormatFloat(x), FormatFloat(f.minimum), FormatFloat(f.maximum)))
	}
	return x, nil
}

func (f *Float) ToGo(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	x, err := toFloat64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if x == MinFloat {
		return nil, nil
	}
	return x, nil
}

func (f *Float) PrepValueFromSearch(v any) (any, error) { return v, nil }

func (f *Float) PrepValueForFilter(v any, _ string) (any, error) {
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return nil, err
	}
	return FormatFloat(sv.(float64)), nil
}

// Boolean is stored as the platform number 0 or 1.
type Boolean struct {
	base
}

// NewBoolean declares a boolean field.
func NewBoolean(opts ...Option) *Boolean {
	return &Boolean{base: newBase(newConfig(opts))}
}

func (f *Boolean) Kind() platform.FieldType { return platform.FieldNumber }
func (f *Boolean) NoneValue() any           { return MinInt }

func (f *Boolean) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *Boolean) ToSearchValue(v any) (any, error) {
	v, none, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	if none || v == nil {
		return MinInt, nil
	}

	if b, ok := v.(bool); ok {
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if n == MinInt {
		return MinInt, nil
	}
	if n != 0 {
		return int64(1), nil
	}
	return int64(0), nil
}

func (f *Boolean) ToGo(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return b, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if n == MinInt {
		return nil, nil
	}
	return n != 0, nil
}

func (f *Boolean) PrepValueFromSearch(v any) (any, error) { return f.ToGo(v) }

func (f *Boolean) PrepValueForFilter(v any, _ string) (any, error) {
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(sv.(int64), 10), nil
}

// FormatFloat renders x the way the platform query grammar expects:
// integral values keep a trailing ".0".
func FormatFloat(x float64) string {
	if x != 0 && math.Abs(x) < 1e-4 {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func toInt64(v any) (int64, error) {
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalid, s)
		}
		return n, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrOutOfRange, u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		x := rv.Float()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("%w: %v is not a finite number", ErrInvalid, x)
		}
		return int64(x), nil
	}
	return 0, fmt.Errorf("%w: %T for number", ErrType, v)
}

func toFloat64(v any) (float64, error) {
	if s, ok := v.(string); ok {
		x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalid, s)
		}
		return x, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("%w: %T for number", ErrType, v)
}
