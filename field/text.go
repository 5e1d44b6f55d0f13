package field

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kailas-cloud/docsearch/platform"
)

// TextNone is stored by text fields that have no value.
const TextNone = "___NONE___"

// Indexed marks a text value that has already been through a field's
// indexer, so converting it again leaves it unchanged.
type Indexed string

// Indexer splits a text value into the tokens sent to the platform.
type Indexer func(string) []string

// Text is a string field. HTML and Atom fields share its conversion rules and
// differ only in the platform type.
type Text struct {
	base
	kind    platform.FieldType
	indexer Indexer
}

// NewText declares a tokenized text field.
func NewText(opts ...Option) *Text { return newText(platform.FieldText, opts) }

// NewHTML declares a text field holding HTML.
func NewHTML(opts ...Option) *Text { return newText(platform.FieldHTML, opts) }

// NewAtom declares a non-tokenized text field.
func NewAtom(opts ...Option) *Text { return newText(platform.FieldAtom, opts) }

func newText(kind platform.FieldType, opts []Option) *Text {
	c := newConfig(opts)
	return &Text{base: newBase(c), kind: kind, indexer: c.indexer}
}

func (f *Text) Kind() platform.FieldType { return f.kind }
func (f *Text) NoneValue() any           { return TextNone }

// HasIndexer reports whether values are tokenized before indexing.
func (f *Text) HasIndexer() bool { return f.indexer != nil }

func (f *Text) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *Text) ToSearchValue(v any) (any, error) {
	v, none, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	if none || v == nil {
		return TextNone, nil
	}
	if iv, ok := v.(Indexed); ok {
		return iv, nil
	}

	s, err := textOf(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if f.indexer != nil {
		return Indexed(strings.Join(f.indexer(s), " ")), nil
	}
	return s, nil
}

func (f *Text) ToGo(v any) (any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case Indexed:
		if s == TextNone || s == "None" {
			return nil, nil
		}
		return string(s), nil
	case string:
		if s == TextNone || s == "None" {
			return nil, nil
		}
		return s, nil
	}
	return v, nil
}

func (f *Text) PrepValueFromSearch(v any) (any, error) {
	if f.indexer == nil {
		return v, nil
	}
	if s, ok := v.(string); ok {
		return Indexed(s), nil
	}
	return v, nil
}

// PrepValueForFilter never tokenizes: the filter value is treated as
// already indexed.
func (f *Text) PrepValueForFilter(v any, _ string) (any, error) {
	if v != nil {
		s, err := textOf(v)
		if err != nil {
			return nil, f.fail(err)
		}
		v = Indexed(s)
	}
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return nil, err
	}
	return fmt.Sprint(sv), nil
}

func textOf(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case Indexed:
		return string(s), nil
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("%w: %T for text", ErrType, v)
}
