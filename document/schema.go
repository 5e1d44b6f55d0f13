// Package document declares typed document schemas and the documents built
// from them.
package document

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/docsearch/field"
)

// Schema errors.
var (
	ErrUnknownField   = errors.New("unknown field")
	ErrDuplicateField = errors.New("duplicate field")
	ErrEmptySchema    = errors.New("schema name is required")
)

// Schema is an ordered, immutable set of bound fields.
type Schema struct {
	name   string
	fields []field.Field
	byName map[string]field.Field
}

// Name returns the schema name used in error messages and as field owner.
func (s *Schema) Name() string { return s.name }

// Fields returns the fields in declaration order, inherited fields first.
func (s *Schema) Fields() []field.Field {
	return append([]field.Field(nil), s.fields...)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (field.Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

type declared struct {
	name string
	f    field.Field
}

// Builder collects field declarations for a Schema.
type Builder struct {
	name  string
	bases []*Schema
	decl  []declared
}

// NewSchema starts a schema called name.
func NewSchema(name string) *Builder {
	return &Builder{name: name}
}

// Field declares a field.
func (b *Builder) Field(name string, f field.Field) *Builder {
	b.decl = append(b.decl, declared{name: name, f: f})
	return b
}

// Extend inherits the fields of bases. When bases declare the same name the
// first listed base wins, and the schema's own fields win over all bases.
func (b *Builder) Extend(bases ...*Schema) *Builder {
	b.bases = append(b.bases, bases...)
	return b
}

// Build binds every declared field to its name and the schema.
func (b *Builder) Build() (*Schema, error) {
	if b.name == "" {
		return nil, ErrEmptySchema
	}

	s := &Schema{name: b.name, byName: map[string]field.Field{}}
	set := func(f field.Field) {
		if _, ok := s.byName[f.Name()]; ok {
			for i, old := range s.fields {
				if old.Name() == f.Name() {
					s.fields[i] = f
				}
			}
		} else {
			s.fields = append(s.fields, f)
		}
		s.byName[f.Name()] = f
	}

	for i := len(b.bases) - 1; i >= 0; i-- {
		for _, f := range b.bases[i].fields {
			set(f)
		}
	}

	own := map[string]bool{}
	for _, d := range b.decl {
		if d.name == "" || d.f == nil {
			return nil, fmt.Errorf("schema %s: field name and type are required", b.name)
		}
		if own[d.name] {
			return nil, fmt.Errorf("schema %s: %w: %s", b.name, ErrDuplicateField, d.name)
		}
		own[d.name] = true
		set(d.f.Bind(d.name, b.name))
	}
	return s, nil
}

// MustBuild is Build that panics on error, for package level schemas.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
