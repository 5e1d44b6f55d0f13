package document

import "fmt"

// Option configures a new Document.
type Option func(*Document)

// WithDocID sets the platform document id. An empty id lets the index assign
// one.
func WithDocID(id string) Option {
	return func(d *Document) { d.docID = id }
}

// WithRank sets the ordering rank used when no sort is requested.
func WithRank(rank int64) Option {
	return func(d *Document) { d.rank = &rank }
}

// Document is an instance of a Schema. Values are held in their search
// representation and converted back on read.
type Document struct {
	schema   *Schema
	values   map[string]any
	docID    string
	rank     *int64
	snippets map[string]string
	merged   map[string]any
}

// New builds a document from values keyed by field name. Missing fields are
// nil. No value is stored unless every field converts.
func (s *Schema) New(values map[string]any, opts ...Option) (*Document, error) {
	for name := range values {
		if !s.Has(name) {
			return nil, fmt.Errorf("%s: %w: %s", s.name, ErrUnknownField, name)
		}
	}

	converted := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		sv, err := f.ToSearchValue(values[f.Name()])
		if err != nil {
			return nil, err
		}
		converted[f.Name()] = sv
	}

	d := &Document{schema: s, values: converted}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Schema returns the document's schema.
func (d *Document) Schema() *Schema { return d.schema }

// DocID returns the document id, or "" when the platform assigns one.
func (d *Document) DocID() string { return d.docID }

// SetDocID sets the document id.
func (d *Document) SetDocID(id string) { d.docID = id }

// Rank returns the rank and whether one was set.
func (d *Document) Rank() (int64, bool) {
	if d.rank == nil {
		return 0, false
	}
	return *d.rank, true
}

// Set converts v and stores it as the value of name.
func (d *Document) Set(name string, v any) error {
	f, ok := d.schema.Field(name)
	if !ok {
		return fmt.Errorf("%s: %w: %s", d.schema.name, ErrUnknownField, name)
	}
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return err
	}
	d.values[name] = sv
	d.merged = nil
	return nil
}

// Get returns the Go value of name.
func (d *Document) Get(name string) (any, error) {
	f, ok := d.schema.Field(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", d.schema.name, ErrUnknownField, name)
	}
	return f.ToGo(d.values[name])
}

// Raw returns the stored search value of name.
func (d *Document) Raw(name string) (any, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Snippets returns the highlighted excerpts set by a search, keyed by field.
func (d *Document) Snippets() map[string]string {
	out := make(map[string]string, len(d.snippets))
	for k, v := range d.snippets {
		out[k] = v
	}
	return out
}

// SetSnippets records the excerpts returned for this document.
func (d *Document) SetSnippets(snippets map[string]string) {
	d.snippets = snippets
	d.merged = nil
}

// SnippetOrValue maps every field to its snippet when there is one and to its
// value otherwise. The result is computed once.
func (d *Document) SnippetOrValue() map[string]any {
	if d.merged != nil {
		return d.merged
	}
	out := make(map[string]any, len(d.schema.fields))
	for _, f := range d.schema.fields {
		if s := d.snippets[f.Name()]; s != "" {
			out[f.Name()] = s
			continue
		}
		v, err := f.ToGo(d.values[f.Name()])
		if err != nil {
			v = nil
		}
		out[f.Name()] = v
	}
	d.merged = out
	return out
}
