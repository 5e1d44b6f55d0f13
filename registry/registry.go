// Package registry maps application models to the index and schema their
// instances are indexed with.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/docsearch"
	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/platform"
)

// ErrNotRegistered is returned for models without an entry.
var ErrNotRegistered = errors.New("model is not registered")

// Model names an application model by app label and model name. Both are
// compared lower case.
type Model struct {
	App  string
	Name string
}

// NewModel returns the model app.name.
func NewModel(app, name string) Model {
	return Model{App: strings.ToLower(app), Name: strings.ToLower(name)}
}

// ParseModel parses "app.model".
func ParseModel(s string) (Model, error) {
	app, name, ok := strings.Cut(s, ".")
	if !ok || app == "" || name == "" {
		return Model{}, fmt.Errorf("invalid model %q: want app.model", s)
	}
	return NewModel(app, name), nil
}

func (m Model) String() string { return m.App + "." + m.Name }

// Entry is what a model is registered with. Rank is a field spec such as
// "-created"; empty means documents carry the platform's default rank.
type Entry struct {
	IndexName string
	Schema    *document.Schema
	Rank      string
}

// RegisterError reports a model registered to two schemas.
type RegisterError struct {
	Model    Model
	Schema   string
	Existing string
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("cannot register %s for model %s already registered to %s", e.Schema, e.Model, e.Existing)
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[Model]Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[Model]Entry)}
}

// Register records e for m. An empty IndexName becomes DefaultIndexName(m).
// Registering the same schema again keeps the first entry.
func (r *Registry) Register(m Model, e Entry) error {
	if e.Schema == nil {
		return fmt.Errorf("register %s: %w", m, docsearch.ErrSchemaRequired)
	}
	m = NewModel(m.App, m.Name)
	if e.IndexName == "" {
		e.IndexName = DefaultIndexName(m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[m]; ok {
		if existing.Schema != e.Schema {
			return &RegisterError{Model: m, Schema: e.Schema.Name(), Existing: existing.Schema.Name()}
		}
		return nil
	}
	r.entries[m] = e
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(m Model, e Entry) {
	if err := r.Register(m, e); err != nil {
		panic(err)
	}
}

// Get returns the entry of m.
func (r *Registry) Get(m Model) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[NewModel(m.App, m.Name)]
	return e, ok
}

// Models returns every registered model, sorted.
func (r *Registry) Models() []Model {
	r.mu.RLock()
	out := make([]Model, 0, len(r.entries))
	for m := range r.entries {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Match returns the registered model app.name, or every registered model
// when either part is empty.
func (r *Registry) Match(app, name string) []Model {
	if app == "" || name == "" {
		return r.Models()
	}
	m := NewModel(app, name)
	if _, ok := r.Get(m); !ok {
		return nil
	}
	return []Model{m}
}

// Index returns the index registered for m.
func (r *Registry) Index(m Model, client platform.Client, opts ...docsearch.IndexOption) (*docsearch.Index, Entry, error) {
	e, ok := r.Get(m)
	if !ok {
		return nil, Entry{}, fmt.Errorf("%w: %s", ErrNotRegistered, m)
	}
	opts = append([]docsearch.IndexOption{docsearch.WithSchema(e.Schema)}, opts...)
	ix, err := docsearch.NewIndex(e.IndexName, client, opts...)
	if err != nil {
		return nil, Entry{}, err
	}
	return ix, e, nil
}

// SearchQuery starts a query on the index and schema registered for m.
func (r *Registry) SearchQuery(m Model, client platform.Client, idsOnly bool, opts ...docsearch.IndexOption) (*docsearch.SearchQuery, error) {
	ix, _, err := r.Index(m, client, opts...)
	if err != nil {
		return nil, err
	}
	var so []docsearch.SearchOption
	if idsOnly {
		so = append(so, docsearch.OnlyIDs())
	}
	return ix.Search(so...)
}

// DefaultIndexName is the index a model is registered to when none is given.
func DefaultIndexName(m Model) string {
	return m.App + "_" + m.Name
}

// UID identifies the combination of an index, a model and a schema, for use
// as a subscription key.
func UID(index string, m Model, schema string) string {
	return index + "." + m.Name + "." + schema
}
