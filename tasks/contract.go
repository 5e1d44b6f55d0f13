package tasks

import (
	"context"

	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/registry"
)

// Deferrer schedules a task to run later, usually on another worker.
type Deferrer interface {
	Defer(ctx context.Context, t Task) error
}

// Source is the system of record the indexed models are loaded from.
type Source interface {
	// Existing returns the subset of ids that still exist for m.
	Existing(ctx context.Context, m registry.Model, ids []string) ([]string, error)
	// IDs returns up to limit ids greater than startID in ascending order.
	IDs(ctx context.Context, m registry.Model, startID string, limit int) ([]string, error)
	// Load returns the instances with ids. Missing ids are skipped.
	Load(ctx context.Context, m registry.Model, ids []string) ([]Instance, error)
}

// Instance is a model instance that can be indexed.
type Instance interface {
	ID() string
	// Value returns a model field, used to compute ranks.
	Value(name string) (any, error)
	// BuildDocument fills a document of s from the instance.
	BuildDocument(s *document.Schema, opts ...document.Option) (*document.Document, error)
}
