package chi

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/registry"
)

// TaskScheduler enqueues index maintenance.
type TaskScheduler interface {
	PurgeAll(ctx context.Context) error
	RemoveOrphans(ctx context.Context, app, name string) error
	Reindex(ctx context.Context, app, name string) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// ModelRegistry lists the searchable models.
type ModelRegistry interface {
	Models() []registry.Model
	Get(m registry.Model) (registry.Entry, bool)
}

// IndexingSwitch turns automatic indexing on and off.
type IndexingSwitch interface {
	Enabled() bool
	Enable() (restore func())
	Disable() (restore func())
}
