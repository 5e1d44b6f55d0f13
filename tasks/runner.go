// Package tasks runs index maintenance: indexing single instances, purging
// indexes and removing documents whose instance no longer exists. Long
// running work is split into pages; each page defers the next through a
// Deferrer.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docsearch"
	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/indexing"
	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/rank"
	"github.com/kailas-cloud/docsearch/registry"
)

// ErrNoSource is returned by tasks that need a Source when none is set.
var ErrNoSource = errors.New("no source configured")

// Option configures a Runner.
type Option func(*Runner)

// WithToggle sets the toggle consulted before indexing. The default is
// always enabled.
func WithToggle(t *indexing.Toggle) Option {
	return func(r *Runner) { r.toggle = t }
}

// WithSource sets the system of record used for orphan removal and reindex.
func WithSource(s Source) Option {
	return func(r *Runner) { r.source = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithBatchSizes overrides the delete and retrieve batch sizes. Values
// outside (0, DeleteBatchSize] for deletes, or not positive for retrieves,
// keep the defaults.
func WithBatchSizes(deleteSize, retrieveSize int) Option {
	return func(r *Runner) {
		if deleteSize > 0 && deleteSize <= DeleteBatchSize {
			r.deleteSize = deleteSize
		}
		if retrieveSize > 0 {
			r.retrieveSize = retrieveSize
		}
	}
}

// Runner executes tasks against the indexes of registered models.
type Runner struct {
	registry *registry.Registry
	client   platform.Client
	deferrer Deferrer
	toggle   *indexing.Toggle
	source   Source
	logger   *zap.Logger

	deleteSize   int
	retrieveSize int
}

// NewRunner creates a Runner.
func NewRunner(reg *registry.Registry, client platform.Client, deferrer Deferrer, opts ...Option) *Runner {
	r := &Runner{
		registry:     reg,
		client:       client,
		deferrer:     deferrer,
		logger:       zap.NewNop(),
		deleteSize:   DeleteBatchSize,
		retrieveSize: RetrieveBatchSize,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) pageSize(t Task) int {
	if t.BatchSize > 0 {
		return t.BatchSize
	}
	return r.retrieveSize
}

func (r *Runner) index(m registry.Model) (*docsearch.Index, registry.Entry, error) {
	return r.registry.Index(m, r.client, docsearch.WithLogger(r.logger))
}

// IndexInstance puts the document for inst into its model's index. It
// reports false without error when indexing is disabled or m is not
// registered.
func (r *Runner) IndexInstance(ctx context.Context, m registry.Model, inst Instance) (bool, error) {
	if !r.toggle.Enabled() {
		return false, nil
	}
	ix, e, err := r.index(m)
	if errors.Is(err, registry.ErrNotRegistered) {
		r.logger.Info("model isn't registered as searchable", zap.Stringer("model", m))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	opts := []document.Option{document.WithDocID(inst.ID())}
	if e.Rank != "" {
		name, desc := rank.Field(e.Rank)
		v, err := inst.Value(name)
		if err != nil {
			return false, fmt.Errorf("rank of %s %s: %w", m, inst.ID(), err)
		}
		rk, err := rank.Of(v, desc)
		if err != nil {
			return false, fmt.Errorf("rank of %s %s: %w", m, inst.ID(), err)
		}
		opts = append(opts, document.WithRank(rk))
	}

	d, err := inst.BuildDocument(e.Schema, opts...)
	if err != nil {
		return false, fmt.Errorf("build document for %s %s: %w", m, inst.ID(), err)
	}
	if _, err := ix.Put(ctx, d); err != nil {
		return false, err
	}
	r.logger.Debug("indexed", zap.Stringer("model", m), zap.String("id", inst.ID()))
	return true, nil
}

// UnindexInstance deletes the document of the instance id. It reports false
// without error when indexing is disabled or m is not registered.
func (r *Runner) UnindexInstance(ctx context.Context, m registry.Model, id string) (bool, error) {
	if !r.toggle.Enabled() {
		return false, nil
	}
	ix, _, err := r.index(m)
	if errors.Is(err, registry.ErrNotRegistered) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := ix.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// BatchDeleteDocs deletes ids from ix in batches of batchSize, running the
// batches concurrently and waiting for all of them.
func (r *Runner) BatchDeleteDocs(ctx context.Context, ix *docsearch.Index, ids []string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DeleteBatchSize
	}
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += batchSize {
		batch := ids[start:min(start+batchSize, len(ids))]
		r.logger.Info("removing documents", zap.String("index", ix.Name()), zap.Int("batch", len(batch)))
		g.Go(func() error {
			return ix.Delete(gctx, batch...)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.logger.Info("removed documents", zap.String("index", ix.Name()), zap.Int("count", len(ids)))
	return nil
}

// PurgeIndexPage deletes one page of the model's documents. While documents
// remain it defers another purge before deleting.
func (r *Runner) PurgeIndexPage(ctx context.Context, t Task) error {
	m, err := registry.ParseModel(t.Model)
	if err != nil {
		return err
	}
	ix, _, err := r.index(m)
	if err != nil {
		return err
	}
	page, err := ix.GetRange(ctx, docsearch.RangeOptions{Limit: r.pageSize(t), IDsOnly: true})
	if err != nil {
		return err
	}
	if len(page.IDs) == 0 {
		r.logger.Info("purge complete", zap.String("index", ix.Name()))
		return nil
	}

	next := Task{Kind: KindPurgeIndex, Model: t.Model, BatchSize: t.BatchSize}
	if err := r.deferrer.Defer(ctx, next); err != nil {
		return fmt.Errorf("defer purge of %s: %w", ix.Name(), err)
	}
	r.logger.Info("deferred purge of next batch", zap.String("index", ix.Name()))
	return r.BatchDeleteDocs(ctx, ix, page.IDs, r.deleteSize)
}

// PurgeAll defers a purge of every registered model's index.
func (r *Runner) PurgeAll(ctx context.Context) error {
	return r.deferEach(ctx, KindPurgeIndex, r.registry.Models())
}

// RemoveOrphans defers orphan removal for the model app.name, or for every
// registered model when either is empty.
func (r *Runner) RemoveOrphans(ctx context.Context, app, name string) error {
	return r.deferEach(ctx, KindRemoveOrphans, r.match(app, name))
}

// Reindex defers a reindex of the model app.name, or of every registered
// model when either is empty.
func (r *Runner) Reindex(ctx context.Context, app, name string) error {
	return r.deferEach(ctx, KindReindex, r.match(app, name))
}

func (r *Runner) match(app, name string) []registry.Model {
	models := r.registry.Match(app, name)
	if len(models) == 0 {
		r.logger.Warn("no model found", zap.String("app", app), zap.String("model", name))
	}
	return models
}

func (r *Runner) deferEach(ctx context.Context, kind Kind, models []registry.Model) error {
	for _, m := range models {
		if err := r.deferrer.Defer(ctx, Task{Kind: kind, Model: m.String()}); err != nil {
			return fmt.Errorf("defer %s of %s: %w", kind, m, err)
		}
		r.logger.Info("deferred task", zap.String("kind", string(kind)), zap.Stringer("model", m))
	}
	return nil
}

// RemoveOrphansPage deletes the documents of one page whose instance is
// gone from the source. The page starts after t.StartID; the next page is
// deferred before the comparison runs.
func (r *Runner) RemoveOrphansPage(ctx context.Context, t Task) error {
	if r.source == nil {
		return ErrNoSource
	}
	m, err := registry.ParseModel(t.Model)
	if err != nil {
		return err
	}
	ix, _, err := r.index(m)
	if err != nil {
		return err
	}

	page, err := ix.GetRange(ctx, docsearch.RangeOptions{
		StartID: t.StartID,
		Limit:   r.pageSize(t),
		IDsOnly: true,
	})
	if err != nil {
		return err
	}
	if len(page.IDs) == 0 {
		r.logger.Info("finished orphaned document removal", zap.Stringer("model", m))
		return nil
	}

	next := Task{Kind: KindRemoveOrphans, Model: t.Model, StartID: page.IDs[len(page.IDs)-1], BatchSize: t.BatchSize}
	if err := r.deferrer.Defer(ctx, next); err != nil {
		return fmt.Errorf("defer orphan removal of %s: %w", m, err)
	}

	existing, err := r.source.Existing(ctx, m, page.IDs)
	if err != nil {
		return fmt.Errorf("check %s in source: %w", m, err)
	}
	orphans := difference(page.IDs, existing)
	if len(orphans) == 0 {
		return nil
	}
	r.logger.Info("found orphaned documents", zap.Stringer("model", m), zap.Strings("ids", orphans))
	return r.BatchDeleteDocs(ctx, ix, orphans, r.deleteSize)
}

// ReindexPage indexes one page of source instances after t.StartID and
// defers the next page.
func (r *Runner) ReindexPage(ctx context.Context, t Task) error {
	if r.source == nil {
		return ErrNoSource
	}
	m, err := registry.ParseModel(t.Model)
	if err != nil {
		return err
	}
	ids, err := r.source.IDs(ctx, m, t.StartID, r.pageSize(t))
	if err != nil {
		return fmt.Errorf("list %s in source: %w", m, err)
	}
	if len(ids) == 0 {
		r.logger.Info("reindex complete", zap.Stringer("model", m))
		return nil
	}

	next := Task{Kind: KindReindex, Model: t.Model, StartID: ids[len(ids)-1], BatchSize: t.BatchSize}
	if err := r.deferrer.Defer(ctx, next); err != nil {
		return fmt.Errorf("defer reindex of %s: %w", m, err)
	}

	instances, err := r.source.Load(ctx, m, ids)
	if err != nil {
		return fmt.Errorf("load %s from source: %w", m, err)
	}
	indexed := 0
	for _, inst := range instances {
		ok, err := r.IndexInstance(ctx, m, inst)
		if err != nil {
			return err
		}
		if ok {
			indexed++
		}
	}
	r.logger.Info("reindexed page", zap.Stringer("model", m), zap.Int("indexed", indexed))
	return nil
}

// Dispatch runs t with the handler for its kind.
func (r *Runner) Dispatch(ctx context.Context, t Task) error {
	switch t.Kind {
	case KindPurgeIndex:
		return r.PurgeIndexPage(ctx, t)
	case KindRemoveOrphans:
		return r.RemoveOrphansPage(ctx, t)
	case KindReindex:
		return r.ReindexPage(ctx, t)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
}

// difference returns the ids not in exclude, in their original order.
func difference(ids, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
