package docsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/field"
	"github.com/kailas-cloud/docsearch/platform"
)

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithSchema sets the schema used to build documents from platform results.
func WithSchema(s *document.Schema) IndexOption {
	return func(ix *Index) { ix.schema = s }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) IndexOption {
	return func(ix *Index) { ix.logger = l }
}

// Index is a named collection of documents on a platform.
type Index struct {
	name   string
	client platform.Client
	schema *document.Schema
	logger *zap.Logger
}

// NewIndex returns the index called name. Names must be non empty, must not
// start with '!' and must not contain spaces.
func NewIndex(name string, client platform.Client, opts ...IndexOption) (*Index, error) {
	if name == "" || strings.HasPrefix(name, "!") || strings.Contains(name, " ") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIndexName, name)
	}
	ix := &Index{name: name, client: client, logger: zap.NewNop()}
	for _, o := range opts {
		o(ix)
	}
	return ix, nil
}

// Name returns the index name.
func (ix *Index) Name() string { return ix.name }

// Schema returns the index's schema, or nil.
func (ix *Index) Schema() *document.Schema { return ix.schema }

// Put stores docs and returns their ids. Documents without an id are given
// a random one, which is also set on the document.
func (ix *Index) Put(ctx context.Context, docs ...*document.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	raw := make([]platform.Document, len(docs))
	for i, d := range docs {
		if d.DocID() == "" {
			d.SetDocID(uuid.NewString())
		}
		pd, err := toPlatform(d)
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", ix.name, err)
		}
		raw[i] = pd
	}

	ids, err := ix.client.Put(ctx, ix.name, raw)
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", ix.name, err)
	}
	ix.logger.Debug("documents put", zap.String("index", ix.name), zap.Int("count", len(ids)))
	return ids, nil
}

// Delete removes the documents with ids.
func (ix *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ix.client.Delete(ctx, ix.name, ids); err != nil {
		return fmt.Errorf("delete from %s: %w", ix.name, err)
	}
	ix.logger.Debug("documents deleted", zap.String("index", ix.name), zap.Int("count", len(ids)))
	return nil
}

// Get returns the document with id, or nil when there is none.
func (ix *Index) Get(ctx context.Context, id string) (*document.Document, error) {
	if ix.schema == nil {
		return nil, ErrSchemaRequired
	}
	pd, err := ix.client.Get(ctx, ix.name, id)
	if errors.Is(err, platform.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", ix.name, id, err)
	}
	d, err := fromPlatform(ix.schema, *pd)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", ix.name, id, err)
	}
	return d, nil
}

// RangeOptions selects a page of documents in id order.
type RangeOptions struct {
	StartID      string
	IncludeStart bool
	Limit        int
	IDsOnly      bool
}

// Range is a page of documents. In ids-only mode only IDs is set.
type Range struct {
	IDs  []string
	Docs []*document.Document
}

// GetRange lists documents in id order without running a query.
func (ix *Index) GetRange(ctx context.Context, opts RangeOptions) (Range, error) {
	if !opts.IDsOnly && ix.schema == nil {
		return Range{}, ErrSchemaRequired
	}

	raw, err := ix.client.GetRange(ctx, platform.GetRangeRequest{
		Index:        ix.name,
		StartID:      opts.StartID,
		IncludeStart: opts.IncludeStart,
		Limit:        opts.Limit,
		IDsOnly:      opts.IDsOnly,
	})
	if err != nil {
		return Range{}, fmt.Errorf("get range of %s: %w", ix.name, err)
	}

	r := Range{IDs: make([]string, len(raw))}
	for i, pd := range raw {
		r.IDs[i] = pd.ID
	}
	if opts.IDsOnly {
		return r, nil
	}

	r.Docs = make([]*document.Document, len(raw))
	for i, pd := range raw {
		d, err := fromPlatform(ix.schema, pd)
		if err != nil {
			return Range{}, fmt.Errorf("get range of %s: %w", ix.name, err)
		}
		r.Docs[i] = d
	}
	return r, nil
}

// Purge deletes every document, one page of ids at a time.
func (ix *Index) Purge(ctx context.Context) error {
	r, err := ix.GetRange(ctx, RangeOptions{IDsOnly: true})
	if err != nil {
		return err
	}
	total := 0
	for len(r.IDs) > 0 {
		if err := ix.Delete(ctx, r.IDs...); err != nil {
			return err
		}
		total += len(r.IDs)
		r, err = ix.GetRange(ctx, RangeOptions{IDsOnly: true, StartID: r.IDs[len(r.IDs)-1]})
		if err != nil {
			return err
		}
	}
	ix.logger.Info("index purged", zap.String("index", ix.name), zap.Int("deleted", total))
	return nil
}

// SearchOption configures a SearchQuery created by Index.Search.
type SearchOption func(*searchOptions)

type searchOptions struct {
	schema  *document.Schema
	idsOnly bool
}

// ForSchema builds result documents with s instead of the index's schema.
func ForSchema(s *document.Schema) SearchOption {
	return func(o *searchOptions) { o.schema = s }
}

// OnlyIDs makes the query return document ids only.
func OnlyIDs() SearchOption {
	return func(o *searchOptions) { o.idsOnly = true }
}

// Search starts a query on the index.
func (ix *Index) Search(opts ...SearchOption) (*SearchQuery, error) {
	o := searchOptions{schema: ix.schema}
	for _, fn := range opts {
		fn(&o)
	}
	if o.schema == nil {
		return nil, ErrSchemaRequired
	}
	return newSearchQuery(ix.client, ix.name, o.schema, o.idsOnly, ix.logger), nil
}

// toPlatform converts every declared field of d into a typed platform field.
func toPlatform(d *document.Document) (platform.Document, error) {
	fields := d.Schema().Fields()
	pd := platform.Document{ID: d.DocID(), Fields: make([]platform.Field, 0, len(fields))}
	if r, ok := d.Rank(); ok {
		pd.Rank = &r
	}
	for _, f := range fields {
		v, _ := d.Raw(f.Name())
		pf, err := field.ToPlatform(f, v)
		if err != nil {
			return platform.Document{}, fmt.Errorf("document %s: %w", d.DocID(), err)
		}
		pd.Fields = append(pd.Fields, pf)
	}
	return pd, nil
}

// fromPlatform builds a document of schema s from a platform document.
// Fields the schema does not declare are ignored.
func fromPlatform(s *document.Schema, pd platform.Document) (*document.Document, error) {
	values := make(map[string]any, len(pd.Fields))
	for _, pf := range pd.Fields {
		f, ok := s.Field(pf.Name)
		if !ok {
			continue
		}
		v, err := f.PrepValueFromSearch(pf.Value)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", pd.ID, err)
		}
		values[pf.Name] = v
	}

	opts := []document.Option{document.WithDocID(pd.ID)}
	if pd.Rank != nil {
		opts = append(opts, document.WithRank(*pd.Rank))
	}
	d, err := s.New(values, opts...)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", pd.ID, err)
	}
	return d, nil
}
