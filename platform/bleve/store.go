// Package bleve is an embedded platform backed by in-memory bleve indexes.
// It is used by tests and by single process deployments.
package bleve

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/platform"
)

// Compile-time check: Store implements platform.Client.
var _ platform.Client = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store holds one bleve index per platform index name. Indexes are created on
// the first Put and their mapping is derived from the field types seen then.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*index
	logger  *zap.Logger
}

type index struct {
	mu    sync.RWMutex
	bi    bleve.Index
	types map[string]platform.FieldType
	docs  map[string]platform.Document
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{indexes: map[string]*index{}, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close releases every index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, ix := range s.indexes {
		if err := ix.bi.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
	}
	s.indexes = map[string]*index{}
	return firstErr
}

func (s *Store) lookup(name string) *index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexes[name]
}

func (s *Store) getOrCreate(name string, docs []platform.Document) (*index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ix, ok := s.indexes[name]; ok {
		return ix, nil
	}

	types := fieldTypes(docs)
	bi, err := bleve.NewMemOnly(buildMapping(types))
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", name, err)
	}
	ix := &index{bi: bi, types: types, docs: map[string]platform.Document{}}
	s.indexes[name] = ix
	s.logger.Debug("index created", zap.String("index", name), zap.Int("fields", len(types)))
	return ix, nil
}

// Put indexes docs, replacing documents with the same id. Documents without an
// id are given a random one.
func (s *Store) Put(_ context.Context, name string, docs []platform.Document) ([]string, error) {
	if name == "" {
		return nil, &platform.Error{Op: platform.OpPut, Err: platform.ErrInvalidRequest}
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ix, err := s.getOrCreate(name, docs)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpPut, Err: err}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	batch := ix.bi.NewBatch()
	ids := make([]string, len(docs))
	stored := make([]platform.Document, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.Rank == nil {
			r := platform.DefaultRank(time.Now())
			d.Rank = &r
		}
		for _, f := range d.Fields {
			if _, ok := ix.types[f.Name]; !ok {
				ix.types[f.Name] = f.Type
			}
		}
		body, err := toBleveDoc(d)
		if err != nil {
			return nil, &platform.Error{Op: platform.OpPut, Err: fmt.Errorf("document %s: %w", d.ID, err)}
		}
		if err := batch.Index(d.ID, body); err != nil {
			return nil, &platform.Error{Op: platform.OpPut, Err: fmt.Errorf("document %s: %w", d.ID, err)}
		}
		ids[i] = d.ID
		stored[i] = d
	}
	if err := ix.bi.Batch(batch); err != nil {
		return nil, &platform.Error{Op: platform.OpPut, Err: err}
	}
	for _, d := range stored {
		ix.docs[d.ID] = d
	}
	return ids, nil
}

// Delete removes documents by id. Missing ids are ignored.
func (s *Store) Delete(_ context.Context, name string, ids []string) error {
	ix := s.lookup(name)
	if ix == nil || len(ids) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	batch := ix.bi.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := ix.bi.Batch(batch); err != nil {
		return &platform.Error{Op: platform.OpDelete, Err: err}
	}
	for _, id := range ids {
		delete(ix.docs, id)
	}
	return nil
}

// Get returns one document or platform.ErrDocumentNotFound.
func (s *Store) Get(_ context.Context, name, id string) (*platform.Document, error) {
	ix := s.lookup(name)
	if ix == nil {
		return nil, &platform.Error{Op: platform.OpGet, Err: platform.ErrDocumentNotFound}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	d, ok := ix.docs[id]
	if !ok {
		return nil, &platform.Error{Op: platform.OpGet, Err: platform.ErrDocumentNotFound}
	}
	return &d, nil
}

// GetRange lists documents in id order.
func (s *Store) GetRange(_ context.Context, req platform.GetRangeRequest) ([]platform.Document, error) {
	ix := s.lookup(req.Index)
	if ix == nil {
		return nil, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = platform.DefaultRangeLimit
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make([]string, 0, len(ix.docs))
	for id := range ix.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if req.StartID != "" {
		start = sort.SearchStrings(ids, req.StartID)
		if !req.IncludeStart && start < len(ids) && ids[start] == req.StartID {
			start++
		}
	}

	var out []platform.Document
	for _, id := range ids[start:] {
		if len(out) == limit {
			break
		}
		if req.IDsOnly {
			out = append(out, platform.Document{ID: id})
			continue
		}
		out = append(out, ix.docs[id])
	}
	return out, nil
}
