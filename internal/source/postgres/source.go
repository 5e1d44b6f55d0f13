// Package postgres reads searchable model instances from PostgreSQL tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/registry"
	"github.com/kailas-cloud/docsearch/tasks"
)

// ErrUnknownModel is returned for models without a configured table.
var ErrUnknownModel = errors.New("no table for model")

var _ tasks.Source = (*Source)(nil)

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

// Source maps each model to a table. Ids are compared as text so that
// their order matches document id order in the index.
type Source struct {
	db       *sql.DB
	tables   map[string]string
	idColumn string
	logger   *zap.Logger
}

// New creates a Source. tables maps "app.model" to a table name.
func New(db *sql.DB, tables map[string]string, idColumn string, logger *zap.Logger) *Source {
	if idColumn == "" {
		idColumn = "id"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{db: db, tables: tables, idColumn: idColumn, logger: logger}
}

func (s *Source) table(m registry.Model) (string, error) {
	t, ok := s.tables[m.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, m)
	}
	return pq.QuoteIdentifier(t), nil
}

func (s *Source) idText() string {
	return pq.QuoteIdentifier(s.idColumn) + "::text"
}

// Existing returns the ids that still have a row.
func (s *Source) Existing(ctx context.Context, m registry.Model, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	table, err := s.table(m)
	if err != nil {
		return nil, err
	}
	id := s.idText()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY($1)", id, table, id)
	return s.queryIDs(ctx, query, pq.Array(ids))
}

// IDs returns up to limit ids after startID in ascending order.
func (s *Source) IDs(ctx context.Context, m registry.Model, startID string, limit int) ([]string, error) {
	table, err := s.table(m)
	if err != nil {
		return nil, err
	}
	id := s.idText()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s > $1 ORDER BY %s LIMIT $2", id, table, id, id)
	return s.queryIDs(ctx, query, startID, limit)
}

func (s *Source) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

// Load returns a Row for each id that exists, in id order.
func (s *Source) Load(ctx context.Context, m registry.Model, ids []string) ([]tasks.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	table, err := s.table(m)
	if err != nil {
		return nil, err
	}
	id := s.idText()
	query := fmt.Sprintf("SELECT %s AS docsearch_id, * FROM %s WHERE %s = ANY($1) ORDER BY %s", id, table, id, id)
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", m, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", m, err)
	}
	var out []tasks.Instance
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", m, err)
		}
		out = append(out, newRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", m, err)
	}
	s.logger.Debug("Loaded rows", zap.Stringer("model", m), zap.Int("requested", len(ids)), zap.Int("found", len(out)))
	return out, nil
}

// Row is one table row. The first column holds the id as text.
type Row struct {
	id     string
	values map[string]any
}

var _ tasks.Instance = Row{}

func newRow(cols []string, vals []any) Row {
	r := Row{values: make(map[string]any, len(cols))}
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if i == 0 {
			r.id, _ = v.(string)
			continue
		}
		r.values[c] = v
	}
	return r
}

// ID returns the row id.
func (r Row) ID() string { return r.id }

// Value returns a column value.
func (r Row) Value(name string) (any, error) {
	v, ok := r.values[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	return v, nil
}

// BuildDocument fills the schema fields that have a column of the same
// name. Other columns are ignored.
func (r Row) BuildDocument(s *document.Schema, opts ...document.Option) (*document.Document, error) {
	values := make(map[string]any)
	for _, f := range s.Fields() {
		if v, ok := r.values[f.Name()]; ok {
			values[f.Name()] = v
		}
	}
	return s.New(values, opts...)
}
