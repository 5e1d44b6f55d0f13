package redis

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/platform"
)

// Reserved hash fields written next to the document fields.
const (
	idField   = "__id"
	rankField = "__rank"
)

// atomSeparator splits TAG values. Atoms are whole values, so it is a
// control character that never appears in them.
const atomSeparator = "\x1f"

// fieldTypes returns the field types recorded for index. Results are cached
// once the index has any fields.
func (s *Store) fieldTypes(ctx context.Context, index string) (map[string]platform.FieldType, error) {
	s.mu.RLock()
	types, ok := s.types[index]
	s.mu.RUnlock()
	if ok {
		return types, nil
	}

	cmd := s.b().Hgetall().Key(s.metaKey(index)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, err
	}

	types = make(map[string]platform.FieldType, len(m))
	for name, t := range m {
		types[name] = platform.FieldType(t)
	}
	if len(types) > 0 {
		s.cacheTypes(index, types)
	}
	return types, nil
}

func (s *Store) cacheTypes(index string, types map[string]platform.FieldType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := make(map[string]platform.FieldType, len(types))
	for k, v := range s.types[index] {
		merged[k] = v
	}
	for k, v := range types {
		merged[k] = v
	}
	s.types[index] = merged
}

// ensureIndex creates the FT index on first use and adds attributes for
// fields it has not seen before.
func (s *Store) ensureIndex(ctx context.Context, index string, docs []platform.Document) error {
	known, err := s.fieldTypes(ctx, index)
	if err != nil {
		return err
	}

	var added []platform.Field
	seen := map[string]bool{}
	for _, d := range docs {
		for _, f := range d.Fields {
			if _, ok := known[f.Name]; ok || seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			added = append(added, platform.Field{Name: f.Name, Type: f.Type})
		}
	}
	if len(added) == 0 {
		return nil
	}

	if len(known) == 0 {
		err = s.createIndex(ctx, index, added)
	} else {
		err = s.alterIndex(ctx, index, added)
	}
	if err != nil {
		return err
	}

	meta := s.b().Hset().Key(s.metaKey(index)).FieldValue()
	types := make(map[string]platform.FieldType, len(added))
	for _, f := range added {
		meta = meta.FieldValue(f.Name, string(f.Type))
		types[f.Name] = f.Type
	}
	if err := s.do(ctx, meta.Build()).Error(); err != nil {
		return fmt.Errorf("record field types: %w", err)
	}
	s.cacheTypes(index, types)
	return nil
}

func (s *Store) createIndex(ctx context.Context, index string, fields []platform.Field) error {
	cmd := s.b().Arbitrary("FT.CREATE").Args(buildCreateArgs(s.ftIndex(index), s.docPrefix(index), fields)...).Build()
	err := s.do(ctx, cmd).Error()
	if err == nil {
		s.logger.Info("search index created", zap.String("index", index), zap.Int("fields", len(fields)))
		return nil
	}
	if isRedisErr(err, "index already exists") {
		return s.alterIndex(ctx, index, fields)
	}
	return fmt.Errorf("create index %s: %w", index, err)
}

func (s *Store) alterIndex(ctx context.Context, index string, fields []platform.Field) error {
	args := []string{s.ftIndex(index), "SCHEMA", "ADD"}
	for _, f := range fields {
		args = append(args, buildFieldArgs(f)...)
	}
	cmd := s.b().Arbitrary("FT.ALTER").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil && !isRedisErr(err, "duplicate") {
		return fmt.Errorf("alter index %s: %w", index, err)
	}
	return nil
}

func buildCreateArgs(name, prefix string, fields []platform.Field) []string {
	args := []string{
		name, "ON", "HASH",
		"PREFIX", strconv.Itoa(1), prefix,
		"SCHEMA",
		idField, "TAG", "CASESENSITIVE",
		rankField, "NUMERIC", "SORTABLE",
	}
	for _, f := range fields {
		args = append(args, buildFieldArgs(f)...)
	}
	return args
}

func buildFieldArgs(f platform.Field) []string {
	switch f.Type {
	case platform.FieldAtom:
		return []string{f.Name, "TAG", "SEPARATOR", atomSeparator, "CASESENSITIVE", "SORTABLE"}
	case platform.FieldNumber, platform.FieldDate:
		return []string{f.Name, "NUMERIC", "SORTABLE"}
	case platform.FieldGeoPoint:
		return []string{f.Name, "GEO"}
	}
	return []string{f.Name, "TEXT", "SORTABLE"}
}
