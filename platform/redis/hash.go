package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docsearch/platform"
)

// Put stores docs as hashes, replacing any previous version, and records
// their ids. Documents without an id are given a random one.
func (s *Store) Put(ctx context.Context, index string, docs []platform.Document) ([]string, error) {
	if index == "" {
		return nil, &platform.Error{Op: platform.OpPut, Err: platform.ErrInvalidRequest}
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if err := s.ensureIndex(ctx, index, docs); err != nil {
		return nil, &platform.Error{Op: platform.OpPut, Err: err}
	}

	now := time.Now()
	ids := make([]string, len(docs))
	cmds := make([]rueidis.Completed, 0, 3*len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		rank := platform.DefaultRank(now)
		if d.Rank != nil {
			rank = *d.Rank
		}

		key := s.docKey(index, id)
		hs := s.b().Hset().Key(key).FieldValue().
			FieldValue(idField, id).
			FieldValue(rankField, strconv.FormatInt(rank, 10))
		for _, f := range d.Fields {
			v, err := encodeValue(f)
			if err != nil {
				return nil, &platform.Error{Op: platform.OpPut, Err: fmt.Errorf("document %s: %w", id, err)}
			}
			hs = hs.FieldValue(f.Name, v)
		}

		ids[i] = id
		cmds = append(cmds,
			s.b().Del().Key(key).Build(),
			hs.Build(),
			s.b().Arbitrary("ZADD").Keys(s.idsKey(index)).Args("0", id).Build(),
		)
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return nil, &platform.Error{Op: platform.OpPut, Err: fmt.Errorf("document %s: %w", ids[i/3], err)}
		}
	}
	return ids, nil
}

// Delete removes documents by id. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, index string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, 2*len(ids))
	for _, id := range ids {
		cmds = append(cmds,
			s.b().Del().Key(s.docKey(index, id)).Build(),
			s.b().Arbitrary("ZREM").Keys(s.idsKey(index)).Args(id).Build(),
		)
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &platform.Error{Op: platform.OpDelete, Err: fmt.Errorf("document %s: %w", ids[i/2], err)}
		}
	}
	return nil
}

// Get returns one document or platform.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, index, id string) (*platform.Document, error) {
	cmd := s.b().Hgetall().Key(s.docKey(index, id)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &platform.Error{Op: platform.OpGet, Err: err}
	}
	if len(m) == 0 {
		return nil, &platform.Error{Op: platform.OpGet, Err: platform.ErrDocumentNotFound}
	}

	types, err := s.fieldTypes(ctx, index)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpGet, Err: err}
	}
	d, err := decodeHash(id, m, types)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpGet, Err: err}
	}
	return &d, nil
}

// GetRange lists documents in id order using the index's id set.
func (s *Store) GetRange(ctx context.Context, req platform.GetRangeRequest) ([]platform.Document, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = platform.DefaultRangeLimit
	}

	lo := "-"
	if req.StartID != "" {
		if req.IncludeStart {
			lo = "[" + req.StartID
		} else {
			lo = "(" + req.StartID
		}
	}

	cmd := s.b().Arbitrary("ZRANGE").Keys(s.idsKey(req.Index)).
		Args(lo, "+", "BYLEX", "LIMIT", "0", strconv.Itoa(limit)).Build()
	ids, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &platform.Error{Op: platform.OpGetRange, Err: err}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if req.IDsOnly {
		out := make([]platform.Document, len(ids))
		for i, id := range ids {
			out[i] = platform.Document{ID: id}
		}
		return out, nil
	}

	types, err := s.fieldTypes(ctx, req.Index)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpGetRange, Err: err}
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = s.b().Hgetall().Key(s.docKey(req.Index, id)).Build()
	}

	out := make([]platform.Document, 0, len(ids))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &platform.Error{Op: platform.OpGetRange, Err: fmt.Errorf("document %s: %w", ids[i], err)}
		}
		if len(m) == 0 {
			continue
		}
		d, err := decodeHash(ids[i], m, types)
		if err != nil {
			return nil, &platform.Error{Op: platform.OpGetRange, Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

func encodeValue(f platform.Field) (string, error) {
	switch f.Type {
	case platform.FieldNumber:
		switch v := f.Value.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		}
		return "", fmt.Errorf("field %s: %T is not a number", f.Name, f.Value)
	case platform.FieldDate:
		t, ok := f.Value.(time.Time)
		if !ok {
			return "", fmt.Errorf("field %s: %T is not a date", f.Name, f.Value)
		}
		return t.Format("20060102"), nil
	case platform.FieldGeoPoint:
		p, ok := f.Value.(platform.GeoPoint)
		if !ok {
			return "", fmt.Errorf("field %s: %T is not a geopoint", f.Name, f.Value)
		}
		return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64), nil
	}
	if v, ok := f.Value.(string); ok {
		return v, nil
	}
	return fmt.Sprint(f.Value), nil
}

func decodeValue(t platform.FieldType, raw string) (any, error) {
	switch t {
	case platform.FieldNumber:
		return strconv.ParseFloat(raw, 64)
	case platform.FieldDate:
		d, err := time.Parse("20060102", raw)
		if err != nil {
			return nil, err
		}
		return platform.DateOf(d), nil
	case platform.FieldGeoPoint:
		lonStr, latStr, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, fmt.Errorf("bad geopoint %q", raw)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, err
		}
		return platform.GeoPoint{Lat: lat, Lon: lon}, nil
	}
	return raw, nil
}

// decodeHash rebuilds a document from its hash. Fields come back sorted by
// name since hashes are unordered.
func decodeHash(id string, m map[string]string, types map[string]platform.FieldType) (platform.Document, error) {
	d := platform.Document{ID: id}
	if v, ok := m[idField]; ok {
		d.ID = v
	}
	if v, ok := m[rankField]; ok {
		r, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return d, fmt.Errorf("document %s: rank: %w", id, err)
		}
		d.Rank = &r
	}

	names := make([]string, 0, len(m))
	for name := range m {
		if name != idField && name != rankField {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		t, ok := types[name]
		if !ok {
			t = platform.FieldText
		}
		v, err := decodeValue(t, m[name])
		if err != nil {
			return d, fmt.Errorf("document %s: field %s: %w", id, name, err)
		}
		d.Fields = append(d.Fields, platform.Field{Name: name, Type: t, Value: v})
	}
	return d, nil
}
