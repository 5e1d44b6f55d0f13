package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/platform/grammar"
)

// defaultLimit is the result window when a request sets none.
const defaultLimit = 20

// Search runs req via FT.SEARCH. Snippets and other returned expressions are
// computed from the returned hash fields.
func (s *Store) Search(ctx context.Context, req platform.SearchRequest) (*platform.SearchResponse, error) {
	node, err := grammar.Parse(req.Query)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: fmt.Errorf("%w: %v", platform.ErrInvalidQuery, err)}
	}

	offset := req.Offset
	if req.Cursor != nil {
		offset, err = platform.DecodeOffsetCursor(req.Cursor.Token)
		if err != nil {
			return nil, &platform.Error{Op: platform.OpSearch, Err: err}
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	types, err := s.fieldTypes(ctx, req.Index)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: err}
	}
	if len(types) == 0 {
		return &platform.SearchResponse{}, nil
	}

	queryStr, err := translator{types: types}.translate(node)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: err}
	}

	args := []string{s.ftIndex(req.Index), queryStr}
	if req.IDsOnly {
		args = append(args, "NOCONTENT")
	}
	args = append(args, s.sortArgs(req.Sorts, types)...)
	args = append(args,
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return &platform.SearchResponse{}, nil
		}
		return nil, &platform.Error{Op: platform.OpSearch, Err: err}
	}

	resp, err := s.parseSearchResult(req, raw, types)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: err}
	}
	if req.Cursor != nil {
		resp.Cursor = platform.NextCursor(offset, len(resp.Results), resp.NumberFound)
	}
	return resp, nil
}

// sortArgs builds SORTBY. Redis Search orders by a single attribute, so only
// the first known sort expression is used.
func (s *Store) sortArgs(sorts []platform.SortExpression, types map[string]platform.FieldType) []string {
	for i, se := range sorts {
		t, ok := types[se.Expression]
		if !ok || t == platform.FieldGeoPoint {
			continue
		}
		if rest := len(sorts) - i - 1; rest > 0 {
			s.logger.Debug("extra sort expressions ignored", zap.Int("count", rest))
		}
		dir := "ASC"
		if se.Descending {
			dir = "DESC"
		}
		return []string{"SORTBY", se.Expression, dir}
	}
	return []string{"SORTBY", rankField, "DESC"}
}

func (s *Store) parseSearchResult(
	req platform.SearchRequest, raw []rueidis.RedisMessage, types map[string]platform.FieldType,
) (*platform.SearchResponse, error) {
	if len(raw) == 0 {
		return &platform.SearchResponse{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	resp := &platform.SearchResponse{NumberFound: int(total)}
	prefix := s.docPrefix(req.Index)

	if req.IDsOnly {
		// 1-stride: [total, key1, key2, ...]
		for _, m := range raw[1:] {
			key, err := m.ToString()
			if err != nil {
				continue
			}
			resp.Results = append(resp.Results, platform.Document{ID: strings.TrimPrefix(key, prefix)})
		}
		return resp, nil
	}

	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		d, err := decodeHash(strings.TrimPrefix(key, prefix), parseFieldPairs(fields), types)
		if err != nil {
			return nil, err
		}
		d.Expressions = platform.Evaluate(d, req.Returned)
		resp.Results = append(resp.Results, d)
	}
	return resp, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query translation ---

// matchNone selects nothing: no document carries the reserved id.
var matchNone = "@" + idField + ":{__none__}"

// translator renders a parsed query in Redis Search syntax using the
// index's field types.
type translator struct {
	types map[string]platform.FieldType
}

func (tr translator) translate(n grammar.Node) (string, error) {
	switch n := n.(type) {
	case grammar.MatchAll:
		return "*", nil
	case grammar.Term:
		return tr.term(n)
	case grammar.Compare:
		return tr.compare(n)
	case grammar.Distance:
		return tr.distance(n)
	case grammar.And:
		return tr.join(n.Nodes, " ")
	case grammar.Or:
		return tr.join(n.Nodes, " | ")
	case grammar.Not:
		inner, err := tr.translate(n.Node)
		if err != nil {
			return "", err
		}
		return "-(" + inner + ")", nil
	}
	return "", fmt.Errorf("%w: unsupported node %T", platform.ErrInvalidQuery, n)
}

func (tr translator) join(nodes []grammar.Node, sep string) (string, error) {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		p, err := tr.translate(n)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (tr translator) term(t grammar.Term) (string, error) {
	text := textValue(t.Value, t.Phrase)
	if t.Field == "" {
		return text, nil
	}

	typ, ok := tr.types[t.Field]
	if !ok {
		return matchNone, nil
	}
	switch typ {
	case platform.FieldAtom:
		return fmt.Sprintf("@%s:{%s}", t.Field, tagEscaper.Replace(t.Value)), nil
	case platform.FieldNumber, platform.FieldDate:
		return tr.compare(grammar.Compare{Field: t.Field, Op: "=", Value: t.Value})
	case platform.FieldGeoPoint:
		return "", fmt.Errorf("%w: geopoint field %s needs a distance comparison", platform.ErrInvalidQuery, t.Field)
	}
	return fmt.Sprintf("@%s:(%s)", t.Field, text), nil
}

func textValue(v string, phrase bool) string {
	words := strings.Fields(v)
	for i, w := range words {
		words[i] = escapeQuery(w)
	}
	if phrase {
		return `"` + strings.Join(words, " ") + `"`
	}
	return strings.Join(words, " ")
}

func (tr translator) compare(c grammar.Compare) (string, error) {
	typ, ok := tr.types[c.Field]
	if !ok {
		return matchNone, nil
	}

	var x string
	switch typ {
	case platform.FieldNumber:
		f, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", platform.ErrInvalidQuery, c.Value)
		}
		x = strconv.FormatFloat(f, 'f', -1, 64)
	case platform.FieldDate:
		d, err := time.Parse("2006-01-02", c.Value)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a date", platform.ErrInvalidQuery, c.Value)
		}
		x = d.Format("20060102")
	default:
		if c.Op == "=" {
			return tr.term(grammar.Term{Field: c.Field, Value: c.Value})
		}
		return "", fmt.Errorf("%w: range comparison on %s field %s", platform.ErrInvalidQuery, typ, c.Field)
	}

	lo, hi := "-inf", "+inf"
	switch c.Op {
	case "<":
		hi = "(" + x
	case "<=":
		hi = x
	case ">":
		lo = "(" + x
	case ">=":
		lo = x
	default:
		lo, hi = x, x
	}
	return fmt.Sprintf("@%s:[%s %s]", c.Field, lo, hi), nil
}

func (tr translator) distance(d grammar.Distance) (string, error) {
	if typ, ok := tr.types[d.Field]; !ok {
		return matchNone, nil
	} else if typ != platform.FieldGeoPoint {
		return "", fmt.Errorf("%w: %s is not a geopoint field", platform.ErrInvalidQuery, d.Field)
	}

	q := fmt.Sprintf("@%s:[%s %s %s m]", d.Field,
		strconv.FormatFloat(d.Lon, 'f', -1, 64),
		strconv.FormatFloat(d.Lat, 'f', -1, 64),
		strconv.FormatFloat(d.Radius, 'f', -1, 64))
	switch d.Op {
	case "<", "<=", "=":
		return q, nil
	}
	return "-(" + q + ")", nil
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
)
