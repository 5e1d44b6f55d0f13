package docsearch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/field"
	"github.com/kailas-cloud/docsearch/indexer"
	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/ql"
)

// Window bounds and the accuracy requested for result counts.
const (
	MaxLimit            = 1000
	MaxOffset           = 1000
	NumberFoundAccuracy = 100
)

// SearchQuery is a lazily executed search on one index.
//
// Every refinement returns a new unexecuted query; the receiver is left
// unchanged. Once executed, a query keeps its response and the documents
// built from it. A SearchQuery is not safe for concurrent use.
type SearchQuery struct {
	client  platform.Client
	index   string
	schema  *document.Schema
	idsOnly bool
	logger  *zap.Logger

	query       *ql.Query
	raw         *string
	cursor      *platform.Cursor
	sorts       []platform.SortExpression
	scorer      string
	snippeted   []string
	expressions []platform.FieldExpression

	offset       int
	limit        int
	hasSetLimits bool

	executed    bool
	response    []platform.Document
	numberFound int
	nextCursor  *platform.Cursor
	cache       []Result
}

// Result is one hit: the document id and, unless the query is ids-only, the
// document built from the hit.
type Result struct {
	ID  string
	Doc *document.Document
}

func newSearchQuery(c platform.Client, index string, s *document.Schema, idsOnly bool, l *zap.Logger) *SearchQuery {
	if l == nil {
		l = zap.NewNop()
	}
	return &SearchQuery{
		client:  c,
		index:   index,
		schema:  s,
		idsOnly: idsOnly,
		logger:  l,
		query:   ql.NewQuery(s),
		limit:   MaxLimit,
	}
}

// clone copies the query definition and window. Execution state is not
// copied.
func (sq *SearchQuery) clone() *SearchQuery {
	return &SearchQuery{
		client:       sq.client,
		index:        sq.index,
		schema:       sq.schema,
		idsOnly:      sq.idsOnly,
		logger:       sq.logger,
		query:        sq.query.Clone(),
		raw:          sq.raw,
		cursor:       sq.cursor,
		sorts:        append([]platform.SortExpression(nil), sq.sorts...),
		scorer:       sq.scorer,
		snippeted:    append([]string(nil), sq.snippeted...),
		expressions:  append([]platform.FieldExpression(nil), sq.expressions...),
		offset:       sq.offset,
		limit:        sq.limit,
		hasSetLimits: sq.hasSetLimits,
		nextCursor:   sq.nextCursor,
	}
}

// setLimits sets the window to [low, high). A missing or zero high is
// MaxLimit past low.
func (sq *SearchQuery) setLimits(low, high *int) {
	lo := 0
	if low != nil {
		lo = *low
	}
	hi := MaxLimit + lo
	if high != nil && *high != 0 {
		hi = *high
	}
	sq.offset = lo
	sq.limit = hi - lo
	sq.hasSetLimits = true
}

// Window returns the offset and limit the query will run with.
func (sq *SearchQuery) Window() (offset, limit int) {
	return sq.offset, sq.limit
}

// IsIDsOnly reports whether the query returns ids only.
func (sq *SearchQuery) IsIDsOnly() bool { return sq.idsOnly }

// Schema returns the schema result documents are built with.
func (sq *SearchQuery) Schema() *document.Schema { return sq.schema }

// Filter adds filters, joined to the existing ones with AND.
func (sq *SearchQuery) Filter(qs ...ql.Q) *SearchQuery {
	c := sq.clone()
	for _, q := range qs {
		c.query.AddQ(q)
	}
	return c
}

// Where adds a single comparison. See ql.F for lookups.
func (sq *SearchQuery) Where(lookup string, value any) *SearchQuery {
	return sq.Filter(ql.F(lookup, value))
}

// Keywords adds free text terms. A value starting with punctuation is
// quoted.
func (sq *SearchQuery) Keywords(keywords string) *SearchQuery {
	c := sq.clone()
	c.query.AddKeywords(QuoteIfSpecialCharacters(keywords))
	return c
}

// Raw replaces the compiled keywords and filters with query. Sorts,
// snippets and the window are kept.
func (sq *SearchQuery) Raw(query string) *SearchQuery {
	c := sq.clone()
	c.raw = &query
	return c
}

// OrderBy sorts by schema fields, descending when the name starts with '-'.
// Unknown names are skipped. Documents without a value sort as the field's
// default, or its none value when it has no default.
func (sq *SearchQuery) OrderBy(fields ...string) *SearchQuery {
	c := sq.clone()
	for _, spec := range fields {
		name, desc := strings.CutPrefix(spec, "-")
		f, ok := sq.schema.Field(name)
		if !ok {
			continue
		}
		def, ok := f.Default()
		if !ok || def == nil {
			def = f.NoneValue()
		}
		c.sorts = append(c.sorts, platform.SortExpression{
			Expression: name,
			Descending: desc,
			Default:    def,
		})
	}
	return c
}

// Snippet requests highlighted excerpts of fields.
func (sq *SearchQuery) Snippet(fields ...string) (*SearchQuery, error) {
	for _, name := range fields {
		if !sq.schema.Has(name) {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownSnippetField, name, sq.schema.Name())
		}
	}
	c := sq.clone()
	c.snippeted = append(c.snippeted, fields...)
	return c, nil
}

// AddExpression returns a computed expression named name with every hit.
func (sq *SearchQuery) AddExpression(name, expression string) *SearchQuery {
	c := sq.clone()
	c.expressions = append(c.expressions, platform.FieldExpression{Name: name, Expression: expression})
	return c
}

// ScoreWith sets the platform scorer.
func (sq *SearchQuery) ScoreWith(scorer string) *SearchQuery {
	c := sq.clone()
	c.scorer = scorer
	return c
}

// WithCursor continues from a cursor returned by NextCursor. An empty token
// starts a new cursor, which makes the platform return one.
func (sq *SearchQuery) WithCursor(token string) *SearchQuery {
	c := sq.clone()
	c.cursor = &platform.Cursor{Token: token}
	return c
}

// IDsOnly returns a query that yields document ids only.
func (sq *SearchQuery) IDsOnly() *SearchQuery {
	c := sq.clone()
	c.idsOnly = true
	return c
}

// NextCursor returns the cursor of the last execution, or "" when the query
// has not run or the platform returned none.
func (sq *SearchQuery) NextCursor() string {
	if sq.nextCursor == nil {
		return ""
	}
	return sq.nextCursor.Token
}

// Query returns the query string sent to the platform.
func (sq *SearchQuery) Query() (string, error) {
	if sq.raw != nil {
		return *sq.raw, nil
	}
	return sq.query.Build()
}

// String returns the query string, or the build error text.
func (sq *SearchQuery) String() string {
	s, err := sq.Query()
	if err != nil {
		return err.Error()
	}
	return s
}

// Slice returns a query over the window [start, stop). Nil bounds are open.
func (sq *SearchQuery) Slice(start, stop *int) (*SearchQuery, error) {
	lo := 0
	if start != nil {
		if *start < 0 {
			return nil, ErrOffsetNegative
		}
		if *start > MaxOffset {
			return nil, fmt.Errorf("%w: %d", ErrOffsetTooLarge, MaxOffset)
		}
		lo = *start
	}
	if stop != nil {
		if *stop < lo {
			return nil, ErrNegativeSlice
		}
		if *stop-lo > MaxLimit {
			return nil, fmt.Errorf("%w: %d", ErrSliceTooLarge, MaxLimit)
		}
	}
	c := sq.clone()
	c.setLimits(start, stop)
	return c, nil
}

// SliceStep runs the window [start, stop) and keeps every step-th result.
func (sq *SearchQuery) SliceStep(ctx context.Context, start, stop *int, step int) ([]Result, error) {
	c, err := sq.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	if step <= 1 {
		return all, nil
	}
	out := make([]Result, 0, len(all)/step+1)
	for i := 0; i < len(all); i += step {
		out = append(out, all[i])
	}
	return out, nil
}

// At runs a one-result window at i and returns that result.
func (sq *SearchQuery) At(ctx context.Context, i int) (Result, error) {
	if i > MaxOffset {
		return Result{}, fmt.Errorf("%w: %d", ErrIndexTooLarge, MaxOffset)
	}
	if i < 0 {
		return Result{}, ErrNegativeIndex
	}
	c := sq.clone()
	hi := i + 1
	c.setLimits(&i, &hi)
	all, err := c.All(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(all) == 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return all[0], nil
}

// Count returns the number of matching documents as reported by the
// platform. An unexecuted query runs a copy with a one result window
// unless a window was set.
func (sq *SearchQuery) Count(ctx context.Context) (int, error) {
	if sq.executed {
		return sq.numberFound, nil
	}
	c := sq.clone()
	if !c.hasSetLimits {
		zero, one := 0, 1
		c.setLimits(&zero, &one)
	}
	c.idsOnly = true
	c.snippeted = nil
	c.expressions = nil
	if err := c.run(ctx); err != nil {
		return 0, err
	}
	return c.numberFound, nil
}

// All runs the query and returns every result in the window.
func (sq *SearchQuery) All(ctx context.Context) ([]Result, error) {
	var out []Result
	it := sq.Iter(ctx)
	for it.Next() {
		out = append(out, it.Result())
	}
	return out, it.Err()
}

// IDs runs the query and returns the ids of the results.
func (sq *SearchQuery) IDs(ctx context.Context) ([]string, error) {
	var out []string
	it := sq.Iter(ctx)
	for it.Next() {
		out = append(out, it.ID())
	}
	return out, it.Err()
}

// Docs runs the query and returns the result documents.
func (sq *SearchQuery) Docs(ctx context.Context) ([]*document.Document, error) {
	if sq.idsOnly {
		return nil, ErrIDsOnly
	}
	var out []*document.Document
	it := sq.Iter(ctx)
	for it.Next() {
		out = append(out, it.Doc())
	}
	return out, it.Err()
}

// Iter returns an iterator over the results. The query runs on the first
// call to Next; later iterators replay the built results.
func (sq *SearchQuery) Iter(ctx context.Context) *Iterator {
	return &Iterator{ctx: ctx, sq: sq, pos: -1}
}

// Iterator walks the results of a SearchQuery.
type Iterator struct {
	ctx context.Context
	sq  *SearchQuery
	pos int
	err error
}

// Next advances to the next result. It returns false when the results are
// exhausted or an error occurred.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.sq.executed {
		if err := it.sq.run(it.ctx); err != nil {
			it.err = err
			return false
		}
	}
	if it.pos+1 >= len(it.sq.response) {
		return false
	}
	it.pos++
	if err := it.sq.build(it.pos); err != nil {
		it.err = err
		return false
	}
	return true
}

// Result returns the current result.
func (it *Iterator) Result() Result { return it.sq.cache[it.pos] }

// ID returns the current document id.
func (it *Iterator) ID() string { return it.sq.cache[it.pos].ID }

// Doc returns the current document, or nil for ids-only queries.
func (it *Iterator) Doc() *document.Document { return it.sq.cache[it.pos].Doc }

// Err returns the error that stopped iteration.
func (it *Iterator) Err() error { return it.err }

// build constructs result i once and keeps it.
func (sq *SearchQuery) build(i int) error {
	if i < len(sq.cache) {
		return nil
	}
	pd := sq.response[i]
	r := Result{ID: pd.ID}
	if !sq.idsOnly {
		d, err := constructDocument(sq.schema, pd)
		if err != nil {
			return err
		}
		r.Doc = d
	}
	sq.cache = append(sq.cache, r)
	return nil
}

// run executes the query once and records the response.
func (sq *SearchQuery) run(ctx context.Context) error {
	queryStr, err := sq.Query()
	if err != nil {
		return err
	}

	req := platform.SearchRequest{
		Index:               sq.index,
		Query:               queryStr,
		Offset:              sq.offset,
		Limit:               sq.limit,
		IDsOnly:             sq.idsOnly,
		NumberFoundAccuracy: NumberFoundAccuracy,
		Sorts:               sq.sorts,
		Returned:            append(sq.snippetExpressions(sq.SnippetWords()), sq.expressions...),
		Scorer:              sq.scorer,
		Cursor:              sq.cursor,
	}
	if sq.cursor != nil {
		req.Offset = 0
	}

	start := time.Now()
	resp, err := sq.client.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search %s: %w", sq.index, err)
	}
	sq.logger.Debug("search executed",
		zap.String("index", sq.index),
		zap.String("query", queryStr),
		zap.Int("found", resp.NumberFound),
		zap.Int("returned", len(resp.Results)),
		zap.Duration("took", time.Since(start)),
	)

	sq.response = resp.Results
	sq.numberFound = resp.NumberFound
	sq.nextCursor = resp.Cursor
	sq.cache = make([]Result, 0, len(resp.Results))
	sq.executed = true
	return nil
}

// SnippetWords returns the words snippets are highlighted for: string filter
// values and keywords, with surrounding quotes removed.
func (sq *SearchQuery) SnippetWords() string {
	var words []string
	for _, f := range sq.query.Filters() {
		if s, ok := f.Value.(string); ok {
			words = append(words, s)
		}
	}
	words = append(words, sq.query.Keywords()...)
	for i, w := range words {
		words[i] = strings.Trim(w, `"`)
	}
	return strings.Join(words, " ")
}

func (sq *SearchQuery) snippetExpressions(words string) []platform.FieldExpression {
	out := make([]platform.FieldExpression, 0, len(sq.snippeted))
	for _, name := range sq.snippeted {
		out = append(out, platform.FieldExpression{
			Name:       name,
			Expression: fmt.Sprintf(`snippet("%s", %s)`, strings.ReplaceAll(words, `"`, `\"`), name),
		})
	}
	return out
}

// QuoteIfSpecialCharacters wraps value in double quotes when its first
// character is punctuation the platform would split on.
func QuoteIfSpecialCharacters(value string) string {
	r, _ := utf8.DecodeRuneInString(value)
	if value != "" && indexer.IsPunctuation(r) {
		return `"` + value + `"`
	}
	return value
}

// CleanSnippet returns the snippet when it highlights a match. The period
// the platform appends to snippets that were not cut is removed.
func CleanSnippet(snippet string) (string, bool) {
	if !strings.Contains(snippet, "<b>") {
		return "", false
	}
	if strings.HasSuffix(snippet, ".") && !strings.HasSuffix(snippet, "...") {
		snippet = snippet[:len(snippet)-1]
	}
	return snippet, true
}

// constructDocument builds a document from a hit. Returned expressions become
// snippets, kept only when the document has a value for the field.
func constructDocument(s *document.Schema, pd platform.Document) (*document.Document, error) {
	d, err := fromPlatform(s, pd)
	if err != nil {
		return nil, err
	}
	if len(pd.Expressions) == 0 {
		return d, nil
	}

	snippets := make(map[string]string, len(pd.Expressions))
	for _, e := range pd.Expressions {
		if !hasValue(d, e.Name) {
			continue
		}
		text, ok := e.Value.(string)
		if !ok {
			continue
		}
		if cleaned, ok := CleanSnippet(text); ok {
			snippets[e.Name] = cleaned
		}
	}
	d.SetSnippets(snippets)
	return d, nil
}

func hasValue(d *document.Document, name string) bool {
	v, err := d.Get(name)
	if err != nil || v == nil {
		return false
	}
	switch x := v.(type) {
	case string:
		return x != ""
	case field.Indexed:
		return x != ""
	}
	return true
}
