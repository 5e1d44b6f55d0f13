package docsearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/docsearch/field"
	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/ql"
)

func intp(i int) *int { return &i }

func hits(ids ...string) []platform.Document {
	docs := make([]platform.Document, len(ids))
	for i, id := range ids {
		docs[i] = platform.Document{ID: id, Fields: []platform.Field{
			{Name: "name", Type: platform.FieldText, Value: "thing " + id},
			{Name: "num", Type: platform.FieldNumber, Value: float64(i)},
		}}
	}
	return docs
}

// respond returns a fake whose searches all find ids.
func respond(ids ...string) *fakeClient {
	return &fakeClient{searchFn: func(platform.SearchRequest) (*platform.SearchResponse, error) {
		return &platform.SearchResponse{Results: hits(ids...), NumberFound: len(ids)}, nil
	}}
}

func newQuery(t *testing.T, fc *fakeClient) *SearchQuery {
	t.Helper()
	ix, err := NewIndex("things", fc, WithSchema(thingSchema))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	q, err := ix.Search()
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	return q
}

// --- query building ---

func TestSearchQuery_String(t *testing.T) {
	base := newQuery(t, &fakeClient{})
	tests := []struct {
		name string
		q    *SearchQuery
		want string
	}{
		{"empty", base, ""},
		{"keywords", base.Keywords("hello world"), "hello world"},
		{"keywords and filter", base.Keywords("hello").Where("name", "x"), `hello AND (name:"x")`},
		{"number comparison", base.Where("num__gte", 3), "(num >= 3)"},
		{"contains", base.Where("name__contains", "red box"), "(name:(red box))"},
		{"chained filters", base.Where("name", "a").Where("num__lt", 2), `((name:"a") AND (num < 2))`},
		{"or", base.Filter(ql.F("name", "a").Or(ql.F("name", "b"))), `((name:"a") OR (name:"b"))`},
		{"not", base.Filter(ql.F("name", "a").Negate()), `NOT (name:"a")`},
		{"list value", base.Where("num", []int{1, 2}), "((num:\"1\") OR (num:\"2\"))"},
		{"raw wins", base.Keywords("ignored").Raw("name:exact"), "name:exact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchQuery_UnknownFilterField(t *testing.T) {
	q := newQuery(t, &fakeClient{}).Where("nope", 1)
	if _, err := q.Query(); err == nil {
		t.Fatal("expected lookup error")
	}
	if _, err := q.All(context.Background()); err == nil {
		t.Fatal("expected lookup error from All")
	}
}

func TestSearchQuery_RefinementsLeaveReceiver(t *testing.T) {
	q := newQuery(t, &fakeClient{})
	_ = q.Keywords("x").Where("name", "y").OrderBy("num")
	if q.String() != "" {
		t.Errorf("receiver changed: %q", q.String())
	}
	if len(q.sorts) != 0 {
		t.Errorf("receiver sorts changed: %v", q.sorts)
	}
}

func TestOrderBy(t *testing.T) {
	q := newQuery(t, &fakeClient{}).OrderBy("-num", "nope", "name")
	want := []platform.SortExpression{
		{Expression: "num", Descending: true, Default: field.MinInt},
		{Expression: "name", Default: field.TextNone},
	}
	if fmt.Sprint(q.sorts) != fmt.Sprint(want) {
		t.Errorf("sorts = %+v, want %+v", q.sorts, want)
	}
}

func TestSnippet_UnknownField(t *testing.T) {
	_, err := newQuery(t, &fakeClient{}).Snippet("nope")
	if !errors.Is(err, ErrUnknownSnippetField) {
		t.Errorf("got %v", err)
	}
}

func TestSnippetWords(t *testing.T) {
	q := newQuery(t, &fakeClient{}).Where("name", `"Red"`).Where("num", 3).Keywords("box")
	if got := q.SnippetWords(); got != "Red box" {
		t.Errorf("SnippetWords() = %q", got)
	}
}

// --- windowing ---

func TestSlice(t *testing.T) {
	q := newQuery(t, &fakeClient{})
	tests := []struct {
		name        string
		start, stop *int
		off, lim    int
	}{
		{"ten to twenty", intp(10), intp(20), 10, 10},
		{"open", nil, nil, 0, MaxLimit},
		{"open end", intp(5), nil, 5, MaxLimit},
		{"zero stop is open", intp(5), intp(0), 5, MaxLimit},
		{"open start", nil, intp(3), 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := q.Slice(tt.start, tt.stop)
			if err != nil {
				t.Fatalf("Slice: %v", err)
			}
			if off, lim := s.Window(); off != tt.off || lim != tt.lim {
				t.Errorf("Window() = (%d, %d), want (%d, %d)", off, lim, tt.off, tt.lim)
			}
		})
	}
	if off, lim := q.Window(); off != 0 || lim != MaxLimit {
		t.Errorf("receiver window = (%d, %d)", off, lim)
	}
}

func TestSlice_Errors(t *testing.T) {
	fc := &fakeClient{}
	q := newQuery(t, fc)
	tests := []struct {
		name        string
		start, stop *int
		want        error
	}{
		{"negative start", intp(-1), nil, ErrOffsetNegative},
		{"start past max offset", intp(MaxOffset + 1), nil, ErrOffsetTooLarge},
		{"stop before start", intp(5), intp(3), ErrNegativeSlice},
		{"too large", intp(0), intp(MaxLimit + 1), ErrSliceTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := q.Slice(tt.start, tt.stop); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if len(fc.searches) != 0 {
		t.Errorf("platform called %d times", len(fc.searches))
	}
}

func TestAt(t *testing.T) {
	fc := respond("c")
	q := newQuery(t, fc)
	r, err := q.At(context.Background(), 3)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if r.ID != "c" {
		t.Errorf("id = %q", r.ID)
	}
	if req := fc.searches[0]; req.Offset != 3 || req.Limit != 1 {
		t.Errorf("window = (%d, %d)", req.Offset, req.Limit)
	}

	for _, tc := range []struct {
		i    int
		want error
	}{
		{-1, ErrNegativeIndex},
		{MaxOffset + 1, ErrIndexTooLarge},
	} {
		if _, err := q.At(context.Background(), tc.i); !errors.Is(err, tc.want) {
			t.Errorf("At(%d) = %v, want %v", tc.i, err, tc.want)
		}
	}
	if len(fc.searches) != 1 {
		t.Errorf("bounds errors reached the platform")
	}

	empty := newQuery(t, respond())
	if _, err := empty.At(context.Background(), 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("got %v", err)
	}
}

func TestSliceStep(t *testing.T) {
	q := newQuery(t, respond("a", "b", "c", "d", "e"))
	got, err := q.SliceStep(context.Background(), intp(0), intp(5), 2)
	if err != nil {
		t.Fatalf("SliceStep: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[a c e]" {
		t.Errorf("ids = %v", ids)
	}
}

// --- execution ---

func TestCount(t *testing.T) {
	fc := &fakeClient{searchFn: func(req platform.SearchRequest) (*platform.SearchResponse, error) {
		return &platform.SearchResponse{Results: hits("a"), NumberFound: 42}, nil
	}}
	q := newQuery(t, fc)
	sq, _ := q.Snippet("name")

	n, err := sq.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d", n)
	}
	req := fc.searches[0]
	if req.Offset != 0 || req.Limit != 1 || !req.IDsOnly || len(req.Returned) != 0 {
		t.Errorf("count request = %+v", req)
	}
	if sq.executed {
		t.Error("Count executed the receiver")
	}

	window, _ := q.Slice(intp(10), intp(20))
	if _, err := window.Count(context.Background()); err != nil {
		t.Fatalf("Count: %v", err)
	}
	if req := fc.searches[1]; req.Offset != 10 || req.Limit != 10 {
		t.Errorf("windowed count request = (%d, %d)", req.Offset, req.Limit)
	}

	if _, err := window.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	calls := len(fc.searches)
	if n, _ := window.Count(context.Background()); n != 42 || len(fc.searches) != calls {
		t.Errorf("executed count = %d after %d calls", n, len(fc.searches)-calls)
	}
}

func TestAll_RunsOnce(t *testing.T) {
	fc := respond("a", "b")
	q := newQuery(t, fc)

	first, err := q.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	second, err := q.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(fc.searches) != 1 {
		t.Errorf("searches = %d", len(fc.searches))
	}
	if len(first) != 2 || first[0].Doc != second[0].Doc {
		t.Error("second run did not replay the built documents")
	}
	if v, _ := first[1].Doc.Get("name"); v != "thing b" {
		t.Errorf("name = %v", v)
	}
}

func TestIterator_PartialThenAll(t *testing.T) {
	q := newQuery(t, respond("a", "b", "c"))
	it := q.Iter(context.Background())
	if !it.Next() || it.ID() != "a" {
		t.Fatal("first result")
	}
	ids, err := q.IDs(context.Background())
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("ids = %v", ids)
	}
}

func TestRun_Request(t *testing.T) {
	fc := respond()
	q := newQuery(t, fc).Keywords("box").Where("name", "Red").OrderBy("-num").ScoreWith("match")
	q = q.AddExpression("total", "num")
	q, err := q.Snippet("name")
	if err != nil {
		t.Fatalf("Snippet: %v", err)
	}
	if _, err := q.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}

	req := fc.searches[0]
	if req.Index != "things" || req.Query != `box AND (name:"Red")` {
		t.Errorf("index/query = %q %q", req.Index, req.Query)
	}
	if req.Limit != MaxLimit || req.NumberFoundAccuracy != NumberFoundAccuracy || req.Scorer != "match" {
		t.Errorf("request = %+v", req)
	}
	want := []platform.FieldExpression{
		{Name: "name", Expression: `snippet("Red box", name)`},
		{Name: "total", Expression: "num"},
	}
	if fmt.Sprint(req.Returned) != fmt.Sprint(want) {
		t.Errorf("returned = %+v", req.Returned)
	}
	if len(req.Sorts) != 1 || !req.Sorts[0].Descending {
		t.Errorf("sorts = %+v", req.Sorts)
	}
}

func TestRun_Error(t *testing.T) {
	boom := errors.New("boom")
	fc := &fakeClient{searchFn: func(platform.SearchRequest) (*platform.SearchResponse, error) { return nil, boom }}
	q := newQuery(t, fc)
	if _, err := q.All(context.Background()); !errors.Is(err, boom) {
		t.Errorf("got %v", err)
	}
	if _, err := q.Count(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Count got %v", err)
	}
}

func TestDocs_IDsOnly(t *testing.T) {
	fc := respond("a")
	q := newQuery(t, fc).IDsOnly()
	if _, err := q.Docs(context.Background()); !errors.Is(err, ErrIDsOnly) {
		t.Errorf("got %v", err)
	}
	all, err := q.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].Doc != nil {
		t.Errorf("results = %+v", all)
	}
	if !fc.searches[0].IDsOnly {
		t.Error("request not ids only")
	}
}

func TestCursor(t *testing.T) {
	fc := &fakeClient{searchFn: func(req platform.SearchRequest) (*platform.SearchResponse, error) {
		return &platform.SearchResponse{Results: hits("a"), NumberFound: 3, Cursor: &platform.Cursor{Token: "next"}}, nil
	}}
	q := newQuery(t, fc)
	q, _ = q.Slice(intp(5), intp(6))
	q = q.WithCursor("")

	if q.NextCursor() != "" {
		t.Error("cursor before execution")
	}
	if _, err := q.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	req := fc.searches[0]
	if req.Cursor == nil || req.Cursor.Token != "" || req.Offset != 0 {
		t.Errorf("cursor request = %+v", req)
	}
	if q.NextCursor() != "next" {
		t.Errorf("NextCursor() = %q", q.NextCursor())
	}

	cont := q.WithCursor(q.NextCursor())
	if _, err := cont.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	if fc.searches[1].Cursor.Token != "next" {
		t.Errorf("continued with %q", fc.searches[1].Cursor.Token)
	}
}

func TestConstructDocument_Snippets(t *testing.T) {
	fc := &fakeClient{searchFn: func(platform.SearchRequest) (*platform.SearchResponse, error) {
		return &platform.SearchResponse{NumberFound: 2, Results: []platform.Document{
			{
				ID: "a",
				Fields: []platform.Field{
					{Name: "name", Type: platform.FieldText, Value: "Red Box"},
					{Name: "num", Type: platform.FieldNumber, Value: float64(1)},
				},
				Expressions: []platform.Field{
					{Name: "name", Type: platform.FieldHTML, Value: "<b>Red</b> Box."},
					{Name: "num", Type: platform.FieldHTML, Value: "1."},
				},
			},
			{
				ID: "b",
				Fields: []platform.Field{
					{Name: "name", Type: platform.FieldText, Value: field.TextNone},
					{Name: "num", Type: platform.FieldNumber, Value: float64(2)},
				},
				Expressions: []platform.Field{
					{Name: "name", Type: platform.FieldHTML, Value: "<b>___NONE___</b>."},
				},
			},
		}}, nil
	}}
	q, _ := newQuery(t, fc).Keywords("red").Snippet("name", "num")
	docs, err := q.Docs(context.Background())
	if err != nil {
		t.Fatalf("Docs: %v", err)
	}
	if got := docs[0].Snippets(); fmt.Sprint(got) != "map[name:<b>Red</b> Box]" {
		t.Errorf("snippets = %v", got)
	}
	if got := docs[1].Snippets(); len(got) != 0 {
		t.Errorf("snippets for empty value = %v", got)
	}
	if v := docs[0].SnippetOrValue()["num"]; v != int64(1) {
		t.Errorf("num = %#v", v)
	}
}

// --- helpers ---

func TestCleanSnippet(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"<b>Red</b> Box.", "<b>Red</b> Box", true},
		{"a long <b>text</b>...", "a long <b>text</b>...", true},
		{"no match.", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanSnippet(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CleanSnippet(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestQuoteIfSpecialCharacters(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello", "hello"},
		{"@home", `"@home"`},
		{"-1", `"-1"`},
		{"a-b", "a-b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := QuoteIfSpecialCharacters(tt.in); got != tt.want {
			t.Errorf("QuoteIfSpecialCharacters(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
