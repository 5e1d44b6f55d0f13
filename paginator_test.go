package docsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docsearch/platform"
)

func TestPaginate(t *testing.T) {
	fc := &fakeClient{searchFn: func(platform.SearchRequest) (*platform.SearchResponse, error) {
		return &platform.SearchResponse{Results: hits("k", "l"), NumberFound: 25}, nil
	}}
	q := newQuery(t, fc)

	p, err := Paginate(context.Background(), q, 2, 10)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(fc.searches) != 1 {
		t.Errorf("searches = %d, want 1", len(fc.searches))
	}
	if req := fc.searches[0]; req.Offset != 10 || req.Limit != 10 {
		t.Errorf("window = (%d, %d)", req.Offset, req.Limit)
	}
	if p.Count != 25 || len(p.Results) != 2 {
		t.Errorf("page = %+v", p)
	}
	if p.NumPages() != 3 || !p.HasNext() || !p.HasPrevious() {
		t.Errorf("pages = %d next=%v prev=%v", p.NumPages(), p.HasNext(), p.HasPrevious())
	}
}

func TestPaginate_Errors(t *testing.T) {
	fc := &fakeClient{}
	q := newQuery(t, fc)
	if _, err := Paginate(context.Background(), q, 0, 10); !errors.Is(err, ErrEmptyPage) {
		t.Errorf("page 0: %v", err)
	}
	if _, err := Paginate(context.Background(), q, 200, 10); !errors.Is(err, ErrOffsetTooLarge) {
		t.Errorf("page 200: %v", err)
	}
	if len(fc.searches) != 0 {
		t.Errorf("platform called")
	}
}

func TestPage_Bounds(t *testing.T) {
	tests := []struct {
		page       Page
		pages      int
		next, prev bool
	}{
		{Page{Number: 1, PerPage: 10, Count: 0}, 1, false, false},
		{Page{Number: 1, PerPage: 10, Count: 10}, 1, false, false},
		{Page{Number: 1, PerPage: 10, Count: 11}, 2, true, false},
		{Page{Number: 2, PerPage: 10, Count: 11}, 2, false, true},
	}
	for _, tt := range tests {
		p := tt.page
		if p.NumPages() != tt.pages || p.HasNext() != tt.next || p.HasPrevious() != tt.prev {
			t.Errorf("%+v: pages=%d next=%v prev=%v", p, p.NumPages(), p.HasNext(), p.HasPrevious())
		}
	}
}
