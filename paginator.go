package docsearch

import "context"

// Page is one page of search results.
type Page struct {
	Number  int
	PerPage int
	// Count is the total number of matching documents.
	Count   int
	Results []Result
}

// NumPages returns the number of pages needed for Count results.
func (p *Page) NumPages() int {
	if p.Count == 0 || p.PerPage <= 0 {
		return 1
	}
	return (p.Count + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether a later page exists.
func (p *Page) HasNext() bool { return p.Number < p.NumPages() }

// HasPrevious reports whether an earlier page exists.
func (p *Page) HasPrevious() bool { return p.Number > 1 }

// Paginate runs the window of page (1-based) and takes the count from the
// same execution, so a page costs one platform call.
func Paginate(ctx context.Context, sq *SearchQuery, page, perPage int) (*Page, error) {
	if page < 1 {
		return nil, ErrEmptyPage
	}
	bottom := (page - 1) * perPage
	top := bottom + perPage

	window, err := sq.Slice(&bottom, &top)
	if err != nil {
		return nil, err
	}
	results, err := window.All(ctx)
	if err != nil {
		return nil, err
	}
	count, err := window.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Page{Number: page, PerPage: perPage, Count: count, Results: results}, nil
}
