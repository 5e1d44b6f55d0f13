package bleve

import (
	"context"
	"fmt"

	bleve "github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/platform/grammar"
)

// defaultLimit is the result window when a request sets none.
const defaultLimit = 20

// Search parses the query, runs it and attaches requested expressions to each
// hit. Snippets are computed from the stored field text.
func (s *Store) Search(ctx context.Context, req platform.SearchRequest) (*platform.SearchResponse, error) {
	node, err := grammar.Parse(req.Query)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: fmt.Errorf("%w: %v", platform.ErrInvalidQuery, err)}
	}

	ix := s.lookup(req.Index)
	if ix == nil {
		return &platform.SearchResponse{}, nil
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

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q, err := translator{types: ix.types}.translate(node)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: err}
	}

	sreq := bleve.NewSearchRequest(q)
	sreq.Size = limit
	sreq.From = offset
	sreq.SortBy(sortOrder(req.Sorts))

	result, err := ix.bi.SearchInContext(ctx, sreq)
	if err != nil {
		return nil, &platform.Error{Op: platform.OpSearch, Err: err}
	}

	resp := &platform.SearchResponse{NumberFound: int(result.Total)}
	for _, hit := range result.Hits {
		if req.IDsOnly {
			resp.Results = append(resp.Results, platform.Document{ID: hit.ID})
			continue
		}
		d, ok := ix.docs[hit.ID]
		if !ok {
			continue
		}
		d.Expressions = platform.Evaluate(d, req.Returned)
		resp.Results = append(resp.Results, d)
	}

	if req.Cursor != nil {
		resp.Cursor = platform.NextCursor(offset, len(result.Hits), int(result.Total))
	}
	return resp, nil
}

func sortOrder(sorts []platform.SortExpression) []string {
	if len(sorts) == 0 {
		return []string{"-" + rankField, "_id"}
	}
	order := make([]string, 0, len(sorts)+1)
	for _, se := range sorts {
		if se.Descending {
			order = append(order, "-"+se.Expression)
		} else {
			order = append(order, se.Expression)
		}
	}
	return append(order, "_id")
}
