// Package platform describes the contract between docsearch and a full-text
// search platform: raw documents with typed fields, search and range requests,
// and the Client every backend implements.
package platform

import (
	"context"
	"time"
)

// FieldType is the platform-side type of a document field.
type FieldType string

// Field types understood by every backend.
const (
	FieldText     FieldType = "text"
	FieldHTML     FieldType = "html"
	FieldAtom     FieldType = "atom"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldGeoPoint FieldType = "geopoint"
)

// IsText reports whether values of this type are strings.
func (t FieldType) IsText() bool {
	return t == FieldText || t == FieldHTML || t == FieldAtom
}

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Field is a single named, typed value on a platform document.
//
// Value holds a string for text types, float64 for numbers, a UTC midnight
// time.Time for dates and a GeoPoint for geopoints.
type Field struct {
	Name  string
	Type  FieldType
	Value any
}

// Document is the platform's representation of an indexed document.
type Document struct {
	ID     string
	Rank   *int64
	Fields []Field
	// Expressions holds computed values (snippets, returned expressions)
	// attached to a search hit.
	Expressions []Field
}

// Field returns the named field and whether it is present.
func (d *Document) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Cursor is an opaque continuation token. An empty token asks the platform
// to start a new cursor at the beginning of the result set.
type Cursor struct {
	Token string
}

// SortExpression orders results by a field. Default is used for documents
// that have no value for the field.
type SortExpression struct {
	Expression string
	Descending bool
	Default    any
}

// FieldExpression is a named expression evaluated per hit and returned in
// Document.Expressions.
type FieldExpression struct {
	Name       string
	Expression string
}

// SearchRequest is a single query against one index.
type SearchRequest struct {
	Index string
	Query string
	// Offset is ignored when Cursor is set.
	Offset              int
	Limit               int
	IDsOnly             bool
	NumberFoundAccuracy int
	Sorts               []SortExpression
	Returned            []FieldExpression
	Scorer              string
	Cursor              *Cursor
}

// SearchResponse is the result of a SearchRequest.
type SearchResponse struct {
	Results     []Document
	NumberFound int
	// Cursor continues after the last returned document. Nil unless the
	// request carried a cursor and more results remain.
	Cursor *Cursor
}

// GetRangeRequest lists documents in id order without running a query.
type GetRangeRequest struct {
	Index        string
	StartID      string
	IncludeStart bool
	Limit        int
	IDsOnly      bool
}

// Client is the platform boundary. Implementations must be safe for
// concurrent use.
type Client interface {
	Put(ctx context.Context, index string, docs []Document) ([]string, error)
	Delete(ctx context.Context, index string, ids []string) error
	Get(ctx context.Context, index, id string) (*Document, error)
	GetRange(ctx context.Context, req GetRangeRequest) ([]Document, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// DefaultRangeLimit is the page size used when a GetRangeRequest has no limit.
const DefaultRangeLimit = 100

// DateOf truncates t to a UTC midnight date value.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// rankEpoch is the zero point of default document ranks.
var rankEpoch = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultRank is the rank given to documents put without one: seconds since
// 2011-01-01, so newer documents sort first.
func DefaultRank(now time.Time) int64 {
	return int64(now.Sub(rankEpoch) / time.Second)
}
