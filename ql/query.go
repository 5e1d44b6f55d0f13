package ql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/docsearch/field"
)

// Schema resolves the fields a Query may filter on.
type Schema interface {
	Name() string
	Field(name string) (field.Field, bool)
}

var forbiddenValue = regexp.MustCompile(`[^_.@ \p{L}\p{N}-]+`)

// CleanKeywords removes characters the platform's lexer cannot take.
func CleanKeywords(s string) string {
	return forbiddenValue.ReplaceAllString(s, "")
}

// Query gathers keywords and filters and builds the query string for a
// schema. Methods that add to a Query modify it; use Clone to branch.
type Query struct {
	schema   Schema
	q        Q
	keywords []string
}

// NewQuery returns an empty query over schema.
func NewQuery(schema Schema) *Query {
	return &Query{schema: schema}
}

// Schema returns the schema the query validates filters against.
func (qr *Query) Schema() Schema { return qr.schema }

// Clone returns an independent copy of qr.
func (qr *Query) Clone() *Query {
	return &Query{
		schema:   qr.schema,
		q:        qr.q,
		keywords: append([]string(nil), qr.keywords...),
	}
}

// AddQ folds q into the gathered filters with conn, or AND when omitted.
func (qr *Query) AddQ(q Q, conn ...Conn) *Query {
	c := DefaultConn
	if len(conn) > 0 && conn[0] != "" {
		c = conn[0]
	}
	qr.q = qr.q.Combine(q, c)
	return qr
}

// AddKeywords appends free text terms.
func (qr *Query) AddKeywords(keywords string) *Query {
	qr.keywords = append(qr.keywords, keywords)
	return qr
}

// Q returns the gathered filter tree.
func (qr *Query) Q() Q { return qr.q }

// Filters returns every gathered comparison.
func (qr *Query) Filters() []FilterExpr { return qr.q.Filters() }

// Keywords returns the keyword terms in the order they were added.
func (qr *Query) Keywords() []string {
	return append([]string(nil), qr.keywords...)
}

// UnparseFilter renders q against the schema. Every comparison must name a
// schema field and its value is converted by that field.
func (qr *Query) UnparseFilter(q Q) (string, error) {
	return q.render(qr.unparseLeaf, "NOT %s")
}

func (qr *Query) unparseLeaf(e FilterExpr) (string, error) {
	name, op := e.Split()
	f, ok := qr.schema.Field(name)
	if !ok {
		return "", &LookupError{Field: name, Schema: qr.schema.Name()}
	}

	v, err := f.PrepValueForFilter(e.Value, op)
	if err != nil {
		return "", &BadValueError{
			Value:  e.Value,
			Schema: qr.schema.Name(),
			Field:  name,
			Type:   field.TypeName(f),
			Err:    err,
		}
	}
	return FilterExpr{Lookup: e.Lookup, Value: v}.Render()
}

// BuildFilters renders the gathered filters, or "" when there are none.
func (qr *Query) BuildFilters() (string, error) {
	return qr.UnparseFilter(qr.q)
}

// BuildKeywords joins the keywords and strips forbidden characters.
func (qr *Query) BuildKeywords() string {
	if len(qr.keywords) == 0 {
		return ""
	}
	return CleanKeywords(strings.Join(qr.keywords, " "))
}

// Build returns the full query string.
func (qr *Query) Build() (string, error) {
	filters, err := qr.BuildFilters()
	if err != nil {
		return "", err
	}
	keywords := qr.BuildKeywords()

	switch {
	case filters != "" && keywords != "":
		return fmt.Sprintf("%s %s %s", keywords, AND, filters), nil
	case filters != "":
		return filters, nil
	}
	return keywords, nil
}

// String returns the query string, or the build error text.
func (qr *Query) String() string {
	s, err := qr.Build()
	if err != nil {
		return err.Error()
	}
	return s
}
