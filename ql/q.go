package ql

import (
	"fmt"
	"reflect"
	"strings"
)

// Conn joins the children of a Q.
type Conn string

// Connectives.
const (
	AND Conn = "AND"
	OR  Conn = "OR"
	NOT      = "NOT"
)

// DefaultConn folds filters added without an explicit connective.
const DefaultConn = AND

type kind uint8

const (
	kindEmpty kind = iota
	kindLeaf
	kindAnd
	kindOr
	kindNot
)

// Q is an immutable filter tree. The zero Q is empty and disappears when
// combined with another Q.
type Q struct {
	kind     kind
	expr     FilterExpr
	children []Q
}

// F builds a single comparison. Slice and array values other than strings
// and byte slices expand into an OR of one comparison per element.
func F(lookup string, value any) Q {
	if vals, ok := listValues(value); ok {
		return In(lookup, vals...)
	}
	return Q{kind: kindLeaf, expr: FilterExpr{Lookup: lookup, Value: value}}
}

// In is an OR of lookup compared with each value, left nested.
func In(lookup string, values ...any) Q {
	var q Q
	for _, v := range values {
		q = q.Or(Q{kind: kindLeaf, expr: FilterExpr{Lookup: lookup, Value: v}})
	}
	return q
}

// All folds qs with AND.
func All(qs ...Q) Q {
	var out Q
	for _, q := range qs {
		out = out.And(q)
	}
	return out
}

// Any folds qs with OR.
func Any(qs ...Q) Q {
	var out Q
	for _, q := range qs {
		out = out.Or(q)
	}
	return out
}

func listValues(v any) ([]any, bool) {
	switch v.(type) {
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsEmpty reports whether q holds no filters.
func (q Q) IsEmpty() bool { return q.kind == kindEmpty }

// And returns a new node joining q and other.
func (q Q) And(other Q) Q { return combine(q, other, kindAnd) }

// Or returns a new node joining q and other.
func (q Q) Or(other Q) Q { return combine(q, other, kindOr) }

// Combine joins q and other with conn.
func (q Q) Combine(other Q, conn Conn) Q {
	if conn == OR {
		return q.Or(other)
	}
	return q.And(other)
}

func combine(a, b Q, k kind) Q {
	switch {
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	}
	return Q{kind: k, children: []Q{a, b}}
}

// Negate returns the inverse of q. Negating a negation returns its operand.
func (q Q) Negate() Q {
	switch q.kind {
	case kindEmpty:
		return q
	case kindNot:
		return q.children[0]
	}
	return Q{kind: kindNot, children: []Q{q}}
}

// Filters returns every comparison in q, left to right.
func (q Q) Filters() []FilterExpr {
	var out []FilterExpr
	q.walk(func(e FilterExpr) { out = append(out, e) })
	return out
}

func (q Q) walk(fn func(FilterExpr)) {
	if q.kind == kindLeaf {
		fn(q.expr)
		return
	}
	for _, c := range q.children {
		c.walk(fn)
	}
}

// String renders q without a schema: values are formatted as given.
func (q Q) String() string {
	s, _ := q.render(func(e FilterExpr) (string, error) { return e.String(), nil }, "(NOT %s)")
	return s
}

// render formats q, calling leaf for each comparison. notTmpl wraps the
// rendered operand of a negation.
func (q Q) render(leaf func(FilterExpr) (string, error), notTmpl string) (string, error) {
	switch q.kind {
	case kindEmpty:
		return "", nil
	case kindLeaf:
		s, err := leaf(q.expr)
		if err != nil {
			return "", err
		}
		return "(" + s + ")", nil
	case kindNot:
		s, err := q.children[0].render(leaf, notTmpl)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(notTmpl, s), nil
	}

	conn := " " + string(AND) + " "
	if q.kind == kindOr {
		conn = " " + string(OR) + " "
	}
	parts := make([]string, len(q.children))
	for i, c := range q.children {
		s, err := c.render(leaf, notTmpl)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, conn) + ")", nil
}
