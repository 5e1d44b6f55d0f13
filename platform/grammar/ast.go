// Package grammar parses the platform query language into a tree the
// backends translate into their native queries.
//
// Precedence, tightest first: NOT, OR, AND. Adjacent terms without a
// connective are joined with AND.
package grammar

import (
	"fmt"
	"strings"
)

// Node is a parsed query.
type Node interface {
	fmt.Stringer
	node()
}

// MatchAll matches every document. It is the tree of an empty query.
type MatchAll struct{}

// Term matches Value in Field, or in any text field when Field is empty.
// Phrase terms came from a quoted string.
type Term struct {
	Field  string
	Value  string
	Phrase bool
}

// Compare compares Field with Value using Op, one of < <= > >= =.
type Compare struct {
	Field string
	Op    string
	Value string
}

// Distance compares the distance in meters between a geopoint field and a
// point with a radius.
type Distance struct {
	Field  string
	Lat    float64
	Lon    float64
	Op     string
	Radius float64
}

// And matches when every child matches.
type And struct{ Nodes []Node }

// Or matches when any child matches.
type Or struct{ Nodes []Node }

// Not matches when its child does not.
type Not struct{ Node Node }

func (MatchAll) node() {}
func (Term) node()     {}
func (Compare) node()  {}
func (Distance) node() {}
func (And) node()      {}
func (Or) node()       {}
func (Not) node()      {}

func (MatchAll) String() string { return "*" }

func (t Term) String() string {
	v := t.Value
	if t.Phrase {
		v = `"` + v + `"`
	}
	if t.Field == "" {
		return v
	}
	return t.Field + ":" + v
}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

func (d Distance) String() string {
	return fmt.Sprintf("distance(%s, geopoint(%f, %f)) %s %g", d.Field, d.Lat, d.Lon, d.Op, d.Radius)
}

func (a And) String() string { return join(a.Nodes, " AND ") }
func (o Or) String() string  { return join(o.Nodes, " OR ") }
func (n Not) String() string { return "NOT " + n.Node.String() }

func join(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
