package bleve

import (
	"fmt"
	"strconv"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/platform/grammar"
)

// translator turns a parsed query into a bleve query using the index's field
// types.
type translator struct {
	types map[string]platform.FieldType
}

func (tr translator) translate(n grammar.Node) (query.Query, error) {
	switch n := n.(type) {
	case grammar.MatchAll:
		return bleve.NewMatchAllQuery(), nil
	case grammar.Term:
		return tr.term(n)
	case grammar.Compare:
		return tr.compare(n)
	case grammar.Distance:
		return tr.distance(n)
	case grammar.And:
		qs, err := tr.all(n.Nodes)
		if err != nil {
			return nil, err
		}
		return bleve.NewConjunctionQuery(qs...), nil
	case grammar.Or:
		qs, err := tr.all(n.Nodes)
		if err != nil {
			return nil, err
		}
		return bleve.NewDisjunctionQuery(qs...), nil
	case grammar.Not:
		inner, err := tr.translate(n.Node)
		if err != nil {
			return nil, err
		}
		return negate(inner), nil
	}
	return nil, fmt.Errorf("%w: unsupported node %T", platform.ErrInvalidQuery, n)
}

func (tr translator) all(nodes []grammar.Node) ([]query.Query, error) {
	out := make([]query.Query, len(nodes))
	for i, n := range nodes {
		q, err := tr.translate(n)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func negate(q query.Query) query.Query {
	bq := bleve.NewBooleanQuery()
	bq.AddMust(bleve.NewMatchAllQuery())
	bq.AddMustNot(q)
	return bq
}

func (tr translator) term(t grammar.Term) (query.Query, error) {
	if t.Field == "" {
		if t.Phrase {
			return bleve.NewMatchPhraseQuery(t.Value), nil
		}
		mq := bleve.NewMatchQuery(t.Value)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		return mq, nil
	}

	typ, ok := tr.types[t.Field]
	if !ok {
		return bleve.NewMatchNoneQuery(), nil
	}
	switch typ {
	case platform.FieldAtom:
		tq := bleve.NewTermQuery(t.Value)
		tq.SetField(t.Field)
		return tq, nil
	case platform.FieldNumber, platform.FieldDate:
		return tr.compare(grammar.Compare{Field: t.Field, Op: "=", Value: t.Value})
	case platform.FieldGeoPoint:
		return nil, fmt.Errorf("%w: geopoint field %s needs a distance comparison", platform.ErrInvalidQuery, t.Field)
	}

	if t.Phrase {
		pq := bleve.NewMatchPhraseQuery(t.Value)
		pq.SetField(t.Field)
		return pq, nil
	}
	mq := bleve.NewMatchQuery(t.Value)
	mq.SetField(t.Field)
	mq.SetOperator(query.MatchQueryOperatorAnd)
	return mq, nil
}

func (tr translator) compare(c grammar.Compare) (query.Query, error) {
	typ, ok := tr.types[c.Field]
	if !ok {
		return bleve.NewMatchNoneQuery(), nil
	}

	switch typ {
	case platform.FieldNumber, platform.FieldDate:
		var x float64
		var err error
		if typ == platform.FieldDate {
			x, err = parseDateNumber(c.Value)
		} else {
			x, err = strconv.ParseFloat(c.Value, 64)
			if err != nil {
				err = fmt.Errorf("%w: %q is not a number", platform.ErrInvalidQuery, c.Value)
			}
		}
		if err != nil {
			return nil, err
		}
		return numericRange(c.Field, c.Op, x), nil
	case platform.FieldGeoPoint:
		return nil, fmt.Errorf("%w: geopoint field %s needs a distance comparison", platform.ErrInvalidQuery, c.Field)
	}

	if c.Op == "=" {
		return tr.term(grammar.Term{Field: c.Field, Value: c.Value})
	}
	var lo, hi string
	var loIncl, hiIncl *bool
	switch c.Op {
	case "<", "<=":
		hi, hiIncl = c.Value, boolPtr(c.Op == "<=")
	default:
		lo, loIncl = c.Value, boolPtr(c.Op == ">=")
	}
	rq := bleve.NewTermRangeInclusiveQuery(lo, hi, loIncl, hiIncl)
	rq.SetField(c.Field)
	return rq, nil
}

func numericRange(field, op string, x float64) query.Query {
	var lo, hi *float64
	var loIncl, hiIncl *bool
	switch op {
	case "<":
		hi, hiIncl = &x, boolPtr(false)
	case "<=":
		hi, hiIncl = &x, boolPtr(true)
	case ">":
		lo, loIncl = &x, boolPtr(false)
	case ">=":
		lo, loIncl = &x, boolPtr(true)
	default:
		lo, hi = &x, &x
		loIncl, hiIncl = boolPtr(true), boolPtr(true)
	}
	rq := bleve.NewNumericRangeInclusiveQuery(lo, hi, loIncl, hiIncl)
	rq.SetField(field)
	return rq
}

func (tr translator) distance(d grammar.Distance) (query.Query, error) {
	if typ, ok := tr.types[d.Field]; !ok {
		return bleve.NewMatchNoneQuery(), nil
	} else if typ != platform.FieldGeoPoint {
		return nil, fmt.Errorf("%w: %s is not a geopoint field", platform.ErrInvalidQuery, d.Field)
	}

	dq := bleve.NewGeoDistanceQuery(d.Lon, d.Lat, strconv.FormatFloat(d.Radius, 'f', -1, 64)+"m")
	dq.SetField(d.Field)
	switch d.Op {
	case "<", "<=", "=":
		return dq, nil
	}
	return negate(dq), nil
}

func boolPtr(b bool) *bool { return &b }
