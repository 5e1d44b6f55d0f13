package grammar

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax is returned for queries that do not parse.
var ErrSyntax = errors.New("query syntax error")

// Connective and function keywords.
const (
	kwAnd      = "AND"
	kwOr       = "OR"
	kwNot      = "NOT"
	kwDistance = "distance"
	kwGeopoint = "geopoint"
)

type parser struct {
	toks []token
	pos  int
}

// Parse parses a query string. An empty query matches every document.
func Parse(query string) (Node, error) {
	toks, err := lex(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return MatchAll{}, nil
	}

	n, err := p.parseAnd("")
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", t)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s, got %s", what, t)
	}
	return t, nil
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w at position %d: %s", ErrSyntax, t.pos, fmt.Sprintf(format, args...))
}

func isKeyword(t token, kw string) bool {
	return t.kind == tokWord && t.text == kw
}

// startsOperand reports whether t can begin an operand, which makes it an
// implicit AND.
func startsOperand(t token) bool {
	switch t.kind {
	case tokWord:
		return !isKeyword(t, kwAnd) && !isKeyword(t, kwOr)
	case tokString, tokLParen:
		return true
	}
	return false
}

// parseAnd parses OR groups joined by AND or juxtaposition. scope is the
// field applied to bare terms inside a field:( ... ) group.
func (p *parser) parseAnd(scope string) (Node, error) {
	first, err := p.parseOr(scope)
	if err != nil {
		return nil, err
	}
	nodes := []Node{first}
	for {
		t := p.peek()
		if isKeyword(t, kwAnd) {
			p.next()
		} else if !startsOperand(t) {
			break
		}
		n, err := p.parseOr(scope)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 1 {
		return first, nil
	}
	return And{Nodes: nodes}, nil
}

func (p *parser) parseOr(scope string) (Node, error) {
	first, err := p.parseUnary(scope)
	if err != nil {
		return nil, err
	}
	nodes := []Node{first}
	for isKeyword(p.peek(), kwOr) {
		p.next()
		n, err := p.parseUnary(scope)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 1 {
		return first, nil
	}
	return Or{Nodes: nodes}, nil
}

func (p *parser) parseUnary(scope string) (Node, error) {
	if isKeyword(p.peek(), kwNot) {
		p.next()
		n, err := p.parseUnary(scope)
		if err != nil {
			return nil, err
		}
		return Not{Node: n}, nil
	}
	return p.parsePrimary(scope)
}

func (p *parser) parsePrimary(scope string) (Node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		n, err := p.parseAnd(scope)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return n, nil
	case tokString:
		return Term{Field: scope, Value: t.text, Phrase: true}, nil
	case tokWord:
		if t.text == kwAnd || t.text == kwOr {
			return nil, p.errorf(t, "unexpected %s", t)
		}
		if t.text == kwDistance && p.peek().kind == tokLParen {
			return p.parseDistance()
		}
		switch nt := p.peek(); nt.kind {
		case tokColon:
			p.next()
			return p.parseFieldValue(t.text)
		case tokOp:
			p.next()
			v := p.next()
			if v.kind != tokWord && v.kind != tokString {
				return nil, p.errorf(v, "expected value after %s %s", t.text, nt.text)
			}
			return Compare{Field: t.text, Op: nt.text, Value: v.text}, nil
		}
		return Term{Field: scope, Value: t.text}, nil
	}
	return nil, p.errorf(t, "unexpected %s", t)
}

func (p *parser) parseFieldValue(name string) (Node, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return Term{Field: name, Value: t.text, Phrase: true}, nil
	case tokWord:
		return Term{Field: name, Value: t.text}, nil
	case tokLParen:
		n, err := p.parseAnd(name)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, p.errorf(t, "expected value for %s, got %s", name, t)
}

// parseDistance parses distance(field, geopoint(lat, lon)) <op> radius after
// the distance keyword.
func (p *parser) parseDistance() (Node, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	f, err := p.expect(tokWord, "field name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, ","); err != nil {
		return nil, err
	}
	if t := p.next(); !isKeyword(t, kwGeopoint) {
		return nil, p.errorf(t, "expected geopoint, got %s", t)
	}
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	lat, err := p.number()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, ","); err != nil {
		return nil, err
	}
	lon, err := p.number()
	if err != nil {
		return nil, err
	}
	for range 2 {
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
	}
	op, err := p.expect(tokOp, "comparison")
	if err != nil {
		return nil, err
	}
	radius, err := p.number()
	if err != nil {
		return nil, err
	}
	return Distance{Field: f.text, Lat: lat, Lon: lon, Op: op.text, Radius: radius}, nil
}

func (p *parser) number() (float64, error) {
	t := p.next()
	if t.kind != tokWord {
		return 0, p.errorf(t, "expected number, got %s", t)
	}
	x, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, p.errorf(t, "expected number, got %s", t)
	}
	return x, nil
}
