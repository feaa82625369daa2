// Package license checks package license declarations against an approved
// license track.
package license

import (
	"errors"
	"fmt"
	"strings"
)

var ErrExpression = errors.New("malformed license expression")

// Approver decides whether a single license token is acceptable.
type Approver interface {
	Allowed(token string) bool
}

// expr is a parsed license expression: a leaf token, or an & / | node.
type expr struct {
	op       byte // 0 for a leaf
	token    string
	operands []*expr
}

func (e *expr) eval(a Approver) bool {
	switch e.op {
	case '&':
		for _, o := range e.operands {
			if !o.eval(a) {
				return false
			}
		}
		return true
	case '|':
		for _, o := range e.operands {
			if o.eval(a) {
				return true
			}
		}
		return false
	}
	return a.Allowed(e.token)
}

// Approved evaluates a license expression such as "GPLv2+ & (MIT | BSD)".
// & binds tighter than |. A trailing '+' on a token is ignored.
func Approved(expression string, a Approver) (bool, error) {
	e, err := parseExpression(expression)
	if err != nil {
		return false, err
	}
	return e.eval(a), nil
}

// SplitDeclaration separates "component:expression". A declaration without
// a component is returned whole as the expression.
func SplitDeclaration(decl string) (component, expression string) {
	if i := strings.IndexByte(decl, ':'); i >= 0 {
		return strings.TrimSpace(decl[:i]), decl[i+1:]
	}
	return "", decl
}

type parser struct {
	toks []string
	pos  int
}

func parseExpression(s string) (*expr, error) {
	p := &parser{toks: tokenize(s)}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrExpression)
	}
	e, err := p.or()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrExpression, s, err)
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%w: %q: unexpected %q", ErrExpression, s, p.toks[p.pos])
	}
	return e, nil
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '&' || r == '|' || r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func (p *parser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *parser) or() (*expr, error) {
	return p.binary('|', p.and)
}

func (p *parser) and() (*expr, error) {
	return p.binary('&', p.operand)
}

func (p *parser) binary(op byte, next func() (*expr, error)) (*expr, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	operands := []*expr{first}
	for p.peek() == string(op) {
		p.pos++
		o, err := next()
		if err != nil {
			return nil, err
		}
		operands = append(operands, o)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return &expr{op: op, operands: operands}, nil
}

func (p *parser) operand() (*expr, error) {
	tok := p.peek()
	switch tok {
	case "":
		return nil, errors.New("unexpected end")
	case "&", "|", ")":
		return nil, fmt.Errorf("unexpected %q", tok)
	case "(":
		p.pos++
		e, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, errors.New("missing )")
		}
		p.pos++
		return e, nil
	}
	p.pos++
	return &expr{token: strings.TrimSuffix(tok, "+")}, nil
}
