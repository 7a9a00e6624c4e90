// Package calc evaluates arithmetic expressions.
//
// The grammar is deliberately tiny: decimal literals, the binary operators
// + - * /, unary sign, and parentheses. Anything else is rejected during
// lexing, so an expression never reaches evaluation unless every token is
// arithmetic.
//
//	expr    = term { ("+" | "-") term } .
//	term    = unary { ("*" | "/") unary } .
//	unary   = ("+" | "-") unary | primary .
//	primary = number | "(" expr ")" .
package calc

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// MaxLength bounds the accepted expression size in bytes.
	MaxLength = 4096
	// MaxDepth bounds parenthesis and unary-sign nesting.
	MaxDepth = 128
)

// ErrorKind classifies evaluation failures.
type ErrorKind string

const (
	KindEmpty           ErrorKind = "empty"
	KindSyntax          ErrorKind = "syntax"
	KindDisallowedToken ErrorKind = "disallowed_token"
	KindDivisionByZero  ErrorKind = "division_by_zero"
	KindNonFinite       ErrorKind = "non_finite"
	KindTooComplex      ErrorKind = "too_complex"
)

// Error describes why an expression could not be evaluated.
type Error struct {
	Kind ErrorKind
	// Pos is the byte offset in the expression, or -1 when not applicable.
	Pos int
	Msg string
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
	}
	return e.Msg
}

// Evaluate parses and evaluates expr, returning the formatted result.
func Evaluate(expr string) (string, error) {
	v, err := Eval(expr)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// Eval parses and evaluates expr.
func Eval(expr string) (float64, error) {
	if len(expr) > MaxLength {
		return 0, &Error{Kind: KindTooComplex, Pos: -1, Msg: fmt.Sprintf("expression longer than %d bytes", MaxLength)}
	}
	toks, err := lex(expr)
	if err != nil {
		return 0, err
	}
	if len(toks) == 1 {
		return 0, &Error{Kind: KindEmpty, Pos: -1, Msg: "empty expression"}
	}

	p := &parser{toks: toks}
	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, &Error{Kind: KindSyntax, Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &Error{Kind: KindNonFinite, Pos: -1, Msg: "result is not a finite number"}
	}
	return v, nil
}

// Format renders v with the shortest decimal representation that round-trips.
func Format(v float64) string {
	if v == 0 {
		// Collapse negative zero.
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expr(depth int) (float64, error) {
	left, err := p.term(depth)
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '+' && t.op != '-') {
			return left, nil
		}
		p.next()
		right, err := p.term(depth)
		if err != nil {
			return 0, err
		}
		if t.op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term(depth int) (float64, error) {
	left, err := p.unary(depth)
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '*' && t.op != '/') {
			return left, nil
		}
		p.next()
		right, err := p.unary(depth)
		if err != nil {
			return 0, err
		}
		if t.op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, &Error{Kind: KindDivisionByZero, Pos: t.pos, Msg: "division by zero"}
		}
		left /= right
	}
}

func (p *parser) unary(depth int) (float64, error) {
	if depth > MaxDepth {
		return 0, &Error{Kind: KindTooComplex, Pos: p.peek().pos, Msg: "expression nested too deeply"}
	}
	t := p.peek()
	if t.kind == tokOp && (t.op == '+' || t.op == '-') {
		p.next()
		v, err := p.unary(depth + 1)
		if err != nil {
			return 0, err
		}
		if t.op == '-' {
			return -v, nil
		}
		return v, nil
	}
	return p.primary(depth)
}

func (p *parser) primary(depth int) (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokLParen:
		v, err := p.expr(depth + 1)
		if err != nil {
			return 0, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			return 0, &Error{Kind: KindSyntax, Pos: closing.pos, Msg: fmt.Sprintf("expected ')' but found %s", closing)}
		}
		return v, nil
	default:
		return 0, &Error{Kind: KindSyntax, Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
	}
}
