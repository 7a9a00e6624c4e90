package calc

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	pos  int
	op   byte
	num  float64
	text string
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return fmt.Sprintf("number %s", t.text)
	default:
		return fmt.Sprintf("'%s'", t.text)
	}
}

// lex splits expr into tokens, always terminated by a tokEOF token.
func lex(expr string) ([]token, error) {
	var toks []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			toks = append(toks, token{kind: tokOp, pos: i, op: c, text: string(c)})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
		case isDigit(c) || c == '.':
			end, err := scanNumber(expr, i)
			if err != nil {
				return nil, err
			}
			text := expr[i:end]
			v, perr := strconv.ParseFloat(text, 64)
			if perr != nil {
				return nil, &Error{Kind: KindSyntax, Pos: i, Msg: fmt.Sprintf("invalid number %q", text)}
			}
			toks = append(toks, token{kind: tokNumber, pos: i, num: v, text: text})
			i = end
		default:
			end := scanWord(expr, i)
			return nil, &Error{Kind: KindDisallowedToken, Pos: i, Msg: fmt.Sprintf("disallowed token %q", expr[i:end])}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(expr)}), nil
}

// scanNumber returns the end offset of the decimal literal starting at i:
// digits, an optional fraction and an optional exponent.
func scanNumber(expr string, i int) (int, error) {
	start := i
	digits := 0
	for i < len(expr) && isDigit(expr[i]) {
		i++
		digits++
	}
	if i < len(expr) && expr[i] == '.' {
		i++
		for i < len(expr) && isDigit(expr[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, &Error{Kind: KindSyntax, Pos: start, Msg: "malformed number"}
	}
	if i < len(expr) && (expr[i] == 'e' || expr[i] == 'E') {
		j := i + 1
		if j < len(expr) && (expr[j] == '+' || expr[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(expr) && isDigit(expr[j]) {
			j++
			expDigits++
		}
		if expDigits == 0 {
			return 0, &Error{Kind: KindSyntax, Pos: start, Msg: "malformed exponent"}
		}
		i = j
	}
	// A literal glued to letters ("2x", "1.5abc") is not arithmetic.
	if i < len(expr) && isWordByte(expr, i) {
		end := scanWord(expr, i)
		return 0, &Error{Kind: KindDisallowedToken, Pos: i, Msg: fmt.Sprintf("disallowed token %q", expr[i:end])}
	}
	return i, nil
}

// scanWord returns the end of the identifier-like run at i, or i+1 rune for
// a lone symbol, so error messages quote the offending token.
func scanWord(expr string, i int) int {
	if !isWordByte(expr, i) {
		_, size := utf8.DecodeRuneInString(expr[i:])
		return i + size
	}
	for i < len(expr) && isWordByte(expr, i) {
		_, size := utf8.DecodeRuneInString(expr[i:])
		i += size
	}
	return i
}

func isWordByte(expr string, i int) bool {
	r, _ := utf8.DecodeRuneInString(expr[i:])
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
