// Package transform evaluates the arithmetic value transforms attached to
// sensors, e.g. "value / 1000". Expressions are parsed into a small tagged
// tree over a single variable; there is deliberately no function call,
// assignment or other scripting surface.
package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
)

// Expr is a compiled transform, safe for reuse across evaluations.
type Expr interface {
	Eval(value float64) (float64, error)
}

// Parse compiles a transform expression. An empty expression is the
// identity transform.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return variable{}, nil
	}

	p := &parser{input: input}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, errors.New().WithData(ErrParseFailed, struct {
			Expr     string
			Position int
		}{Expr: input, Position: p.pos})
	}

	return expr, nil
}

// Apply is a convenience for one-shot evaluation.
func Apply(input string, value float64) (float64, error) {
	expr, err := Parse(input)
	if err != nil {
		return 0, err
	}

	return expr.Eval(value)
}

type literal float64

func (l literal) Eval(_ float64) (float64, error) {
	return float64(l), nil
}

type variable struct{}

func (variable) Eval(value float64) (float64, error) {
	return value, nil
}

type unary struct {
	op      byte
	operand Expr
}

func (u unary) Eval(value float64) (float64, error) {
	v, err := u.operand.Eval(value)
	if err != nil {
		return 0, err
	}
	if u.op == '-' {
		return -v, nil
	}

	return v, nil
}

type binary struct {
	op          byte
	left, right Expr
}

func (b binary) Eval(value float64) (float64, error) {
	errFactory := errors.New()

	left, err := b.left.Eval(value)
	if err != nil {
		return 0, err
	}
	right, err := b.right.Eval(value)
	if err != nil {
		return 0, err
	}

	switch b.op {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	case '/':
		if right == 0 {
			return 0, errFactory.WithData(ErrEvalFailed, "division by zero")
		}
		return left / right, nil
	case '%':
		if right == 0 {
			return 0, errFactory.WithData(ErrEvalFailed, "modulo by zero")
		}
		return math.Mod(left, right), nil
	case '^':
		return math.Pow(left, right), nil
	}

	return 0, errFactory.WithData(ErrEvalFailed, "unknown operator "+string(b.op))
}

// parser is a recursive descent parser with operator precedence climbing.
// Grammar: expr := unary (op expr)* with '+'/'-' < '*'/'/'/'%' < '^',
// '^' binding right-associatively.
type parser struct {
	input string
	pos   int
}

func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/', '%':
		return 2
	case '^':
		return 3
	}

	return 0
}

func (p *parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return left, nil
		}

		op := p.input[p.pos]
		prec := precedence(op)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.pos++

		nextMin := prec + 1
		if op == '^' { // right-associative
			nextMin = prec
		}

		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	p.skipSpace()
	if p.pos < len(p.input) && (p.input[p.pos] == '+' || p.input[p.pos] == '-') {
		op := p.input[p.pos]
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return unary{op: op, operand: operand}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	errFactory := errors.New()
	p.skipSpace()

	if p.pos >= len(p.input) {
		return nil, errFactory.WithData(ErrParseFailed, "unexpected end of expression")
	}

	c := p.input[p.pos]
	switch {
	case c == '(':
		p.pos++
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return nil, errFactory.WithData(ErrParseFailed, "missing closing parenthesis")
		}
		p.pos++
		return expr, nil

	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()

	case isIdentByte(c):
		return p.parseIdent()
	}

	return nil, errFactory.WithData(ErrParseFailed, "unexpected character "+strconv.QuoteRune(rune(c)))
}

func (p *parser) parseNumber() (Expr, error) {
	errFactory := errors.New()

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		// exponent sign
		if (c == '+' || c == '-') && p.pos > start &&
			(p.input[p.pos-1] == 'e' || p.input[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}

	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, errFactory.WithData(ErrParseFailed, "invalid number "+p.input[start:p.pos])
	}

	return literal(f), nil
}

func (p *parser) parseIdent() (Expr, error) {
	errFactory := errors.New()

	start := p.pos
	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}

	name := p.input[start:p.pos]
	if name != "value" {
		return nil, errFactory.WithData(ErrUnknownVariable, name)
	}

	return variable{}, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
