package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// functionArity is the whitelist of callable functions. A minimum arity of
// 1 with maximum -1 means variadic. Any call outside this table is rejected
// at compile time.
var functionArity = map[string]struct{ min, max int }{
	"abs":   {1, 1},
	"min":   {1, -1},
	"max":   {1, -1},
	"sum":   {1, -1},
	"count": {1, 1},
	"len":   {1, 1},
}

// Binding powers, lowest to highest. Comparison operators do not chain:
// "a < b < c" parses but fails at evaluation with a TypeError, matching
// the intent that conditions are single comparisons joined by AND/OR.
const (
	precNone = iota
	precOr
	precAnd
	precCompare
	precAdditive
	precMultiplicative
	precUnary
)

func precedence(k tokenKind) int {
	switch k {
	case tokenOr:
		return precOr
	case tokenAnd:
		return precAnd
	case tokenEq, tokenNe, tokenLt, tokenGt, tokenLe, tokenGe:
		return precCompare
	case tokenPlus, tokenMinus:
		return precAdditive
	case tokenStar, tokenSlash, tokenPercent:
		return precMultiplicative
	}
	return precNone
}

// parser builds an expression tree from tokens with a bounded nesting
// depth so a pathological rulebook entry cannot exhaust the stack.
type parser struct {
	lex      *lexer
	cur      token
	depth    int
	maxDepth int
	fields   map[string]struct{}
}

func newParser(src string, maxDepth int) (*parser, error) {
	p := &parser{
		lex:      newLexer(src),
		maxDepth: maxDepth,
		fields:   make(map[string]struct{}),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) expect(kind tokenKind) error {
	if p.cur.kind != kind {
		return &SyntaxError{
			Offset:  p.cur.pos,
			Token:   p.cur.text,
			Message: fmt.Sprintf("expected %s, found %s", kind, p.cur.kind),
		}
	}
	return p.advance()
}

// parse consumes the whole source and returns the root node.
func (p *parser) parse() (node, error) {
	root, err := p.parseExpr(precNone)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokenEOF {
		return nil, &SyntaxError{
			Offset:     p.cur.pos,
			Token:      p.cur.text,
			Message:    "unexpected trailing input",
			Suggestion: "join multiple comparisons with AND or OR",
		}
	}
	return root, nil
}

// parseExpr is a precedence-climbing expression parser.
func (p *parser) parseExpr(minPrec int) (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec := precedence(p.cur.kind)
		if prec == precNone || prec <= minPrec {
			return left, nil
		}

		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{offset: op.pos, op: op.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	switch p.cur.kind {
	case tokenMinus, tokenPlus, tokenNot:
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		var operand node
		var err error
		if op.kind == tokenNot {
			// NOT binds looser than comparison so "NOT a > b" negates
			// the whole comparison, matching the source rulebooks.
			operand, err = p.parseExpr(precAnd)
		} else {
			operand, err = p.parseUnary()
		}
		if err != nil {
			return nil, err
		}
		return &unaryNode{offset: op.pos, op: op.kind, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.cur

	switch tok.kind {
	case tokenNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return parseNumber(tok)

	case tokenString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &stringNode{offset: tok.pos, value: tok.text}, nil

	case tokenTrue, tokenFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &boolNode{offset: tok.pos, value: tok.kind == tokenTrue}, nil

	case tokenIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokenLParen {
			return p.parseCall(tok)
		}
		p.fields[tok.text] = struct{}{}
		return &identNode{offset: tok.pos, name: tok.text}, nil

	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(precNone)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case tokenEOF:
		return nil, &SyntaxError{
			Offset:  tok.pos,
			Message: "unexpected end of expression",
		}
	}

	return nil, &SyntaxError{
		Offset:  tok.pos,
		Token:   tok.text,
		Message: fmt.Sprintf("unexpected %s", tok.kind),
	}
}

// parseCall parses a whitelisted function call; the opening parenthesis is
// the current token.
func (p *parser) parseCall(name token) (node, error) {
	fn := strings.ToLower(name.text)
	arity, ok := functionArity[fn]
	if !ok {
		return nil, &SyntaxError{
			Offset:     name.pos,
			Token:      name.text,
			Message:    "unknown function",
			Suggestion: "allowed functions: abs, min, max, sum, count, len",
		}
	}

	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}

	var args []node
	if p.cur.kind != tokenRParen {
		for {
			arg, err := p.parseExpr(precNone)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind != tokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(tokenRParen); err != nil {
		return nil, err
	}

	if len(args) < arity.min || (arity.max >= 0 && len(args) > arity.max) {
		return nil, &SyntaxError{
			Offset:  name.pos,
			Token:   name.text,
			Message: fmt.Sprintf("function %s called with %d argument(s)", fn, len(args)),
		}
	}
	return &callNode{offset: name.pos, fn: fn, args: args}, nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return &SyntaxError{
			Offset:  p.cur.pos,
			Message: fmt.Sprintf("expression nesting exceeds %d levels", p.maxDepth),
		}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// fieldNames returns the sorted set of identifiers referenced by the
// parsed expression.
func (p *parser) fieldNames() []string {
	names := make([]string, 0, len(p.fields))
	for name := range p.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseNumber(tok token) (node, error) {
	if !strings.ContainsAny(tok.text, ".eE") {
		iv, err := strconv.ParseInt(tok.text, 10, 64)
		if err == nil {
			return &numberNode{offset: tok.pos, intVal: iv}, nil
		}
		// Fall through to float for integers beyond int64 range.
	}
	fv, err := strconv.ParseFloat(tok.text, 64)
	if err != nil {
		return nil, &SyntaxError{
			Offset:  tok.pos,
			Token:   tok.text,
			Message: "malformed number literal",
		}
	}
	return &numberNode{offset: tok.pos, isFloat: true, fltVal: fv}, nil
}
