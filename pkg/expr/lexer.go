package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer splits condition source into tokens. Identifiers may start with
// any Unicode letter or underscore and continue with letters, digits, or
// underscores, so Chinese financial field names lex as single identifiers.
type lexer struct {
	src string
	pos int // current byte offset
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

// next returns the next token, or a *SyntaxError for an unrecognized rune.
func (l *lexer) next() (token, error) {
	l.skipSpace()

	if l.pos >= len(l.src) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case isIdentStart(r):
		return l.lexIdent(start), nil
	case unicode.IsDigit(r) || (r == '.' && l.digitFollows(size)):
		return l.lexNumber(start)
	case r == '"' || r == '\'':
		return l.lexString(start, r)
	}

	// Operators and punctuation.
	two := ""
	if start+2 <= len(l.src) {
		two = l.src[start : start+2]
	}
	switch two {
	case "<=":
		l.pos += 2
		return token{kind: tokenLe, text: two, pos: start}, nil
	case ">=":
		l.pos += 2
		return token{kind: tokenGe, text: two, pos: start}, nil
	case "==":
		l.pos += 2
		return token{kind: tokenEq, text: two, pos: start}, nil
	case "!=":
		l.pos += 2
		return token{kind: tokenNe, text: two, pos: start}, nil
	case "&&":
		l.pos += 2
		return token{kind: tokenAnd, text: two, pos: start}, nil
	case "||":
		l.pos += 2
		return token{kind: tokenOr, text: two, pos: start}, nil
	}

	singles := map[rune]tokenKind{
		'+': tokenPlus,
		'-': tokenMinus,
		'*': tokenStar,
		'/': tokenSlash,
		'%': tokenPercent,
		'<': tokenLt,
		'>': tokenGt,
		'!': tokenNot,
		'(': tokenLParen,
		')': tokenRParen,
		',': tokenComma,
	}
	if kind, ok := singles[r]; ok {
		l.pos += size
		return token{kind: kind, text: string(r), pos: start}, nil
	}

	return token{}, &SyntaxError{
		Offset:     start,
		Token:      string(r),
		Message:    "unrecognized character",
		Suggestion: "only arithmetic, comparison, and boolean operators are allowed",
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *lexer) digitFollows(offset int) bool {
	if l.pos+offset >= len(l.src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+offset:])
	return unicode.IsDigit(r)
}

// lexIdent consumes an identifier or keyword starting at the current offset.
func (l *lexer) lexIdent(start int) token {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	text := l.src[start:l.pos]

	switch strings.ToUpper(text) {
	case "AND":
		return token{kind: tokenAnd, text: text, pos: start}
	case "OR":
		return token{kind: tokenOr, text: text, pos: start}
	case "NOT":
		return token{kind: tokenNot, text: text, pos: start}
	case "TRUE":
		return token{kind: tokenTrue, text: text, pos: start}
	case "FALSE":
		return token{kind: tokenFalse, text: text, pos: start}
	}
	return token{kind: tokenIdent, text: text, pos: start}
}

// lexNumber consumes an integer or floating-point literal.
func (l *lexer) lexNumber(start int) (token, error) {
	sawDot := false
	sawExp := false

	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case unicode.IsDigit(r):
			l.pos += size
		case r == '.' && !sawDot && !sawExp:
			sawDot = true
			l.pos += size
		case (r == 'e' || r == 'E') && !sawExp:
			sawExp = true
			l.pos += size
			// Optional exponent sign.
			if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
				l.pos++
			}
		default:
			goto done
		}
	}

done:
	text := l.src[start:l.pos]
	if strings.HasSuffix(text, "e") || strings.HasSuffix(text, "E") ||
		strings.HasSuffix(text, "+") || strings.HasSuffix(text, "-") {
		return token{}, &SyntaxError{
			Offset:  start,
			Token:   text,
			Message: "malformed number literal",
		}
	}
	return token{kind: tokenNumber, text: text, pos: start}, nil
}

// lexString consumes a quoted string literal. No escape sequences are
// supported; financial field values never need them.
func (l *lexer) lexString(start int, quote rune) (token, error) {
	l.pos += utf8.RuneLen(quote)
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		if r == quote {
			return token{kind: tokenString, text: l.src[start+1 : l.pos-size], pos: start}, nil
		}
	}
	return token{}, &SyntaxError{
		Offset:     start,
		Message:    "unterminated string literal",
		Suggestion: "close the string with a matching quote",
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
