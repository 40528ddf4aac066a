package expr

// tokenKind identifies the lexical class of a token.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString
	tokenIdent

	// Keywords (case-insensitive).
	tokenAnd
	tokenOr
	tokenNot
	tokenTrue
	tokenFalse

	// Operators and punctuation.
	tokenPlus    // +
	tokenMinus   // -
	tokenStar    // *
	tokenSlash   // /
	tokenPercent // %
	tokenLt      // <
	tokenGt      // >
	tokenLe      // <=
	tokenGe      // >=
	tokenEq      // ==
	tokenNe      // !=
	tokenLParen  // (
	tokenRParen  // )
	tokenComma   // ,
)

// token is a single lexical token with its source offset.
type token struct {
	kind tokenKind
	text string
	pos  int // byte offset into the source
}

// kindNames maps token kinds to human-readable names for error messages.
var kindNames = map[tokenKind]string{
	tokenEOF:     "end of expression",
	tokenNumber:  "number",
	tokenString:  "string",
	tokenIdent:   "identifier",
	tokenAnd:     "AND",
	tokenOr:      "OR",
	tokenNot:     "NOT",
	tokenTrue:    "true",
	tokenFalse:   "false",
	tokenPlus:    "+",
	tokenMinus:   "-",
	tokenStar:    "*",
	tokenSlash:   "/",
	tokenPercent: "%",
	tokenLt:      "<",
	tokenGt:      ">",
	tokenLe:      "<=",
	tokenGe:      ">=",
	tokenEq:      "==",
	tokenNe:      "!=",
	tokenLParen:  "(",
	tokenRParen:  ")",
	tokenComma:   ",",
}

func (k tokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown token"
}
