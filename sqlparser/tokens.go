package sqlparser

// TokenType represents the type of a lexical token produced by Scanner.
type TokenType int

const (
	EOFToken TokenType = iota
	WhitespaceToken
	LeftParenToken
	RightParenToken
	SemicolonToken
	EqualToken
	CommaToken
	DotToken
	CastToken // ::

	StringLiteralToken       // '...' with '' escape
	EscapeStringLiteralToken // E'...' with backslash escapes
	DollarQuotedToken        // $$...$$ or $tag$...$tag$
	NumberToken

	MultilineCommentToken
	SinglelineCommentToken
	PragmaCommentToken // --! docstring pragma line

	ReservedWordToken
	UnquotedIdentifierToken
	QuotedIdentifierToken // "..."

	OtherToken

	UnterminatedStringErrorToken
	UnterminatedIdentifierErrorToken
	UnterminatedDollarQuoteErrorToken
	NonUTF8ErrorToken
)

var tokenTypeNames = map[TokenType]string{
	EOFToken:                          "EOFToken",
	WhitespaceToken:                   "WhitespaceToken",
	LeftParenToken:                    "LeftParenToken",
	RightParenToken:                   "RightParenToken",
	SemicolonToken:                    "SemicolonToken",
	EqualToken:                        "EqualToken",
	CommaToken:                        "CommaToken",
	DotToken:                          "DotToken",
	CastToken:                         "CastToken",
	StringLiteralToken:                "StringLiteralToken",
	EscapeStringLiteralToken:          "EscapeStringLiteralToken",
	DollarQuotedToken:                 "DollarQuotedToken",
	NumberToken:                       "NumberToken",
	MultilineCommentToken:             "MultilineCommentToken",
	SinglelineCommentToken:            "SinglelineCommentToken",
	PragmaCommentToken:                "PragmaCommentToken",
	ReservedWordToken:                 "ReservedWordToken",
	UnquotedIdentifierToken:           "UnquotedIdentifierToken",
	QuotedIdentifierToken:             "QuotedIdentifierToken",
	OtherToken:                        "OtherToken",
	UnterminatedStringErrorToken:      "UnterminatedStringErrorToken",
	UnterminatedIdentifierErrorToken:  "UnterminatedIdentifierErrorToken",
	UnterminatedDollarQuoteErrorToken: "UnterminatedDollarQuoteErrorToken",
	NonUTF8ErrorToken:                 "NonUTF8ErrorToken",
}

func (t TokenType) String() string {
	if s, ok := tokenTypeNames[t]; ok {
		return s
	}
	return "UnknownToken"
}

// IsError returns true for tokens that indicate a scanning failure.
func (t TokenType) IsError() bool {
	switch t {
	case UnterminatedStringErrorToken, UnterminatedIdentifierErrorToken,
		UnterminatedDollarQuoteErrorToken, NonUTF8ErrorToken:
		return true
	default:
		return false
	}
}
