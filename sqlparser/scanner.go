package sqlparser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/smasher164/xid"
)

// We don't do the lexer/parser split / token stream, but simply use the
// Scanner directly from the recursive descent parser; it is simply a cursor
// in the buffer with associated utility methods.
//
// The scanner understands the PostgreSQL lexical layer:
//   - string literals '...' with '' escape, and E'...' with backslash escapes
//   - dollar-quoted strings $$...$$ and $tag$...$tag$
//   - quoted identifiers "..." with "" escape
//   - single-line (--) and nested multi-line (/* */) comments
//   - the :: cast operator
type Scanner struct {
	input string
	file  FileRef

	startIndex int // start of this token
	curIndex   int // current position of the Scanner
	tokenType  TokenType

	startLine        int
	stopLine         int
	indexAtStartLine int // value of `curIndex` after newline char
	indexAtStopLine  int // value of `curIndex` after newline char

	reservedWord string // lower-case token text when tokenType is ReservedWordToken
}

func NewScanner(file FileRef, input string) *Scanner {
	return &Scanner{input: input, file: file}
}

func (s *Scanner) TokenType() TokenType {
	return s.tokenType
}

// Clone returns a copy of the scanner; this is used for look-ahead parsing.
func (s Scanner) Clone() *Scanner {
	result := new(Scanner)
	*result = s
	return result
}

func (s *Scanner) Token() string {
	return s.input[s.startIndex:s.curIndex]
}

func (s *Scanner) TokenLower() string {
	return strings.ToLower(s.Token())
}

func (s *Scanner) ReservedWord() string {
	return s.reservedWord
}

// Word returns the lower-cased token text when the current token is a
// reserved word or an unquoted identifier, else "". PostgreSQL keeps most
// statement-structural keywords (`returns`, `language`, `type`, ...)
// unreserved, so the parser matches them through this instead of
// ReservedWord().
func (s *Scanner) Word() string {
	switch s.tokenType {
	case ReservedWordToken, UnquotedIdentifierToken:
		return s.TokenLower()
	default:
		return ""
	}
}

func (s *Scanner) Start() Pos {
	return Pos{
		Line: s.startLine + 1,
		Col:  s.startIndex - s.indexAtStartLine + 1,
		File: s.file,
	}
}

func (s *Scanner) Stop() Pos {
	return Pos{
		Line: s.stopLine + 1,
		Col:  s.curIndex - s.indexAtStopLine + 1,
		File: s.file,
	}
}

func (s *Scanner) bumpLine(offset int) {
	s.stopLine++
	s.indexAtStopLine = s.curIndex + offset + 1
}

func (s *Scanner) SkipWhitespace() {
	for {
		switch s.TokenType() {
		case WhitespaceToken, MultilineCommentToken, SinglelineCommentToken, PragmaCommentToken:
		default:
			return
		}
		s.NextToken()
	}
}

func (s *Scanner) NextNonWhitespaceToken() TokenType {
	s.NextToken()
	s.SkipWhitespace()
	return s.TokenType()
}

// NextToken scans the next token and advances the Scanner's position to
// after the token.
func (s *Scanner) NextToken() TokenType {
	s.tokenType = s.nextToken()
	return s.tokenType
}

func (s *Scanner) nextToken() TokenType {
	s.startIndex = s.curIndex
	s.reservedWord = ""
	s.startLine = s.stopLine
	s.indexAtStartLine = s.indexAtStopLine
	r, w := utf8.DecodeRuneInString(s.input[s.curIndex:])

	// First, decisions that can be made after one character:
	switch {
	case r == utf8.RuneError && w == 0:
		return EOFToken
	case r == utf8.RuneError && w == 1:
		// not UTF-8, we can't really proceed so not advancing Scanner,
		// caller should take care to always exit..
		return NonUTF8ErrorToken
	case r == '(':
		s.curIndex += w
		return LeftParenToken
	case r == ')':
		s.curIndex += w
		return RightParenToken
	case r == ';':
		s.curIndex += w
		return SemicolonToken
	case r == '=':
		s.curIndex += w
		return EqualToken
	case r == ',':
		s.curIndex += w
		return CommaToken
	case r == '\'':
		s.curIndex += w
		return s.scanStringLiteral(StringLiteralToken)
	case r == '"':
		s.curIndex += w
		return s.scanQuotedIdentifier()
	case r == '$':
		return s.scanDollarQuote()
	case r >= '0' && r <= '9':
		return s.scanNumber()
	case unicode.IsSpace(r):
		// do not advance s.curIndex here, simpler to do it all in
		// scanWhitespace(); in case r == '\n' we need the line number bump
		return s.scanWhitespace()
	}

	// OK, we need to peek 1 character to make a decision
	r2, w2 := utf8.DecodeRuneInString(s.input[s.curIndex+w:])

	switch {
	case (r == 'E' || r == 'e') && r2 == '\'':
		s.curIndex += w + w2
		return s.scanEscapeStringLiteral()
	case r == '/' && r2 == '*':
		s.curIndex += w + w2
		return s.scanMultilineComment()
	case r == '-' && r2 == '-':
		s.curIndex += w + w2
		return s.scanSinglelineComment()
	case r == ':' && r2 == ':':
		s.curIndex += w + w2
		return CastToken
	case r == '.' && r2 >= '0' && r2 <= '9':
		return s.scanNumber()
	case r == '.':
		s.curIndex += w
		return DotToken
	case (r == '-' || r == '+') && (r2 >= '0' && r2 <= '9'):
		return s.scanNumber()
	case xid.Start(r) || r == '_':
		s.curIndex += w
		s.scanIdentifier()
		rw := s.TokenLower()
		if _, ok := reservedWords[rw]; ok {
			s.reservedWord = rw
			return ReservedWordToken
		}
		return UnquotedIdentifierToken
	}

	s.curIndex += w
	return OtherToken
}

// scanMultilineComment assumes one has advanced over '/*'. PostgreSQL
// block comments nest.
func (s *Scanner) scanMultilineComment() TokenType {
	depth := 1
	var prev rune
	for i, r := range s.input[s.curIndex:] {
		switch {
		case prev == '*' && r == '/':
			depth--
			if depth == 0 {
				s.curIndex += i + 1
				return MultilineCommentToken
			}
			r = 0 // don't let the '/' double as the start of '/*'
		case prev == '/' && r == '*':
			depth++
			r = 0
		case r == '\n':
			s.bumpLine(i)
		}
		prev = r
	}
	s.curIndex = len(s.input)
	return MultilineCommentToken
}

// scanSinglelineComment assumes one has advanced over --
func (s *Scanner) scanSinglelineComment() TokenType {
	isPragma := strings.HasPrefix(s.input[s.curIndex:], "!")
	end := strings.Index(s.input[s.curIndex:], "\n")
	if end == -1 {
		s.curIndex = len(s.input)
	} else {
		// the \n at the end is treated as whitespace, not part of the token
		s.curIndex += end
	}
	if isPragma {
		return PragmaCommentToken
	}
	return SinglelineCommentToken
}

// scanStringLiteral assumes one has scanned the opening quote; scans until
// the terminating quote, treating '' as an embedded quote.
func (s *Scanner) scanStringLiteral(tokenType TokenType) TokenType {
	return s.scanUntilSingleDoubleEscapes('\'', tokenType, UnterminatedStringErrorToken)
}

// scanEscapeStringLiteral assumes one has scanned E'; both backslash
// escapes and '' count as escapes here.
func (s *Scanner) scanEscapeStringLiteral() TokenType {
	skipnext := false
	for i, r := range s.input[s.curIndex:] {
		if skipnext {
			skipnext = false
			continue
		}
		switch {
		case r == '\\':
			skipnext = true
		case r == '\n':
			s.bumpLine(i)
		case r == '\'':
			r2, _ := utf8.DecodeRuneInString(s.input[s.curIndex+i+1:])
			if r2 == '\'' {
				skipnext = true
			} else {
				s.curIndex += i + 1
				return EscapeStringLiteralToken
			}
		}
	}
	s.curIndex = len(s.input)
	return UnterminatedStringErrorToken
}

func (s *Scanner) scanQuotedIdentifier() TokenType {
	return s.scanUntilSingleDoubleEscapes('"', QuotedIdentifierToken, UnterminatedIdentifierErrorToken)
}

// scanDollarQuote is positioned *on* the initial '$'. A '$', an optional
// identifier tag and a closing '$' open a dollar-quoted string which runs
// until the same tag appears again. A lone '$' that does not form a tag
// scans as OtherToken.
func (s *Scanner) scanDollarQuote() TokenType {
	rest := s.input[s.curIndex:]
	m := dollarTagRegexp.FindString(rest)
	if m == "" {
		s.curIndex++
		return OtherToken
	}
	end := strings.Index(rest[len(m):], m)
	if end == -1 {
		for i, r := range rest {
			if r == '\n' {
				s.bumpLine(i)
			}
		}
		s.curIndex = len(s.input)
		return UnterminatedDollarQuoteErrorToken
	}
	total := len(m) + end + len(m)
	for i, r := range rest[:total] {
		if r == '\n' {
			s.bumpLine(i)
		}
	}
	s.curIndex += total
	return DollarQuotedToken
}

var dollarTagRegexp = regexp.MustCompile(`^\$[A-Za-z_][A-Za-z0-9_]*\$|^\$\$`)

// scanIdentifier assumes the first character of an identifier has been
// consumed, and scans to the end.
func (s *Scanner) scanIdentifier() {
	for i, r := range s.input[s.curIndex:] {
		if !(xid.Continue(r) || r == '$' || r == '_') {
			s.curIndex += i
			return
		}
	}
	s.curIndex = len(s.input)
}

// DRY helper to handle both '' and "" escapes
func (s *Scanner) scanUntilSingleDoubleEscapes(endmarker rune, tokenType TokenType, unterminatedTokenType TokenType) TokenType {
	skipnext := false
	for i, r := range s.input[s.curIndex:] {
		if skipnext {
			skipnext = false
			continue
		}
		if r == '\n' {
			s.bumpLine(i)
		}
		if r == endmarker {
			r2, _ := utf8.DecodeRuneInString(s.input[s.curIndex+i+1:]) // r2 may be RuneError at eof
			if r2 == endmarker {
				// doubled endmarker is the escape form
				skipnext = true
			} else {
				s.curIndex += i + 1
				return tokenType
			}
		}
	}
	s.curIndex = len(s.input)
	return unterminatedTokenType
}

var numberRegexp = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d*)?`)

func (s *Scanner) scanNumber() TokenType {
	loc := numberRegexp.FindStringIndex(s.input[s.curIndex:])
	if len(loc) == 0 {
		panic("should always have a match according to regex and conditions in caller")
	}
	s.curIndex += loc[1]
	return NumberToken
}

func (s *Scanner) scanWhitespace() TokenType {
	for i, r := range s.input[s.curIndex:] {
		if r == '\n' {
			s.bumpLine(i)
		}
		if !unicode.IsSpace(r) {
			s.curIndex += i
			return WhitespaceToken
		}
	}
	// eof
	s.curIndex = len(s.input)
	return WhitespaceToken
}
