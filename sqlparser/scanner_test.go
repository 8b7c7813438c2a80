package sqlparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextToken(t *testing.T) {
	// just check that regexp returns nil if we didn't start to match...
	assert.Equal(t, []int(nil), numberRegexp.FindStringIndex("a123"))

	test := func(input string, expectedTokenType TokenType, expected string, extraAssertion ...func(s *Scanner)) func(*testing.T) {
		return func(t *testing.T) {
			s := NewScanner("test.sql", input)
			tt := s.NextToken()
			assert.Equal(t, expectedTokenType, tt)
			assert.Equal(t, expected, s.Token())
			for _, a := range extraAssertion {
				a(s)
			}
		}
	}

	t.Run("", test("    ", WhitespaceToken, "    "))
	t.Run("", test(" \t\t\n\n  \t \nasdf", WhitespaceToken, " \t\t\n\n  \t \n"))

	t.Run("", test("123", NumberToken, "123"))
	t.Run("", test("123;\n", NumberToken, "123"))
	t.Run("", test("+123.e-3_asdf", NumberToken, "+123.e-3"))
	t.Run("", test("-123.12e-35+a", NumberToken, "-123.12e-35"))
	t.Run("", test(".5 + 1", NumberToken, ".5"))

	t.Run("", test("'hello world'", StringLiteralToken, "'hello world'"))
	t.Run("", test("'hello world'after", StringLiteralToken, "'hello world'"))
	t.Run("", test("'hello '' world'after", StringLiteralToken, "'hello '' world'"))
	t.Run("", test("''''", StringLiteralToken, "''''"))
	t.Run("", test("''", StringLiteralToken, "''"))
	t.Run("", test("'''hello", UnterminatedStringErrorToken, "'''hello"))

	t.Run("", test(`E'a\'b'x`, EscapeStringLiteralToken, `E'a\'b'`))
	t.Run("", test(`e'a''b'x`, EscapeStringLiteralToken, `e'a''b'`))

	t.Run("", test(`"quoted id"rest`, QuotedIdentifierToken, `"quoted id"`))
	t.Run("", test(`"with""quote"rest`, QuotedIdentifierToken, `"with""quote"`))
	t.Run("", test(`"unterminated`, UnterminatedIdentifierErrorToken, `"unterminated`))

	t.Run("", test("$$ body; 'text' $$x", DollarQuotedToken, "$$ body; 'text' $$"))
	t.Run("", test("$fn$ nested $$ inner $$ $fn$;", DollarQuotedToken, "$fn$ nested $$ inner $$ $fn$"))
	t.Run("", test("$tag$never closed", UnterminatedDollarQuoteErrorToken, "$tag$never closed"))
	t.Run("", test("$1", OtherToken, "$"))

	t.Run("", test("/* comment\n\n */asdf", MultilineCommentToken, "/* comment\n\n */"))
	t.Run("", test("/* outer /* inner */ still outer */x", MultilineCommentToken, "/* outer /* inner */ still outer */"))
	// unterminated multiline comment is treated like a comment
	t.Run("", test("/* comment\n\n asdf", MultilineCommentToken, "/* comment\n\n asdf"))

	// single line comment .. trailing \n is not considered part of token
	t.Run("", test("-- test\nhello", SinglelineCommentToken, "-- test"))
	t.Run("", test("-- test", SinglelineCommentToken, "-- test"))
	t.Run("", test("--! name: foo\nx", PragmaCommentToken, "--! name: foo"))

	t.Run("", test("::int", CastToken, "::"))
	t.Run("", test(".x", DotToken, "."))
	t.Run("", test("(", LeftParenToken, "("))
	t.Run("", test(")", RightParenToken, ")"))
	t.Run("", test(";", SemicolonToken, ";"))
	t.Run("", test(",", CommaToken, ","))
	t.Run("", test("=", EqualToken, "="))

	t.Run("", test(``, EOFToken, ``))

	t.Run("", test("abc", UnquotedIdentifierToken, "abc"))
	t.Run("", test("_under_score9 x", UnquotedIdentifierToken, "_under_score9"))
	t.Run("", test("select * from", ReservedWordToken, "select", func(s *Scanner) {
		assert.Equal(t, "select", s.ReservedWord())
	}))
	t.Run("", test("CREATE table", ReservedWordToken, "CREATE", func(s *Scanner) {
		assert.Equal(t, "create", s.ReservedWord())
		assert.Equal(t, "create", s.Word())
	}))
	// `returns` is unreserved in PostgreSQL, but Word() still matches it
	t.Run("", test("returns setof", UnquotedIdentifierToken, "returns", func(s *Scanner) {
		assert.Equal(t, "", s.ReservedWord())
		assert.Equal(t, "returns", s.Word())
	}))

	t.Run("", test("<select", OtherToken, "<"))
}

func TestScannerPositions(t *testing.T) {
	s := NewScanner("pos.sql", "create\n  function")
	require.Equal(t, ReservedWordToken, s.NextToken())
	assert.Equal(t, Pos{File: "pos.sql", Line: 1, Col: 1}, s.Start())

	require.Equal(t, WhitespaceToken, s.NextToken())
	require.Equal(t, UnquotedIdentifierToken, s.NextToken())
	assert.Equal(t, Pos{File: "pos.sql", Line: 2, Col: 3}, s.Start())
}

func TestScannerTokenStream(t *testing.T) {
	s := NewScanner("stream.sql", "create function f(a int) returns void as $$ select 1; $$ language sql;")
	var types []TokenType
	for {
		tt := s.NextNonWhitespaceToken()
		if tt == EOFToken {
			break
		}
		types = append(types, tt)
	}
	assert.Equal(t, []TokenType{
		ReservedWordToken,       // create
		UnquotedIdentifierToken, // function
		UnquotedIdentifierToken, // f
		LeftParenToken,
		UnquotedIdentifierToken, // a
		UnquotedIdentifierToken, // int
		RightParenToken,
		UnquotedIdentifierToken, // returns
		UnquotedIdentifierToken, // void
		ReservedWordToken,       // as
		DollarQuotedToken,
		UnquotedIdentifierToken, // language
		UnquotedIdentifierToken, // sql
		SemicolonToken,
	}, types)
}

func TestScannerClone(t *testing.T) {
	s := NewScanner("clone.sql", "one two")
	s.NextToken()
	clone := s.Clone()
	s.NextNonWhitespaceToken()
	assert.Equal(t, "one", clone.Token())
	assert.Equal(t, "two", s.Token())
}

func TestStripDollarQuotes(t *testing.T) {
	assert.Equal(t, " body ", stripDollarQuotes("$$ body $$"))
	assert.Equal(t, "x", stripDollarQuotes("$fn$x$fn$"))
}

func TestScannerLongInput(t *testing.T) {
	// a long run of tokens should terminate and keep positions sane
	input := strings.Repeat("select 1;\n", 500)
	s := NewScanner("long.sql", input)
	count := 0
	for s.NextNonWhitespaceToken() != EOFToken {
		count++
	}
	assert.Equal(t, 1500, count)
	assert.Equal(t, 501, s.Stop().Line)
}
