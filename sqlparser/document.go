package sqlparser

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
)

// Document is the result of parsing one or more SQL sources: the function
// declarations plus the symbol tables for tables, composite types and enum
// types. It is populated during parsing and strictly read afterwards; one
// Document is constructed per generator invocation.
type Document struct {
	Functions []*Function
	RowTypes  []*RowType  // declaration order
	EnumTypes []*EnumType // declaration order

	rowIndex  map[string]*RowType
	enumIndex map[string]*EnumType

	errors   []Error // fatal: abort the run
	warnings []Error // survivable: skipped functions, duplicate definitions
}

func NewDocument() *Document {
	return &Document{
		rowIndex:  make(map[string]*RowType),
		enumIndex: make(map[string]*EnumType),
	}
}

// ParseString parses a functions file (which may also contain DDL).
func ParseString(file FileRef, input string) *Document {
	d := NewDocument()
	d.Parse(file, input)
	return d
}

// Parse parses a functions file into the document.
func (d *Document) Parse(file FileRef, input string) {
	d.parse(file, input, false)
}

// ParseSchema parses a schema file. Definitions from a schema file are
// authoritative: a later duplicate in the functions file is ignored with a
// warning. Call ParseSchema before Parse.
func (d *Document) ParseSchema(file FileRef, input string) {
	d.parse(file, input, true)
}

func (d *Document) HasErrors() bool {
	return len(d.errors) > 0
}

func (d *Document) Errors() []Error {
	return d.errors
}

func (d *Document) Warnings() []Error {
	return d.warnings
}

func (d *Document) Empty() bool {
	return len(d.Functions) == 0 && len(d.RowTypes) == 0 && len(d.EnumTypes) == 0
}

// LookupRow resolves a table or composite type name, trying the name as
// written first and then its unqualified form. Unquoted identifiers fold
// to lower case in PostgreSQL, so lookups are case-insensitive.
func (d *Document) LookupRow(name string) *RowType {
	name = strings.ToLower(name)
	if t, ok := d.rowIndex[name]; ok {
		return t
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		if t, ok := d.rowIndex[name[i+1:]]; ok {
			return t
		}
	}
	return nil
}

func (d *Document) LookupEnum(name string) *EnumType {
	name = strings.ToLower(name)
	if t, ok := d.enumIndex[name]; ok {
		return t
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		if t, ok := d.enumIndex[name[i+1:]]; ok {
			return t
		}
	}
	return nil
}

func (d *Document) addError(pos Pos, format string, args ...any) {
	d.errors = append(d.errors, Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (d *Document) addWarning(pos Pos, format string, args ...any) {
	d.warnings = append(d.warnings, Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// addRowType registers a table/composite under both its qualified and
// unqualified names. Earlier bindings win (the schema file is parsed
// first); conflicting redefinitions warn instead of silently overwriting.
func (d *Document) addRowType(t *RowType) {
	lower := strings.ToLower(t.Name.Value)
	keys := []string{lower}
	if i := strings.LastIndex(lower, "."); i >= 0 {
		keys = append(keys, lower[i+1:])
	}
	if existing, ok := d.rowIndex[keys[len(keys)-1]]; ok {
		d.addWarning(t.Name.Pos, "duplicate definition of %s %s; keeping the one from %s",
			t.Kind, t.Name.Value, existing.Name.File)
		return
	}
	d.RowTypes = append(d.RowTypes, t)
	for _, k := range keys {
		if _, ok := d.rowIndex[k]; !ok {
			d.rowIndex[k] = t
		}
	}
}

func (d *Document) addEnumType(t *EnumType) {
	lower := strings.ToLower(t.Name.Value)
	keys := []string{lower}
	if i := strings.LastIndex(lower, "."); i >= 0 {
		keys = append(keys, lower[i+1:])
	}
	if existing, ok := d.enumIndex[keys[len(keys)-1]]; ok {
		d.addWarning(t.Name.Pos, "duplicate definition of enum type %s; keeping the one from %s",
			t.Name.Value, existing.Name.File)
		return
	}
	d.EnumTypes = append(d.EnumTypes, t)
	for _, k := range keys {
		if _, ok := d.enumIndex[k]; !ok {
			d.enumIndex[k] = t
		}
	}
}

// parse walks the token stream statement by statement. Documentation
// comments are accumulated as they stream by; the association with the
// following CREATE FUNCTION is reset by a blank line or by any other
// statement in between.
func (d *Document) parse(file FileRef, input string, isSchemaFile bool) {
	s := NewScanner(file, input)
	var docstring []PosString

	s.NextToken()
	for {
		tt := s.TokenType()
		switch {
		case tt == EOFToken:
			return
		case tt.IsError():
			d.addError(s.Start(), "cannot scan input: %s", tt)
			return
		case tt == WhitespaceToken:
			// a blank line between a comment block and the declaration kills
			// the association
			if strings.Count(s.Token(), "\n") > 1 {
				docstring = nil
			}
			s.NextToken()
		case tt == SinglelineCommentToken, tt == PragmaCommentToken, tt == MultilineCommentToken:
			docstring = append(docstring, PosString{s.Start(), s.Token()})
			s.NextToken()
		case tt == ReservedWordToken && s.ReservedWord() == "create":
			d.parseCreate(s, docstring, isSchemaFile)
			docstring = nil
		default:
			// some other statement (SET, GRANT, INSERT, ...); skip it whole
			docstring = nil
			d.skipStatement(s)
		}
	}
}

// skipStatement consumes tokens until after the next top-level semicolon.
func (d *Document) skipStatement(s *Scanner) {
	depth := 0
	for {
		switch s.TokenType() {
		case EOFToken:
			return
		case LeftParenToken:
			depth++
		case RightParenToken:
			depth--
		case SemicolonToken:
			if depth <= 0 {
				// advance one token only; the statement loop owns comment
				// accumulation for the next declaration
				s.NextToken()
				return
			}
		}
		if s.TokenType().IsError() {
			d.addError(s.Start(), "cannot scan input: %s", s.TokenType())
			return
		}
		s.NextToken()
	}
}

// parseCreate is positioned on the `create` keyword and dispatches on what
// is being created. Unrecognized CREATE statements (indexes, views, ...)
// are skipped silently.
func (d *Document) parseCreate(s *Scanner, docstring []PosString, isSchemaFile bool) {
	createPos := s.Start()
	s.NextNonWhitespaceToken()
	if s.Word() == "or" {
		s.NextNonWhitespaceToken()
		if s.Word() != "replace" {
			d.addWarning(createPos, "expected REPLACE after CREATE OR")
			d.skipStatement(s)
			return
		}
		s.NextNonWhitespaceToken()
	}

	switch s.Word() {
	case "table":
		s.NextNonWhitespaceToken()
		d.parseCreateTable(s, isSchemaFile)
	case "type":
		s.NextNonWhitespaceToken()
		d.parseCreateType(s, isSchemaFile)
	case "function":
		s.NextNonWhitespaceToken()
		d.parseCreateFunction(s, createPos, docstring)
	default:
		d.skipStatement(s)
	}
}

// parseQualifiedName parses `name` or `schema.name`, where each segment is
// a quoted or unquoted identifier. Leaves the scanner after the name.
func (d *Document) parseQualifiedName(s *Scanner) (PosString, bool) {
	pos := s.Start()
	var segments []string
	for {
		switch s.TokenType() {
		case UnquotedIdentifierToken, ReservedWordToken:
			segments = append(segments, s.Token())
		case QuotedIdentifierToken:
			segments = append(segments, unquoteIdentifier(s.Token()))
		default:
			return PosString{}, false
		}
		s.NextNonWhitespaceToken()
		if s.TokenType() != DotToken {
			break
		}
		s.NextNonWhitespaceToken()
	}
	return PosString{Pos: pos, Value: strings.Join(segments, ".")}, true
}

func unquoteIdentifier(token string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(token, `"`), `"`)
	return strings.ReplaceAll(inner, `""`, `"`)
}

// unquoteStringLiteral removes the outer quotes of a '...' literal and
// resolves the '' escape.
func unquoteStringLiteral(token string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(token, `'`), `'`)
	return strings.ReplaceAll(inner, `''`, `'`)
}

var pgDriver = &stdlib.Driver{}
