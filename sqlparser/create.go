package sqlparser

import "strings"

// parseCreateTable is positioned on the first token after `CREATE TABLE`.
// Trailing INHERITS/WITH/TABLESPACE clauses are skipped unparsed.
func (d *Document) parseCreateTable(s *Scanner, isSchemaFile bool) {
	// optional IF NOT EXISTS
	if s.Word() == "if" {
		s.NextNonWhitespaceToken()
		if s.ReservedWord() == "not" {
			s.NextNonWhitespaceToken()
		}
		if s.Word() == "exists" {
			s.NextNonWhitespaceToken()
		}
	}

	name, ok := d.parseQualifiedName(s)
	if !ok {
		d.addError(s.Start(), "CREATE TABLE: expected a table name, got: %s", s.Token())
		d.skipStatement(s)
		return
	}
	if s.TokenType() != LeftParenToken {
		d.addError(s.Start(), "CREATE TABLE %s: expected '(', got: %s", name.Value, s.Token())
		d.skipStatement(s)
		return
	}

	items, ok := d.parseParenItems(s)
	if !ok {
		d.addError(name.Pos, "CREATE TABLE %s: unterminated column list", name.Value)
		return
	}

	columns, ok := d.parseColumnItems(name, items)
	if !ok {
		// malformed column list is fatal: the table may be a dependency of
		// many outputs
		d.skipStatement(s)
		return
	}

	d.addRowType(&RowType{
		Name:           name,
		Kind:           TableRow,
		Columns:        columns,
		FromSchemaFile: isSchemaFile,
	})
	d.skipStatement(s)
}

// parseCreateType is positioned on the first token after `CREATE TYPE` and
// handles both `AS (...)` composites and `AS ENUM (...)`.
func (d *Document) parseCreateType(s *Scanner, isSchemaFile bool) {
	name, ok := d.parseQualifiedName(s)
	if !ok {
		d.addError(s.Start(), "CREATE TYPE: expected a type name, got: %s", s.Token())
		d.skipStatement(s)
		return
	}
	if s.ReservedWord() != "as" {
		// some other kind of type (range, base, ...); not our concern
		d.skipStatement(s)
		return
	}
	s.NextNonWhitespaceToken()

	if s.Word() == "enum" {
		s.NextNonWhitespaceToken()
		d.parseEnumLabels(s, name, isSchemaFile)
		return
	}

	if s.TokenType() != LeftParenToken {
		d.addError(s.Start(), "CREATE TYPE %s AS: expected '(' or ENUM, got: %s", name.Value, s.Token())
		d.skipStatement(s)
		return
	}

	items, ok := d.parseParenItems(s)
	if !ok {
		d.addError(name.Pos, "CREATE TYPE %s: unterminated field list", name.Value)
		return
	}
	columns, ok := d.parseColumnItems(name, items)
	if !ok {
		d.skipStatement(s)
		return
	}

	d.addRowType(&RowType{
		Name:           name,
		Kind:           CompositeRow,
		Columns:        columns,
		FromSchemaFile: isSchemaFile,
	})
	d.skipStatement(s)
}

// parseEnumLabels is positioned on the '(' of `AS ENUM (...)`. Labels are
// kept verbatim, case-sensitively.
func (d *Document) parseEnumLabels(s *Scanner, name PosString, isSchemaFile bool) {
	if s.TokenType() != LeftParenToken {
		d.addError(s.Start(), "CREATE TYPE %s AS ENUM: expected '(', got: %s", name.Value, s.Token())
		d.skipStatement(s)
		return
	}
	var labels []string
	for {
		switch s.NextNonWhitespaceToken() {
		case StringLiteralToken, EscapeStringLiteralToken:
			labels = append(labels, unquoteStringLiteral(strings.TrimPrefix(strings.TrimPrefix(s.Token(), "E"), "e")))
		case RightParenToken:
			// empty enum or trailing comma; accept what we have
			d.finishEnum(s, name, labels, isSchemaFile)
			return
		default:
			d.addError(s.Start(), "CREATE TYPE %s AS ENUM: expected a label string, got: %s", name.Value, s.Token())
			d.skipStatement(s)
			return
		}
		switch s.NextNonWhitespaceToken() {
		case CommaToken:
			continue
		case RightParenToken:
			d.finishEnum(s, name, labels, isSchemaFile)
			return
		default:
			d.addError(s.Start(), "CREATE TYPE %s AS ENUM: expected ',' or ')', got: %s", name.Value, s.Token())
			d.skipStatement(s)
			return
		}
	}
}

func (d *Document) finishEnum(s *Scanner, name PosString, labels []string, isSchemaFile bool) {
	d.addEnumType(&EnumType{Name: name, Labels: labels, FromSchemaFile: isSchemaFile})
	s.NextNonWhitespaceToken()
	d.skipStatement(s)
}

// parseCreateFunction is positioned on the first token after
// `CREATE [OR REPLACE] FUNCTION`. Failures here are survivable: the one
// function is skipped with a warning and parsing continues.
func (d *Document) parseCreateFunction(s *Scanner, createPos Pos, docstring []PosString) {
	name, ok := d.parseQualifiedName(s)
	if !ok {
		d.addWarning(s.Start(), "CREATE FUNCTION: expected a function name, got: %s; skipping", s.Token())
		d.skipStatement(s)
		return
	}
	if s.TokenType() != LeftParenToken {
		d.addWarning(s.Start(), "CREATE FUNCTION %s: expected '(', got: %s; skipping", name.Value, s.Token())
		d.skipStatement(s)
		return
	}
	items, ok := d.parseParenItems(s)
	if !ok {
		d.addWarning(name.Pos, "CREATE FUNCTION %s: unterminated parameter list; skipping", name.Value)
		return
	}
	params, ok := d.parseParameterItems(name, items)
	if !ok {
		d.skipStatement(s)
		return
	}

	if s.Word() != "returns" {
		d.addWarning(s.Start(), "CREATE FUNCTION %s: expected RETURNS, got: %s; skipping", name.Value, s.Token())
		d.skipStatement(s)
		return
	}
	s.NextNonWhitespaceToken()

	ret, ok := d.parseReturnsClause(s, name)
	if !ok {
		d.skipStatement(s)
		return
	}

	body := d.parseFunctionBody(s)

	d.Functions = append(d.Functions, &Function{
		Name:      name,
		Params:    params,
		Returns:   ret,
		Docstring: docstring,
		Body:      body,
		Driver:    pgDriver,
	})
}

// parseReturnsClause is positioned after the RETURNS keyword and consumes
// the return type, terminating at AS or LANGUAGE (or end of statement).
func (d *Document) parseReturnsClause(s *Scanner, name PosString) (ReturnSpec, bool) {
	var ret ReturnSpec

	if s.ReservedWord() == "setof" {
		ret.SetOf = true
		s.NextNonWhitespaceToken()
	}

	switch s.Word() {
	case "void":
		ret.Void = true
		s.NextNonWhitespaceToken()
		return ret, true
	case "record":
		ret.Record = true
		s.NextNonWhitespaceToken()
		return ret, true
	case "table":
		s.NextNonWhitespaceToken()
		if s.TokenType() != LeftParenToken {
			d.addWarning(s.Start(), "CREATE FUNCTION %s: expected '(' after RETURNS TABLE; skipping", name.Value)
			return ret, false
		}
		items, ok := d.parseParenItems(s)
		if !ok {
			d.addWarning(name.Pos, "CREATE FUNCTION %s: unterminated RETURNS TABLE column list; skipping", name.Value)
			return ret, false
		}
		columns, ok := d.parseTableLiteralItems(name, items)
		if !ok {
			return ret, false
		}
		ret.TableLiteral = true
		ret.TableColumns = columns
		return ret, true
	}

	// a scalar, array, table, composite or enum type name: gather tokens
	// until AS / LANGUAGE
	var tokens []Unparsed
loop:
	for {
		switch {
		case s.TokenType() == EOFToken || s.TokenType() == SemicolonToken:
			break loop
		case s.ReservedWord() == "as" || s.Word() == "language":
			break loop
		default:
			tokens = append(tokens, CreateUnparsed(s))
			s.NextNonWhitespaceToken()
		}
	}
	ret.TypeName = joinTypeTokens(tokens)
	if ret.TypeName == "" {
		d.addWarning(name.Pos, "CREATE FUNCTION %s: empty RETURNS clause; skipping", name.Value)
		return ret, false
	}
	return ret, true
}

// parseFunctionBody scans forward to the end of the statement and returns
// the contents of the first dollar-quoted (or string-literal) routine body
// it passes. The body is not interpreted beyond the narrow
// `RETURNS record` column recovery.
func (d *Document) parseFunctionBody(s *Scanner) string {
	body := ""
	depth := 0
	for {
		switch s.TokenType() {
		case EOFToken:
			return body
		case LeftParenToken:
			depth++
		case RightParenToken:
			depth--
		case DollarQuotedToken:
			if body == "" {
				body = stripDollarQuotes(s.Token())
			}
		case StringLiteralToken:
			if body == "" && len(s.Token()) > 2 {
				body = unquoteStringLiteral(s.Token())
			}
		case SemicolonToken:
			if depth <= 0 {
				s.NextToken()
				return body
			}
		}
		if s.TokenType().IsError() {
			d.addError(s.Start(), "cannot scan input: %s", s.TokenType())
			return body
		}
		s.NextToken()
	}
}

func stripDollarQuotes(token string) string {
	i := strings.Index(token[1:], "$")
	if i < 0 {
		return token
	}
	tag := token[:i+2]
	return strings.TrimSuffix(strings.TrimPrefix(token, tag), tag)
}
