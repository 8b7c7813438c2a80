package sqlparser

import "strings"

// parseParenItems is positioned on a '(' and consumes through the matching
// ')'. It returns the contained significant tokens split at top-level
// commas, so `numeric(10,2)` never splits across items. The scanner is
// left on the first non-whitespace token after the ')'.
func (d *Document) parseParenItems(s *Scanner) ([][]Unparsed, bool) {
	depth := 1
	var items [][]Unparsed
	var current []Unparsed

	flush := func() {
		if len(current) > 0 {
			items = append(items, current)
			current = nil
		}
	}

	for {
		switch s.NextToken() {
		case EOFToken:
			return nil, false
		case WhitespaceToken, SinglelineCommentToken, MultilineCommentToken, PragmaCommentToken:
			continue
		case LeftParenToken:
			depth++
			current = append(current, CreateUnparsed(s))
		case RightParenToken:
			depth--
			if depth == 0 {
				flush()
				s.NextNonWhitespaceToken()
				return items, true
			}
			current = append(current, CreateUnparsed(s))
		case CommaToken:
			if depth == 1 {
				flush()
			} else {
				current = append(current, CreateUnparsed(s))
			}
		default:
			if s.TokenType().IsError() {
				return nil, false
			}
			current = append(current, CreateUnparsed(s))
		}
	}
}

// joinTypeTokens renders a token run back into SQL type text: word-ish
// tokens are separated by single spaces, punctuation attaches directly, so
// `timestamp with time zone`, `numeric(10,2)` and `text[]` all come out in
// canonical form.
func joinTypeTokens(tokens []Unparsed) string {
	var b strings.Builder
	prevWordish := false
	for _, t := range tokens {
		wordish := false
		switch t.Type {
		case UnquotedIdentifierToken, ReservedWordToken, QuotedIdentifierToken, NumberToken:
			wordish = true
		}
		if wordish && prevWordish {
			b.WriteByte(' ')
		}
		b.WriteString(t.RawValue)
		prevWordish = wordish
	}
	return b.String()
}

// leading words that mark a table-level constraint rather than a column
var constraintLeadWords = map[string]struct{}{
	"constraint": {},
	"primary":    {},
	"foreign":    {},
	"unique":     {},
	"check":      {},
	"like":       {},
	"index":      {},
	"exclude":    {},
}

// words that terminate the type part of a column definition
var typeTerminatorWords = map[string]struct{}{
	"primary":    {},
	"unique":     {},
	"not":        {},
	"null":       {},
	"references": {},
	"check":      {},
	"collate":    {},
	"default":    {},
	"generated":  {},
}

func wordOf(t Unparsed) string {
	switch t.Type {
	case UnquotedIdentifierToken, ReservedWordToken:
		return strings.ToLower(t.RawValue)
	default:
		return ""
	}
}

// parseColumnItem parses one `name TYPE [constraints...]` item. skip is
// returned for table-level constraint items.
func (d *Document) parseColumnItem(owner PosString, item []Unparsed) (col Column, skip, ok bool) {
	if len(item) == 0 {
		return Column{}, true, true
	}
	if _, isConstraint := constraintLeadWords[wordOf(item[0])]; isConstraint {
		return Column{}, true, true
	}

	switch item[0].Type {
	case UnquotedIdentifierToken:
		col.Name = item[0].RawValue
	case QuotedIdentifierToken:
		col.Name = unquoteIdentifier(item[0].RawValue)
	default:
		d.addError(item[0].Start, "%s: expected a column name, got: %s", owner.Value, item[0].RawValue)
		return Column{}, false, false
	}

	// greedily consume the type until a terminating keyword at paren depth 0
	depth := 0
	typeEnd := len(item)
	for i := 1; i < len(item); i++ {
		switch item[i].Type {
		case LeftParenToken:
			depth++
			continue
		case RightParenToken:
			depth--
			continue
		}
		if depth > 0 {
			continue
		}
		if _, terminator := typeTerminatorWords[wordOf(item[i])]; terminator {
			typeEnd = i
			break
		}
	}
	if typeEnd == 1 {
		d.addError(item[0].Start, "%s: column %s has no type", owner.Value, col.Name)
		return Column{}, false, false
	}
	col.SQLType = joinTypeTokens(item[1:typeEnd])

	// NOT NULL / PRIMARY KEY in the constraint tail makes the column required
	for i := typeEnd; i < len(item); i++ {
		switch wordOf(item[i]) {
		case "not":
			if i+1 < len(item) && wordOf(item[i+1]) == "null" {
				col.NotNull = true
			}
		case "primary":
			if i+1 < len(item) && wordOf(item[i+1]) == "key" {
				col.NotNull = true
			}
		}
	}
	return col, false, true
}

// parseColumnItems parses the body of CREATE TABLE / CREATE TYPE AS (...).
// A malformed column list is fatal.
func (d *Document) parseColumnItems(owner PosString, items [][]Unparsed) ([]Column, bool) {
	var columns []Column
	for _, item := range items {
		col, skip, ok := d.parseColumnItem(owner, item)
		if !ok {
			return nil, false
		}
		if skip {
			continue
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		d.addError(owner.Pos, "%s: no columns parsed", owner.Value)
		return nil, false
	}
	return columns, true
}

// parseTableLiteralItems parses RETURNS TABLE(...) columns. Failures are
// survivable (the one function is skipped).
func (d *Document) parseTableLiteralItems(fn PosString, items [][]Unparsed) ([]Column, bool) {
	var columns []Column
	for _, item := range items {
		col, skip, ok := d.parseColumnItemLenient(item)
		if !ok {
			d.addWarning(fn.Pos, "CREATE FUNCTION %s: cannot parse RETURNS TABLE column; skipping function", fn.Value)
			return nil, false
		}
		if skip {
			continue
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		d.addWarning(fn.Pos, "CREATE FUNCTION %s: empty RETURNS TABLE column list; skipping function", fn.Value)
		return nil, false
	}
	return columns, true
}

// parseColumnItemLenient parses a RETURNS TABLE column without touching the
// document's fatal error list. Unlike parseColumnItem it looks for no
// constraint keywords: every token after the name is part of the type.
func (d *Document) parseColumnItemLenient(item []Unparsed) (col Column, skip, ok bool) {
	if len(item) == 0 {
		return Column{}, true, true
	}
	if _, isConstraint := constraintLeadWords[wordOf(item[0])]; isConstraint {
		return Column{}, true, true
	}
	switch item[0].Type {
	case UnquotedIdentifierToken:
		col.Name = item[0].RawValue
	case QuotedIdentifierToken:
		col.Name = unquoteIdentifier(item[0].RawValue)
	default:
		return Column{}, false, false
	}
	if len(item) < 2 {
		return Column{}, false, false
	}
	col.SQLType = joinTypeTokens(item[1:])
	return col, false, true
}

// parseParameterItems parses a function's parameter list. Failures are
// survivable: the whole function is skipped with a warning.
func (d *Document) parseParameterItems(fn PosString, items [][]Unparsed) ([]Parameter, bool) {
	var params []Parameter
	for _, item := range items {
		if len(item) == 0 {
			continue
		}
		p, ok := d.parseParameterItem(fn, item)
		if !ok {
			return nil, false
		}
		if p.Mode == ModeOut {
			// OUT parameters are not inputs; PostgreSQL folds them into the
			// return shape, which the RETURNS clause already describes here.
			d.addWarning(fn.Pos, "CREATE FUNCTION %s: OUT parameter %s is not supported; skipping function", fn.Value, p.SQLName)
			return nil, false
		}
		if p.Mode == ModeInOut {
			d.addWarning(fn.Pos, "CREATE FUNCTION %s: INOUT parameter %s treated as an input", fn.Value, p.SQLName)
		}
		params = append(params, p)
	}
	return params, true
}

func (d *Document) parseParameterItem(fn PosString, item []Unparsed) (Parameter, bool) {
	var p Parameter
	i := 0

	// optional IN/OUT/INOUT mode prefix; only treated as a mode when at
	// least one more token follows it
	if i+1 < len(item) {
		switch wordOf(item[i]) {
		case "in":
			p.Mode = ModeIn
			i++
		case "out":
			p.Mode = ModeOut
			i++
		case "inout":
			p.Mode = ModeInOut
			i++
		}
	}

	if i >= len(item) {
		d.addWarning(fn.Pos, "CREATE FUNCTION %s: empty parameter; skipping function", fn.Value)
		return p, false
	}
	switch item[i].Type {
	case UnquotedIdentifierToken:
		p.SQLName = item[i].RawValue
	case QuotedIdentifierToken:
		p.SQLName = unquoteIdentifier(item[i].RawValue)
	default:
		d.addWarning(item[i].Start, "CREATE FUNCTION %s: expected a parameter name, got: %s; skipping function", fn.Value, item[i].RawValue)
		return p, false
	}
	i++

	// the type runs until DEFAULT or `=`
	depth := 0
	typeStart := i
	for ; i < len(item); i++ {
		switch item[i].Type {
		case LeftParenToken:
			depth++
			continue
		case RightParenToken:
			depth--
			continue
		case EqualToken:
			if depth == 0 {
				goto defaultClause
			}
			continue
		}
		if depth == 0 && wordOf(item[i]) == "default" {
			goto defaultClause
		}
	}

defaultClause:
	if i == typeStart {
		d.addWarning(item[typeStart-1].Start, "CREATE FUNCTION %s: parameter %s has no type; skipping function", fn.Value, p.SQLName)
		return p, false
	}
	p.SQLType = joinTypeTokens(item[typeStart:i])

	if i < len(item) {
		// past the DEFAULT / `=` marker
		defaultTokens := item[i+1:]
		p.HasDefault = true
		p.DefaultExpr = joinTypeTokens(defaultTokens)
		if len(defaultTokens) == 1 && wordOf(defaultTokens[0]) == "null" {
			p.DefaultIsNull = true
		}
	}
	return p, true
}
