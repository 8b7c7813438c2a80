package sqlparser

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// dedicated type for reference to file, in case we need to refactor this later..
type FileRef string

type Pos struct {
	File      FileRef
	Line, Col int
}

// A string that has a Pos-ition in a source document
type PosString struct {
	Pos
	Value string
}

func (p PosString) String() string {
	return p.Value
}

type Error struct {
	Pos     Pos
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s:%d:%d %s", e.Pos.File, e.Pos.Line, e.Pos.Col, e.Message)
}

func (e Error) WithoutPos() Error {
	return Error{Message: e.Message}
}

type Unparsed struct {
	Type        TokenType
	Start, Stop Pos
	RawValue    string
}

func CreateUnparsed(s *Scanner) Unparsed {
	return Unparsed{
		Type:     s.TokenType(),
		Start:    s.Start(),
		Stop:     s.Stop(),
		RawValue: s.Token(),
	}
}

// Column is a single column of a table, composite type or RETURNS TABLE
// clause, carrying the SQL facts only; host-language typing happens in the
// emitter.
type Column struct {
	Name    string
	SQLType string
	// NotNull is set for NOT NULL and PRIMARY KEY columns; everything else
	// is nullable as far as the generated record is concerned.
	NotNull bool
}

func (c Column) Optional() bool {
	return !c.NotNull
}

type ParamMode int

const (
	ModeIn ParamMode = iota
	ModeOut
	ModeInOut
)

func (m ParamMode) String() string {
	switch m {
	case ModeOut:
		return "OUT"
	case ModeInOut:
		return "INOUT"
	default:
		return "IN"
	}
}

// Parameter is one declared function parameter.
type Parameter struct {
	SQLName string
	Mode    ParamMode
	SQLType string
	// HasDefault is set for any DEFAULT clause and makes the parameter
	// optional; DefaultIsNull additionally marks the literal `DEFAULT NULL`.
	// The emitted call omits an absent optional argument whichever default
	// it has, so the server substitutes its own default, NULL included.
	HasDefault    bool
	DefaultIsNull bool
	DefaultExpr   string
}

func (p Parameter) Optional() bool {
	return p.HasDefault
}

// HasSQLDefaultNonNull reports whether the parameter carries a server-side
// default other than literal NULL.
func (p Parameter) HasSQLDefaultNonNull() bool {
	return p.HasDefault && !p.DefaultIsNull
}

type RowKind int

const (
	TableRow RowKind = iota
	CompositeRow
)

func (k RowKind) String() string {
	if k == CompositeRow {
		return "composite type"
	}
	return "table"
}

// RowType is a named row shape: a CREATE TABLE or a CREATE TYPE ... AS (...).
type RowType struct {
	Name    PosString // as written in the source, possibly schema-qualified
	Kind    RowKind
	Columns []Column
	// FromSchemaFile marks definitions read from the dedicated schema file;
	// those are authoritative over duplicates in the functions file.
	FromSchemaFile bool
}

// EnumType is a CREATE TYPE ... AS ENUM (...). Labels are verbatim,
// case-sensitive.
type EnumType struct {
	Name           PosString
	Labels         []string
	FromSchemaFile bool
}

// ReturnSpec captures the RETURNS clause of a function.
type ReturnSpec struct {
	SetOf bool
	Void  bool
	// Record is `RETURNS record` (anonymous); RecoveredColumns may later be
	// filled in from a trivial body (see RecoverRecordColumns).
	Record           bool
	RecoveredColumns []Column
	// TableLiteral is `RETURNS TABLE(...)`; the literal columns follow.
	TableLiteral bool
	TableColumns []Column
	// TypeName is the scalar / table / composite / enum type name as
	// written, for every other RETURNS form.
	TypeName string
}

// Function is a parsed CREATE FUNCTION declaration. Only the head is
// interpreted; Body keeps the raw routine body for the narrow
// `RETURNS record` column recovery.
type Function struct {
	Name      PosString
	Params    []Parameter
	Returns   ReturnSpec
	Docstring []PosString // raw comment lines preceding the declaration
	Body      string      // contents of the dollar-quoted (or '-quoted) body, if any
	// Driver tags the declaration with the SQL driver it targets, so
	// downstream stages can assert dialect without re-parsing.
	Driver driver.Driver
}

// BareName returns the name without any schema qualification.
func (f Function) BareName() string {
	name := f.Name.Value
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DocstringYAML parses an embedded YAML document from `--!`-prefixed
// docstring lines into out. Returns false when no pragma lines exist.
func (f Function) DocstringYAML(out any) (bool, error) {
	var yamldoc []string
	parsing := false
	for _, line := range f.Docstring {
		if strings.HasPrefix(line.Value, "--!") {
			parsing = true
			if !strings.HasPrefix(line.Value, "--! ") {
				return true, Error{line.Pos, "YAML document in docstring; missing space after `--!`"}
			}
			yamldoc = append(yamldoc, line.Value[4:])
		} else if parsing {
			return true, Error{line.Pos, "once an embedded yaml document is started (lines prefixed with `--!`), it must continue until the create statement"}
		}
	}
	if !parsing {
		return false, nil
	}
	return true, yaml.Unmarshal([]byte(strings.Join(yamldoc, "\n")), out)
}
