package pygen

import (
	"regexp"
	"strings"

	"github.com/vippsas/pgapigen/sqlparser"
)

// Import keys understood by the preamble writer. They name a Python
// symbol, not a literal import line; preamble.go renders the consolidated
// block in a fixed preference order.
const (
	ImportPsycopg   = "psycopg.AsyncConnection"
	ImportJSON      = "json"
	ImportDataclass = "dataclasses.dataclass"
	ImportEnum      = "enum.Enum"
	ImportUUID      = "uuid.UUID"
	ImportDatetime  = "datetime.datetime"
	ImportDate      = "datetime.date"
	ImportTimedelta = "datetime.timedelta"
	ImportDecimal   = "decimal.Decimal"
	ImportAny       = "typing.Any"
	ImportDict      = "typing.Dict"
	ImportList      = "typing.List"
	ImportOptional  = "typing.Optional"
	ImportTuple     = "typing.Tuple"
)

type ImportSet map[string]struct{}

func NewImportSet(keys ...string) ImportSet {
	s := make(ImportSet)
	s.Add(keys...)
	return s
}

func (s ImportSet) Add(keys ...string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

func (s ImportSet) Union(other ImportSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

func (s ImportSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Resolved is the type descriptor produced by type resolution: the Python
// type text plus the imports it needs.
type Resolved struct {
	PyType  string
	Imports ImportSet
	// IsEnum / IsRecord mark references to declared enum and row types;
	// RefName holds the SQL name that resolved.
	IsEnum   bool
	IsRecord bool
	RefName  string
	// Fallback marks a type that did not resolve and fell back to Any.
	Fallback bool
}

// Resolver maps SQL type text to Python type descriptors, consulting the
// document's symbol tables for enum, table and composite references.
type Resolver struct {
	Doc   *sqlparser.Document
	Namer *Namer
}

// primitive SQL base type -> Python type and import
var primitiveTypes = map[string]struct {
	pyType  string
	imports []string
}{
	"uuid":                        {"UUID", []string{ImportUUID}},
	"text":                        {"str", nil},
	"varchar":                     {"str", nil},
	"character varying":           {"str", nil},
	"character":                   {"str", nil},
	"char":                        {"str", nil},
	"integer":                     {"int", nil},
	"int":                         {"int", nil},
	"bigint":                      {"int", nil},
	"smallint":                    {"int", nil},
	"serial":                      {"int", nil},
	"bigserial":                   {"int", nil},
	"boolean":                     {"bool", nil},
	"bool":                        {"bool", nil},
	"timestamp":                   {"datetime", []string{ImportDatetime}},
	"timestamp without time zone": {"datetime", []string{ImportDatetime}},
	"timestamptz":                 {"datetime", []string{ImportDatetime}},
	"timestamp with time zone":    {"datetime", []string{ImportDatetime}},
	"date":                        {"date", []string{ImportDate}},
	"interval":                    {"timedelta", []string{ImportTimedelta}},
	"numeric":                     {"Decimal", []string{ImportDecimal}},
	"decimal":                     {"Decimal", []string{ImportDecimal}},
	"double precision":            {"float", nil},
	"json":                        {"Dict[str, Any]", []string{ImportDict, ImportAny}},
	"jsonb":                       {"Dict[str, Any]", []string{ImportDict, ImportAny}},
	"bytea":                       {"bytes", nil},
}

var precisionSuffixRegexp = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// Resolve maps SQL type text to its Python type. Array-ness composes
// outside nullability: the element resolves bare, List wraps it, and the
// Optional wrap is applied last.
func (r *Resolver) Resolve(sqlType string, optional bool) Resolved {
	normalized := strings.ToLower(strings.TrimSpace(sqlType))

	// declared enum type?
	if e := r.Doc.LookupEnum(normalized); e != nil {
		return r.wrapOptional(Resolved{
			PyType:  r.Namer.EnumClass(e.Name.Value),
			Imports: NewImportSet(ImportEnum),
			IsEnum:  true,
			RefName: e.Name.Value,
		}, optional)
	}

	// declared table or composite type?
	if t := r.Doc.LookupRow(normalized); t != nil {
		return r.wrapOptional(Resolved{
			PyType:   r.Namer.RecordClass(t.Name.Value),
			Imports:  NewImportSet(ImportDataclass),
			IsRecord: true,
			RefName:  t.Name.Value,
		}, optional)
	}

	// array: resolve the element, wrap as List
	if strings.HasSuffix(normalized, "[]") {
		element := r.Resolve(strings.TrimSpace(strings.TrimSuffix(normalized, "[]")), false)
		result := Resolved{
			PyType:   "List[" + element.PyType + "]",
			Imports:  element.Imports,
			IsEnum:   element.IsEnum,
			IsRecord: element.IsRecord,
			RefName:  element.RefName,
		}
		result.Imports.Add(ImportList)
		return r.wrapOptional(result, optional)
	}

	// exact primitive match, then with the precision clause normalized
	// away, then the first word
	if p, ok := primitiveTypes[normalized]; ok {
		return r.wrapOptional(Resolved{PyType: p.pyType, Imports: NewImportSet(p.imports...)}, optional)
	}
	stripped := strings.TrimSpace(precisionSuffixRegexp.ReplaceAllString(normalized, ""))
	if p, ok := primitiveTypes[stripped]; ok {
		return r.wrapOptional(Resolved{PyType: p.pyType, Imports: NewImportSet(p.imports...)}, optional)
	}
	base := strings.FieldsFunc(stripped, func(r rune) bool { return r == ' ' || r == '(' })
	if len(base) > 0 {
		if p, ok := primitiveTypes[base[0]]; ok {
			return r.wrapOptional(Resolved{PyType: p.pyType, Imports: NewImportSet(p.imports...)}, optional)
		}
	}

	// unknown: dynamic fallback
	return Resolved{PyType: "Any", Imports: NewImportSet(ImportAny), Fallback: true}
}

// wrapOptional applies the Optional wrap. Any is dynamic already and is
// never wrapped.
func (r *Resolver) wrapOptional(res Resolved, optional bool) Resolved {
	if !optional || res.PyType == "Any" || strings.HasPrefix(res.PyType, "Optional[") {
		return res
	}
	res.PyType = "Optional[" + res.PyType + "]"
	res.Imports.Add(ImportOptional)
	return res
}

// pyTypeToSQL is the reverse mapping used for the `AS (col TYPE, ...)`
// clause of recovered `RETURNS record` functions.
var pyTypeToSQL = map[string]string{
	"int":            "INTEGER",
	"str":            "TEXT",
	"bool":           "BOOLEAN",
	"float":          "DOUBLE PRECISION",
	"Decimal":        "NUMERIC",
	"UUID":           "UUID",
	"datetime":       "TIMESTAMP",
	"date":           "DATE",
	"timedelta":      "INTERVAL",
	"bytes":          "BYTEA",
	"Dict[str, Any]": "JSONB",
}

// SQLTypeFor returns the SQL type to use for a recovered record column in
// the AS clause. The original SQL type is preferred when present; the
// Python type is reverse-mapped otherwise, with TEXT as the fallback.
func SQLTypeFor(sqlType, pyType string) string {
	if sqlType != "" {
		return strings.ToUpper(sqlType)
	}
	if s, ok := pyTypeToSQL[BasePyType(pyType)]; ok {
		return s
	}
	return "TEXT"
}

// BasePyType strips Optional[...] and returns the inner type text.
func BasePyType(pyType string) string {
	if strings.HasPrefix(pyType, "Optional[") && strings.HasSuffix(pyType, "]") {
		return pyType[len("Optional[") : len(pyType)-1]
	}
	return pyType
}
