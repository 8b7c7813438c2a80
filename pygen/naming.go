// Package pygen emits the Python client module: dataclasses mirroring SQL
// row and enum types, and one psycopg async wrapper per SQL function.
package pygen

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Namer derives Python identifiers from SQL names. Singularization is an
// English-only heuristic, so both the irregular forms and whole class
// names can be overridden through configuration.
type Namer struct {
	// ClassNames maps a SQL table/composite name (unqualified, lower case)
	// to the exact dataclass name to use.
	ClassNames map[string]string
	// Singulars maps a plural word to its singular, consulted before the
	// default suffix rules.
	Singulars map[string]string
}

func (n *Namer) singularize(word string) string {
	if n != nil {
		if s, ok := n.Singulars[strings.ToLower(word)]; ok {
			return s
		}
	}
	return inflection.Singular(word)
}

// RecordClass derives a dataclass name from a SQL table or composite type
// name: final dot segment, singularized, snake_case to PascalCase.
func (n *Namer) RecordClass(sqlName string) string {
	name := lastSegment(sqlName)
	if n != nil {
		if override, ok := n.ClassNames[strings.ToLower(name)]; ok {
			return override
		}
	}
	if name == "" {
		return "ResultRow"
	}
	result := Camelize(n.singularize(name))
	if result == "" {
		return "ResultRow"
	}
	if !unicode.IsLetter(rune(result[0])) {
		result = "T_" + result
	}
	return result
}

// EnumClass derives a Python enum class name: every name segment (schema
// qualifier included) split on underscores, each part capitalized and
// concatenated, so `public.color_type` becomes PublicColorType.
func (n *Namer) EnumClass(sqlName string) string {
	var b strings.Builder
	for _, segment := range strings.Split(sqlName, ".") {
		b.WriteString(Camelize(segment))
	}
	return b.String()
}

// FunctionName derives the Python wrapper name: final dot segment,
// non-alphanumerics replaced by underscore, prefixed with an underscore if
// it starts with a digit.
func (n *Namer) FunctionName(sqlName string) string {
	name := lastSegment(sqlName)
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	result := b.String()
	if result == "" {
		return "_"
	}
	if unicode.IsDigit(rune(result[0])) {
		result = "_" + result
	}
	return result
}

// AdHocRecordName names the record emitted for a RETURNS TABLE(...) with
// no corresponding named type. The common get_/list_ verb prefixes are
// dropped first; when that leaves nothing usable the function name plus
// a Result suffix is used instead.
func (n *Namer) AdHocRecordName(funcName string) string {
	base := strings.TrimPrefix(strings.TrimPrefix(funcName, "get_"), "list_")
	name := n.RecordClass(base)
	if name == "" || name == "ResultRow" {
		name = Camelize(funcName) + "Result"
	}
	return name
}

// EnumCase sanitizes a SQL enum label into a Python enum case identifier:
// upper-cased, non-alphanumerics replaced by underscore, underscore-prefixed
// when starting with a digit.
func EnumCase(label string) string {
	var b strings.Builder
	for _, r := range label {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteByte('_')
		}
	}
	result := b.String()
	if result == "" {
		return "_"
	}
	if unicode.IsDigit(rune(result[0])) {
		result = "_" + result
	}
	return result
}

// Camelize converts snake_case to PascalCase.
func Camelize(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// SnakeCase converts PascalCase to snake_case, for helper function names
// derived from class names.
func SnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PythonParamName derives the Python argument name from a SQL parameter
// name by dropping a p_ or _ prefix, then sanitizing.
func PythonParamName(sqlName string) string {
	name := sqlName
	if strings.HasPrefix(name, "p_") && len(name) > 2 {
		name = name[2:]
	} else if strings.HasPrefix(name, "_") && len(name) > 1 {
		name = name[1:]
	}
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	result := b.String()
	if result == "" {
		return "_"
	}
	if unicode.IsDigit(rune(result[0])) {
		result = "_" + result
	}
	return result
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
