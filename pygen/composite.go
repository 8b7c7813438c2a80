package pygen

import (
	"strings"
)

// fieldTypeName maps a field to the type tag understood by the emitted
// _convert_postgresql_value_typed helper. Record classes recurse through
// their own constructors, enum labels stay strings until the record
// constructor coerces them.
func (g *generator) fieldTypeName(f fieldDef) string {
	base := BasePyType(f.PyType)
	if f.Resolved.IsRecord {
		if def, ok := g.records[base]; ok && !def.Placeholder {
			return def.ClassName
		}
		return "str"
	}
	if f.Resolved.IsEnum {
		return "str"
	}
	switch {
	case base == "Dict[str, Any]":
		return "Dict"
	case strings.HasPrefix(base, "List["):
		return "str"
	default:
		return base
	}
}

// renderResultShapers writes get_optional / get_required, which normalize
// a 0-or-1-or-many result into an Optional or a required single value.
func (g *generator) renderResultShapers(w *writer) {
	w.linef(0, "def get_optional(result):")
	w.linef(1, `"""Return the single element of a result, or None when it is empty."""`)
	w.linef(1, "if result is None:")
	w.linef(2, "return None")
	w.linef(1, "if isinstance(result, list):")
	w.linef(2, "if not result:")
	w.linef(3, "return None")
	w.linef(2, "if len(result) > 1:")
	w.linef(3, "raise ValueError(f'expected at most one result row, got {len(result)}')")
	w.linef(2, "return result[0]")
	w.linef(1, "return result")
	w.sectionGap()
	w.linef(0, "def get_required(result):")
	w.linef(1, `"""Return the single element of a result, failing when it is empty."""`)
	w.linef(1, "value = get_optional(result)")
	w.linef(1, "if value is None:")
	w.linef(2, "raise ValueError('expected exactly one result row, got none')")
	w.linef(1, "return value")
}

// renderJSONEncoder writes the encoder used for json/jsonb parameters:
// UUIDs serialize in canonical form, date/times as ISO 8601.
func (g *generator) renderJSONEncoder(w *writer) {
	w.linef(0, "class _PgJsonEncoder(json.JSONEncoder):")
	w.linef(1, `"""JSON encoder aware of UUID and date/time values."""`)
	w.blank()
	w.linef(1, "def default(self, o):")
	w.linef(2, "if isinstance(o, UUID):")
	w.linef(3, "return str(o)")
	w.linef(2, "if isinstance(o, (datetime, date)):")
	w.linef(3, "return o.isoformat()")
	w.linef(2, "return super().default(o)")
}

// renderCompositeRuntime writes the composite-text parser, the per-field
// value coercer, the per-class field type tables and one row constructor
// per emitted record class.
func (g *generator) renderCompositeRuntime(w *writer, sorted []*recordDef) {
	g.renderCompositeParser(w)
	w.sectionGap()
	g.renderValueConverter(w)

	for _, def := range sorted {
		if def.Placeholder {
			continue
		}
		w.sectionGap()
		g.renderFieldTypes(w, def)
		w.sectionGap()
		g.renderRowConstructor(w, def)
	}
}

func (g *generator) renderCompositeParser(w *writer) {
	w.linef(0, "def _parse_composite_string_typed(composite_str, field_types):")
	w.linef(1, `"""Parse PostgreSQL's textual composite form into typed field values.`)
	w.blank()
	w.linef(1, "Splits on top-level commas with quote and parenthesis awareness")
	w.linef(1, "(\"\" for embedded quotes, backslash escapes inside quotes), maps")
	w.linef(1, "unquoted NULL and empty fragments to None, and coerces each field")
	w.linef(1, "through _convert_postgresql_value_typed.")
	w.linef(1, `"""`)
	w.linef(1, "if not composite_str or not composite_str.startswith('(') or not composite_str.endswith(')'):")
	w.linef(2, "raise ValueError(f'invalid composite string: {composite_str!r}')")
	w.linef(1, "content = composite_str[1:-1]")
	w.linef(1, "raw_fields = []")
	w.linef(1, "current = ''")
	w.linef(1, "was_quoted = False")
	w.linef(1, "depth = 0")
	w.linef(1, "in_quotes = False")
	w.linef(1, "escape_next = False")
	w.linef(1, "i = 0")
	w.linef(1, "while i < len(content):")
	w.linef(2, "char = content[i]")
	w.linef(2, "if escape_next:")
	w.linef(3, "current += char")
	w.linef(3, "escape_next = False")
	w.linef(2, "elif in_quotes:")
	w.linef(3, "if char == '\\\\':")
	w.linef(4, "escape_next = True")
	w.linef(3, "elif char == '\"':")
	w.linef(4, "if i + 1 < len(content) and content[i + 1] == '\"':")
	w.linef(5, "current += '\"'")
	w.linef(5, "i += 1")
	w.linef(4, "else:")
	w.linef(5, "in_quotes = False")
	w.linef(3, "else:")
	w.linef(4, "current += char")
	w.linef(2, "elif char == '\"':")
	w.linef(3, "in_quotes = True")
	w.linef(3, "was_quoted = True")
	w.linef(2, "elif char == '(':")
	w.linef(3, "depth += 1")
	w.linef(3, "current += char")
	w.linef(2, "elif char == ')':")
	w.linef(3, "depth -= 1")
	w.linef(3, "current += char")
	w.linef(2, "elif char == ',' and depth == 0:")
	w.linef(3, "raw_fields.append((current, was_quoted))")
	w.linef(3, "current = ''")
	w.linef(3, "was_quoted = False")
	w.linef(2, "else:")
	w.linef(3, "current += char")
	w.linef(2, "i += 1")
	w.linef(1, "raw_fields.append((current, was_quoted))")
	w.linef(1, "values = []")
	w.linef(1, "for index, (text, quoted) in enumerate(raw_fields):")
	w.linef(2, "if not quoted and (text == '' or text.upper() == 'NULL'):")
	w.linef(3, "values.append(None)")
	w.linef(3, "continue")
	w.linef(2, "type_name = field_types[index] if index < len(field_types) else 'str'")
	w.linef(2, "values.append(_convert_postgresql_value_typed(text, type_name))")
	w.linef(1, "return tuple(values)")
}

func (g *generator) renderValueConverter(w *writer) {
	w.linef(0, "def _convert_postgresql_value_typed(value, type_name):")
	w.linef(1, `"""Coerce one textual composite field to the given Python type."""`)
	w.linef(1, "if value is None or not isinstance(value, str):")
	w.linef(2, "return value")
	w.linef(1, "if type_name == 'bool':")
	w.linef(2, "return value in ('t', 'T', 'true', 'True')")
	w.linef(1, "if type_name == 'int':")
	w.linef(2, "try:")
	w.linef(3, "return int(value)")
	w.linef(2, "except ValueError:")
	w.linef(3, "return value")
	w.linef(1, "if type_name == 'float':")
	w.linef(2, "try:")
	w.linef(3, "return float(value)")
	w.linef(2, "except ValueError:")
	w.linef(3, "return value")
	w.linef(1, "if type_name == 'Decimal':")
	w.linef(2, "try:")
	w.linef(3, "return Decimal(value)")
	w.linef(2, "except ArithmeticError:")
	w.linef(3, "return value")
	w.linef(1, "if type_name == 'Dict':")
	w.linef(2, "try:")
	w.linef(3, "return json.loads(value)")
	w.linef(2, "except ValueError:")
	w.linef(3, "return value")
	w.linef(1, "if type_name == 'datetime':")
	w.linef(2, "try:")
	w.linef(3, "return datetime.fromisoformat(value)")
	w.linef(2, "except ValueError:")
	w.linef(3, "return value")
	w.linef(1, "if type_name == 'date':")
	w.linef(2, "try:")
	w.linef(3, "return date.fromisoformat(value)")
	w.linef(2, "except ValueError:")
	w.linef(3, "return value")
	w.linef(1, "if type_name == 'UUID':")
	w.linef(2, "try:")
	w.linef(3, "return UUID(value)")
	w.linef(2, "except ValueError:")
	w.linef(3, "return value")
	w.linef(1, "return value")
}

func (g *generator) fieldTypesConstName(def *recordDef) string {
	return "_" + strings.ToUpper(SnakeCase(def.ClassName)) + "_FIELD_TYPES"
}

func (g *generator) renderFieldTypes(w *writer, def *recordDef) {
	var tags []string
	for _, f := range def.Fields {
		tags = append(tags, pyStringLiteral(g.fieldTypeName(f)))
	}
	w.linef(0, "%s = [%s]", g.fieldTypesConstName(def), strings.Join(tags, ", "))
}

// renderRowConstructor writes the `_row_to_*` helper for one record: it
// accepts a driver tuple or PostgreSQL's composite text, returns None for
// the all-NULL empty composite, coerces enum labels and nested composite
// fields, and maps a structural mismatch to the tuple-row-factory error.
func (g *generator) renderRowConstructor(w *writer, def *recordDef) {
	name := "_row_to_" + SnakeCase(def.ClassName)
	w.linef(0, "def %s(row):", name)
	w.linef(1, `"""Build a %s from a driver row or composite text."""`, def.ClassName)
	w.linef(1, "if row is None:")
	w.linef(2, "return None")
	w.linef(1, "if isinstance(row, str):")
	w.linef(2, "row = _parse_composite_string_typed(row, %s)", g.fieldTypesConstName(def))
	w.linef(1, "values = list(row)")
	w.linef(1, "if all(value is None for value in values):")
	w.linef(2, "return None")

	for _, i := range def.recordFields {
		f := def.Fields[i]
		target := "_row_to_" + SnakeCase(BasePyType(f.PyType))
		w.linef(1, "if isinstance(values[%d], (tuple, str)):", i)
		w.linef(2, "values[%d] = %s(values[%d])", i, target, i)
	}
	for _, i := range def.enumFields {
		f := def.Fields[i]
		w.linef(1, "if isinstance(values[%d], str):", i)
		w.linef(2, "values[%d] = %s(values[%d])", i, BasePyType(f.PyType), i)
	}

	w.linef(1, "try:")
	w.linef(2, "return %s(*values)", def.ClassName)
	w.linef(1, "except TypeError as exc:")
	w.linef(2, "raise TypeError(")
	w.linef(3, "f'cannot build %s from {row!r}; the database driver must '", def.ClassName)
	w.linef(3, "f'return rows as ordered tuples, not mappings: {exc}'")
	w.linef(2, ") from exc")
}
