package pygen

import (
	"github.com/vippsas/pgapigen/sqlparser"
)

// renderEnum writes one Python enum class. Case identifiers are sanitized
// upper-case forms of the labels; case values carry the labels verbatim so
// the label/value round trip is the identity.
func (g *generator) renderEnum(w *writer, e *sqlparser.EnumType) {
	w.linef(0, "class %s(Enum):", g.opts.Namer.EnumClass(e.Name.Value))
	if len(e.Labels) == 0 {
		w.linef(1, "pass")
		return
	}
	for _, label := range e.Labels {
		w.linef(1, "%s = %s", EnumCase(label), pyStringLiteral(label))
	}
}

// renderRecord writes one dataclass, or the commented TODO form for a
// placeholder whose SQL definition was never found.
func (g *generator) renderRecord(w *writer, def *recordDef) {
	if def.Placeholder {
		w.linef(0, "# TODO: schema for %q was not found; define the dataclass by hand", def.SQLName)
		w.linef(0, "# or re-run with a schema file that contains its CREATE TABLE / CREATE TYPE.")
		w.linef(0, "# @dataclass")
		w.linef(0, "# class %s:", def.ClassName)
		w.linef(0, "#     pass")
		return
	}
	w.linef(0, "@dataclass")
	w.linef(0, "class %s:", def.ClassName)
	if def.SQLName != "" {
		w.linef(1, `"""Row of %s."""`, def.SQLName)
		w.blank()
	}
	if len(def.Fields) == 0 {
		w.linef(1, "pass")
		return
	}
	for _, f := range def.Fields {
		w.linef(1, "%s: %s", f.Name, f.PyType)
	}
}

// pyStringLiteral renders a Python single-quoted string literal.
func pyStringLiteral(s string) string {
	var b []byte
	b = append(b, '\'')
	for _, r := range s {
		switch r {
		case '\'':
			b = append(b, '\\', '\'')
		case '\\':
			b = append(b, '\\', '\\')
		case '\n':
			b = append(b, '\\', 'n')
		default:
			b = append(b, string(r)...)
		}
	}
	return string(append(b, '\''))
}
