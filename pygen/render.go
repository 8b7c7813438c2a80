package pygen

import (
	"fmt"
	"strings"
)

// writer accumulates generated Python with 4-space indentation levels.
type writer struct {
	b strings.Builder
}

func (w *writer) linef(indent int, format string, args ...any) {
	for i := 0; i < indent; i++ {
		w.b.WriteString("    ")
	}
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

func (w *writer) sectionGap() {
	w.blank()
	w.blank()
}

// render assembles the module: header and imports, enum classes, record
// classes in dependency order, one wrapper per function in source order,
// then the result shapers and the composite/JSON runtime helpers.
func (g *generator) render(sorted []*recordDef) string {
	if len(g.doc.EnumTypes) > 0 {
		g.imports.Add(ImportEnum)
	}
	needsDecoders := false
	for _, def := range sorted {
		if !def.Placeholder {
			needsDecoders = true
		}
	}
	if needsDecoders {
		// the typed converter knows all scalar conversions
		g.imports.Add(ImportJSON, ImportDecimal, ImportDatetime, ImportDate, ImportUUID)
	}

	w := &writer{}
	g.renderPreamble(w)

	for _, e := range g.doc.EnumTypes {
		w.sectionGap()
		g.renderEnum(w, e)
	}

	for _, def := range sorted {
		w.sectionGap()
		g.renderRecord(w, def)
	}

	for _, fn := range g.funcs {
		w.sectionGap()
		g.renderFunction(w, fn)
	}

	if !g.opts.OmitHelpers {
		w.sectionGap()
		g.renderResultShapers(w)
	}

	if g.imports.Has(ImportJSON) && g.hasJSONParams() {
		w.sectionGap()
		g.renderJSONEncoder(w)
	}

	if needsDecoders {
		w.sectionGap()
		g.renderCompositeRuntime(w, sorted)
	}

	return w.b.String()
}

func (g *generator) hasJSONParams() bool {
	for _, fn := range g.funcs {
		for _, p := range fn.Params {
			if p.IsJSON {
				return true
			}
		}
	}
	return false
}
