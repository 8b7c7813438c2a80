package pygen

import (
	"fmt"
	"strings"
)

// renderFunction writes one async wrapper. The body always runs the same
// five phases: side values for enum/json parameters, dynamic named-call
// assembly (optional parameters are omitted entirely when absent so SQL
// DEFAULT clauses activate), query composition, execution through a scoped
// cursor, and result mapping by return shape.
func (g *generator) renderFunction(w *writer, fn *funcDef) {
	w.linef(0, "async def %s(%s) -> %s:", fn.PyName, g.signature(fn), fn.ReturnHint)
	g.renderDocstring(w, fn)

	// phase 1: side values
	for _, p := range fn.Params {
		switch {
		case p.IsEnum:
			w.linef(1, "%s = %s.value if %s is not None else None", p.BindName, p.PyName, p.PyName)
		case p.IsJSON:
			w.linef(1, "%s = json.dumps(%s, cls=_PgJsonEncoder) if %s is not None else None", p.BindName, p.PyName, p.PyName)
		}
	}

	// phase 2: dynamic call assembly, in declaration order
	w.linef(1, "_sql_named_args_parts = []")
	w.linef(1, "_call_params_dict = {}")
	for _, p := range fn.Params {
		fragment := fmt.Sprintf("'%s := %%(%s)s'", p.SQLName, p.PyName)
		if p.Optional {
			w.linef(1, "if %s is not None:", p.PyName)
			w.linef(2, "_sql_named_args_parts.append(%s)", fragment)
			w.linef(2, "_call_params_dict['%s'] = %s", p.PyName, p.BindName)
		} else {
			w.linef(1, "_sql_named_args_parts.append(%s)", fragment)
			w.linef(1, "_call_params_dict['%s'] = %s", p.PyName, p.BindName)
		}
	}

	// phase 3: query text
	w.linef(1, "_sql_query_named_args = ', '.join(_sql_named_args_parts)")
	w.linef(1, `_full_sql_query = f"SELECT * FROM %s({_sql_query_named_args})%s"`, fn.SQLName, fn.AsClause)

	// phases 4 and 5: execution and result mapping, inside the scoped
	// cursor so cancellation at any await leaves it closed
	w.linef(1, "async with conn.cursor() as cur:")
	w.linef(2, "await cur.execute(_full_sql_query, _call_params_dict)")
	g.renderResultMapping(w, fn)
}

// signature orders required parameters before optional ones, each group in
// declaration order; optional parameters default to the absence sentinel.
func (g *generator) signature(fn *funcDef) string {
	parts := []string{"conn: AsyncConnection"}
	for _, p := range fn.Params {
		if !p.Optional {
			parts = append(parts, fmt.Sprintf("%s: %s", p.PyName, p.PyType))
		}
	}
	for _, p := range fn.Params {
		if p.Optional {
			parts = append(parts, fmt.Sprintf("%s: %s = None", p.PyName, p.PyType))
		}
	}
	return strings.Join(parts, ", ")
}

func (g *generator) renderDocstring(w *writer, fn *funcDef) {
	doc := fn.Doc
	if doc == "" {
		doc = fmt.Sprintf("Call PostgreSQL function %s().", fn.SQLName)
	}
	lines := strings.Split(doc, "\n")
	if len(lines) == 1 {
		w.linef(1, `"""%s"""`, lines[0])
		return
	}
	w.linef(1, `"""%s`, lines[0])
	for _, line := range lines[1:] {
		w.linef(1, "%s", line)
	}
	w.linef(1, `"""`)
}

func (g *generator) renderResultMapping(w *writer, fn *funcDef) {
	switch fn.Kind {
	case returnVoid:
		w.linef(2, "return None")

	case returnScalar:
		if fn.SetOf {
			w.linef(2, "rows = await cur.fetchall()")
			w.linef(2, "return [row[0] for row in rows if row]")
		} else {
			w.linef(2, "row = await cur.fetchone()")
			w.linef(2, "if row is None:")
			w.linef(3, "return None")
			w.linef(2, "return row[0]")
		}

	case returnRecordTuple:
		if fn.SetOf {
			w.linef(2, "rows = await cur.fetchall()")
			w.linef(2, "return rows")
		} else {
			w.linef(2, "row = await cur.fetchone()")
			w.linef(2, "if row is None:")
			w.linef(3, "return None")
			w.linef(2, "return row")
		}

	case returnEnum:
		if fn.SetOf {
			w.linef(2, "rows = await cur.fetchall()")
			w.linef(2, "return [%s(row[0]) for row in rows if row and row[0] is not None]", fn.EnumClass)
		} else {
			w.linef(2, "row = await cur.fetchone()")
			w.linef(2, "if row is None or row[0] is None:")
			w.linef(3, "return None")
			w.linef(2, "return %s(row[0])", fn.EnumClass)
		}

	case returnNamedRecord:
		helper := "_row_to_" + SnakeCase(fn.Record.ClassName)
		if fn.SetOf {
			w.linef(2, "rows = await cur.fetchall()")
			w.linef(2, "result = []")
			w.linef(2, "for row in rows:")
			w.linef(3, "item = %s(row)", helper)
			w.linef(3, "if item is not None:")
			w.linef(4, "result.append(item)")
			w.linef(2, "return result")
		} else {
			w.linef(2, "row = await cur.fetchone()")
			w.linef(2, "if row is None:")
			w.linef(3, "return None")
			w.linef(2, "return %s(row)", helper)
		}
	}
}
