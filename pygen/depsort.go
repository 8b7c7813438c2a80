package pygen

import "regexp"

var classRefRegexp = regexp.MustCompile(`[A-Z][A-Za-z0-9_]*`)

// builtin names that look like class references inside type annotations
var builtinTypeNames = map[string]struct{}{
	"Any": {}, "Dict": {}, "List": {}, "Optional": {}, "Tuple": {},
	"Set": {}, "Union": {}, "None": {},
	"UUID": {}, "Decimal": {},
}

// classRefs extracts the emitted record classes a type annotation refers
// to, ignoring builtins and the class itself.
func (g *generator) classRefs(pyType, self string) []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, m := range classRefRegexp.FindAllString(pyType, -1) {
		if _, builtin := builtinTypeNames[m]; builtin {
			continue
		}
		if m == self {
			continue
		}
		if _, known := g.records[m]; !known {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		refs = append(refs, m)
	}
	return refs
}

// sortRecords orders the scheduled record classes so that every class is
// defined before any class that references it. In-degree driven; on a
// cycle the remaining classes are appended in declaration order and
// reported so emission can continue (cycles through Optional fields are a
// legitimate modelling need).
func (g *generator) sortRecords() (sorted []*recordDef, cycle []string) {
	deps := make(map[string][]string, len(g.order)) // class -> classes it references
	inDegree := make(map[string]int, len(g.order))  // number of unemitted references
	dependents := make(map[string][]string, len(g.order))

	for _, name := range g.order {
		def := g.records[name]
		var refs []string
		for _, f := range def.Fields {
			refs = append(refs, g.classRefs(f.PyType, name)...)
		}
		// dedupe, preserving order
		seen := make(map[string]struct{})
		var unique []string
		for _, r := range refs {
			if _, dup := seen[r]; !dup {
				seen[r] = struct{}{}
				unique = append(unique, r)
			}
		}
		deps[name] = unique
		inDegree[name] = len(unique)
		for _, r := range unique {
			dependents[r] = append(dependents[r], name)
		}
	}

	var queue []string
	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	emitted := make(map[string]struct{})
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		emitted[name] = struct{}{}
		sorted = append(sorted, g.records[name])
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) != len(g.order) {
		for _, name := range g.order {
			if _, ok := emitted[name]; !ok {
				cycle = append(cycle, name)
				sorted = append(sorted, g.records[name])
			}
		}
	}
	return sorted, cycle
}
