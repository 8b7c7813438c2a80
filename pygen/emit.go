package pygen

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/vippsas/pgapigen/sqlparser"
)

// Options controls a single emission run.
type Options struct {
	// SourceFile names the functions file in the generated header comment.
	SourceFile string
	// OmitHelpers suppresses the get_optional/get_required result shapers.
	OmitHelpers bool
	// AllowMissingSchemas downgrades missing-schema and type-mapping
	// failures to warnings, emitting placeholders and Any fallbacks.
	AllowMissingSchemas bool
	Namer               *Namer
	Logger              logrus.FieldLogger
}

// MissingSchemaError is reported when a function returns a named table or
// composite whose definition is unknown and permissive mode is off.
type MissingSchemaError struct {
	Function string
	TypeName string
}

func (e MissingSchemaError) Error() string {
	return fmt.Sprintf("function %s returns %s, but no CREATE TABLE or CREATE TYPE for it was found; pass a schema file or use --allow-missing-schemas", e.Function, e.TypeName)
}

// TypeMappingError is reported when a SQL type resolves to nothing and no
// fallback is acceptable.
type TypeMappingError struct {
	Context string
	SQLType string
}

func (e TypeMappingError) Error() string {
	return fmt.Sprintf("cannot map SQL type %q (%s); use --allow-missing-schemas to fall back to Any", e.SQLType, e.Context)
}

// returnKind is the shape of a wrapper's result mapping.
type returnKind int

const (
	returnVoid returnKind = iota
	returnScalar
	returnRecordTuple // anonymous record, no synthesized columns
	returnNamedRecord // a dataclass, named or ad-hoc
	returnEnum
)

type fieldDef struct {
	Name     string
	SQLType  string
	Resolved Resolved
	PyType   string // resolved, including any Optional wrap
}

type recordDef struct {
	ClassName string
	SQLName   string // empty for ad-hoc records
	Fields    []fieldDef
	// Placeholder records stand in for unresolved tables in permissive
	// mode; they emit as a commented TODO block.
	Placeholder bool

	enumFields   []int // indexes of fields whose base type is a declared enum
	recordFields []int // indexes of fields whose base type is another emitted record
}

type paramDef struct {
	SQLName  string
	PyName   string
	PyType   string
	Resolved Resolved
	Optional bool
	// BindName is the wrapper-local variable carrying the bound value:
	// the argument itself, or the _value/_json side value.
	BindName string
	IsEnum   bool
	IsJSON   bool
}

type funcDef struct {
	PyName     string
	SQLName    string
	Doc        string
	Params     []paramDef // declaration order
	Kind       returnKind
	SetOf      bool
	ReturnHint string
	Record     *recordDef // for returnNamedRecord
	EnumClass  string     // for returnEnum
	AsClause   string     // for recovered RETURNS record functions
	ScalarNone bool       // scalar that resolved to None (shouldn't happen, safety)
}

// docstringPragma is the YAML document accepted in `--!` docstring lines.
type docstringPragma struct {
	Name   string `yaml:"name"`   // override for the wrapper name
	Record string `yaml:"record"` // override for the ad-hoc record class name
}

type generator struct {
	doc      *sqlparser.Document
	opts     Options
	resolver *Resolver
	log      logrus.FieldLogger

	funcs    []*funcDef
	records  map[string]*recordDef // by class name
	order    []string              // record class names, insertion order
	imports  ImportSet
	warnings []string
	errors   []error
}

// Emit turns a parsed document into the generated Python module. Warnings
// are returned even on success; a non-nil error means nothing usable was
// emitted.
func Emit(doc *sqlparser.Document, opts Options) (string, []string, error) {
	if opts.Namer == nil {
		opts.Namer = &Namer{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &generator{
		doc:      doc,
		opts:     opts,
		resolver: &Resolver{Doc: doc, Namer: opts.Namer},
		log:      log,
		records:  make(map[string]*recordDef),
		imports:  NewImportSet(ImportPsycopg),
	}

	for _, f := range doc.Functions {
		g.buildFunction(f)
	}
	if len(g.errors) > 0 {
		return "", g.warnings, g.errors[0]
	}

	g.closeOverFieldReferences()
	if len(g.errors) > 0 {
		return "", g.warnings, g.errors[0]
	}
	g.markCoercibleFields()
	sorted, cycle := g.sortRecords()
	if len(cycle) > 0 {
		g.warnf("dependency cycle between record classes: %s; emitting them in declaration order", strings.Join(cycle, ", "))
	}

	return g.render(sorted), g.warnings, nil
}

func (g *generator) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	g.warnings = append(g.warnings, msg)
	g.log.Warn(msg)
}

func (g *generator) failf(err error) {
	if g.opts.AllowMissingSchemas {
		g.warnf("%s", err.Error())
		return
	}
	g.errors = append(g.errors, err)
}

// resolveChecked resolves a SQL type and routes the Any fallback through
// the type-mapping failure policy.
func (g *generator) resolveChecked(sqlType string, optional bool, context string) Resolved {
	res := g.resolver.Resolve(sqlType, optional)
	if res.Fallback {
		g.failf(TypeMappingError{Context: context, SQLType: sqlType})
	}
	return res
}

// addRecord registers a record class for emission, returning the existing
// definition when the class is already scheduled.
func (g *generator) addRecord(def *recordDef) *recordDef {
	if existing, ok := g.records[def.ClassName]; ok {
		return existing
	}
	g.records[def.ClassName] = def
	g.order = append(g.order, def.ClassName)
	for _, f := range def.Fields {
		g.imports.Union(f.Resolved.Imports)
	}
	if !def.Placeholder {
		g.imports.Add(ImportDataclass)
	}
	return def
}

// recordForRow schedules a dataclass mirroring a declared table or
// composite type.
func (g *generator) recordForRow(t *sqlparser.RowType) *recordDef {
	className := g.opts.Namer.RecordClass(t.Name.Value)
	if existing, ok := g.records[className]; ok {
		return existing
	}
	def := &recordDef{ClassName: className, SQLName: t.Name.Value}
	for _, col := range t.Columns {
		res := g.resolveChecked(col.SQLType, col.Optional(), fmt.Sprintf("column %s of %s", col.Name, t.Name.Value))
		def.Fields = append(def.Fields, fieldDef{
			Name:     col.Name,
			SQLType:  col.SQLType,
			Resolved: res,
			PyType:   res.PyType,
		})
	}
	return g.addRecord(def)
}

// recordForColumns schedules an ad-hoc dataclass for RETURNS TABLE(...) or
// recovered RETURNS record columns. Every field is forced optional,
// matching PostgreSQL's nullability-unknown semantics for expression
// outputs.
func (g *generator) recordForColumns(className string, columns []sqlparser.Column, context string) *recordDef {
	if existing, ok := g.records[className]; ok {
		return existing
	}
	def := &recordDef{ClassName: className}
	for _, col := range columns {
		sqlType := col.SQLType
		var res Resolved
		if sqlType == "" {
			res = Resolved{PyType: "Any", Imports: NewImportSet(ImportAny)}
		} else {
			res = g.resolveChecked(sqlType, true, fmt.Sprintf("column %s of %s", col.Name, context))
		}
		def.Fields = append(def.Fields, fieldDef{
			Name:     col.Name,
			SQLType:  sqlType,
			Resolved: res,
			PyType:   res.PyType,
		})
	}
	return g.addRecord(def)
}

// placeholderRecord schedules a commented TODO placeholder for a table or
// composite whose schema is unknown (permissive mode only).
func (g *generator) placeholderRecord(sqlName string) *recordDef {
	className := g.opts.Namer.RecordClass(sqlName)
	if existing, ok := g.records[className]; ok {
		return existing
	}
	def := &recordDef{ClassName: className, SQLName: sqlName, Placeholder: true}
	g.imports.Add(ImportAny)
	return g.addRecord(def)
}

func (g *generator) buildFunction(f *sqlparser.Function) {
	if _, ok := f.Driver.(*stdlib.Driver); !ok {
		g.warnf("function %s targets an unsupported SQL driver; skipping", f.Name.Value)
		return
	}
	namer := g.opts.Namer
	fn := &funcDef{
		SQLName: f.Name.Value,
		PyName:  namer.FunctionName(f.Name.Value),
		Doc:     f.Comment(),
		SetOf:   f.Returns.SetOf,
	}

	var pragma docstringPragma
	if ok, err := f.DocstringYAML(&pragma); ok {
		if err != nil {
			g.warnf("function %s: bad docstring pragma: %s; ignoring", f.Name.Value, err)
		} else if pragma.Name != "" {
			fn.PyName = pragma.Name
		}
	}

	for _, p := range f.Params {
		res := g.resolveChecked(p.SQLType, p.Optional(), fmt.Sprintf("parameter %s of function %s", p.SQLName, f.Name.Value))
		pd := paramDef{
			SQLName:  p.SQLName,
			PyName:   PythonParamName(p.SQLName),
			PyType:   res.PyType,
			Resolved: res,
			Optional: p.Optional(),
			IsEnum:   res.IsEnum && !strings.HasPrefix(BasePyType(res.PyType), "List["),
			IsJSON:   strings.ToLower(firstWord(p.SQLType)) == "json" || strings.ToLower(firstWord(p.SQLType)) == "jsonb",
		}
		switch {
		case pd.IsEnum:
			pd.BindName = pd.PyName + "_value"
		case pd.IsJSON:
			pd.BindName = pd.PyName + "_json"
		default:
			pd.BindName = pd.PyName
		}
		if pd.IsJSON {
			g.imports.Add(ImportJSON, ImportUUID, ImportDatetime, ImportDate)
		}
		if res.IsRecord {
			// a record-typed parameter needs its dataclass emitted too
			if t := g.doc.LookupRow(res.RefName); t != nil {
				g.recordForRow(t)
			}
		}
		g.imports.Union(res.Imports)
		fn.Params = append(fn.Params, pd)
	}

	g.buildReturn(f, fn, pragma)
	g.imports.Add(importsForHint(fn.ReturnHint)...)
	g.funcs = append(g.funcs, fn)
}

func (g *generator) buildReturn(f *sqlparser.Function, fn *funcDef, pragma docstringPragma) {
	ret := f.Returns
	switch {
	case ret.Void:
		fn.Kind = returnVoid
		fn.ReturnHint = "None"
		return

	case ret.TableLiteral:
		className := pragma.Record
		if className == "" {
			className = g.opts.Namer.AdHocRecordName(fn.PyName)
		}
		fn.Record = g.recordForColumns(className, ret.TableColumns, "function "+f.Name.Value)
		fn.Kind = returnNamedRecord
		fn.ReturnHint = wrapReturnHint(className, ret.SetOf)
		return

	case ret.Record:
		if len(ret.RecoveredColumns) > 0 {
			className := pragma.Record
			if className == "" {
				className = g.opts.Namer.AdHocRecordName(fn.PyName)
			}
			fn.Record = g.recordForColumns(className, ret.RecoveredColumns, "function "+f.Name.Value)
			fn.Kind = returnNamedRecord
			fn.ReturnHint = wrapReturnHint(className, ret.SetOf)
			fn.AsClause = g.asClauseFor(fn.Record)
			return
		}
		fn.Kind = returnRecordTuple
		g.imports.Add(ImportTuple)
		fn.ReturnHint = wrapReturnHint("Tuple", ret.SetOf)
		return
	}

	// a named type: enum, table/composite, scalar or unknown
	if e := g.doc.LookupEnum(ret.TypeName); e != nil {
		fn.Kind = returnEnum
		fn.EnumClass = g.opts.Namer.EnumClass(e.Name.Value)
		g.imports.Add(ImportEnum)
		fn.ReturnHint = wrapReturnHint(fn.EnumClass, ret.SetOf)
		return
	}
	if t := g.doc.LookupRow(ret.TypeName); t != nil {
		fn.Record = g.recordForRow(t)
		fn.Kind = returnNamedRecord
		fn.ReturnHint = wrapReturnHint(fn.Record.ClassName, ret.SetOf)
		return
	}

	res := g.resolver.Resolve(ret.TypeName, false)
	if !res.Fallback {
		fn.Kind = returnScalar
		g.imports.Union(res.Imports)
		fn.ReturnHint = wrapReturnHint(res.PyType, ret.SetOf)
		return
	}

	// an unknown name: a table or composite whose schema we don't have
	g.failf(MissingSchemaError{Function: f.Name.Value, TypeName: ret.TypeName})
	if !g.opts.AllowMissingSchemas {
		return
	}
	g.placeholderRecord(ret.TypeName)
	fn.Kind = returnScalar
	g.imports.Add(ImportAny)
	fn.ReturnHint = wrapReturnHint("Any", ret.SetOf)
}

// asClauseFor builds the ` AS (col TYPE, ...)` suffix for recovered
// `RETURNS record` queries.
func (g *generator) asClauseFor(def *recordDef) string {
	var parts []string
	for _, f := range def.Fields {
		parts = append(parts, f.Name+" "+SQLTypeFor(f.SQLType, f.PyType))
	}
	return " AS (" + strings.Join(parts, ", ") + ")"
}

func wrapReturnHint(base string, setOf bool) string {
	if base == "None" {
		return "None"
	}
	if setOf {
		return "List[" + base + "]"
	}
	if base == "Any" || strings.HasPrefix(base, "Optional[") {
		return base
	}
	return "Optional[" + base + "]"
}

func importsForHint(hint string) []string {
	var keys []string
	if strings.Contains(hint, "Optional[") {
		keys = append(keys, ImportOptional)
	}
	if strings.Contains(hint, "List[") {
		keys = append(keys, ImportList)
	}
	if strings.Contains(hint, "Tuple") {
		keys = append(keys, ImportTuple)
	}
	if strings.Contains(hint, "Any") {
		keys = append(keys, ImportAny)
	}
	if strings.Contains(hint, "Dict[") {
		keys = append(keys, ImportDict)
	}
	return keys
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool { return r == ' ' || r == '(' })
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// closeOverFieldReferences adds every table/composite referenced by an
// emitted record's fields to the emission set, repeating until a fixed
// point so no generated record names an undefined record.
func (g *generator) closeOverFieldReferences() {
	for changed := true; changed; {
		changed = false
		for _, name := range append([]string(nil), g.order...) {
			def := g.records[name]
			for _, f := range def.Fields {
				if !f.Resolved.IsRecord {
					continue
				}
				if t := g.doc.LookupRow(f.Resolved.RefName); t != nil {
					className := g.opts.Namer.RecordClass(t.Name.Value)
					if _, ok := g.records[className]; !ok {
						g.recordForRow(t)
						changed = true
					}
				}
			}
		}
	}
}

// markCoercibleFields records which fields of each emitted record need
// enum or nested-composite coercion during row reconstruction.
func (g *generator) markCoercibleFields() {
	for _, name := range g.order {
		def := g.records[name]
		def.enumFields = nil
		def.recordFields = nil
		for i, f := range def.Fields {
			if f.Resolved.IsEnum && !strings.HasPrefix(BasePyType(f.PyType), "List[") {
				def.enumFields = append(def.enumFields, i)
			}
			if f.Resolved.IsRecord && !strings.HasPrefix(BasePyType(f.PyType), "List[") {
				if target, ok := g.records[BasePyType(f.PyType)]; ok && !target.Placeholder {
					def.recordFields = append(def.recordFields, i)
				}
			}
		}
	}
}
