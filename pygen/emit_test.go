package pygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/pgapigen/sqlparser"
)

func emitSQL(t *testing.T, functionsSQL, schemaSQL string, opts Options) (string, []string) {
	t.Helper()
	code, warnings, err := emitSQLErr(t, functionsSQL, schemaSQL, opts)
	require.NoError(t, err)
	return code, warnings
}

func emitSQLErr(t *testing.T, functionsSQL, schemaSQL string, opts Options) (string, []string, error) {
	t.Helper()
	doc := sqlparser.NewDocument()
	if schemaSQL != "" {
		doc.ParseSchema("schema.sql", schemaSQL)
	}
	doc.Parse("funcs.sql", functionsSQL)
	doc.RecoverRecordColumns()
	require.False(t, doc.HasErrors(), "%v", doc.Errors())
	if opts.SourceFile == "" {
		opts.SourceFile = "funcs.sql"
	}
	return Emit(doc, opts)
}

func TestEmitDefaultsActivation(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION f(p_name TEXT, p_qty INT DEFAULT 10, p_cat INT DEFAULT 1) RETURNS TEXT
LANGUAGE sql AS $$ SELECT p_name $$;
`, "", Options{})

	assert.Contains(t, code,
		"async def f(conn: AsyncConnection, name: str, qty: Optional[int] = None, cat: Optional[int] = None) -> Optional[str]:")

	// the required parameter binds unconditionally
	assert.Contains(t, code, "    _sql_named_args_parts.append('p_name := %(name)s')\n    _call_params_dict['name'] = name")

	// optional parameters are omitted entirely when absent, so the SQL
	// DEFAULT clauses activate server-side
	assert.Contains(t, code, "    if qty is not None:\n        _sql_named_args_parts.append('p_qty := %(qty)s')\n        _call_params_dict['qty'] = qty")
	assert.Contains(t, code, "    if cat is not None:\n        _sql_named_args_parts.append('p_cat := %(cat)s')\n        _call_params_dict['cat'] = cat")

	assert.Contains(t, code, `_full_sql_query = f"SELECT * FROM f({_sql_query_named_args})"`)
	assert.Contains(t, code, "async with conn.cursor() as cur:")
	assert.Contains(t, code, "await cur.execute(_full_sql_query, _call_params_dict)")
}

func TestEmitSetofQualifiedTable(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION list_companies() RETURNS SETOF public.companies
LANGUAGE sql AS $$ SELECT * FROM public.companies $$;
`, `
CREATE TABLE public.companies (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    founded DATE
);
`, Options{})

	assert.Contains(t, code, "@dataclass\nclass Company:")
	assert.Contains(t, code, "    id: int\n    name: str\n    founded: Optional[date]")
	assert.Contains(t, code, "async def list_companies(conn: AsyncConnection) -> List[Company]:")
	assert.Contains(t, code, "rows = await cur.fetchall()")
	assert.Contains(t, code, "item = _row_to_company(row)")
	assert.Contains(t, code, "def _row_to_company(row):")
	assert.Contains(t, code, "return Company(*values)")
}

func TestEmitEnumParameter(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE TYPE status_type AS ENUM ('pending', 'active', 'inactive');
CREATE FUNCTION add_member(p_role status_type, p_note TEXT) RETURNS INT
LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	assert.Contains(t, code, "class StatusType(Enum):")
	assert.Contains(t, code, "    PENDING = 'pending'\n    ACTIVE = 'active'\n    INACTIVE = 'inactive'")

	assert.Contains(t, code, "role_value = role.value if role is not None else None")
	assert.Contains(t, code, "_sql_named_args_parts.append('p_role := %(role)s')")
	assert.Contains(t, code, "_call_params_dict['role'] = role_value")
	// the plain string parameter passes through untouched
	assert.Contains(t, code, "_call_params_dict['note'] = note")
	assert.NotContains(t, code, "note_value")
}

func TestEmitEnumReturn(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE TYPE mood AS ENUM ('happy', 'sad');
CREATE FUNCTION current_mood() RETURNS mood LANGUAGE sql AS $$ SELECT 'happy'::mood $$;
CREATE FUNCTION all_moods() RETURNS SETOF mood LANGUAGE sql AS $$ SELECT 'happy'::mood $$;
`, "", Options{})

	assert.Contains(t, code, "async def current_mood(conn: AsyncConnection) -> Optional[Mood]:")
	assert.Contains(t, code, "if row is None or row[0] is None:")
	assert.Contains(t, code, "return Mood(row[0])")
	assert.Contains(t, code, "async def all_moods(conn: AsyncConnection) -> List[Mood]:")
	assert.Contains(t, code, "return [Mood(row[0]) for row in rows if row and row[0] is not None]")
}

func TestEmitNestedComposite(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION upsert_meter(p_name TEXT) RETURNS meter_upsert
LANGUAGE sql AS $$ SELECT 1 $$;
`, `
CREATE TABLE meters (
    id SERIAL PRIMARY KEY,
    name TEXT,
    is_on BOOLEAN,
    lat NUMERIC(10,7),
    data JSONB
);
CREATE TYPE meter_upsert AS (
    meter meters,
    was_created BOOLEAN
);
`, Options{})

	// dependency order: Meter before MeterUpsert
	meterIdx := strings.Index(code, "class Meter:")
	upsertIdx := strings.Index(code, "class MeterUpsert:")
	require.Greater(t, meterIdx, 0)
	require.Greater(t, upsertIdx, meterIdx)

	// both decoders and the typed field tables are emitted
	assert.Contains(t, code, "def _parse_composite_string_typed(composite_str, field_types):")
	assert.Contains(t, code, "def _convert_postgresql_value_typed(value, type_name):")
	assert.Contains(t, code, "_METER_FIELD_TYPES = ['int', 'str', 'bool', 'Decimal', 'Dict']")
	assert.Contains(t, code, "_METER_UPSERT_FIELD_TYPES = ['Meter', 'bool']")

	// the nested field routes through the Meter constructor for both the
	// tuple and the composite-text driver representations
	assert.Contains(t, code, "def _row_to_meter_upsert(row):")
	assert.Contains(t, code, "if isinstance(values[0], (tuple, str)):")
	assert.Contains(t, code, "values[0] = _row_to_meter(values[0])")

	// all-NULL composites collapse to None
	assert.Contains(t, code, "if all(value is None for value in values):")

	// structural mismatches surface the tuple-row contract
	assert.Contains(t, code, "ordered tuples, not mappings")
}

func TestEmitTrivialRecordRecovery(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE TYPE mood AS ENUM ('happy', 'sad');
CREATE TABLE items (
    id SERIAL PRIMARY KEY,
    current_mood mood,
    created_at TIMESTAMP NOT NULL
);

CREATE FUNCTION now_info() RETURNS record AS $$
    SELECT current_mood, created_at::DATE FROM items WHERE id = 1
$$ LANGUAGE sql;
`, "", Options{})

	// the recovered record becomes a real dataclass with optional fields
	assert.Contains(t, code, "class NowInfo:")
	assert.Contains(t, code, "current_mood: Optional[Mood]")
	assert.Contains(t, code, "created_at: Optional[date]")

	// the query gains a column definition list so the record can be read
	assert.Contains(t, code, `_full_sql_query = f"SELECT * FROM now_info({_sql_query_named_args}) AS (current_mood MOOD, created_at DATE)"`)

	// the enum field is coerced from its label string
	assert.Contains(t, code, "def _row_to_now_info(row):")
	assert.Contains(t, code, "values[0] = Mood(values[0])")
}

func TestEmitAnonymousRecord(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION get_status() RETURNS record LANGUAGE plpgsql AS $$
BEGIN
    SELECT 1, 2;
END;
$$;
CREATE FUNCTION all_statuses() RETURNS SETOF record LANGUAGE plpgsql AS $$
BEGIN
    SELECT 1, 2;
END;
$$;
`, "", Options{})

	assert.Contains(t, code, "async def get_status(conn: AsyncConnection) -> Optional[Tuple]:")
	assert.Contains(t, code, "async def all_statuses(conn: AsyncConnection) -> List[Tuple]:")
	assert.Contains(t, code, "return row")
	assert.Contains(t, code, "return rows")
}

func TestEmitMissingSchemaFailsByDefault(t *testing.T) {
	_, _, err := emitSQLErr(t, `
CREATE FUNCTION get_x() RETURNS SETOF undefined_tab LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined_tab")
	assert.Contains(t, err.Error(), "get_x")
}

func TestEmitMissingSchemaPermissive(t *testing.T) {
	code, warnings := emitSQL(t, `
CREATE FUNCTION get_x() RETURNS SETOF undefined_tab LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{AllowMissingSchemas: true})

	assert.Contains(t, code, "# TODO: schema for \"undefined_tab\" was not found")
	assert.Contains(t, code, "async def get_x(conn: AsyncConnection) -> List[Any]:")
	assert.Contains(t, code, "return [row[0] for row in rows if row]")
	require.NotEmpty(t, warnings)
}

func TestEmitVoidAndZeroParams(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION ping() RETURNS void LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	assert.Contains(t, code, "async def ping(conn: AsyncConnection) -> None:")
	// empty fragment list and binding map are still assembled, and the
	// composed query ends with ()
	assert.Contains(t, code, "_sql_named_args_parts = []")
	assert.Contains(t, code, "_call_params_dict = {}")
	assert.Contains(t, code, `f"SELECT * FROM ping({_sql_query_named_args})"`)
	// void does not fetch
	assert.Contains(t, code, "await cur.execute(_full_sql_query, _call_params_dict)\n        return None")
	assert.NotContains(t, code, "fetchone")
}

func TestEmitScalarShapes(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION one() RETURNS INT LANGUAGE sql AS $$ SELECT 1 $$;
CREATE FUNCTION many() RETURNS SETOF INT LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	assert.Contains(t, code, "async def one(conn: AsyncConnection) -> Optional[int]:")
	assert.Contains(t, code, "row = await cur.fetchone()\n        if row is None:\n            return None\n        return row[0]")
	assert.Contains(t, code, "async def many(conn: AsyncConnection) -> List[int]:")
	assert.Contains(t, code, "return [row[0] for row in rows if row]")
}

func TestEmitJSONParameter(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION save_payload(p_payload JSONB) RETURNS void LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	assert.Contains(t, code, "payload_json = json.dumps(payload, cls=_PgJsonEncoder) if payload is not None else None")
	assert.Contains(t, code, "_call_params_dict['payload'] = payload_json")
	assert.Contains(t, code, "class _PgJsonEncoder(json.JSONEncoder):")
	assert.Contains(t, code, "return o.isoformat()")
	assert.Contains(t, code, "import json")
}

func TestEmitHelpers(t *testing.T) {
	sql := `CREATE FUNCTION f() RETURNS INT LANGUAGE sql AS $$ SELECT 1 $$;`

	code, _ := emitSQL(t, sql, "", Options{})
	assert.Contains(t, code, "def get_optional(result):")
	assert.Contains(t, code, "def get_required(result):")

	code, _ = emitSQL(t, sql, "", Options{OmitHelpers: true})
	assert.NotContains(t, code, "def get_optional")
	assert.NotContains(t, code, "def get_required")
}

func TestEmitHeaderAndImports(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION f(p_when TIMESTAMP) RETURNS uuid LANGUAGE sql AS $$ SELECT gen_random_uuid() $$;
`, "", Options{SourceFile: "api.sql"})

	lines := strings.Split(code, "\n")
	assert.Equal(t, "# Generated by pgapigen from api.sql", lines[0])
	assert.Equal(t, "# DO NOT EDIT MANUALLY", lines[1])
	assert.Contains(t, code, "from psycopg import AsyncConnection")
	assert.Contains(t, code, "from uuid import UUID")
	assert.Contains(t, code, "from datetime import datetime")

	// the driver import leads the block
	psycopgIdx := strings.Index(code, "from psycopg import")
	uuidIdx := strings.Index(code, "from uuid import")
	assert.Less(t, psycopgIdx, uuidIdx)
}

func TestEmitParameterReorderKeepsAll(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE FUNCTION mix(p_a INT DEFAULT 1, p_b TEXT, p_c INT DEFAULT 2, p_d BOOLEAN) RETURNS void
LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	// required first (declaration order), then optional (declaration order)
	assert.Contains(t, code, "async def mix(conn: AsyncConnection, b: str, d: bool, a: Optional[int] = None, c: Optional[int] = None) -> None:")
	// binding still happens in declaration order and by name
	aIdx := strings.Index(code, "'p_a := %(a)s'")
	bIdx := strings.Index(code, "'p_b := %(b)s'")
	cIdx := strings.Index(code, "'p_c := %(c)s'")
	dIdx := strings.Index(code, "'p_d := %(d)s'")
	require.True(t, aIdx > 0 && bIdx > 0 && cIdx > 0 && dIdx > 0)
	assert.Less(t, aIdx, bIdx)
	assert.Less(t, bIdx, cIdx)
	assert.Less(t, cIdx, dIdx)
}

func TestEmitDependencyCycleTolerated(t *testing.T) {
	code, warnings := emitSQL(t, `
CREATE FUNCTION get_a() RETURNS node_a LANGUAGE sql AS $$ SELECT 1 $$;
`, `
CREATE TYPE node_a AS (value INT, peer node_b);
CREATE TYPE node_b AS (value INT, peer node_a);
`, Options{})

	assert.Contains(t, code, "class NodeA:")
	assert.Contains(t, code, "class NodeB:")
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "cycle") {
			found = true
		}
	}
	assert.True(t, found, "expected a cycle warning, got %v", warnings)
}

func TestEmitDocstrings(t *testing.T) {
	code, _ := emitSQL(t, `
-- Count the things.
-- Slowly.
CREATE FUNCTION count_things() RETURNS INT LANGUAGE sql AS $$ SELECT 1 $$;

CREATE FUNCTION undocumented() RETURNS INT LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	assert.Contains(t, code, "    \"\"\"Count the things.\n    Slowly.\n    \"\"\"")
	assert.Contains(t, code, `"""Call PostgreSQL function undocumented()."""`)
}

func TestEmitIdempotent(t *testing.T) {
	functionsSQL := `
CREATE TYPE status_type AS ENUM ('a', 'b');
CREATE TABLE users (id INT PRIMARY KEY, status status_type, tags TEXT[]);
CREATE FUNCTION get_users() RETURNS SETOF users LANGUAGE sql AS $$ SELECT * FROM users $$;
CREATE FUNCTION set_status(p_id INT, p_status status_type DEFAULT NULL) RETURNS void LANGUAGE sql AS $$ SELECT 1 $$;
`
	first, _ := emitSQL(t, functionsSQL, "", Options{})
	second, _ := emitSQL(t, functionsSQL, "", Options{})
	assert.Equal(t, first, second)
}

func TestEmitOptionalEnumOmittedWhenAbsent(t *testing.T) {
	code, _ := emitSQL(t, `
CREATE TYPE status_type AS ENUM ('a', 'b');
CREATE FUNCTION f(p_status status_type DEFAULT NULL) RETURNS void LANGUAGE sql AS $$ SELECT 1 $$;
`, "", Options{})

	assert.Contains(t, code, "status_value = status.value if status is not None else None")
	assert.Contains(t, code, "    if status is not None:\n        _sql_named_args_parts.append('p_status := %(status)s')\n        _call_params_dict['status'] = status_value")
}
