package pgapigen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEndToEnd(t *testing.T) {
	result, err := Generate(Options{
		FunctionsFile: "api.sql",
		FunctionsSQL: `
-- List all companies.
CREATE FUNCTION list_companies() RETURNS SETOF public.companies
LANGUAGE sql AS $$ SELECT * FROM public.companies $$;
`,
		SchemaFile: "schema.sql",
		SchemaSQL: `
CREATE TABLE public.companies (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    founded DATE
);
`,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Functions)

	assert.True(t, strings.HasPrefix(result.Code, "# Generated by pgapigen from api.sql\n"))
	assert.Contains(t, result.Code, "class Company:")
	assert.Contains(t, result.Code, "async def list_companies(conn: AsyncConnection) -> List[Company]:")
	assert.Contains(t, result.Code, `"""List all companies."""`)
}

func TestGenerateNoFunctions(t *testing.T) {
	result, err := Generate(Options{
		FunctionsFile: "empty.sql",
		FunctionsSQL:  "-- nothing here\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "# No functions parsed successfully from empty.sql.\n", result.Code)
}

func TestGenerateParseErrorAborts(t *testing.T) {
	_, err := Generate(Options{
		FunctionsFile: "bad.sql",
		FunctionsSQL: `
CREATE TABLE broken (
    123 not_a_column
);
`,
	})
	require.Error(t, err)
	var parseErrors ParseErrors
	require.ErrorAs(t, err, &parseErrors)
	assert.Contains(t, err.Error(), "bad.sql:")
}

func TestGenerateConfigOverrides(t *testing.T) {
	config, err := ParseConfig([]byte("class_names:\n  people: Person\n"))
	require.NoError(t, err)

	result, err := Generate(Options{
		FunctionsFile: "api.sql",
		FunctionsSQL: `
CREATE TABLE people (id INT PRIMARY KEY, name TEXT);
CREATE FUNCTION get_person(p_id INT) RETURNS people LANGUAGE sql AS $$ SELECT * FROM people $$;
`,
		Config: config,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "class Person:")
	assert.Contains(t, result.Code, "-> Optional[Person]:")
}

func TestGenerateDocstringPragmaOverridesName(t *testing.T) {
	result, err := Generate(Options{
		FunctionsFile: "api.sql",
		FunctionsSQL: `
-- Fetch the newest row.
--! name: fetch_newest
CREATE FUNCTION fetch() RETURNS INT LANGUAGE sql AS $$ SELECT 1 $$;
`,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "async def fetch_newest(conn: AsyncConnection) -> Optional[int]:")
	assert.Contains(t, result.Code, `"""Fetch the newest row."""`)
	// the wire name stays the SQL name
	assert.Contains(t, result.Code, "SELECT * FROM fetch(")
}
