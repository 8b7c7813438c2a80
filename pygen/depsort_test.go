package pygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClosureAndOrder(t *testing.T) {
	// grandparent -> parent -> child: only grandparent is returned by a
	// function, the rest must be pulled in by the closure step and emitted
	// dependencies-first.
	code, _ := emitSQL(t, `
CREATE FUNCTION get_report() RETURNS report LANGUAGE sql AS $$ SELECT 1 $$;
`, `
CREATE TABLE accounts (id INT PRIMARY KEY, label TEXT);
CREATE TYPE summary AS (account accounts, total NUMERIC(12,2));
CREATE TYPE report AS (main summary, note TEXT);
`, Options{})

	accountIdx := strings.Index(code, "class Account:")
	summaryIdx := strings.Index(code, "class Summary:")
	reportIdx := strings.Index(code, "class Report:")
	require.Greater(t, accountIdx, 0)
	require.Greater(t, summaryIdx, 0)
	require.Greater(t, reportIdx, 0)

	assert.Less(t, accountIdx, summaryIdx)
	assert.Less(t, summaryIdx, reportIdx)

	// every referenced class is defined before use (no forward references)
	assert.Contains(t, code, "main: Optional[Summary]")
	assert.Contains(t, code, "account: Optional[Account]")
}

func TestClassRefsIgnoresBuiltins(t *testing.T) {
	g := &generator{records: map[string]*recordDef{
		"Company": {ClassName: "Company"},
		"User":    {ClassName: "User"},
	}}

	assert.Equal(t, []string{"Company"}, g.classRefs("Optional[Company]", "User"))
	assert.Equal(t, []string{"Company", "User"}, g.classRefs("Dict[Company, List[User]]", "Other"))
	assert.Empty(t, g.classRefs("Optional[List[Decimal]]", "Company"))
	// self references don't form edges
	assert.Empty(t, g.classRefs("Optional[User]", "User"))
	// unknown classes are not edges either
	assert.Empty(t, g.classRefs("Optional[Stranger]", "User"))
}
