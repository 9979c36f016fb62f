package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/depgraph"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestSort_LeavesFirst(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE parent(id integer PRIMARY KEY);
CREATE TABLE child(id integer PRIMARY KEY, parent_id integer REFERENCES parent(id));
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	result := g.Sort()
	require.Empty(t, g.MissingReferences())

	parentIdx := indexOf(result.Order, "parent")
	childIdx := indexOf(result.Order, "child")
	require.True(t, parentIdx >= 0 && childIdx >= 0)
	require.Less(t, parentIdx, childIdx, "referenced table sorts before its dependent")
}

func TestSort_PreservesDeclarationOrderWithinRank(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE b(id integer PRIMARY KEY);
CREATE TABLE a(id integer PRIMARY KEY);
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	result := g.Sort()
	require.Equal(t, []string{"b", "a"}, result.Order)
}

func TestSort_IndexDependsOnItsTable(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE student(id integer PRIMARY KEY, email text);
CREATE INDEX idx_email ON student(email);
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	result := g.Sort()
	require.Less(t, indexOf(result.Order, "student"), indexOf(result.Order, "idx_email"))
}

func TestSort_ViewDependsOnReferencedTable(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE student(id integer PRIMARY KEY, name text);
CREATE VIEW student_names AS SELECT name FROM student;
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	result := g.Sort()
	require.Less(t, indexOf(result.Order, "student"), indexOf(result.Order, "student_names"))
}

func TestMissingReferences(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE child(id integer PRIMARY KEY, parent_id integer REFERENCES ghost(id));
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	require.Equal(t, []string{"ghost"}, g.MissingReferences())
}

func TestSort_SelfReferenceDoesNotHang(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE node(id integer PRIMARY KEY, parent_id integer REFERENCES node(id));
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	require.True(t, g.HasSelfEdge("node"))
	result := g.Sort()
	require.Equal(t, []string{"node"}, result.Order)
}

func TestSort_TwoTableCycleReported(t *testing.T) {
	file, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE a(id integer PRIMARY KEY, b_id integer REFERENCES b(id));
CREATE TABLE b(id integer PRIMARY KEY, a_id integer REFERENCES a(id));
`)
	require.NoError(t, err)

	g := depgraph.Build(file)
	cycles := g.TwoCycles()
	require.Len(t, cycles, 1)

	result := g.Sort()
	require.Len(t, result.Order, 2)
	require.NotEmpty(t, result.Cycles, "sort forces a node out and reports the blocking edge")
}
