package copyplan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

func TestBuild_SimpleTable(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE student(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE student(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL, age integer NOT NULL);`)
	require.NoError(t, err)

	steps, err := copyplan.Build(src, tgt)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	step := steps[0]
	require.Equal(t, "student", step.SourceTable)
	require.Equal(t, "student", step.TargetTable)
	require.Equal(t, []string{"name", "age"}, step.InsertColumns)
	require.NotNil(t, step.Identity)
	require.Equal(t, "id", step.Identity.TargetAutoincrement)

	var ageMapping *copyplan.ColumnMapping
	for i := range step.ColumnMappings {
		if step.ColumnMappings[i].TargetColumn == "age" {
			ageMapping = &step.ColumnMappings[i]
		}
	}
	require.NotNil(t, ageMapping)
	require.Equal(t, copyplan.FromTypeDefault, ageMapping.Kind)
}

func TestBuild_ForeignKeyOrdering(t *testing.T) {
	srcSQL := `
CREATE TABLE parent(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL);
CREATE TABLE child(id integer PRIMARY KEY AUTOINCREMENT, parent_id integer, FOREIGN KEY(parent_id) REFERENCES parent(id));
`
	src, err := sqlparse.ParseFile("s.sql", srcSQL)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", srcSQL)
	require.NoError(t, err)

	steps, err := copyplan.Build(src, tgt)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, "parent", steps[0].TargetTable)
	require.Equal(t, "child", steps[1].TargetTable)
	require.Len(t, steps[1].ForeignKeys, 1)
	require.Equal(t, "parent", steps[1].ForeignKeys[0].RefTable)
}

func TestBuild_AddedTableSkipped(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE widget(id integer PRIMARY KEY AUTOINCREMENT);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `
CREATE TABLE widget(id integer PRIMARY KEY AUTOINCREMENT);
CREATE TABLE gadget(id integer PRIMARY KEY AUTOINCREMENT);
`)
	require.NoError(t, err)

	steps, err := copyplan.Build(src, tgt)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Equal(t, "widget", steps[0].TargetTable)
}
