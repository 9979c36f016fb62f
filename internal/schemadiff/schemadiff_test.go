package schemadiff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/schemadiff"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

func TestDiff_UnchangedTable(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE student(id integer PRIMARY KEY, name text);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE student(id integer PRIMARY KEY, name text);`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	require.Empty(t, diff.Added)
	require.Empty(t, diff.Removed)
	require.Len(t, diff.Matched, 1)
	require.False(t, diff.Matched[0].Renamed)
	require.Equal(t, "student", diff.Matched[0].SourceName)
}

func TestDiff_ExactSignatureRename(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE table0(id integer NOT NULL);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE table1(id integer NOT NULL);`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	require.Empty(t, diff.Added)
	require.Empty(t, diff.Removed)
	require.Len(t, diff.Matched, 1)
	require.True(t, diff.Matched[0].Renamed)
	require.Equal(t, "table0", diff.Matched[0].SourceName)
	require.Equal(t, "table1", diff.Matched[0].TargetName)
}

func TestDiff_HeuristicRenameByColumnOverlap(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `
CREATE TABLE legacy_account(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL, balance real);
`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `
CREATE TABLE account(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL, balance real, email text);
`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	require.Len(t, diff.Matched, 1, "high column overlap plus name-suffix similarity should bind as a rename")
	require.Equal(t, "legacy_account", diff.Matched[0].SourceName)
	require.Equal(t, "account", diff.Matched[0].TargetName)
	require.True(t, diff.Matched[0].Renamed)
}

func TestDiff_AddedAndRemovedTables(t *testing.T) {
	// Deliberately dissimilar shapes and names so neither the exact-signature
	// nor heuristic rename pass binds them — this must surface as a plain
	// add + remove pair, not a rename.
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE gone(widget_id integer, widget_label text);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE fresh(id integer PRIMARY KEY AUTOINCREMENT, total real NOT NULL, note text);`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	require.Equal(t, []string{"fresh"}, diff.Added)
	require.Equal(t, []string{"gone"}, diff.Removed)
	require.Empty(t, diff.Matched)
}

func TestDiff_ColumnAdded(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE student(id integer NOT NULL, name text NOT NULL);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE student(id integer NOT NULL, name text NOT NULL, age integer NOT NULL);`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	require.Len(t, diff.Matched, 1)
	td := diff.Matched[0]
	require.Empty(t, td.Dropped)

	var age *schemadiff.ColumnMatch
	for i := range td.Columns {
		if td.Columns[i].TargetColumn == "age" {
			age = &td.Columns[i]
		}
	}
	require.NotNil(t, age)
	require.True(t, age.Added)
}

func TestDiff_ColumnRenamed(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE student(id integer NOT NULL, full_name text NOT NULL);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE student(id integer NOT NULL, name text NOT NULL);`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	td := diff.Matched[0]

	var nameCol *schemadiff.ColumnMatch
	for i := range td.Columns {
		if td.Columns[i].TargetColumn == "name" {
			nameCol = &td.Columns[i]
		}
	}
	require.NotNil(t, nameCol)
	require.True(t, nameCol.Renamed)
	require.Equal(t, "full_name", nameCol.SourceColumn)
	require.Empty(t, td.Dropped)
}

func TestDiff_ColumnDropped(t *testing.T) {
	src, err := sqlparse.ParseFile("s.sql", `CREATE TABLE student(id integer NOT NULL, name text NOT NULL, legacy_flag integer);`)
	require.NoError(t, err)
	tgt, err := sqlparse.ParseFile("t.sql", `CREATE TABLE student(id integer NOT NULL, name text NOT NULL);`)
	require.NoError(t, err)

	diff := schemadiff.Diff(src, tgt)
	require.Equal(t, []string{"legacy_flag"}, diff.Matched[0].Dropped)
}

func TestConflictError_Message(t *testing.T) {
	err := &schemadiff.ConflictError{
		ObjectName: "student", ObjectType: "column",
		Property: "type", Expected: "integer", Actual: "text",
	}
	require.Contains(t, err.Error(), "student")
	require.Contains(t, err.Error(), "type mismatch")
}
