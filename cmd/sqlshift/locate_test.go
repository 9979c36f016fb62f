package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLocate_ConcatenatesSchemaFilesInSortedOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_accounts.sql", "CREATE TABLE account(id INTEGER PRIMARY KEY);\n")
	writeFile(t, dir, "a_widgets.sql", "CREATE TABLE widget(id INTEGER PRIMARY KEY);\n")

	loc, err := locate(dir)
	require.NoError(t, err)
	require.Len(t, loc.SchemaFiles, 2)
	require.Contains(t, loc.SchemaFiles[0], "a_widgets.sql")
	require.Contains(t, loc.SchemaFiles[1], "b_accounts.sql")
	require.Contains(t, loc.Source, "widget")
	require.True(t, len(loc.Source) > 0)
	// widget's file sorts first, so its content must appear before account's.
	require.Less(t, indexOf(loc.Source, "widget"), indexOf(loc.Source, "account"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestLocate_NoSchemaFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := locate(dir)
	require.Error(t, err)
}

func TestLocate_NewDBPathIsDeterministicOnHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.sql", "CREATE TABLE widget(id INTEGER PRIMARY KEY);\n")

	loc1, err := locate(dir)
	require.NoError(t, err)
	loc2, err := locate(dir)
	require.NoError(t, err)
	require.Equal(t, loc1.NewDBPath, loc2.NewDBPath)
	require.Contains(t, loc1.NewDBPath, loc1.Hash)
}

func TestLocate_DifferentSchemaContentYieldsDifferentHash(t *testing.T) {
	dirA := t.TempDir()
	writeFile(t, dirA, "schema.sql", "CREATE TABLE widget(id INTEGER PRIMARY KEY);\n")
	dirB := t.TempDir()
	writeFile(t, dirB, "schema.sql", "CREATE TABLE widget(id INTEGER PRIMARY KEY, name TEXT);\n")

	locA, err := locate(dirA)
	require.NoError(t, err)
	locB, err := locate(dirB)
	require.NoError(t, err)
	require.NotEqual(t, locA.Hash, locB.Hash)
}

func TestFindOldDB_PicksMostRecentExcludingNewDBPath(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Base(dir)

	older := writeFile(t, dir, base+"-aaaa000000000000.sqlite", "")
	newer := writeFile(t, dir, base+"-bbbb000000000000.sqlite", "")
	current := filepath.Join(dir, base+"-cccc000000000000.sqlite")
	writeFile(t, dir, base+"-cccc000000000000.sqlite", "")

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(newer, now.Add(-time.Hour), now.Add(-time.Hour)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	got, err := findOldDB(entries, dir, base, current)
	require.NoError(t, err)
	require.Equal(t, newer, got)
}

func TestFindOldDB_NoMatches_ReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	got, err := findOldDB(entries, dir, filepath.Base(dir), filepath.Join(dir, "x.sqlite"))
	require.NoError(t, err)
	require.Equal(t, "", got)
}
