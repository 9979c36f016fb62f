// Package planner orchestrates internal/sqlparse, internal/depgraph,
// internal/schemadiff, and internal/ddlgen into the ordered DDL/DML plan:
// column migrations (including table recreates with PRAGMA foreign_keys
// bookending), view cascades around a recreated table, then
// table/view/index/trigger creates and drops in dependency order.
//
// Grounded on migration.go's AutoMigrate (delete-then-create ordering) and
// automigrate.go's rename-and-recreate dance for reordered columns; neither
// implements rename detection or view cascades, which this package adds
// fresh.
package planner

import (
	"sort"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/depgraph"
	"github.com/corvid-labs/sqlshift/internal/ddlgen"
	"github.com/corvid-labs/sqlshift/internal/schemadiff"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

// Plan computes the ordered statement list that transforms a database whose
// schema equals actual into one whose schema equals expected. Returns
// *sqlterr.MissingDependencies if either schema has an unresolved
// table/view/index/trigger reference.
func Plan(actual, expected *sqlast.SqlFile) ([]string, error) {
	actualGraph := depgraph.Build(actual)
	expectedGraph := depgraph.Build(expected)
	actualMissing := actualGraph.MissingReferences()
	expectedMissing := expectedGraph.MissingReferences()
	if len(actualMissing) > 0 || len(expectedMissing) > 0 {
		return nil, &sqlterr.MissingDependencies{Left: actualMissing, Right: expectedMissing}
	}

	actualSort := actualGraph.Sort()
	expectedSort := expectedGraph.Sort()

	diff := schemadiff.Diff(actual, expected)

	var columnBody []string
	recreated := map[string]bool{} // lower(source table name) -> recreated via _temp dance
	usedRecreate := false

	// Column migrations operate on matched tables in the order they appear
	// topologically in the actual (current) schema, since every statement in
	// this phase still addresses the table by its pre-rename name.
	bySourceName := map[string]schemadiff.TableDiff{}
	for _, td := range diff.Matched {
		bySourceName[strings.ToLower(td.SourceName)] = td
	}
	for _, name := range actualSort.Order {
		td, ok := bySourceName[strings.ToLower(name)]
		if !ok {
			continue
		}
		srcTable, srcOK := actual.Tables[td.SourceName]
		tgtTable, tgtOK := expected.Tables[td.TargetName]
		if !srcOK || !tgtOK {
			continue // not a table match (view/index name collision)
		}
		stmts, didRecreate := planColumns(srcTable, tgtTable, td)
		if len(stmts) > 0 {
			columnBody = append(columnBody, stmts...)
		}
		if didRecreate {
			recreated[strings.ToLower(td.SourceName)] = true
			usedRecreate = true
		}
	}

	preViewDrops, postViewCreates, handledViews := viewCascade(actual, expected, recreated, actualSort, expectedSort)

	var tableMigrations []string
	tableMigrations = append(tableMigrations, dropTables(actual, diff.Removed, actualSort)...)
	tableMigrations = append(tableMigrations, createTables(expected, diff.Added, expectedSort)...)
	for _, td := range diff.Matched {
		if td.Renamed {
			tableMigrations = append(tableMigrations, ddlgen.AlterRenameTable(td.SourceName, td.TargetName))
		}
	}

	unaffectedViews := viewDiff(actual, expected, actualSort, expectedSort, handledViews)
	indexMigrations := indexDiff(actual, expected, actualSort, expectedSort)
	triggerMigrations := triggerDiff(actual, expected, actualSort, expectedSort)

	var out []string
	if usedRecreate {
		out = append(out, ddlgen.PragmaForeignKeysOff)
	}
	out = append(out, preViewDrops...)
	out = append(out, columnBody...)
	out = append(out, tableMigrations...)
	out = append(out, unaffectedViews...)
	out = append(out, postViewCreates...)
	out = append(out, indexMigrations...)
	out = append(out, triggerMigrations...)
	if usedRecreate {
		out = append(out, ddlgen.PragmaForeignKeysOn)
	}
	return out, nil
}

// reverseTopoIndex returns a name -> rank map from a sort order, used both
// to walk a list in reverse topological order (drops) and forward (creates).
func reverseTopoIndex(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, name := range order {
		idx[strings.ToLower(name)] = i
	}
	return idx
}

func sortByTopo(names []string, order []string, reverse bool) []string {
	idx := reverseTopoIndex(order)
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := idx[strings.ToLower(out[i])]
		rj, okj := idx[strings.ToLower(out[j])]
		if !oki {
			ri = len(order)
		}
		if !okj {
			rj = len(order)
		}
		if reverse {
			return ri > rj
		}
		return ri < rj
	})
	return out
}
