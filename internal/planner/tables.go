package planner

import (
	"github.com/corvid-labs/sqlshift/internal/ddlgen"
	"github.com/corvid-labs/sqlshift/internal/depgraph"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// dropTables emits DROP TABLE for every name in removed, in reverse
// topological order of the actual schema (most-depended-upon last).
func dropTables(actual *sqlast.SqlFile, removed []string, actualSort depgraph.SortResult) []string {
	ordered := sortByTopo(removed, actualSort.Order, true)
	var out []string
	for _, name := range ordered {
		out = append(out, ddlgen.DropTable(name))
	}
	return out
}

// createTables emits CREATE TABLE for every name in added, in topological
// order of the expected schema (leaves first, so FK targets exist first).
func createTables(expected *sqlast.SqlFile, added []string, expectedSort depgraph.SortResult) []string {
	ordered := sortByTopo(added, expectedSort.Order, false)
	var out []string
	for _, name := range ordered {
		t, ok := expected.Tables[name]
		if !ok {
			continue
		}
		out = append(out, ddlgen.CreateTable(t))
	}
	return out
}
