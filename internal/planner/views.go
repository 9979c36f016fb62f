package planner

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/ddlgen"
	"github.com/corvid-labs/sqlshift/internal/depgraph"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// viewCascade implements the view-cascade rule: any view in either schema whose
// dependencies intersect a recreated table is dropped (reverse topo order)
// before the column body and recreated (topo order) after the table
// operations. handled lists every view name this pass accounted for, so
// viewDiff's normal add/remove pass doesn't also touch them.
func viewCascade(actual, expected *sqlast.SqlFile, recreated map[string]bool, actualSort, expectedSort depgraph.SortResult) (preDrops, postCreates []string, handled map[string]bool) {
	handled = map[string]bool{}
	names := unionOrder(actual.ViewOrder, expected.ViewOrder)

	var dropNames, createNames []string
	for _, name := range names {
		key := strings.ToLower(name)
		var deps []string
		if v, ok := actual.Views[name]; ok {
			deps = v.Dependencies
		} else if v, ok := expected.Views[name]; ok {
			deps = v.Dependencies
		}
		if !dependsOnAny(deps, recreated) {
			continue
		}
		handled[key] = true
		if _, ok := actual.Views[name]; ok {
			dropNames = append(dropNames, name)
		}
		if _, ok := expected.Views[name]; ok {
			createNames = append(createNames, name)
		}
	}

	for _, name := range sortByTopo(dropNames, actualSort.Order, true) {
		preDrops = append(preDrops, ddlgen.DropView(name))
	}
	for _, name := range sortByTopo(createNames, expectedSort.Order, false) {
		postCreates = append(postCreates, ddlgen.CreateView(expected.Views[name]))
	}
	return preDrops, postCreates, handled
}

func dependsOnAny(deps []string, recreated map[string]bool) bool {
	for _, d := range deps {
		if recreated[strings.ToLower(d)] {
			return true
		}
	}
	return false
}

// viewDiff handles genuinely added/removed views (by name), excluding any
// already processed by the cascade pass.
func viewDiff(actual, expected *sqlast.SqlFile, actualSort, expectedSort depgraph.SortResult, handled map[string]bool) []string {
	var removed, added []string
	for _, name := range actual.ViewOrder {
		key := strings.ToLower(name)
		if handled[key] {
			continue
		}
		if _, ok := expected.Views[name]; !ok {
			removed = append(removed, name)
		}
	}
	for _, name := range expected.ViewOrder {
		key := strings.ToLower(name)
		if handled[key] {
			continue
		}
		if _, ok := actual.Views[name]; !ok {
			added = append(added, name)
		}
	}

	var out []string
	for _, name := range sortByTopo(removed, actualSort.Order, true) {
		out = append(out, ddlgen.DropView(name))
	}
	for _, name := range sortByTopo(added, expectedSort.Order, false) {
		out = append(out, ddlgen.CreateView(expected.Views[name]))
	}
	return out
}

// triggerDiff handles added/removed triggers by name, same shape as
// viewDiff but with no cascade pass — only views participate in the
// recreate cascade, triggers never do.
func triggerDiff(actual, expected *sqlast.SqlFile, actualSort, expectedSort depgraph.SortResult) []string {
	var removed, added []string
	for _, name := range actual.TriggerOrder {
		if _, ok := expected.Triggers[name]; !ok {
			removed = append(removed, name)
		}
	}
	for _, name := range expected.TriggerOrder {
		if _, ok := actual.Triggers[name]; !ok {
			added = append(added, name)
		}
	}

	var out []string
	for _, name := range sortByTopo(removed, actualSort.Order, true) {
		out = append(out, ddlgen.DropTrigger(name))
	}
	for _, name := range sortByTopo(added, expectedSort.Order, false) {
		out = append(out, ddlgen.CreateTrigger(expected.Triggers[name]))
	}
	return out
}

// indexDiff implements the index rule: identity is the generated
// CREATE SQL, not the name, so a structural change on an unchanged name
// still counts as remove+add.
func indexDiff(actual, expected *sqlast.SqlFile, actualSort, expectedSort depgraph.SortResult) []string {
	names := unionOrder(actual.IndexOrder, expected.IndexOrder)
	var removed, added []string
	for _, name := range names {
		a, aOK := actual.Indexes[name]
		e, eOK := expected.Indexes[name]
		switch {
		case aOK && eOK:
			if ddlgen.CreateIndex(a) != ddlgen.CreateIndex(e) {
				removed = append(removed, name)
				added = append(added, name)
			}
		case aOK && !eOK:
			removed = append(removed, name)
		case !aOK && eOK:
			added = append(added, name)
		}
	}

	var out []string
	for _, name := range sortByTopo(removed, actualSort.Order, true) {
		out = append(out, ddlgen.DropIndex(name))
	}
	for _, name := range sortByTopo(added, expectedSort.Order, false) {
		out = append(out, ddlgen.CreateIndex(expected.Indexes[name]))
	}
	return out
}

// unionOrder merges two declaration-order name lists, case-insensitively
// deduplicated, preferring the first list's casing for names in both.
func unionOrder(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range a {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			out = append(out, name)
		}
	}
	for _, name := range b {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}
