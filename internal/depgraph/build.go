package depgraph

import "github.com/corvid-labs/sqlshift/internal/sqlast"

// Build constructs the dependency graph for one SqlFile, following :
// edges T -> R for each FK on table T referencing R; V -> d for each view
// or trigger V and each d in its Dependencies(); I -> T for each index I on
// table T. Nodes are added in the file's recorded declaration order so the
// sorter's tie-break is deterministic.
func Build(file *sqlast.SqlFile) *Graph {
	g := New()
	for _, name := range file.TableOrder {
		g.AddNode(name, KindTable)
	}
	for _, name := range file.ViewOrder {
		g.AddNode(name, KindView)
	}
	for _, name := range file.IndexOrder {
		g.AddNode(name, KindIndex)
	}
	for _, name := range file.TriggerOrder {
		g.AddNode(name, KindTrigger)
	}

	for _, name := range file.TableOrder {
		t := file.Tables[name]
		for _, fk := range t.ForeignKeys() {
			g.AddEdge(t.Name, fk.RefTable)
		}
	}
	for _, name := range file.ViewOrder {
		v := file.Views[name]
		for _, dep := range v.Dependencies {
			g.AddEdge(v.Name, dep)
		}
	}
	for _, name := range file.TriggerOrder {
		tr := file.Triggers[name]
		for _, dep := range tr.Dependencies {
			g.AddEdge(tr.Name, dep)
		}
	}
	for _, name := range file.IndexOrder {
		idx := file.Indexes[name]
		g.AddEdge(idx.Name, idx.Table)
	}
	return g
}
