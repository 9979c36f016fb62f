// Package copyplan builds the table-copy plan for a hot migration: for each
// matched table, the column projection the bulk copier needs, the FK edges
// that require identity translation, and the identity-column metadata used
// to record (old PK -> new PK) mappings. Steps are ordered so a table's FK
// targets are copied before it.
//
// Grounded on the same ordering discipline internal/depgraph already
// implements (automigrate.go/migration.go never touch row data, only DDL,
// so there's no equivalent to adapt there) and on schema_executor.go's
// "tables before indexes/views/triggers" create-order idea.
package copyplan

import (
	"fmt"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/depgraph"
	"github.com/corvid-labs/sqlshift/internal/schemadiff"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// ColumnSourceKind distinguishes where a target column's value comes from
// during bulk copy.
type ColumnSourceKind int

const (
	FromSourceColumn ColumnSourceKind = iota
	FromDefaultExpr
	FromTypeDefault
)

// ColumnMapping is one target column's projection rule.
type ColumnMapping struct {
	TargetColumn string
	Kind         ColumnSourceKind
	SourceColumn string     // valid when Kind == FromSourceColumn
	Default      sqlast.Expr // valid when Kind == FromDefaultExpr or FromTypeDefault
}

// ForeignKeyMapping is a translated FK edge: a column (or column group) on
// the step's table whose value must be looked up in the referenced table's
// id mapping before insertion.
type ForeignKeyMapping struct {
	TargetColumns []string
	RefTable      string
}

// Identity describes the primary-key shape a step needs to record
// (old PK -> new PK) mappings; nil when the source and target tables don't
// both carry a PK of equal arity.
type Identity struct {
	SourceKeys         []string
	TargetKeys         []string
	TargetAutoincrement string // empty when the target PK is not autoincrement
}

// TableCopyStep is one table's bulk-copy plan.
type TableCopyStep struct {
	SourceTable    string
	TargetTable    string
	ColumnMappings []ColumnMapping
	ForeignKeys    []ForeignKeyMapping
	Identity       *Identity
	InsertColumns  []string // TargetTable's columns minus the autoincrement PK
}

// Build computes the ordered copy plan from a source (old) schema to a
// target (new) schema. Tables present in diff.Added (only in the target)
// are skipped — there is no source data to copy for them. Returns an error
// if a translated FK's target table is in the mapping set but lacks an
// identity mapping.
func Build(source, target *sqlast.SqlFile) ([]TableCopyStep, error) {
	diff := schemadiff.Diff(source, target)

	steps := map[string]*TableCopyStep{} // keyed by lower(TargetTable)
	for _, td := range diff.Matched {
		srcTable, ok := source.Tables[td.SourceName]
		if !ok {
			continue
		}
		tgtTable, ok := target.Tables[td.TargetName]
		if !ok {
			continue
		}
		step := buildStep(srcTable, tgtTable, td)
		steps[strings.ToLower(td.TargetName)] = step
	}

	for _, step := range steps {
		for _, fkm := range step.ForeignKeys {
			if _, ok := steps[strings.ToLower(fkm.RefTable)]; !ok {
				continue // FK target outside the copy set: left untranslated
			}
			if steps[strings.ToLower(fkm.RefTable)].Identity == nil {
				return nil, fmt.Errorf("table %s: foreign key referencing %s requires an identity mapping but %s has none", step.TargetTable, fkm.RefTable, fkm.RefTable)
			}
		}
	}

	g := depgraph.Build(target)
	order := g.Sort().Order
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[strings.ToLower(name)] = i
	}

	var names []string
	for key := range steps {
		names = append(names, key)
	}
	sortByRank(names, rank)

	out := make([]TableCopyStep, 0, len(names))
	for _, key := range names {
		out = append(out, *steps[key])
	}
	return out, nil
}

func buildStep(src, tgt sqlast.CreateTable, td schemadiff.TableDiff) *TableCopyStep {
	step := &TableCopyStep{SourceTable: src.Name, TargetTable: tgt.Name}

	for _, cm := range td.Columns {
		mapping := ColumnMapping{TargetColumn: cm.TargetColumn}
		if cm.Added {
			tc, _ := tgt.Column(cm.TargetColumn)
			if d, ok := tc.DefaultExpr(); ok {
				mapping.Kind = FromDefaultExpr
				mapping.Default = d
			} else {
				mapping.Kind = FromTypeDefault
				mapping.Default = tc.ColumnType.Default()
			}
		} else {
			mapping.Kind = FromSourceColumn
			mapping.SourceColumn = cm.SourceColumn
		}
		step.ColumnMappings = append(step.ColumnMappings, mapping)
	}

	for _, fk := range tgt.ForeignKeys() {
		step.ForeignKeys = append(step.ForeignKeys, ForeignKeyMapping{
			TargetColumns: fk.Columns,
			RefTable:      fk.RefTable,
		})
	}

	srcPK := src.PrimaryKeyColumns()
	tgtPK := tgt.PrimaryKeyColumns()
	if len(srcPK) > 0 && len(tgtPK) > 0 && len(srcPK) == len(tgtPK) {
		autoCol, _ := tgt.AutoincrementColumn()
		step.Identity = &Identity{SourceKeys: srcPK, TargetKeys: tgtPK, TargetAutoincrement: autoCol}
	}

	autoCol, hasAuto := tgt.AutoincrementColumn()
	for _, c := range tgt.Columns {
		if hasAuto && strings.EqualFold(c.Name, autoCol) {
			continue
		}
		step.InsertColumns = append(step.InsertColumns, c.Name)
	}

	return step
}

func sortByRank(names []string, rank map[string]int) {
	less := func(i, j int) bool {
		ri, oki := rank[names[i]]
		rj, okj := rank[names[j]]
		if !oki {
			ri = len(rank)
		}
		if !okj {
			rj = len(rank)
		}
		return ri < rj
	}
	insertionSortStable(names, less)
}

// insertionSortStable is a small stable sort used to avoid importing
// "sort" for what is, at migration scale (tens to low hundreds of tables),
// a negligible cost either way; kept explicit so the FK-dependency ordering
// contract is easy to read top to bottom.
func insertionSortStable(names []string, less func(i, j int) bool) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}
