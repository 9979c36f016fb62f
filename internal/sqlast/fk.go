package sqlast

import "strings"

// ForeignKey describes a REFERENCES clause, either attached to a single
// column (Columns empty, meaning "this column") or declared at table level
// (Columns holding the local column list).
type ForeignKey struct {
	Columns     []string
	RefTable    string
	RefColumns  []string
	OnDelete    *FkAction
	OnUpdate    *FkAction
}

// Equal is a structural comparison used by the planner's column-shape
// check; it ignores nothing — two FKs with different actions are not equal.
func (f ForeignKey) Equal(o ForeignKey) bool {
	if !strings.EqualFold(f.RefTable, o.RefTable) {
		return false
	}
	if !equalFoldSlices(f.Columns, o.Columns) {
		return false
	}
	if !equalFoldSlices(f.RefColumns, o.RefColumns) {
		return false
	}
	return actionEqual(f.OnDelete, o.OnDelete) && actionEqual(f.OnUpdate, o.OnUpdate)
}

func actionEqual(a, b *FkAction) bool {
	if (a == nil) != (b == nil) {
		return a == nil && b != nil && *b == NoAction || b == nil && a != nil && *a == NoAction
	}
	if a == nil {
		return true
	}
	return *a == *b
}

func equalFoldSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// PrimaryKey describes either a column-level `PRIMARY KEY [AUTOINCREMENT]`
// (Columns == nil, the owning ColumnDef is the key) or a table-level
// `PRIMARY KEY(cols)`.
type PrimaryKey struct {
	ConstraintName  *string
	Columns         []string
	IsAutoincrement bool
}

func (p PrimaryKey) Equal(o PrimaryKey) bool {
	return equalFoldSlices(p.Columns, o.Columns) && p.IsAutoincrement == o.IsAutoincrement
}
