package sqlast

import "strings"

// CreateTable is the canonical AST node for a CREATE TABLE statement.
type CreateTable struct {
	Name        string
	Columns     []ColumnDef
	Constraints []ColumnConstraint // table-level only: PrimaryKey, Unique, ForeignKey

	QueryBy          []Anno
	QueryLike        []Anno
	QueryByOrInsert  []Anno
	InsertOrIgnore   []Anno
}

// Column looks a column up case-insensitively, the comparison rule used
// throughout the differ and planner for column/table identifiers.
func (t CreateTable) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// PrimaryKeyColumns returns the PK column list regardless of whether it was
// declared inline on a column or at table level.
func (t CreateTable) PrimaryKeyColumns() []string {
	for _, c := range t.Columns {
		if pk, ok := columnInlinePK(c); ok {
			if len(pk.Columns) > 0 {
				return pk.Columns
			}
			return []string{c.Name}
		}
	}
	for _, con := range t.Constraints {
		if pk, ok := con.PrimaryKey(); ok {
			return pk.Columns
		}
	}
	return nil
}

func columnInlinePK(c ColumnDef) (PrimaryKey, bool) {
	for _, con := range c.Constraints {
		if pk, ok := con.PrimaryKey(); ok {
			return pk, true
		}
	}
	return PrimaryKey{}, false
}

// AutoincrementColumn returns the single autoincrement PK column, if any.
func (t CreateTable) AutoincrementColumn() (string, bool) {
	for _, c := range t.Columns {
		if c.IsAutoincrement() {
			return c.Name, true
		}
	}
	return "", false
}

// ForeignKeys collects every FK, column-level and table-level, normalizing
// column-level ones (whose Columns is empty) to name the owning column.
func (t CreateTable) ForeignKeys() []ForeignKey {
	var out []ForeignKey
	for _, c := range t.Columns {
		if fk, ok := c.ForeignKey(); ok {
			if len(fk.Columns) == 0 {
				fk.Columns = []string{c.Name}
			}
			out = append(out, fk)
		}
	}
	for _, con := range t.Constraints {
		if fk, ok := con.ForeignKey(); ok {
			out = append(out, fk)
		}
	}
	return out
}

// UniqueSets returns every unique column group, column-level and
// table-level, each normalized to a sorted-by-declaration column list.
func (t CreateTable) UniqueSets() [][]string {
	var out [][]string
	for _, c := range t.Columns {
		if _, ok := c.ForeignKey(); ok {
			_ = ok
		}
		for _, con := range c.Constraints {
			if _, ok := con.Unique(); ok {
				out = append(out, []string{c.Name})
			}
		}
	}
	for _, con := range t.Constraints {
		if cols, ok := con.Unique(); ok {
			out = append(out, cols)
		}
	}
	return out
}

// Signature is the structural identity compared for exact-rename detection:
// the ordered column signatures plus table-level PK arity and FK targets, with
// names excluded everywhere names don't affect on-disk shape.
type TableSignature struct {
	Columns   []ColumnSignature
	PKColumns int // arity only, names excluded
	FKTargets []string
}

func (t CreateTable) Signature() TableSignature {
	sig := TableSignature{PKColumns: len(t.PrimaryKeyColumns())}
	for _, c := range t.Columns {
		sig.Columns = append(sig.Columns, c.Signature())
	}
	for _, fk := range t.ForeignKeys() {
		sig.FKTargets = append(sig.FKTargets, strings.ToLower(fk.RefTable))
	}
	return sig
}

func (s TableSignature) Equal(o TableSignature) bool {
	if len(s.Columns) != len(o.Columns) || s.PKColumns != o.PKColumns {
		return false
	}
	if len(s.FKTargets) != len(o.FKTargets) {
		return false
	}
	for i := range s.Columns {
		if !s.Columns[i].Equal(o.Columns[i]) {
			return false
		}
	}
	for i := range s.FKTargets {
		if s.FKTargets[i] != o.FKTargets[i] {
			return false
		}
	}
	return true
}
