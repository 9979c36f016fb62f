// Package ddlgen renders the sqlast schema model back to SQLite DDL/DML
// text, following the exact rendering rules: no IF NOT EXISTS on CREATE
// TABLE, bare names on DROP, single-quote doubling in string defaults, and
// the view/trigger token-spacing rules internal/sqlparse also implements.
package ddlgen

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// Column renders one column definition: "<name> <type> <constraints>".
func Column(c sqlast.ColumnDef) string {
	var parts []string
	parts = append(parts, c.Name)
	if t := c.ColumnType.SQL(); t != "" {
		parts = append(parts, t)
	}
	for _, con := range c.Constraints {
		if s := columnConstraint(con); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func columnConstraint(con sqlast.ColumnConstraint) string {
	if con.IsNotNull() {
		return "NOT NULL"
	}
	if con.IsAutoincrement() {
		return "AUTOINCREMENT"
	}
	if pk, ok := con.PrimaryKey(); ok {
		if pk.IsAutoincrement {
			return "PRIMARY KEY AUTOINCREMENT"
		}
		return "PRIMARY KEY"
	}
	if _, ok := con.Unique(); ok {
		return "UNIQUE"
	}
	if d, ok := con.Default(); ok {
		return "DEFAULT " + d.SQL()
	}
	if check, ok := con.Check(); ok {
		return "CHECK (" + strings.Join(check, " ") + ")"
	}
	if fk, ok := con.ForeignKey(); ok {
		return foreignKeyClause(fk)
	}
	return ""
}
