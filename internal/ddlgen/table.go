package ddlgen

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// CreateTable renders a full CREATE TABLE statement. No IF NOT EXISTS
// clause, per the SQLite dialect notes.
func CreateTable(t sqlast.CreateTable) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(t.Name)
	b.WriteString(" (\n")

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+Column(c))
	}
	for _, con := range t.Constraints {
		if s := tableConstraint(con); s != "" {
			lines = append(lines, "  "+s)
		}
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

func tableConstraint(con sqlast.ColumnConstraint) string {
	if pk, ok := con.PrimaryKey(); ok {
		prefix := ""
		if pk.ConstraintName != nil {
			prefix = "CONSTRAINT " + *pk.ConstraintName + " "
		}
		return prefix + "PRIMARY KEY(" + strings.Join(pk.Columns, ", ") + ")"
	}
	if cols, ok := con.Unique(); ok {
		return "UNIQUE(" + strings.Join(cols, ", ") + ")"
	}
	if fk, ok := con.ForeignKey(); ok {
		return ForeignKeyTableConstraint(fk)
	}
	if check, ok := con.Check(); ok {
		return "CHECK (" + strings.Join(check, " ") + ")"
	}
	return ""
}

// DropTable renders a bare DROP TABLE — no IF EXISTS.
func DropTable(name string) string { return "DROP TABLE " + name }

// AlterRenameTable renders ALTER TABLE <old> RENAME TO <new>.
func AlterRenameTable(oldName, newName string) string {
	return "ALTER TABLE " + oldName + " RENAME TO " + newName
}

// AlterDropColumn renders ALTER TABLE <table> DROP COLUMN <col>.
func AlterDropColumn(table, column string) string {
	return "ALTER TABLE " + table + " DROP COLUMN " + column
}

// AlterRenameColumn renders ALTER TABLE <table> RENAME COLUMN <old> TO <new>.
func AlterRenameColumn(table, oldName, newName string) string {
	return "ALTER TABLE " + table + " RENAME COLUMN " + oldName + " TO " + newName
}
