package ddlgen

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// foreignKeyClause renders the column-level REFERENCES clause embedded in a
// column definition: REFERENCES <t>[(<refs>)][ON DELETE <a>][ON UPDATE <a>].
func foreignKeyClause(fk sqlast.ForeignKey) string {
	var b strings.Builder
	b.WriteString("REFERENCES ")
	b.WriteString(fk.RefTable)
	if len(fk.RefColumns) > 0 {
		b.WriteByte('(')
		b.WriteString(strings.Join(fk.RefColumns, ", "))
		b.WriteByte(')')
	}
	if fk.OnDelete != nil {
		b.WriteString(" ON DELETE ")
		b.WriteString(fk.OnDelete.SQL())
	}
	if fk.OnUpdate != nil {
		b.WriteString(" ON UPDATE ")
		b.WriteString(fk.OnUpdate.SQL())
	}
	return b.String()
}

// ForeignKeyTableConstraint renders a table-level FOREIGN KEY(cols)
// REFERENCES... clause.
func ForeignKeyTableConstraint(fk sqlast.ForeignKey) string {
	return "FOREIGN KEY(" + strings.Join(fk.Columns, ", ") + ") " + foreignKeyClause(fk)
}
