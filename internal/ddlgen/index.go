package ddlgen

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// CreateIndex renders a CREATE [UNIQUE] INDEX statement. The differ treats
// two indexes as structurally identical exactly when this generated SQL
// matches, so any change here changes what counts as an index edit.
func CreateIndex(idx sqlast.CreateIndex) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.IsUnique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(idx.Name)
	b.WriteString(" ON ")
	b.WriteString(idx.Table)
	b.WriteByte('(')
	b.WriteString(strings.Join(idx.Columns, ", "))
	b.WriteByte(')')
	return b.String()
}

// DropIndex renders a bare DROP INDEX — no IF EXISTS.
func DropIndex(name string) string { return "DROP INDEX " + name }
