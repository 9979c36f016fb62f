package ddlgen

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// InsertInto renders an INSERT OR REPLACE statement covering every row in
// ins.Values.
func InsertInto(ins sqlast.InsertInto) string {
	var b strings.Builder
	b.WriteString("INSERT OR REPLACE INTO ")
	b.WriteString(ins.Table)
	b.WriteByte('(')
	b.WriteString(strings.Join(ins.Columns, ", "))
	b.WriteString(") VALUES ")

	rows := make([]string, len(ins.Values))
	for i, row := range ins.Values {
		vals := make([]string, len(row))
		for j, e := range row {
			vals[j] = e.SQL()
		}
		rows[i] = "(" + strings.Join(vals, ", ") + ")"
	}
	b.WriteString(strings.Join(rows, ","))
	return b.String()
}
