package ddlgen

import (
	"github.com/corvid-labs/sqlshift/internal/sqlast"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

// CreateView re-serializes a captured view body. The body's token stream
// was preserved verbatim by the parser, so this is a spacing-normalized
// reserialization, not a re-derivation.
func CreateView(v sqlast.CreateView) string {
	return "CREATE VIEW " + v.Name + " AS " + sqlparse.Reassemble(v.SqlTokens)
}

// CreateTrigger re-serializes a captured trigger. Unlike CreateView, the
// parser tokenizes a trigger's entire statement (its name and ON clause
// aren't parsed out separately), so no header needs reconstructing here.
func CreateTrigger(t sqlast.CreateTrigger) string {
	return sqlparse.Reassemble(t.SqlTokens)
}

// DropView and DropTrigger render bare DROP statements — no IF EXISTS.
func DropView(name string) string    { return "DROP VIEW " + name }
func DropTrigger(name string) string { return "DROP TRIGGER " + name }
