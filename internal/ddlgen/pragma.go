package ddlgen

// PragmaForeignKeysOff and PragmaForeignKeysOn bookend any plan that
// recreates a table participating in a foreign key relationship.
const (
	PragmaForeignKeysOff = "PRAGMA foreign_keys=OFF"
	PragmaForeignKeysOn  = "PRAGMA foreign_keys=ON"
)
