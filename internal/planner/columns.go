package planner

import (
	"strings"

	"github.com/corvid-labs/sqlshift/internal/ddlgen"
	"github.com/corvid-labs/sqlshift/internal/schemadiff"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// planColumns decides how one matched table's column set
// moves from src to tgt, and whether that required a full table recreate
// (in which case the caller must bookend the overall plan with
// PRAGMA foreign_keys). All statements address the table by src.Name —
// a pending rename (td.Renamed) is applied separately, after column
// migrations, by the caller.
func planColumns(src, tgt sqlast.CreateTable, td schemadiff.TableDiff) (stmts []string, recreated bool) {
	var added, renamed []schemadiff.ColumnMatch
	for _, cm := range td.Columns {
		switch {
		case cm.Added:
			added = append(added, cm)
		case cm.Renamed:
			renamed = append(renamed, cm)
		}
	}
	dropped := td.Dropped

	switch {
	case len(added) == 0 && len(dropped) > 0:
		if len(tgt.ForeignKeys()) == 0 {
			for _, col := range dropped {
				stmts = append(stmts, ddlgen.AlterDropColumn(src.Name, col))
			}
			return stmts, false
		}
		return recreateTable(src, tgt, td), true

	case len(added) > 0:
		// Additions require recreating the table; the target's declared
		// DEFAULT (or the type default otherwise) backfills the new column.
		stmts = append(stmts, warningComment(added))
		stmts = append(stmts, recreateTable(src, tgt, td)...)
		return stmts, true

	case len(renamed) > 0 && len(dropped) == 0:
		for _, cm := range renamed {
			stmts = append(stmts, ddlgen.AlterRenameColumn(src.Name, cm.SourceColumn, cm.TargetColumn))
		}
		if columnsOtherwiseIdentical(src, tgt, td) {
			return stmts, false
		}
		return recreateTable(src, tgt, td), true

	case columnShapeChanged(src, tgt, td):
		return recreateTable(src, tgt, td), true

	default:
		return nil, false
	}
}

// columnsOtherwiseIdentical reports whether, besides the renames already
// handled, every matched column's type/constraints are unchanged — i.e. a
// plain ALTER TABLE RENAME COLUMN fully captures the difference.
func columnsOtherwiseIdentical(src, tgt sqlast.CreateTable, td schemadiff.TableDiff) bool {
	return !columnShapeChanged(src, tgt, td)
}

// columnShapeChanged reports whether any matched (non-added) target column
// differs in type/nullability/PK/FK shape from the source column it was
// matched to, which forces a table recreate since SQLite has no general
// ALTER COLUMN.
func columnShapeChanged(src, tgt sqlast.CreateTable, td schemadiff.TableDiff) bool {
	for _, cm := range td.Columns {
		if cm.Added {
			continue
		}
		sc, ok := src.Column(cm.SourceColumn)
		if !ok {
			return true
		}
		tc, ok := tgt.Column(cm.TargetColumn)
		if !ok {
			return true
		}
		if !sc.Signature().Equal(tc.Signature()) {
			return true
		}
	}
	srcFKs, tgtFKs := keyedForeignKeys(src), keyedForeignKeys(tgt)
	if len(srcFKs) != len(tgtFKs) {
		return true
	}
	for key, sfk := range srcFKs {
		tfk, ok := tgtFKs[key]
		if !ok || !sfk.Equal(tfk) {
			return true
		}
	}
	return false
}

// keyedForeignKeys indexes a table's foreign keys by their (lower-cased,
// comma-joined) owning column list, so two tables' FK definitions — actions
// included — can be compared by the column(s) they constrain rather than by
// position.
func keyedForeignKeys(t sqlast.CreateTable) map[string]sqlast.ForeignKey {
	out := map[string]sqlast.ForeignKey{}
	for _, fk := range t.ForeignKeys() {
		key := strings.ToLower(strings.Join(fk.Columns, ","))
		out[key] = fk
	}
	return out
}

func warningComment(added []schemadiff.ColumnMatch) string {
	var defs []string
	for _, cm := range added {
		defs = append(defs, cm.TargetColumn)
	}
	return "-- WARNING addition of columns [" + strings.Join(defs, ", ") + "] requires a complimentary script to ensure data integrity"
}

// recreateTable emits the PRAGMA-bookended (by the caller) temp-table dance:
// create <src>_temp with tgt's columns, copy data via an explicit SELECT
// that supplies each added column's DEFAULT (or type default), drop src,
// rename <src>_temp back to src.Name. The rename target is src.Name, not
// tgt.Name — any pending table-level rename is applied afterward by the
// caller, so "both sides equal" per the view-cascade trigger holds.
func recreateTable(src, tgt sqlast.CreateTable, td schemadiff.TableDiff) []string {
	tempName := src.Name + "_temp"
	tempTable := tgt
	tempTable.Name = tempName

	var insertCols []string
	var selectExprs []string
	for _, cm := range td.Columns {
		insertCols = append(insertCols, cm.TargetColumn)
		if cm.Added {
			tc, _ := tgt.Column(cm.TargetColumn)
			if d, ok := tc.DefaultExpr(); ok {
				selectExprs = append(selectExprs, d.SQL())
			} else {
				selectExprs = append(selectExprs, tc.ColumnType.Default().SQL())
			}
			continue
		}
		selectExprs = append(selectExprs, cm.SourceColumn)
	}

	insertSQL := "INSERT INTO " + tempName + "(" + strings.Join(insertCols, ", ") + ") SELECT " +
		strings.Join(selectExprs, ", ") + " FROM " + src.Name

	return []string{
		ddlgen.CreateTable(tempTable),
		insertSQL,
		ddlgen.DropTable(src.Name),
		ddlgen.AlterRenameTable(tempName, src.Name),
	}
}
