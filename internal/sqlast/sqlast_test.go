package sqlast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

func TestParseSqlType(t *testing.T) {
	cases := map[string]sqlast.SqlType{
		"INTEGER":  sqlast.IntegerType,
		"int":      sqlast.IntegerType,
		"TEXT":     sqlast.Text,
		"varchar":  sqlast.Text,
		"REAL":     sqlast.RealType,
		"double":   sqlast.RealType,
		"TIMESTAMP": sqlast.Timestamp,
		"date":     sqlast.Timestamp,
		"STRING":   sqlast.StringType,
		"blob":     sqlast.Flexible,
		"":         sqlast.Flexible,
	}
	for token, want := range cases {
		require.Equal(t, want, sqlast.ParseSqlType(token), "token %q", token)
	}
}

func TestSqlType_DefaultAndSQL(t *testing.T) {
	require.Equal(t, "integer", sqlast.IntegerType.SQL())
	require.True(t, sqlast.IntegerType.Default().IsInteger())
	i, ok := sqlast.IntegerType.Default().IntegerValue()
	require.True(t, ok)
	require.Equal(t, int64(0), i)

	require.Equal(t, "", sqlast.Flexible.SQL())
	require.True(t, sqlast.Flexible.Default().IsString())

	require.True(t, sqlast.RealType.Default().IsReal())
	require.True(t, sqlast.Text.Default().IsString())
}

func TestParseFkAction(t *testing.T) {
	a, ok := sqlast.ParseFkAction("cascade")
	require.True(t, ok)
	require.Equal(t, sqlast.Cascade, a)
	require.Equal(t, "CASCADE", a.SQL())

	a, ok = sqlast.ParseFkAction("set null")
	require.True(t, ok)
	require.Equal(t, sqlast.SetNull, a)
	require.Equal(t, "SET NULL", a.SQL())

	_, ok = sqlast.ParseFkAction("bogus")
	require.False(t, ok)

	require.Equal(t, "NO ACTION", sqlast.NoAction.SQL())
}

func TestExpr_Equal(t *testing.T) {
	require.True(t, sqlast.String("a").Equal(sqlast.String("a")))
	require.False(t, sqlast.String("a").Equal(sqlast.String("b")))
	require.True(t, sqlast.Integer(1).Equal(sqlast.Integer(1)))
	require.False(t, sqlast.Integer(1).Equal(sqlast.Real(1)))
	require.True(t, sqlast.RawValue("strftime('now')").Equal(sqlast.RawValue("strftime('now')")))
}

func TestExpr_SQL(t *testing.T) {
	require.Equal(t, "'it''s'", sqlast.String("it's").SQL())
	require.Equal(t, "5", sqlast.Integer(5).SQL())
	require.Equal(t, "1.5", sqlast.Real(1.5).SQL())
	require.Equal(t, "strftime('now')", sqlast.RawValue("strftime('now')").SQL())
}

func TestColumnDef_IsNullable(t *testing.T) {
	plain := sqlast.ColumnDef{Name: "name", ColumnType: sqlast.Text}
	require.True(t, plain.IsNullable())

	notNull := sqlast.ColumnDef{
		Name: "name", ColumnType: sqlast.Text,
		Constraints: []sqlast.ColumnConstraint{sqlast.NotNullConstraint()},
	}
	require.False(t, notNull.IsNullable())

	// SQLite quirk: INTEGER PRIMARY KEY is implicitly NOT NULL.
	intPK := sqlast.ColumnDef{
		Name: "id", ColumnType: sqlast.IntegerType,
		Constraints: []sqlast.ColumnConstraint{sqlast.PrimaryKeyConstraint(sqlast.PrimaryKey{})},
	}
	require.False(t, intPK.IsNullable())

	// A text PK column has no such quirk.
	textPK := sqlast.ColumnDef{
		Name: "id", ColumnType: sqlast.Text,
		Constraints: []sqlast.ColumnConstraint{sqlast.PrimaryKeyConstraint(sqlast.PrimaryKey{})},
	}
	require.True(t, textPK.IsNullable())
}

func TestColumnDef_Signature(t *testing.T) {
	action := sqlast.Cascade
	a := sqlast.ColumnDef{
		Name: "parent_id", ColumnType: sqlast.IntegerType,
		Constraints: []sqlast.ColumnConstraint{
			sqlast.ForeignKeyConstraint(sqlast.ForeignKey{RefTable: "Parent", OnDelete: &action}),
		},
	}
	b := sqlast.ColumnDef{
		Name: "mom_id", ColumnType: sqlast.IntegerType,
		Constraints: []sqlast.ColumnConstraint{
			sqlast.ForeignKeyConstraint(sqlast.ForeignKey{RefTable: "PARENT"}),
		},
	}
	// Signature excludes name and FK action, so these two columns match —
	// this is exactly what exact-rename detection relies on.
	require.True(t, a.Signature().Equal(b.Signature()))
}

func TestCreateTable_PrimaryKeyColumns(t *testing.T) {
	colPK := sqlast.CreateTable{
		Columns: []sqlast.ColumnDef{
			{Name: "id", ColumnType: sqlast.IntegerType, Constraints: []sqlast.ColumnConstraint{
				sqlast.PrimaryKeyConstraint(sqlast.PrimaryKey{IsAutoincrement: true}),
			}},
		},
	}
	require.Equal(t, []string{"id"}, colPK.PrimaryKeyColumns())
	col, _ := colPK.AutoincrementColumn()
	require.Equal(t, "id", col)

	tablePK := sqlast.CreateTable{
		Columns: []sqlast.ColumnDef{
			{Name: "a", ColumnType: sqlast.IntegerType},
			{Name: "b", ColumnType: sqlast.IntegerType},
		},
		Constraints: []sqlast.ColumnConstraint{
			sqlast.PrimaryKeyConstraint(sqlast.PrimaryKey{Columns: []string{"a", "b"}}),
		},
	}
	require.Equal(t, []string{"a", "b"}, tablePK.PrimaryKeyColumns())
}

func TestCreateTable_ForeignKeys_NormalizesColumnLevel(t *testing.T) {
	tbl := sqlast.CreateTable{
		Columns: []sqlast.ColumnDef{
			{Name: "parent_id", ColumnType: sqlast.IntegerType, Constraints: []sqlast.ColumnConstraint{
				sqlast.ForeignKeyConstraint(sqlast.ForeignKey{RefTable: "parent"}),
			}},
		},
	}
	fks := tbl.ForeignKeys()
	require.Len(t, fks, 1)
	require.Equal(t, []string{"parent_id"}, fks[0].Columns)
}

func TestTableSignature_Equal(t *testing.T) {
	t1 := sqlast.CreateTable{
		Name: "table0",
		Columns: []sqlast.ColumnDef{
			{Name: "id", ColumnType: sqlast.IntegerType, Constraints: []sqlast.ColumnConstraint{sqlast.NotNullConstraint()}},
		},
	}
	t2 := sqlast.CreateTable{
		Name: "table1",
		Columns: []sqlast.ColumnDef{
			{Name: "id", ColumnType: sqlast.IntegerType, Constraints: []sqlast.ColumnConstraint{sqlast.NotNullConstraint()}},
		},
	}
	require.True(t, t1.Signature().Equal(t2.Signature()))
}

func TestSqlFile_AddTable_PreservesDeclarationOrderOnce(t *testing.T) {
	f := sqlast.NewSqlFile()
	f.AddTable(sqlast.CreateTable{Name: "b"})
	f.AddTable(sqlast.CreateTable{Name: "a"})
	f.AddTable(sqlast.CreateTable{Name: "b", Columns: []sqlast.ColumnDef{{Name: "x"}}})

	require.Equal(t, []string{"b", "a"}, f.TableOrder)
	require.Len(t, f.Tables["b"].Columns, 1, "second AddTable call for an existing name overwrites the value")
}

func TestForeignKey_Equal(t *testing.T) {
	cascade := sqlast.Cascade
	a := sqlast.ForeignKey{Columns: []string{"x"}, RefTable: "t", RefColumns: []string{"id"}, OnDelete: &cascade}
	b := sqlast.ForeignKey{Columns: []string{"X"}, RefTable: "T", RefColumns: []string{"ID"}, OnDelete: &cascade}
	require.True(t, a.Equal(b))

	noAction := sqlast.NoAction
	c := sqlast.ForeignKey{Columns: []string{"x"}, RefTable: "t", RefColumns: []string{"id"}, OnDelete: &noAction}
	d := sqlast.ForeignKey{Columns: []string{"x"}, RefTable: "t", RefColumns: []string{"id"}}
	require.True(t, c.Equal(d), "an explicit NO ACTION is equal to an absent OnDelete")

	e := sqlast.ForeignKey{Columns: []string{"x"}, RefTable: "t", RefColumns: []string{"id"}, OnDelete: &cascade}
	require.False(t, e.Equal(d))
}
