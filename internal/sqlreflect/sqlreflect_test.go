package sqlreflect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
	"github.com/corvid-labs/sqlshift/internal/sqlreflect"
)

type Account struct {
	ID        int64  `db:"id" sqlt:"primarykey,autoincrement"`
	Name      string `db:"name" sqlt:"unique"`
	CreatedAt time.Time
}

type Invoice struct {
	ID        int64   `sqlt:"primarykey,autoincrement"`
	AccountID int64   `db:"account_id" sqlt:"fk=account.id"`
	Total     float64
	Note      *string
}

func TestReflectTable_Account(t *testing.T) {
	r := sqlreflect.StructReflector{}
	table, err := r.ReflectTable(Account{})
	require.NoError(t, err)
	require.Equal(t, "account", table.Name)
	require.Len(t, table.Columns, 3)

	id, ok := table.Column("id")
	require.True(t, ok)
	require.True(t, id.IsPrimaryKey())
	require.True(t, id.IsAutoincrement())
	require.Equal(t, sqlast.IntegerType, id.ColumnType)

	name, ok := table.Column("name")
	require.True(t, ok)
	require.True(t, name.IsUnique())
	require.False(t, name.IsNullable())

	created, ok := table.Column("created_at")
	require.True(t, ok)
	require.Equal(t, sqlast.Timestamp, created.ColumnType)
}

func TestReflectTable_InvoiceForeignKeyAndNullable(t *testing.T) {
	r := sqlreflect.StructReflector{}
	table, err := r.ReflectTable(&Invoice{})
	require.NoError(t, err)
	require.Equal(t, "invoice", table.Name)

	acct, ok := table.Column("account_id")
	require.True(t, ok)
	fk, ok := acct.ForeignKey()
	require.True(t, ok)
	require.Equal(t, "account", fk.RefTable)
	require.Equal(t, []string{"id"}, fk.RefColumns)

	note, ok := table.Column("note")
	require.True(t, ok)
	require.True(t, note.IsNullable())
}

func TestReflectFile_MultipleTables(t *testing.T) {
	r := sqlreflect.StructReflector{}
	file, err := r.ReflectFile(Account{}, Invoice{})
	require.NoError(t, err)
	require.Len(t, file.Tables, 2)
	require.Equal(t, []string{"account", "invoice"}, file.TableOrder)
}

func TestReflectTable_RejectsNonStruct(t *testing.T) {
	r := sqlreflect.StructReflector{}
	_, err := r.ReflectTable(42)
	require.Error(t, err)
}
