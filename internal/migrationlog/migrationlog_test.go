package migrationlog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/migrationlog"
	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

func openMemDB(t *testing.T) dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(context.Background(), `CREATE TABLE widget(id integer PRIMARY KEY, name text)`)
	require.NoError(t, err)
	return db
}

func TestBegin_PlainModeWhenMarkerAbsent(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)

	var sawMode migrationlog.Mode
	err := migrationlog.Begin(ctx, db, func(ctx context.Context, gtx *migrationlog.GuardedTx) error {
		sawMode = gtx.Mode()
		_, err := gtx.Exec(ctx, `INSERT INTO widget(id, name) VALUES (1, 'a')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, migrationlog.ModePlain, sawMode)
}

func TestBegin_RecordingModeLogsRows(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	require.NoError(t, migrationlog.EnsureSchema(ctx, db))
	require.NoError(t, migrationlog.SetMarker(ctx, db, "recording"))

	err := migrationlog.Begin(ctx, db, func(ctx context.Context, gtx *migrationlog.GuardedTx) error {
		require.Equal(t, migrationlog.ModeRecording, gtx.Mode())
		if _, err := gtx.Exec(ctx, `INSERT INTO widget(id, name) VALUES (1, 'a')`); err != nil {
			return err
		}
		return gtx.Log(ctx, migrationlog.OpInsert, "widget", map[string]any{"id": 1, "name": "a"})
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(ctx, &count, `SELECT COUNT(*) FROM _migration_log`))
	require.Equal(t, 1, count)

	var ordering int
	require.NoError(t, db.Get(ctx, &ordering, `SELECT ordering FROM _migration_log LIMIT 1`))
	require.Equal(t, 1, ordering)
}

func TestBegin_DrainingModeRejectsWrites(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	require.NoError(t, migrationlog.EnsureSchema(ctx, db))
	require.NoError(t, migrationlog.SetMarker(ctx, db, "draining"))

	err := migrationlog.Begin(ctx, db, func(ctx context.Context, gtx *migrationlog.GuardedTx) error {
		t.Fatal("fn must not run while draining")
		return nil
	})
	require.Error(t, err)
	var rejected *sqlterr.WriteRejected
	require.ErrorAs(t, err, &rejected)
}

func TestLog_SkipsMigrationPrefixedTables(t *testing.T) {
	ctx := context.Background()
	db := openMemDB(t)
	require.NoError(t, migrationlog.EnsureSchema(ctx, db))
	require.NoError(t, migrationlog.SetMarker(ctx, db, "recording"))

	err := migrationlog.Begin(ctx, db, func(ctx context.Context, gtx *migrationlog.GuardedTx) error {
		return gtx.Log(ctx, migrationlog.OpUpdate, "_migration_progress", map[string]any{"x": 1})
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(ctx, &count, `SELECT COUNT(*) FROM _migration_log`))
	require.Equal(t, 0, count)
}
