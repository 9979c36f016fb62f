package hotmigrate

import (
	"context"
	"database/sql"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/dbx"
)

const newDBSchemaDDL = `
CREATE TABLE IF NOT EXISTS _schema_identity (id INTEGER PRIMARY KEY CHECK (id = 0), schema_hash TEXT NOT NULL, schema_commit TEXT, created_utc TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS _migration_status (id INTEGER PRIMARY KEY CHECK (id = 0), status TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS _migration_progress (id INTEGER PRIMARY KEY CHECK (id = 0), last_replayed_log_id INTEGER NOT NULL, drain_completed INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS _id_mapping (table_name TEXT NOT NULL, old_id INTEGER NOT NULL, new_id INTEGER NOT NULL, PRIMARY KEY (table_name, old_id));
`

func ensureNewDBSchema(ctx context.Context, newDB dbx.DB) error {
	for _, stmt := range strings.Split(newDBSchemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := newDB.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type schemaIdentityRow struct {
	Hash   string         `db:"schema_hash"`
	Commit sql.NullString `db:"schema_commit"`
}

func readSchemaIdentity(ctx context.Context, newDB dbx.DB) (hash, commit string, ok bool, err error) {
	var row schemaIdentityRow
	err = newDB.Get(ctx, &row, `SELECT schema_hash, schema_commit FROM _schema_identity WHERE id = 0`)
	if err != nil {
		if isNoSuchTable(err) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return row.Hash, row.Commit.String, true, nil
}

func writeSchemaIdentity(ctx context.Context, newDB dbx.DB, hash, commit, createdUTC string) error {
	_, err := newDB.Exec(ctx, `
INSERT INTO _schema_identity(id, schema_hash, schema_commit, created_utc) VALUES (0, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET schema_hash = excluded.schema_hash, schema_commit = excluded.schema_commit, created_utc = excluded.created_utc`,
		hash, commit, createdUTC)
	return err
}

func readMigrationStatus(ctx context.Context, newDB dbx.DB) (status string, ok bool, err error) {
	var s sql.NullString
	err = newDB.Get(ctx, &s, `SELECT status FROM _migration_status WHERE id = 0`)
	if err != nil {
		if isNoSuchTable(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if !s.Valid {
		return "", false, nil
	}
	return s.String, true, nil
}

func writeMigrationStatus(ctx context.Context, newDB dbx.DB, status string) error {
	_, err := newDB.Exec(ctx, `
INSERT INTO _migration_status(id, status) VALUES (0, ?)
ON CONFLICT(id) DO UPDATE SET status = excluded.status`, status)
	return err
}

type progress struct {
	LastReplayedLogID int64 `db:"last_replayed_log_id"`
	DrainCompleted    int   `db:"drain_completed"`
}

func readProgress(ctx context.Context, newDB dbx.DB) (*progress, error) {
	var p progress
	err := newDB.Get(ctx, &p, `SELECT last_replayed_log_id, drain_completed FROM _migration_progress WHERE id = 0`)
	if err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func writeProgress(ctx context.Context, newDB dbx.DB, p progress) error {
	_, err := newDB.Exec(ctx, `
INSERT INTO _migration_progress(id, last_replayed_log_id, drain_completed) VALUES (0, ?, ?)
ON CONFLICT(id) DO UPDATE SET last_replayed_log_id = excluded.last_replayed_log_id, drain_completed = excluded.drain_completed`,
		p.LastReplayedLogID, p.DrainCompleted)
	return err
}

func dropProgressAndIDMapping(ctx context.Context, newDB dbx.DB) error {
	if _, err := newDB.Exec(ctx, `DROP TABLE IF EXISTS _id_mapping`); err != nil {
		return err
	}
	_, err := newDB.Exec(ctx, `DROP TABLE IF EXISTS _migration_progress`)
	return err
}

func countRows(ctx context.Context, db dbx.DB, table string) (int, bool, error) {
	var n int
	err := db.Get(ctx, &n, "SELECT COUNT(*) FROM "+table)
	if err != nil {
		if isNoSuchTable(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return n, true, nil
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
