// Package migrationlog implements the guarded-transaction write-
// interception protocol that runs on the old database once a hot
// migration starts: every host-initiated DML is appended to
// `_migration_log` inside the same transaction as the write itself, so
// commit/rollback cover both atomically.
//
// Grounded on internal/dbx's transaction() wrapper (panic-recovery
// rollback, BEGIN IMMEDIATE acquisition per ) — Begin below is a thin
// layer over dbx.DB.TxImm that additionally inspects `_migration_marker`
// and allocates a txn_id. The "explicit state table with a JSON payload"
// shape is conceptually informed by pgroll's state.go
// (other_examples/bcba1c90_...state.go, Postgres-specific and not
// code-reusable — informs the design only, wires nothing).
package migrationlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

// Operation is the DML kind a log entry records.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Mode reports whether the enclosing guarded transaction is logging.
type Mode int

const (
	ModePlain Mode = iota
	ModeRecording
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS _migration_marker (id INTEGER PRIMARY KEY CHECK (id = 0), status TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS _migration_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  txn_id INTEGER NOT NULL,
  ordering INTEGER NOT NULL,
  operation TEXT NOT NULL,
  table_name TEXT NOT NULL,
  row_data TEXT NOT NULL
);
`

// EnsureSchema creates `_migration_marker`/`_migration_log` if they don't
// already exist — called once by internal/hotmigrate's migrate transition.
func EnsureSchema(ctx context.Context, db dbx.DB) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// MarkerStatus reads `_migration_marker.status`; ok is false when the table
// or its single row (id=0) is absent, which callers treat as plain mode.
func MarkerStatus(ctx context.Context, h dbx.Handle) (status string, ok bool, err error) {
	var s sql.NullString
	err = h.Get(ctx, &s, `SELECT status FROM _migration_marker WHERE id = 0`)
	if err != nil {
		if isNoSuchTable(err) || errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if !s.Valid {
		return "", false, nil
	}
	return s.String, true, nil
}

// SetMarker upserts the single marker row.
func SetMarker(ctx context.Context, h dbx.Handle, status string) error {
	_, err := h.Exec(ctx, `
INSERT INTO _migration_marker(id, status) VALUES (0, ?)
ON CONFLICT(id) DO UPDATE SET status = excluded.status`, status)
	return err
}

// DropSchema removes `_migration_marker` and `_migration_log`, used by
// internal/hotmigrate's cleanup-old transition.
func DropSchema(ctx context.Context, db dbx.DB) error {
	if _, err := db.Exec(ctx, `DROP TABLE IF EXISTS _migration_marker`); err != nil {
		return err
	}
	_, err := db.Exec(ctx, `DROP TABLE IF EXISTS _migration_log`)
	return err
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

var (
	txnSeq     atomic.Int64
	txnSeqInit sync.Once
)

// GuardedTx wraps one old-database transaction; its Mode determines whether
// Log appends rows. Constructed only by Begin.
type GuardedTx struct {
	tx       dbx.Tx
	mode     Mode
	txnID    int64
	ordering int
}

func (g *GuardedTx) Mode() Mode  { return g.mode }
func (g *GuardedTx) TxnID() int64 { return g.txnID }

// Exec runs a statement against the underlying transaction — the normal
// path for a write the caller does not want logged even in ModeRecording
// (e.g. touching a `_migration_`-prefixed table directly).
func (g *GuardedTx) Exec(ctx context.Context, query string, args ...any) (dbx.Result, error) {
	return g.tx.Exec(ctx, query, args...)
}

func (g *GuardedTx) Handle() dbx.Tx { return g.tx }

// Log appends one `_migration_log` row for a DML the host code wishes to
// record, with a per-transaction ordering starting at 1. A no-op outside
// ModeRecording, and for any table name beginning with "_migration_" (the
// "untracked tables" rule).
func (g *GuardedTx) Log(ctx context.Context, op Operation, table string, rowData map[string]any) error {
	if g.mode != ModeRecording {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(table), "_migration_") {
		return nil
	}
	payload, err := json.Marshal(rowData)
	if err != nil {
		return err
	}
	g.ordering++
	_, err = g.tx.Exec(ctx,
		`INSERT INTO _migration_log(txn_id, ordering, operation, table_name, row_data) VALUES (?, ?, ?, ?, ?)`,
		g.txnID, g.ordering, string(op), table, string(payload))
	return err
}

// Begin opens one guarded transaction on the old database:
// absent marker ⇒ ModePlain; "recording" ⇒ ModeRecording with a freshly
// allocated txn_id; "draining" ⇒ *sqlterr.WriteRejected, never entering fn.
// Uses TxImm (BEGIN IMMEDIATE) per the shared-resource acquisition rule.
func Begin(ctx context.Context, db dbx.DB, fn func(ctx context.Context, gtx *GuardedTx) error) error {
	return db.TxImm(ctx, func(tx dbx.Tx) error {
		status, ok, err := MarkerStatus(ctx, tx)
		if err != nil {
			return err
		}
		if !ok {
			return fn(ctx, &GuardedTx{tx: tx, mode: ModePlain})
		}
		switch status {
		case "recording":
			id, err := allocateTxnID(ctx, tx)
			if err != nil {
				return err
			}
			return fn(ctx, &GuardedTx{tx: tx, mode: ModeRecording, txnID: id})
		case "draining":
			return &sqlterr.WriteRejected{}
		default:
			return fn(ctx, &GuardedTx{tx: tx, mode: ModePlain})
		}
	})
}

// allocateTxnID hands out a monotonically increasing id within this
// process, seeded once from the highest txn_id already recorded so a
// restarted process never reuses one.
func allocateTxnID(ctx context.Context, h dbx.Handle) (int64, error) {
	var initErr error
	txnSeqInit.Do(func() {
		var maxID sql.NullInt64
		if err := h.Get(ctx, &maxID, `SELECT MAX(txn_id) FROM _migration_log`); err != nil {
			initErr = err
			return
		}
		if maxID.Valid {
			txnSeq.Store(maxID.Int64)
		}
	})
	if initErr != nil {
		return 0, initErr
	}
	return txnSeq.Add(1), nil
}
