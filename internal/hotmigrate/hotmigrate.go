// Package hotmigrate owns the marker/status/progress/id-mapping/schema-
// identity tables and implements the migrate/drain/cutover/cleanup-old
// state machine, delegating the actual work to internal/copyplan,
// internal/bulkcopy, internal/migrationlog, and internal/drain.
//
// Grounded on pgroll's state.go (other_examples/bcba1c90_...state.go) for
// the idea of enforcing "only one active migration" and "history is
// linear" through the state tables' own constraints rather than only in Go
// — pgroll is Postgres-specific and not code-reusable, so only that design
// discipline carries over. google/uuid backs NewDatabaseSuffix, a random
// filename-suffix helper; the CLI names new-database files from the schema
// hash and does not call it.
package hotmigrate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/sqlshift/internal/bulkcopy"
	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/drain"
	"github.com/corvid-labs/sqlshift/internal/migrationlog"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

// NewDatabaseSuffix returns a fresh identifier for a new-database filename
// when the caller finds no prior file matching the expected schema hash.
func NewDatabaseSuffix() string { return uuid.NewString() }

// Migrate performs the migrate transition: the old marker must be
// absent; bulk copy runs and the new database's bookkeeping
// tables are populated; the old database's marker is set to "recording".
// Idempotent when the new database already carries a matching schema_hash.
func Migrate(ctx context.Context, oldDB, newDB dbx.DB, actual, expected *sqlast.SqlFile, schemaHash, schemaCommit string) error {
	existingHash, _, hasIdentity, err := readSchemaIdentity(ctx, newDB)
	if err != nil {
		return err
	}
	if hasIdentity && existingHash == schemaHash {
		return nil // idempotent: this new-db file already matches the expected schema
	}

	status, ok, err := migrationlog.MarkerStatus(ctx, oldDB)
	if err != nil {
		return err
	}
	if ok {
		return &sqlterr.StateTransitionError{Command: "migrate", RequiredStates: "none", ActualState: status}
	}

	if err := ensureNewDBSchema(ctx, newDB); err != nil {
		return err
	}

	steps, err := copyplan.Build(actual, expected)
	if err != nil {
		return err
	}
	mappings := bulkcopy.NewIDMappings()
	if err := bulkcopy.Copy(ctx, oldDB, newDB, steps, mappings, bulkcopy.Options{}); err != nil {
		return err
	}
	if err := persistAllMappings(ctx, newDB, mappings); err != nil {
		return err
	}

	if err := writeSchemaIdentity(ctx, newDB, schemaHash, schemaCommit, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := writeMigrationStatus(ctx, newDB, "migrating"); err != nil {
		return err
	}
	if err := writeProgress(ctx, newDB, progress{LastReplayedLogID: 0, DrainCompleted: 0}); err != nil {
		return err
	}

	if err := migrationlog.EnsureSchema(ctx, oldDB); err != nil {
		return err
	}
	return migrationlog.SetMarker(ctx, oldDB, "recording")
}

// Drain performs the drain transition: requires the old marker to be
// "recording" or "draining"; the first call flips it to "draining", then
// replays log entries after the persisted cursor.
func Drain(ctx context.Context, oldDB, newDB dbx.DB, steps []copyplan.TableCopyStep) error {
	status, ok, err := migrationlog.MarkerStatus(ctx, oldDB)
	if err != nil {
		return err
	}
	if !ok || (status != "recording" && status != "draining") {
		actual := "none"
		if ok {
			actual = status
		}
		return &sqlterr.StateTransitionError{Command: "drain", RequiredStates: "recording, draining", ActualState: actual}
	}
	if status == "recording" {
		if err := migrationlog.SetMarker(ctx, oldDB, "draining"); err != nil {
			return err
		}
	}

	p, err := readProgress(ctx, newDB)
	if err != nil {
		return err
	}
	var afterID int64
	if p != nil {
		afterID = p.LastReplayedLogID
	}

	entries, err := drain.LoadEntries(ctx, oldDB, afterID)
	if err != nil {
		return err
	}

	mappings, err := hydrateMappings(ctx, newDB, steps)
	if err != nil {
		return err
	}

	lastReplayed, replayErr := drain.Replay(ctx, newDB, steps, mappings, entries)
	if lastReplayed > afterID {
		if err := persistAllMappings(ctx, newDB, mappings); err != nil {
			return err
		}
		completed := 0
		if replayErr == nil && lastReplayed == maxEntryID(entries) {
			completed = 1
		}
		if err := writeProgress(ctx, newDB, progress{LastReplayedLogID: lastReplayed, DrainCompleted: completed}); err != nil {
			return err
		}
	} else if replayErr == nil && len(entries) == 0 {
		completed := 0
		if p != nil {
			completed = 1
		}
		if err := writeProgress(ctx, newDB, progress{LastReplayedLogID: afterID, DrainCompleted: completed}); err != nil {
			return err
		}
	}
	return replayErr
}

func maxEntryID(entries []drain.LogEntry) int64 {
	var max int64
	for _, e := range entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}

// Cutover performs the cutover transition: requires the new database's
// status to be "migrating" (with drain completed) or already "ready"
// (idempotent). Drops `_id_mapping`/`_migration_progress` and sets
// status="ready".
func Cutover(ctx context.Context, newDB dbx.DB) error {
	status, ok, err := readMigrationStatus(ctx, newDB)
	if err != nil {
		return err
	}
	if ok && status == "ready" {
		return nil
	}
	if !ok || status != "migrating" {
		actual := "none"
		if ok {
			actual = status
		}
		return &sqlterr.StateTransitionError{Command: "cutover", RequiredStates: "migrating, ready", ActualState: actual}
	}
	p, err := readProgress(ctx, newDB)
	if err != nil {
		return err
	}
	if p == nil || p.DrainCompleted != 1 {
		return errors.New("Drain is not complete")
	}
	if err := dropProgressAndIDMapping(ctx, newDB); err != nil {
		return err
	}
	return writeMigrationStatus(ctx, newDB, "ready")
}

// CleanupOld performs the cleanup-old transition: requires the old
// marker to be "draining" or absent (a "recording" marker means writes are
// still being journaled and must be drained first).
func CleanupOld(ctx context.Context, oldDB dbx.DB) error {
	status, ok, err := migrationlog.MarkerStatus(ctx, oldDB)
	if err != nil {
		return err
	}
	if ok && status == "recording" {
		return &sqlterr.StateTransitionError{Command: "cleanup-old", RequiredStates: "draining, none", ActualState: status}
	}
	return migrationlog.DropSchema(ctx, oldDB)
}

func persistAllMappings(ctx context.Context, newDB dbx.DB, mappings *bulkcopy.IDMappings) error {
	for table, key := range mappingsByTableKey(mappings) {
		for k, identity := range key {
			oldID, ok := singleIntKey(k)
			if !ok || len(identity) != 1 {
				continue
			}
			newID, ok := asInt64(identity[0])
			if !ok {
				continue
			}
			if _, err := newDB.Exec(ctx, `
INSERT INTO _id_mapping(table_name, old_id, new_id) VALUES (?, ?, ?)
ON CONFLICT(table_name, old_id) DO UPDATE SET new_id = excluded.new_id`, table, oldID, newID); err != nil {
				return err
			}
		}
	}
	return nil
}

// hydrateMappings reconstructs the in-memory IDMappings bulk copy left
// behind (possibly in a previous process) by reading the persisted
// `_id_mapping` rows for exactly the tables this copy plan touches.
func hydrateMappings(ctx context.Context, newDB dbx.DB, steps []copyplan.TableCopyStep) (*bulkcopy.IDMappings, error) {
	mappings := bulkcopy.NewIDMappings()
	if len(steps) == 0 {
		return mappings, nil
	}
	tables := make([]string, len(steps))
	for i, s := range steps {
		tables[i] = s.TargetTable
	}
	type row struct {
		TableName string `db:"table_name"`
		OldID     int64  `db:"old_id"`
		NewID     int64  `db:"new_id"`
	}
	var rows []row
	err := newDB.SelectIn(ctx, &rows,
		`SELECT table_name, old_id, new_id FROM _id_mapping WHERE table_name IN (?)`, tables)
	if err != nil {
		if isNoSuchTable(err) {
			return mappings, nil
		}
		return nil, err
	}
	for _, r := range rows {
		mappings.Set(r.TableName, "i:"+strconv.FormatInt(r.OldID, 10), []any{r.NewID})
	}
	return mappings, nil
}

func singleIntKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, "i:")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	default:
		return 0, false
	}
}

// mappingsByTableKey exposes IDMappings' contents for the one place
// (persisting to `_id_mapping`) that needs to walk every entry; kept here
// rather than as an IDMappings method since it's specific to the
// single-column-integer-PK persistence rule, not a general accessor.
func mappingsByTableKey(mappings *bulkcopy.IDMappings) map[string]map[string][]any {
	return mappings.Snapshot()
}
