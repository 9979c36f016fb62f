// Package drain replays `_migration_log` entries against the new database:
// group by transaction, replay each group inside one new-database
// transaction with FK remapping via the accumulated id mappings, and
// advance the persisted replay cursor only once a whole group commits.
//
// Grounded on internal/dbx's transaction wrapper for the commit/rollback
// discipline; the replay algorithm itself is built fresh, since nothing
// upstream journals writes.
package drain

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/bulkcopy"
	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/identitykey"
	"github.com/corvid-labs/sqlshift/internal/migrationlog"
	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

// LogEntry mirrors one `_migration_log` row, with RowData already decoded
// from its JSON text.
type LogEntry struct {
	ID        int64
	TxnID     int64
	Ordering  int
	Operation migrationlog.Operation
	Table     string
	RowData   map[string]any
}

// LoadEntries reads `_migration_log` rows with id > afterID, decoding each
// row_data JSON payload.
func LoadEntries(ctx context.Context, oldDB dbx.DB, afterID int64) ([]LogEntry, error) {
	type row struct {
		ID        int64  `db:"id"`
		TxnID     int64  `db:"txn_id"`
		Ordering  int    `db:"ordering"`
		Operation string `db:"operation"`
		Table     string `db:"table_name"`
		RowData   string `db:"row_data"`
	}
	var rows []row
	if err := oldDB.Select(ctx, &rows, `
SELECT id, txn_id, ordering, operation, table_name, row_data
FROM _migration_log WHERE id > ? ORDER BY txn_id, ordering, id`, afterID); err != nil {
		return nil, err
	}
	out := make([]LogEntry, 0, len(rows))
	for _, r := range rows {
		data, err := decodeRowData(r.RowData)
		if err != nil {
			return nil, fmt.Errorf("drain: decoding row_data for log id %d: %w", r.ID, err)
		}
		out = append(out, LogEntry{
			ID: r.ID, TxnID: r.TxnID, Ordering: r.Ordering,
			Operation: migrationlog.Operation(r.Operation), Table: r.Table, RowData: data,
		})
	}
	return out, nil
}

// decodeRowData parses row_data with UseNumber so integer columns survive
// the JSON round trip as int64 rather than float64 — matching the value
// shape bulk copy's identitykey.Encode sees when reading live DB rows.
// Plain json.Unmarshal into map[string]any would turn every number into a
// float64, shifting every integer identity key's prefix from "i:" to "r:"
// and silently breaking every FK lookup recorded during bulk copy.
func decodeRowData(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var generic map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	for k, v := range generic {
		num, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := num.Int64(); err == nil {
			generic[k] = i
			continue
		}
		f, err := num.Float64()
		if err != nil {
			return nil, err
		}
		generic[k] = f
	}
	return generic, nil
}

// group is one txn_id's entries, already in (ordering, id) order via
// LoadEntries' ORDER BY.
func groupByTxn(entries []LogEntry) [][]LogEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TxnID != entries[j].TxnID {
			return entries[i].TxnID < entries[j].TxnID
		}
		if entries[i].Ordering != entries[j].Ordering {
			return entries[i].Ordering < entries[j].Ordering
		}
		return entries[i].ID < entries[j].ID
	})
	var groups [][]LogEntry
	var cur []LogEntry
	for _, e := range entries {
		if len(cur) > 0 && cur[0].TxnID != e.TxnID {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, e)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// Replay applies every loaded entry, one new-database transaction per
// txn_id group. Returns the highest log id successfully
// replayed (callers persist this as `_migration_progress.last_replayed_log_id`)
// and stops at the first group that fails, leaving later groups unreplayed
// for the next drain invocation.
func Replay(ctx context.Context, newDB dbx.DB, steps []copyplan.TableCopyStep, mappings *bulkcopy.IDMappings, entries []LogEntry) (lastReplayedID int64, err error) {
	bySource := map[string]copyplan.TableCopyStep{}
	for _, s := range steps {
		bySource[strings.ToLower(s.SourceTable)] = s
	}

	for _, group := range groupByTxn(entries) {
		txErr := newDB.TxImm(ctx, func(tx dbx.Tx) error {
			for _, entry := range group {
				step, ok := bySource[strings.ToLower(entry.Table)]
				if !ok {
					return &sqlterr.MigrationLogError{
						TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table,
						Detail: "no copy plan step for this table",
					}
				}
				if err := replayEntry(ctx, tx, step, mappings, entry); err != nil {
					return err
				}
			}
			return nil
		})
		if txErr != nil {
			return lastReplayedID, txErr
		}
		lastReplayedID = group[len(group)-1].ID
	}
	return lastReplayedID, nil
}

func replayEntry(ctx context.Context, tx dbx.Tx, step copyplan.TableCopyStep, mappings *bulkcopy.IDMappings, entry LogEntry) error {
	switch entry.Operation {
	case migrationlog.OpInsert:
		return replayInsert(ctx, tx, step, mappings, entry)
	case migrationlog.OpUpdate:
		return replayUpdate(ctx, tx, step, mappings, entry)
	case migrationlog.OpDelete:
		return replayDelete(ctx, tx, step, mappings, entry)
	default:
		return &sqlterr.MigrationLogError{
			TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table,
			Detail: fmt.Sprintf("unknown operation %q", entry.Operation),
		}
	}
}

func replayInsert(ctx context.Context, tx dbx.Tx, step copyplan.TableCopyStep, mappings *bulkcopy.IDMappings, entry LogEntry) error {
	values := map[string]any{}
	for _, cm := range step.ColumnMappings {
		switch cm.Kind {
		case copyplan.FromSourceColumn:
			values[cm.TargetColumn] = getCI(entry.RowData, cm.SourceColumn)
		default:
			if d, ok := cm.Default.StringValue(); ok {
				values[cm.TargetColumn] = d
			} else if d, ok := cm.Default.IntegerValue(); ok {
				values[cm.TargetColumn] = d
			} else if d, ok := cm.Default.RealValue(); ok {
				values[cm.TargetColumn] = d
			}
		}
	}

	for _, fkm := range step.ForeignKeys {
		keyVals := make([]any, len(fkm.TargetColumns))
		for i, col := range fkm.TargetColumns {
			keyVals[i] = values[col]
		}
		key := identitykey.Encode(keyVals)
		target, found := mappings.Get(fkm.RefTable, key)
		if !found {
			return &sqlterr.MigrationLogError{
				TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table,
				Detail: (&sqlterr.MissingIDMapping{RefTable: fkm.RefTable, Key: key}).Error(),
			}
		}
		for i, col := range fkm.TargetColumns {
			if i < len(target) {
				values[col] = target[i]
			}
		}
	}

	args := make([]any, len(step.InsertColumns))
	placeholders := make([]string, len(step.InsertColumns))
	for i, c := range step.InsertColumns {
		args[i] = values[c]
		placeholders[i] = "?"
	}
	query := "INSERT INTO " + step.TargetTable + "(" + strings.Join(step.InsertColumns, ", ") +
		") VALUES (" + strings.Join(placeholders, ", ") + ")"

	var targetIdentity []any
	if step.Identity != nil && step.Identity.TargetAutoincrement != "" {
		id, err := tx.IDExec(ctx, query, args...)
		if err != nil {
			return &sqlterr.MigrationLogError{TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table, Detail: err.Error()}
		}
		targetIdentity = []any{id}
	} else {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return &sqlterr.MigrationLogError{TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table, Detail: err.Error()}
		}
		if step.Identity != nil {
			targetIdentity = make([]any, len(step.Identity.TargetKeys))
			for i, k := range step.Identity.TargetKeys {
				targetIdentity[i] = values[k]
			}
		}
	}

	if step.Identity != nil {
		srcVals := make([]any, len(step.Identity.SourceKeys))
		for i, k := range step.Identity.SourceKeys {
			srcVals[i] = getCI(entry.RowData, k)
		}
		mappings.Set(step.TargetTable, identitykey.Encode(srcVals), targetIdentity)
		if err := maybePersistSingleColumnMapping(ctx, tx, step, srcVals, targetIdentity); err != nil {
			return err
		}
	}
	return nil
}

func replayUpdate(ctx context.Context, tx dbx.Tx, step copyplan.TableCopyStep, mappings *bulkcopy.IDMappings, entry LogEntry) error {
	if step.Identity == nil {
		return &sqlterr.MigrationLogError{TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table, Detail: "table has no identity mapping to locate the row to update"}
	}
	srcVals := make([]any, len(step.Identity.SourceKeys))
	for i, k := range step.Identity.SourceKeys {
		srcVals[i] = getCI(entry.RowData, k)
	}
	targetPK, found := mappings.Get(step.TargetTable, identitykey.Encode(srcVals))
	if !found {
		return &sqlterr.MigrationLogError{
			TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table,
			Detail: "no id mapping for the row being updated",
		}
	}

	setCols := make([]string, 0, len(step.InsertColumns))
	setVals := make([]any, 0, len(step.InsertColumns))
	targetKeySet := map[string]bool{}
	for _, k := range step.Identity.TargetKeys {
		targetKeySet[strings.ToLower(k)] = true
	}
	for _, cm := range step.ColumnMappings {
		if targetKeySet[strings.ToLower(cm.TargetColumn)] {
			continue
		}
		if cm.Kind != copyplan.FromSourceColumn {
			continue
		}
		v := getCI(entry.RowData, cm.SourceColumn)
		for _, fkm := range step.ForeignKeys {
			if len(fkm.TargetColumns) == 1 && strings.EqualFold(fkm.TargetColumns[0], cm.TargetColumn) {
				mapped, ok := mappings.Get(fkm.RefTable, identitykey.Encode([]any{v}))
				if ok && len(mapped) > 0 {
					v = mapped[0]
				}
			}
		}
		setCols = append(setCols, cm.TargetColumn+" = ?")
		setVals = append(setVals, v)
	}
	if len(setCols) == 0 {
		return nil
	}

	whereCols := make([]string, len(step.Identity.TargetKeys))
	for i, k := range step.Identity.TargetKeys {
		whereCols[i] = k + " = ?"
	}
	query := "UPDATE " + step.TargetTable + " SET " + strings.Join(setCols, ", ") +
		" WHERE " + strings.Join(whereCols, " AND ")
	args := append(setVals, targetPK...)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return &sqlterr.MigrationLogError{TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table, Detail: err.Error()}
	}
	return nil
}

func replayDelete(ctx context.Context, tx dbx.Tx, step copyplan.TableCopyStep, mappings *bulkcopy.IDMappings, entry LogEntry) error {
	if step.Identity == nil {
		return &sqlterr.MigrationLogError{TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table, Detail: "table has no identity mapping to locate the row to delete"}
	}
	srcVals := make([]any, len(step.Identity.SourceKeys))
	for i, k := range step.Identity.SourceKeys {
		srcVals[i] = getCI(entry.RowData, k)
	}
	targetPK, found := mappings.Get(step.TargetTable, identitykey.Encode(srcVals))
	if !found {
		return &sqlterr.MigrationLogError{
			TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table,
			Detail: "no id mapping for the row being deleted",
		}
	}
	whereCols := make([]string, len(step.Identity.TargetKeys))
	for i, k := range step.Identity.TargetKeys {
		whereCols[i] = k + " = ?"
	}
	query := "DELETE FROM " + step.TargetTable + " WHERE " + strings.Join(whereCols, " AND ")
	if _, err := tx.Exec(ctx, query, targetPK...); err != nil {
		return &sqlterr.MigrationLogError{TxnID: entry.TxnID, LogID: entry.ID, Table: entry.Table, Detail: err.Error()}
	}
	return nil
}

// maybePersistSingleColumnMapping writes (old_id, new_id) to `_id_mapping`,
// restricted to single-column integer PKs.
func maybePersistSingleColumnMapping(ctx context.Context, tx dbx.Tx, step copyplan.TableCopyStep, srcVals, targetIdentity []any) error {
	if len(srcVals) != 1 || len(targetIdentity) != 1 {
		return nil
	}
	oldID, ok := asInt64(srcVals[0])
	if !ok {
		return nil
	}
	newID, ok := asInt64(targetIdentity[0])
	if !ok {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO _id_mapping(table_name, old_id, new_id) VALUES (?, ?, ?)
ON CONFLICT(table_name, old_id) DO UPDATE SET new_id = excluded.new_id`,
		step.TargetTable, oldID, newID)
	return err
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func getCI(row map[string]any, col string) any {
	if v, ok := row[col]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, col) {
			return v
		}
	}
	return nil
}
