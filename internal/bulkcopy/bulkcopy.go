// Package bulkcopy executes a copyplan.TableCopyStep list against a pair of
// open databases: for each step, stream source rows, resolve each column
// mapping, translate FK values through the id mappings accumulated so far,
// insert into the target, and record the new identity.
//
// Grounded conceptually on the Dolt sqlEngineMover's streaming-rows +
// per-table stats shape (other_examples/9bce1d3b_...mover.go) — its actual
// dependencies (go-mysql-server, dolt's storage engine) aren't wireable
// into a SQLite-only module, so only the shape carries over; execution
// mechanics reuse internal/dbx's Handle/DB, the same abstraction
// transactions.go built around *sqlx.DB/*sqlx.Tx.
package bulkcopy

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/identitykey"
	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

// Options tunes the copy: Concurrency bounds how many tables within one
// dependency wave copy at once (0 = unbounded); Stats, when set, is called
// once per table after its rows finish copying.
type Options struct {
	Concurrency int
	Stats       func(table string, rowsCopied int)
}

// IDMappings is the concurrency-safe id_mappings[target][identity_key]
// accumulator; target identity is stored as the
// ordered list of the target table's identity column values (usually a
// single autoincrement rowid, but composite PKs carry more than one).
type IDMappings struct {
	mu   sync.Mutex
	data map[string]map[string][]any
}

func NewIDMappings() *IDMappings {
	return &IDMappings{data: map[string]map[string][]any{}}
}

func (m *IDMappings) Set(table, key string, identity []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := strings.ToLower(table)
	sub, ok := m.data[t]
	if !ok {
		sub = map[string][]any{}
		m.data[t] = sub
	}
	sub[key] = identity
}

func (m *IDMappings) Get(table, key string) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.data[strings.ToLower(table)]
	if !ok {
		return nil, false
	}
	v, ok := sub[key]
	return v, ok
}

// Count returns the total number of recorded mappings across all tables —
// the `_id_mapping` entry count the status report exposes.
func (m *IDMappings) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sub := range m.data {
		n += len(sub)
	}
	return n
}

// Snapshot returns a deep copy of the accumulated mappings, keyed by
// lower-cased table name then identity key. Used by hot-migration to
// persist mappings to `_id_mapping` after a copy or drain pass.
func (m *IDMappings) Snapshot() map[string]map[string][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string][]any, len(m.data))
	for table, sub := range m.data {
		subCopy := make(map[string][]any, len(sub))
		for k, v := range sub {
			subCopy[k] = v
		}
		out[table] = subCopy
	}
	return out
}

// Copy runs every step, processing steps in dependency waves: a step is
// eligible for a wave once every other step its FKs reference (ignoring
// self-references, which depgraph already treats as non-blocking) has
// finished. Steps within a wave run concurrently, bounded by
// opts.Concurrency.
func Copy(ctx context.Context, oldDB, newDB dbx.DB, steps []copyplan.TableCopyStep, mappings *IDMappings, opts Options) error {
	inSet := map[string]bool{}
	for _, s := range steps {
		inSet[strings.ToLower(s.TargetTable)] = true
	}

	copied := map[string]bool{}
	remaining := append([]copyplan.TableCopyStep(nil), steps...)
	for len(remaining) > 0 {
		var wave, rest []copyplan.TableCopyStep
		for _, step := range remaining {
			if readyForWave(step, copied, inSet) {
				wave = append(wave, step)
			} else {
				rest = append(rest, step)
			}
		}
		if len(wave) == 0 {
			// Every remaining step is blocked on another remaining step:
			// a genuine FK cycle among tables not self-referential. Copy
			// them anyway, in their existing (already topo-ordered) order,
			// rather than deadlock the whole migration.
			wave = remaining
			rest = nil
		}

		g, gctx := errgroup.WithContext(ctx)
		if opts.Concurrency > 0 {
			g.SetLimit(opts.Concurrency)
		}
		for _, step := range wave {
			step := step
			g.Go(func() error {
				return copyTable(gctx, oldDB, newDB, step, mappings, inSet, opts)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, step := range wave {
			copied[strings.ToLower(step.TargetTable)] = true
		}
		remaining = rest
	}
	return nil
}

func readyForWave(step copyplan.TableCopyStep, copied, inSet map[string]bool) bool {
	for _, fkm := range step.ForeignKeys {
		key := strings.ToLower(fkm.RefTable)
		if key == strings.ToLower(step.TargetTable) {
			continue // self-referential FK never blocks the wave
		}
		if !inSet[key] {
			continue // a table outside the copy set is never copied, so never waited on
		}
		if !copied[key] {
			return false
		}
	}
	return true
}

type columnPlan struct {
	targetCol string
	isLiteral bool
	literal   string
}

// buildColumnPlans precomputes, once per step, how each insert column's
// value is obtained: bound from the source row, or a fixed literal
// (declared DEFAULT or type default) rendered directly into the statement
// text the way internal/ddlgen renders DEFAULTs — both are constants for
// every row in the step, so there's no reason to recompute per row.
func buildColumnPlans(step copyplan.TableCopyStep) []columnPlan {
	byName := map[string]copyplan.ColumnMapping{}
	for _, cm := range step.ColumnMappings {
		byName[cm.TargetColumn] = cm
	}
	plans := make([]columnPlan, len(step.InsertColumns))
	for i, col := range step.InsertColumns {
		cm, ok := byName[col]
		if !ok {
			plans[i] = columnPlan{targetCol: col, isLiteral: true, literal: "NULL"}
			continue
		}
		switch cm.Kind {
		case copyplan.FromDefaultExpr, copyplan.FromTypeDefault:
			plans[i] = columnPlan{targetCol: col, isLiteral: true, literal: cm.Default.SQL()}
		default:
			plans[i] = columnPlan{targetCol: col}
		}
	}
	return plans
}

func copyTable(ctx context.Context, oldDB, newDB dbx.DB, step copyplan.TableCopyStep, mappings *IDMappings, inSet map[string]bool, opts Options) error {
	rows, err := oldDB.Query(ctx, "SELECT * FROM "+step.SourceTable)
	if err != nil {
		return &sqlterr.FailedQuery{SQL: "SELECT * FROM " + step.SourceTable, DriverMessage: err.Error()}
	}
	defer rows.Close()

	plans := buildColumnPlans(step)
	inserted := 0

	for rows.Next() {
		rowData := map[string]any{}
		if err := rows.MapScan(rowData); err != nil {
			return err
		}

		values := map[string]any{}
		for _, cm := range step.ColumnMappings {
			if cm.Kind == copyplan.FromSourceColumn {
				values[cm.TargetColumn] = getCI(rowData, cm.SourceColumn)
			}
		}

		for _, fkm := range step.ForeignKeys {
			if !inSet[strings.ToLower(fkm.RefTable)] {
				continue // referenced table outside the copy set: left untranslated
			}
			keyVals := make([]any, len(fkm.TargetColumns))
			for i, col := range fkm.TargetColumns {
				keyVals[i] = values[col]
			}
			key := identitykey.Encode(keyVals)
			target, found := mappings.Get(fkm.RefTable, key)
			if !found {
				return &sqlterr.MissingIDMapping{RefTable: fkm.RefTable, Key: key}
			}
			for i, col := range fkm.TargetColumns {
				if i < len(target) {
					values[col] = target[i]
				}
			}
		}

		exprs := make([]string, len(plans))
		var args []any
		for i, p := range plans {
			if p.isLiteral {
				exprs[i] = p.literal
				continue
			}
			exprs[i] = "?"
			args = append(args, values[p.targetCol])
		}
		query := "INSERT INTO " + step.TargetTable + "(" + strings.Join(step.InsertColumns, ", ") +
			") VALUES (" + strings.Join(exprs, ", ") + ")"

		var targetIdentity []any
		if step.Identity != nil && step.Identity.TargetAutoincrement != "" {
			id, err := newDB.IDExec(ctx, query, args...)
			if err != nil {
				return &sqlterr.FailedQuery{SQL: query, DriverMessage: err.Error()}
			}
			targetIdentity = []any{id}
		} else {
			if _, err := newDB.Exec(ctx, query, args...); err != nil {
				return &sqlterr.FailedQuery{SQL: query, DriverMessage: err.Error()}
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
				srcVals[i] = getCI(rowData, k)
			}
			mappings.Set(step.TargetTable, identitykey.Encode(srcVals), targetIdentity)
		}
		inserted++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if opts.Stats != nil {
		opts.Stats(step.TargetTable, inserted)
	}
	return nil
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
