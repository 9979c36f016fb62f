// Package sqlterr collects the error taxonomy for the migration engine: one
// typed struct per kind, each with an Error() method so callers can
// errors.As into the specific shape, following the SchemaConflictError/
// ErrSchemaConflicts pairing pattern. None of them wraps another error.
package sqlterr

import (
	"fmt"
	"strings"
)

// MalformedProject reports a reference to an unknown file, a duplicate
// table declaration, or an unresolved QueryBy/QueryLike column — project-
// level problems the parser or loader detects before planning begins.
type MalformedProject struct {
	Detail string
}

func (e *MalformedProject) Error() string { return "malformed project: " + e.Detail }

// MissingDependencies reports that the planner could not order one or both
// schemas because a FK, view, or index referenced a relation that does not
// exist anywhere in that schema.
type MissingDependencies struct {
	Left  []string // unresolved references found while sorting the source schema
	Right []string // unresolved references found while sorting the target schema
}

func (e *MissingDependencies) Error() string {
	var b strings.Builder
	b.WriteString("missing dependencies")
	if len(e.Left) > 0 {
		fmt.Fprintf(&b, "; source: %s", strings.Join(e.Left, ", "))
	}
	if len(e.Right) > 0 {
		fmt.Fprintf(&b, "; target: %s", strings.Join(e.Right, ", "))
	}
	return b.String()
}

// FailedQuery wraps a driver error encountered executing a specific
// statement; fatal to the enclosing transaction.
type FailedQuery struct {
	SQL           string
	DriverMessage string
}

func (e *FailedQuery) Error() string {
	return fmt.Sprintf("query failed: %s\nsql: %s", e.DriverMessage, e.SQL)
}

// StaleMigration indicates a second planning pass produced the same plan as
// the one just applied — loop detection for multi-pass migration callers.
type StaleMigration struct {
	Pass int
}

func (e *StaleMigration) Error() string {
	return fmt.Sprintf("stale migration: pass %d produced an identical plan to the previous pass", e.Pass)
}

// MigrationLogError reports a drain-replay failure: an entry for a table
// absent from the copy plan, a missing FK identity mapping, or a shape
// mismatch between a logged row and its target table.
type MigrationLogError struct {
	TxnID   int64
	LogID   int64
	Table   string
	Detail  string
}

func (e *MigrationLogError) Error() string {
	return fmt.Sprintf("migration log error (txn %d, log id %d, table %s): %s", e.TxnID, e.LogID, e.Table, e.Detail)
}

// StateTransitionError reports a hot-migration command invoked against an
// incompatible marker/status combination; never mutates persistent state.
type StateTransitionError struct {
	Command        string
	RequiredStates string
	ActualState    string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s requires state in {%s}, got %q", e.Command, e.RequiredStates, e.ActualState)
}

// WriteRejected is returned by the guarded-transaction write interceptor
// when the old database's marker is draining.
type WriteRejected struct{}

func (e *WriteRejected) Error() string { return "write rejected: database is in drain mode" }

// MissingIDMapping reports that bulk copy or drain replay needed a foreign
// key's target identity but found no recorded mapping for it — either the
// referenced row hasn't been copied/replayed yet, or never will be.
type MissingIDMapping struct {
	RefTable string
	Key      string
}

func (e *MissingIDMapping) Error() string {
	return fmt.Sprintf("missing ID mapping for FK referencing %s with key %s", e.RefTable, e.Key)
}
