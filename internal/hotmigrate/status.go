package hotmigrate

import (
	"context"

	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/migrationlog"
)

// Report is the status snapshot: every field is read fresh from the
// old and new databases, with absent tables reported as zero/empty rather
// than erroring — a fresh pair of databases that have never seen a
// migration is a valid (if uninteresting) report.
type Report struct {
	OldMarkerStatus      string
	MigrationLogEntries  int
	PendingReplay        int
	LastReplayedLogID    int64
	IDMappingEntries     int
	NewMigrationStatus   string
	SchemaHash           string
	SchemaCommit         string
	HasIDMappingTable    bool
	HasProgressTable     bool
	HasMigrationLogTable bool
}

// Status assembles a Report from the old and new databases. oldDB may be
// nil when only the new database is reachable (e.g. the old file has
// already been removed after cleanup-old); newDB may be nil symmetrically
// before a migrate has ever run.
func Status(ctx context.Context, oldDB, newDB dbx.DB) (*Report, error) {
	r := &Report{}

	if oldDB != nil {
		status, ok, err := migrationlog.MarkerStatus(ctx, oldDB)
		if err != nil {
			return nil, err
		}
		if ok {
			r.OldMarkerStatus = status
		}
		n, exists, err := countRows(ctx, oldDB, "_migration_log")
		if err != nil {
			return nil, err
		}
		r.HasMigrationLogTable = exists
		if exists {
			r.MigrationLogEntries = n
		}
	}

	if newDB != nil {
		hash, commit, ok, err := readSchemaIdentity(ctx, newDB)
		if err != nil {
			return nil, err
		}
		if ok {
			r.SchemaHash = hash
			r.SchemaCommit = commit
		}

		status, ok, err := readMigrationStatus(ctx, newDB)
		if err != nil {
			return nil, err
		}
		if ok {
			r.NewMigrationStatus = status
		}

		n, exists, err := countRows(ctx, newDB, "_id_mapping")
		if err != nil {
			return nil, err
		}
		r.HasIDMappingTable = exists
		if exists {
			r.IDMappingEntries = n
		}

		p, err := readProgress(ctx, newDB)
		if err != nil {
			return nil, err
		}
		if p != nil {
			r.HasProgressTable = true
			r.LastReplayedLogID = p.LastReplayedLogID
			remaining, exists, err := countPendingReplay(ctx, oldDB, p.LastReplayedLogID)
			if err != nil {
				return nil, err
			}
			if exists {
				r.PendingReplay = remaining
			}
		}
	}

	return r, nil
}

func countPendingReplay(ctx context.Context, oldDB dbx.DB, afterID int64) (int, bool, error) {
	if oldDB == nil {
		return 0, false, nil
	}
	var n int
	err := oldDB.Get(ctx, &n, `SELECT COUNT(*) FROM _migration_log WHERE id > ?`, afterID)
	if err != nil {
		if isNoSuchTable(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return n, true, nil
}
