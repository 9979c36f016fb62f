package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corvid-labs/sqlshift/internal/dbx"
)

// openDB opens (and, for sqlite3, creates if absent) the database file at
// path.
func openDB(path string) (dbx.DB, error) {
	db, err := dbx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return db, nil
}

// openIfExists opens path only when the file is already there, returning a
// nil handle otherwise. Several commands (status foremost) tolerate a
// missing old or new database.
func openIfExists(path string) (dbx.DB, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return openDB(path)
}

// countRows sums the row counts of tables, reporting the combined total for
// the migrate command's success summary.
func countRows(ctx context.Context, db dbx.DB, tables []string) (int, error) {
	total := 0
	for _, t := range tables {
		var n int
		if err := db.Get(ctx, &n, "SELECT COUNT(*) FROM "+t); err != nil {
			return 0, fmt.Errorf("counting rows in %s: %w", t, err)
		}
		total += n
	}
	return total, nil
}
