package dbx

import (
	"fmt"
	"os"
	"strings"

	"github.com/james-darko/gort"
)

// OpenFromEnv opens a database handle following loadDB/LoadDB's layering:
// DATABASE_URL is required, DATABASE_DRIVER defaults to sqlite3, and a
// "libsql:" URL switches the driver to libsql and appends DATABASE_TOKEN as
// an authToken query parameter (turso auth). The CLI uses --dir to locate
// the schema and database files directly; this entry point remains the
// library-level default for callers that prefer environment configuration.
func OpenFromEnv() (DB, error) {
	driver, _ := gort.Env("DATABASE_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	url, ok := gort.Env("DATABASE_URL")
	if !ok || url == "" {
		return nil, fmt.Errorf("DATABASE_URL env var not found")
	}
	if strings.HasPrefix(url, "libsql:") {
		driver = "libsql"
		token, ok := gort.Env("DATABASE_TOKEN")
		if !ok || token == "" {
			return nil, fmt.Errorf("DATABASE_TOKEN env var not found")
		}
		url = url + "?authToken=" + token
	}
	db, err := Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("problem opening database: %w", err)
	}
	return db, nil
}

// OpenFile opens a plain sqlite3 database file at path, without going
// through environment variables. The CLI opens its files with Open.
func OpenFile(path string) (DB, error) {
	if _, err := os.Stat(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("problem stating database file %s: %w", path, err)
	}
	return Open("sqlite3", path)
}
