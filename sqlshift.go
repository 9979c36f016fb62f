// Package sqlshift is the public entry point for the declarative SQLite
// schema-migration and hot-migration engine. It wires together the
// internal parser, planner, and hot-migration packages into the surface
// the CLI (and any other host) calls: a library-over-thin-CLI layering
// where every function here is a thin orchestration of an internal
// package, never new logic of its own.
package sqlshift

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	rsql "github.com/rqlite/sql"

	"github.com/corvid-labs/sqlshift/internal/bulkcopy"
	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/ddlgen"
	"github.com/corvid-labs/sqlshift/internal/hotmigrate"
	"github.com/corvid-labs/sqlshift/internal/planner"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

// ParseFile parses a named SQL source into the canonical AST.
func ParseFile(filename, source string) (*sqlast.SqlFile, error) {
	return sqlparse.ParseFile(filename, source)
}

// FetchDBSchema reads the live schema from db's `sqlite_master` and parses
// it back into the canonical AST, the "actual schema" side of a migration —
// reusing ParseFile on the concatenated master SQL instead of re-parsing
// row by row.
func FetchDBSchema(ctx context.Context, db dbx.DB) (*sqlast.SqlFile, error) {
	var rows []struct {
		Name string `db:"name"`
		SQL  string `db:"sql"`
	}
	err := db.Select(ctx, &rows,
		`SELECT name, sql FROM sqlite_master WHERE sql != '' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("sqlshift: query sqlite_master: %w", err)
	}
	var src strings.Builder
	for _, r := range rows {
		src.WriteString(r.SQL)
		src.WriteString(";\n")
	}
	return sqlparse.ParseFile("sqlite_master", src.String())
}

// Plan computes the ordered DDL/DML statement plan that transforms actual
// into expected.
func Plan(actual, expected *sqlast.SqlFile) ([]string, error) {
	return planner.Plan(actual, expected)
}

// AutoMigrate fetches the live schema from db, plans against expected, and
// executes the resulting statements inside one transaction. It drives the
// diff-and-recreate planner rather than a conflict-or-nothing one: column
// changes always resolve via table recreate, never surfaced as an
// unresolvable conflict.
func AutoMigrate(ctx context.Context, db dbx.DB, expected *sqlast.SqlFile) error {
	actual, err := FetchDBSchema(ctx, db)
	if err != nil {
		return err
	}
	stmts, err := planner.Plan(actual, expected)
	if err != nil {
		return err
	}
	return db.Tx(ctx, func(tx dbx.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("sqlshift: executing %q: %w", stmt, err)
			}
		}
		return nil
	})
}

// Verify checks that db's live schema exactly matches expected, statement
// by statement, comparing `sqlite_master` rows against a declared schema —
// both sides are re-parsed and re-stringified through the same rqlite/sql
// parser so formatting differences (whitespace, quoting style) don't cause
// a false mismatch. The CLI does not call it; the cutover command runs
// without this check.
func Verify(ctx context.Context, db dbx.DB, expected *sqlast.SqlFile) error {
	var rows []struct {
		Name string `db:"name"`
		SQL  string `db:"sql"`
	}
	err := db.Select(ctx, &rows,
		`SELECT name, sql FROM sqlite_master WHERE sql != '' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("sqlshift: query sqlite_master: %w", err)
	}
	actualCanon := map[string]string{}
	for _, r := range rows {
		canon, err := canonicalize(r.SQL)
		if err != nil {
			return fmt.Errorf("sqlshift: could not parse live sql for %s: %w", r.Name, err)
		}
		actualCanon[strings.ToLower(r.Name)] = canon
	}

	var mismatches []string
	for _, name := range expected.TableOrder {
		table := expected.Tables[name]
		want, err := canonicalize(ddlgen.CreateTable(table))
		if err != nil {
			return fmt.Errorf("sqlshift: could not canonicalize expected table %s: %w", name, err)
		}
		got, ok := actualCanon[strings.ToLower(name)]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("table %s: missing from database", name))
			continue
		}
		if got != want {
			mismatches = append(mismatches, fmt.Sprintf("table %s: schema mismatch", name))
		}
	}
	for _, name := range expected.ViewOrder {
		want, err := canonicalize(ddlgen.CreateView(expected.Views[name]))
		if err != nil {
			return fmt.Errorf("sqlshift: could not canonicalize expected view %s: %w", name, err)
		}
		got, ok := actualCanon[strings.ToLower(name)]
		if !ok || got != want {
			mismatches = append(mismatches, fmt.Sprintf("view %s: schema mismatch or missing", name))
		}
	}
	if len(mismatches) > 0 {
		return errors.New("sqlshift: schema verification failed: " + strings.Join(mismatches, "; "))
	}
	return nil
}

func canonicalize(sql string) (string, error) {
	parser := rsql.NewParser(strings.NewReader(sql))
	stmt, err := parser.ParseStatement()
	if err != nil {
		return "", err
	}
	return stmt.String(), nil
}

// SchemaHash computes the path-inference hash: the first 16 hex
// characters of the SHA-256 digest of source with its line endings
// normalized to LF.
func SchemaHash(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// BuildCopyPlan is the entry point used ahead of Migrate by
// callers that want to inspect the plan (e.g. --dry-run) before running it.
func BuildCopyPlan(source, target *sqlast.SqlFile) ([]copyplan.TableCopyStep, error) {
	return copyplan.Build(source, target)
}

// Migrate, Drain, Cutover, CleanupOld, and Status are re-exported directly
// from internal/hotmigrate; the public API adds no behavior
// of its own around them.
var (
	Migrate    = hotmigrate.Migrate
	Drain      = hotmigrate.Drain
	Cutover    = hotmigrate.Cutover
	CleanupOld = hotmigrate.CleanupOld
	Status     = hotmigrate.Status
)

// NewIDMappings exposes the bulk-copy mapping accumulator for callers that
// want to run BuildCopyPlan and bulk copy manually (outside Migrate).
func NewIDMappings() *bulkcopy.IDMappings { return bulkcopy.NewIDMappings() }

// Report is hotmigrate.Report re-exported for callers that don't want to
// import internal/hotmigrate directly.
type Report = hotmigrate.Report
