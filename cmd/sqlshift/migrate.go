package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/sqlshift"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bulk-copy the old database into a freshly schema'd new database and start recording writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirFlag(cmd)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runMigrate(cmd, dir, dryRun)
		},
	}
	cmd.Flags().Bool("dry-run", false, "print the copy plan without executing it")
	return cmd
}

func runMigrate(cmd *cobra.Command, dir string, dryRun bool) error {
	ctx := context.Background()

	loc, err := locate(dir)
	if err != nil {
		return err
	}
	expected, err := sqlshift.ParseFile(loc.Dir, loc.Source)
	if err != nil {
		return err
	}

	oldPath := loc.OldDBPath
	if oldPath == "" {
		// No prior database: treat this as a fresh install. The old
		// database is a stub with an empty schema, so bulk copy has
		// nothing to carry over.
		oldPath = fmt.Sprintf("%s.sqlite", loc.Dir)
	}
	oldDB, err := openDB(oldPath)
	if err != nil {
		return err
	}
	defer oldDB.Close()

	newDB, err := openDB(loc.NewDBPath)
	if err != nil {
		return err
	}
	defer newDB.Close()

	actualOld, err := sqlshift.FetchDBSchema(ctx, oldDB)
	if err != nil {
		return err
	}

	if dryRun {
		steps, err := sqlshift.BuildCopyPlan(actualOld, expected)
		if err != nil {
			return err
		}
		cmd.Printf("newDbPath: %s\n", loc.NewDBPath)
		cmd.Printf("oldDbPath: %s\n", oldPath)
		cmd.Printf("tables: %d\n", len(steps))
		for _, s := range steps {
			cmd.Printf("  %s -> %s\n", s.SourceTable, s.TargetTable)
		}
		return nil
	}

	actualNew, err := sqlshift.FetchDBSchema(ctx, newDB)
	if err != nil {
		return err
	}
	if len(actualNew.TableOrder) == 0 && len(actualNew.ViewOrder) == 0 {
		if err := sqlshift.AutoMigrate(ctx, newDB, expected); err != nil {
			return err
		}
	}

	if err := sqlshift.Migrate(ctx, oldDB, newDB, actualOld, expected, loc.Hash, ""); err != nil {
		return err
	}

	rows, err := countRows(ctx, newDB, expected.TableOrder)
	if err != nil {
		return err
	}
	cmd.Printf("newDbPath: %s\n", loc.NewDBPath)
	cmd.Printf("tables: %d\n", len(expected.TableOrder))
	cmd.Printf("rows: %d\n", rows)
	return nil
}
