package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/sqlshift"
)

func newCutoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cutover",
		Short: "Finalize the new database as ready and drop hot-migration bookkeeping tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirFlag(cmd)
			if err != nil {
				return err
			}
			return runCutover(cmd, dir)
		},
	}
}

func runCutover(cmd *cobra.Command, dir string) error {
	ctx := context.Background()

	loc, err := locate(dir)
	if err != nil {
		return err
	}
	newDB, err := openIfExists(loc.NewDBPath)
	if err != nil {
		return err
	}
	if newDB == nil {
		return fmt.Errorf("no new database found at %s", loc.NewDBPath)
	}
	defer newDB.Close()

	before, err := sqlshift.Status(ctx, nil, newDB)
	if err != nil {
		return err
	}

	if err := sqlshift.Cutover(ctx, newDB); err != nil {
		return err
	}

	cmd.Printf("previousStatus: %s\n", reportOr(before.NewMigrationStatus, "none"))
	cmd.Printf("idMappingDropped: %t\n", before.HasIDMappingTable)
	cmd.Printf("migrationProgressDropped: %t\n", before.HasProgressTable)
	return nil
}

func reportOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
