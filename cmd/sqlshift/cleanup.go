package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/sqlshift"
)

func newCleanupOldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-old",
		Short: "Drop the old database's migration marker and log once draining is finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirFlag(cmd)
			if err != nil {
				return err
			}
			return runCleanupOld(cmd, dir)
		},
	}
}

func runCleanupOld(cmd *cobra.Command, dir string) error {
	ctx := context.Background()

	loc, err := locate(dir)
	if err != nil {
		return err
	}
	oldPath := loc.OldDBPath
	if oldPath == "" {
		return fmt.Errorf("no old database found matching %s-*.sqlite in %s", loc.Dir, loc.Dir)
	}
	oldDB, err := openDB(oldPath)
	if err != nil {
		return err
	}
	defer oldDB.Close()

	before, err := sqlshift.Status(ctx, oldDB, nil)
	if err != nil {
		return err
	}

	if err := sqlshift.CleanupOld(ctx, oldDB); err != nil {
		return err
	}

	cmd.Printf("previousMarkerStatus: %s\n", reportOr(before.OldMarkerStatus, "none"))
	cmd.Printf("markerDropped: %t\n", before.OldMarkerStatus != "")
	cmd.Printf("logDropped: %t\n", before.MigrationLogEntries > 0 || before.OldMarkerStatus != "")
	return nil
}
