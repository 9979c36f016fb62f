package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/sqlshift"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the hot-migration state of the old and new databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirFlag(cmd)
			if err != nil {
				return err
			}
			return runStatus(cmd, dir)
		},
	}
}

func runStatus(cmd *cobra.Command, dir string) error {
	ctx := context.Background()

	loc, err := locate(dir)
	if err != nil {
		return err
	}
	oldDB, err := openIfExists(loc.OldDBPath)
	if err != nil {
		return err
	}
	if oldDB != nil {
		defer oldDB.Close()
	}
	newDB, err := openIfExists(loc.NewDBPath)
	if err != nil {
		return err
	}
	if newDB != nil {
		defer newDB.Close()
	}

	report, err := sqlshift.Status(ctx, oldDB, newDB)
	if err != nil {
		return err
	}

	cmd.Printf("oldMarkerStatus: %s\n", reportOr(report.OldMarkerStatus, "none"))
	cmd.Printf("hasMigrationLogTable: %t\n", report.HasMigrationLogTable)
	cmd.Printf("migrationLogEntries: %d\n", report.MigrationLogEntries)
	cmd.Printf("pendingReplay: %d\n", report.PendingReplay)
	cmd.Printf("lastReplayedLogID: %d\n", report.LastReplayedLogID)
	cmd.Printf("idMappingEntries: %d\n", report.IDMappingEntries)
	cmd.Printf("newMigrationStatus: %s\n", reportOr(report.NewMigrationStatus, "none"))
	cmd.Printf("schemaHash: %s\n", reportOr(report.SchemaHash, "none"))
	cmd.Printf("schemaCommit: %s\n", reportOr(report.SchemaCommit, "none"))
	cmd.Printf("hasIDMappingTable: %t\n", report.HasIDMappingTable)
	cmd.Printf("hasMigrationProgressTable: %t\n", report.HasProgressTable)
	return nil
}
