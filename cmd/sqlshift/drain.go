package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/sqlshift"
	"github.com/corvid-labs/sqlshift/internal/drain"
)

func newDrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Replay journaled writes from the old database onto the new database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirFlag(cmd)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runDrain(cmd, dir, dryRun)
		},
	}
	cmd.Flags().Bool("dry-run", false, "print pending log entries without replaying them")
	return cmd
}

func runDrain(cmd *cobra.Command, dir string, dryRun bool) error {
	ctx := context.Background()

	loc, err := locate(dir)
	if err != nil {
		return err
	}
	if loc.OldDBPath == "" {
		return fmt.Errorf("no old database found matching %s-*.sqlite in %s", loc.Dir, loc.Dir)
	}
	oldDB, err := openDB(loc.OldDBPath)
	if err != nil {
		return err
	}
	defer oldDB.Close()

	newDB, err := openDB(loc.NewDBPath)
	if err != nil {
		return err
	}
	defer newDB.Close()

	expected, err := sqlshift.ParseFile(loc.Dir, loc.Source)
	if err != nil {
		return err
	}
	actualOld, err := sqlshift.FetchDBSchema(ctx, oldDB)
	if err != nil {
		return err
	}
	steps, err := sqlshift.BuildCopyPlan(actualOld, expected)
	if err != nil {
		return err
	}

	if dryRun {
		report, err := sqlshift.Status(ctx, oldDB, newDB)
		if err != nil {
			return err
		}
		entries, err := drain.LoadEntries(ctx, oldDB, report.LastReplayedLogID)
		if err != nil {
			return err
		}
		cmd.Printf("pending: %d\n", len(entries))
		for _, e := range entries {
			cmd.Printf("  log id %d: %s %s\n", e.ID, e.Operation, e.Table)
		}
		return nil
	}

	beforeReport, err := sqlshift.Status(ctx, oldDB, newDB)
	if err != nil {
		return err
	}

	if err := sqlshift.Drain(ctx, oldDB, newDB, steps); err != nil {
		return err
	}

	afterReport, err := sqlshift.Status(ctx, oldDB, newDB)
	if err != nil {
		return err
	}
	replayed := afterReport.LastReplayedLogID - beforeReport.LastReplayedLogID
	cmd.Printf("replayed: %d\n", replayed)
	cmd.Printf("remaining: %d\n", afterReport.PendingReplay)
	return nil
}
