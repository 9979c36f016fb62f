package main

import (
	"github.com/spf13/cobra"
)

// newHashCmd is a diagnostic extra beyond the standard verbs: it prints the
// path-inference hash and the deterministic database paths locate()
// computed, useful when scripting around sqlshift without re-deriving the
// hashing rule in a second language.
func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print the schema hash and inferred database paths for --dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirFlag(cmd)
			if err != nil {
				return err
			}
			loc, err := locate(dir)
			if err != nil {
				return err
			}
			cmd.Printf("schemaHash: %s\n", loc.Hash)
			cmd.Printf("newDbPath: %s\n", loc.NewDBPath)
			cmd.Printf("oldDbPath: %s\n", reportOr(loc.OldDBPath, "none"))
			return nil
		},
	}
}
