// Command sqlshift is the thin CLI surface over the sqlshift library: verbs
// wired straight into internal/hotmigrate and the root sqlshift package,
// using a standard spf13/cobra root-command shape. It contains no business
// logic beyond path inference and formatting a success/error line per verb.
package main

import (
	"fmt"
	"os"

	"github.com/james-darko/gort"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sqlshift",
		Short:         "Declarative SQLite schema migration and hot-migration tool",
		Long:          "sqlshift plans and applies declarative SQLite schema migrations and drives the copy/drain/cutover hot-migration workflow.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("dir", defaultDir(), "project directory containing the .sql schema files and sqlite database files")
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newDrainCmd())
	root.AddCommand(newCutoverCmd())
	root.AddCommand(newCleanupOldCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newHashCmd())

	// --help prints fixed usage text to stdout but, unlike cobra's
	// default, exits 1 rather than 0.
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		defaultHelp(cmd, args)
		os.Exit(1)
	})
	return root
}

// defaultDir is the CWD unless SQLSHIFT_DIR is set, the same env-below-CLI
// layering LoadDB/FullLoadDB give DATABASE_URL/DATABASE_SCHEMA beneath
// whatever a host explicitly passes in.
func defaultDir() string {
	if dir, ok := gort.Env("SQLSHIFT_DIR"); ok && dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func dirFlag(cmd *cobra.Command) (string, error) {
	return cmd.Flags().GetString("dir")
}

// fail prints a fixed failure line and exits 1. Every verb's RunE
// returns an error instead of calling this directly; main is the single
// place that formats and exits, so commands stay testable.
func fail(command string, err error) {
	fmt.Fprintf(os.Stderr, "%s failed: %s\n", command, err)
	os.Exit(1)
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fail(commandName(root), err)
	}
}

// commandName recovers which verb cobra was executing when Execute
// returned an error (e.g. flag parsing failures happen before RunE).
func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return "sqlshift"
	}
	return cmd.Name()
}
