package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"compdb/internal/compdb"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [solution]",
	Short: "Check that the most recent database of a build description parses",
	Long: `Reloads the most recent database of the build description and checks that the
file exists, is a valid compilation database and lists every file once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	arg, err := solutionArg(args, cfg)
	if err != nil {
		return err
	}
	source := sourceBuildID(arg)

	reg, _, closeRegistry, err := openRegistry(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	entry, err := reg.MostRecentFor(source)
	if err != nil {
		return err
	}
	if !reg.ExistsFor(source) || entry.Stale() {
		return fmt.Errorf("database %s is missing", entry.OutputPath())
	}

	db := compdb.New(entry.Name, entry.Directory, entry.SourceBuild, entry.ConfigurationName, entry.PlatformName)
	if err := db.Load(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d commands, OK\n", db.OutputPath(), len(db.Commands))
	return nil
}
