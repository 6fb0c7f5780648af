package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var latestFlags struct {
	pathOnly bool
}

var latestCmd = &cobra.Command{
	Use:   "latest [solution]",
	Short: "Show the most recent database of a build description",
	Long:  "Prints the most recently built database of the given build description\n(a path or a registry identifier). The solution defaults to COMPDB_SOLUTION.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLatest,
}

func init() {
	latestCmd.Flags().BoolVar(&latestFlags.pathOnly, "path", false, "Print only the database file path")
}

func runLatest(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	if latestFlags.pathOnly {
		fmt.Fprintln(out, entry.OutputPath())
		return nil
	}
	fmt.Fprintf(out, "Source:   %s\n", entry.SourceBuild)
	fmt.Fprintf(out, "Path:     %s\n", entry.OutputPath())
	fmt.Fprintf(out, "Config:   %s|%s\n", entry.ConfigurationName, entry.PlatformName)
	fmt.Fprintf(out, "Updated:  %s\n", updated(entry))
	fmt.Fprintf(out, "Units:    %s\n", strings.Join(entry.IncludedUnits, ", "))
	return nil
}
