package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"compdb/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered compilation databases",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	reg, _, closeRegistry, err := openRegistry(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	entries := reg.Entries()
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No databases registered")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCONFIG\tUNITS\tUPDATED\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s|%s\t%d\t%s\t%s\n",
			e.SourceBuild, e.ConfigurationName, e.PlatformName, len(e.IncludedUnits), updated(e), e.OutputPath())
	}
	return tw.Flush()
}

func updated(e registry.Entry) string {
	if e.Stale() {
		return "missing"
	}
	return e.LastUpdated.Local().Format(time.DateTime)
}
