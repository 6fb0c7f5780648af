package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"compdb/internal/builder"
	"compdb/internal/contextutil"
	"compdb/internal/extractor"
	"compdb/internal/project"
)

var buildFlags struct {
	configuration string
	platform      string
	outputDir     string
	name          string
	parallelism   int
	units         []string
	quiet         bool
}

var buildCmd = &cobra.Command{
	Use:   "build [solution.yaml]",
	Short: "Build a compilation database",
	Long: `Reads the build description, extracts one command per source file of every
selected unit and writes <output>/<name>.json. Ctrl-C cancels the build: running
units finish, queued units are skipped and the partial file stays valid JSON.

The solution defaults to COMPDB_SOLUTION.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildFlags.configuration, "configuration", "c", "Release", "Configuration name")
	f.StringVarP(&buildFlags.platform, "platform", "p", "x64", "Platform name")
	f.StringVarP(&buildFlags.outputDir, "output", "o", "", "Output directory (default COMPDB_OUTPUT_DIR)")
	f.StringVarP(&buildFlags.name, "name", "n", "", "Database name (default COMPDB_DATABASE_NAME)")
	f.IntVarP(&buildFlags.parallelism, "parallelism", "j", 0, "Units extracted at once (default COMPDB_PARALLELISM)")
	f.StringSliceVarP(&buildFlags.units, "unit", "u", nil, "Only build these units (repeatable)")
	f.BoolVarP(&buildFlags.quiet, "quiet", "q", false, "Do not print progress")
}

func runBuild(cmd *cobra.Command, args []string) error {
	path, err := solutionArg(args, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithAttrs(ctx, "solution", path)

	sol, err := project.LoadSolution(path)
	if err != nil {
		return err
	}
	units := sol.Select(buildFlags.units)
	if len(units) == 0 {
		if len(buildFlags.units) > 0 {
			return fmt.Errorf("no unit named %s in %s", strings.Join(buildFlags.units, ", "), sol.ID)
		}
		return fmt.Errorf("%s has no units", sol.ID)
	}

	reg, _, closeRegistry, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	parallelism := cfg.Parallelism
	if buildFlags.parallelism > 0 {
		parallelism = buildFlags.parallelism
	}
	outputDir := cfg.OutputDir
	if buildFlags.outputDir != "" {
		outputDir = buildFlags.outputDir
	}
	name := cfg.DatabaseName
	if buildFlags.name != "" {
		name = buildFlags.name
	}

	opts := []builder.Option{
		builder.WithParallelism(parallelism),
		builder.WithRegistry(reg),
	}
	if !buildFlags.quiet {
		opts = append(opts, builder.WithObserver(newProgressPrinter(cmd.ErrOrStderr())))
	}
	b := builder.New(extractor.New(newProber(cfg), extractor.WithToolToken(cfg.ToolToken)), opts...)

	result, err := b.Build(ctx, builder.Request{
		SourceBuild:   sol.ID,
		Units:         units,
		Configuration: project.Configuration{Name: buildFlags.configuration, Platform: buildFlags.platform},
		OutputDir:     outputDir,
		Name:          name,
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printSummary(cmd, result)
	if result.State == builder.StateCancelled {
		return errors.New("build cancelled")
	}
	return nil
}

func printSummary(cmd *cobra.Command, result *builder.Result) {
	out := cmd.OutOrStdout()
	s := result.Summary
	fmt.Fprintf(out, "Run:        %s (%s)\n", result.RunID, result.State)
	fmt.Fprintf(out, "Output:     %s\n", result.Database.OutputPath())
	fmt.Fprintf(out, "Units:      %d processed, %d failed of %d\n", s.UnitsProcessed, s.UnitsFailed, s.Units)
	if s.IncompleteUnits > 0 {
		fmt.Fprintf(out, "Incomplete: %d units had item groups that could not be read\n", s.IncompleteUnits)
	}
	fmt.Fprintf(out, "Commands:   %d (%d duplicates dropped, %d items skipped)\n", s.Commands, s.DuplicateCommands, s.SkippedItems)
	fmt.Fprintf(out, "Per unit:   min %d, max %d, mean %.2f, p95 %d\n", s.CommandStats.Min, s.CommandStats.Max, s.CommandStats.Mean, s.CommandStats.P95)
	if s.FallbackCompilers > 0 {
		fmt.Fprintf(out, "Fallbacks:  %d units used the default compiler version\n", s.FallbackCompilers)
	}
	if len(s.HeaderDirs) > 0 {
		fmt.Fprintf(out, "Headers:    %d directories\n", len(s.HeaderDirs))
	}
	fmt.Fprintf(out, "Duration:   %s\n", s.Duration.Round(time.Millisecond))
}
