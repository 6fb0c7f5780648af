package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"compdb/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "compdb",
	Short: "Build compile_commands.json databases from a build description",
	Long: "compdb walks the units of a build description, synthesizes one clang\n" +
		"command per source file and writes a compilation database that clang\n" +
		"tooling can consume. Built databases are tracked in a registry.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		setupLogging(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// setupLogging configures structured logging with the configured level and format.
// Logs go to stderr so command output stays clean on stdout.
func setupLogging(c *config.Config) {
	opts := &slog.HandlerOptions{
		Level: c.LogLevel,
	}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", c.LogLevel.String(), "format", c.LogFormat)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
