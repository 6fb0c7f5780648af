package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"compdb/internal/compdb"
	"compdb/internal/config"
	"compdb/internal/registry"
	"compdb/internal/toolchain"
)

// openRegistry opens the configured registry store and loads it.
// The returned close function must be called when done.
func openRegistry(ctx context.Context, c *config.Config) (*registry.Registry, registry.Store, func(), error) {
	var (
		store   registry.Store
		closeFn = func() {}
	)
	switch c.RegistryBackend {
	case config.BackendSQLite:
		s, err := registry.OpenSQLiteStore(c.RegistryPath)
		if err != nil {
			return nil, nil, nil, err
		}
		store = s
		closeFn = func() { _ = s.Close() }
	default:
		store = registry.NewJSONStore(c.RegistryPath)
	}

	reg := registry.New(store)
	if err := reg.Refresh(ctx); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("failed to load registry %s: %w", c.RegistryPath, err)
	}
	return reg, store, closeFn, nil
}

func newProber(c *config.Config) *toolchain.Prober {
	return toolchain.NewProber(toolchain.DefaultVersionReader(), c.DefaultCompilerVersion)
}

// sourceBuildID maps a command-line argument to the identifier used in the
// registry. Existing files are made absolute the way LoadSolution does it.
func sourceBuildID(arg string) string {
	if _, err := os.Stat(arg); err == nil {
		if abs, err := filepath.Abs(arg); err == nil {
			return compdb.NormalizePath(abs)
		}
	}
	return arg
}

// solutionArg returns the first argument or the configured solution.
func solutionArg(args []string, c *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c.Solution != "" {
		return c.Solution, nil
	}
	return "", fmt.Errorf("no build description given and COMPDB_SOLUTION is not set")
}
