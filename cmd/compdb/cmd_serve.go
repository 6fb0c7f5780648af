package main

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"compdb/internal/http"
	"compdb/internal/registry"
	"compdb/internal/service"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// Local status API of the compilation database builder: start and cancel
// builds, follow their progress and look up registered databases.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: compdb API
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

var serveFlags struct {
	port string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local build and registry API",
	Long: `Serves the build API on API_PORT. Registered database files are watched so
the registry reports a database as missing as soon as its file is removed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.port, "port", "", "Listen port (default API_PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, store, closeRegistry, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()
	slog.Info("Registry loaded", "path", cfg.RegistryPath, "backend", cfg.RegistryBackend, "databases", len(reg.Entries()))

	watcher, err := registry.NewWatcher(reg, registry.DefaultDebounce, func(entries []registry.Entry) {
		slog.Debug("Registry refreshed", "databases", len(entries))
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = watcher.Stop()
	}()

	buildService := service.NewBuildService(reg, newProber(cfg),
		service.WithDefaults(cfg.OutputDir, cfg.DatabaseName),
		service.WithParallelism(cfg.Parallelism),
		service.WithToolToken(cfg.ToolToken),
		service.WithFinishedHook(func(st service.BuildStatus) {
			// New output directories become watchable once a build lands in them
			if err := watcher.Sync(ctx); err != nil {
				slog.Warn("Failed to watch output directory", "build_id", st.ID, "error", err)
			}
		}),
	)

	router := http.NewRouter(&http.Deps{
		BuildService:  buildService,
		RegistryStore: store,
		Registry:      reg,
	})

	port := cfg.APIPort
	if serveFlags.port != "" {
		port = serveFlags.port
	}
	srv := &nethttp.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
