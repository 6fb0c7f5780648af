package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Registry backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Parallelism            int
	RegistryPath           string
	RegistryBackend        string
	OutputDir              string
	DatabaseName           string
	ToolToken              string
	DefaultCompilerVersion string
	Solution               string
	APIPort                string
	LogLevel               slog.Level
	LogFormat              string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	backend := strings.ToLower(getEnv("COMPDB_REGISTRY_BACKEND", BackendJSON))
	cfg := &Config{
		RegistryBackend:        backend,
		RegistryPath:           getEnv("COMPDB_REGISTRY_PATH", defaultRegistryPath(backend)),
		OutputDir:              getEnv("COMPDB_OUTPUT_DIR", "."),
		DatabaseName:           getEnv("COMPDB_DATABASE_NAME", "compile_commands"),
		ToolToken:              getEnv("COMPDB_TOOL_TOKEN", "clang-tool"),
		DefaultCompilerVersion: getEnv("COMPDB_DEFAULT_COMPILER_VERSION", "19.00"),
		Solution:               getEnv("COMPDB_SOLUTION", ""),
		APIPort:                getEnv("API_PORT", "9000"),
		LogFormat:              strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.RegistryBackend {
	case BackendJSON, BackendSQLite:
	default:
		return nil, fmt.Errorf("COMPDB_REGISTRY_BACKEND must be %q or %q, got %q", BackendJSON, BackendSQLite, cfg.RegistryBackend)
	}

	parallelism := runtime.NumCPU()
	if raw := getEnv("COMPDB_PARALLELISM", ""); raw != "" {
		parallelism, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("COMPDB_PARALLELISM must be a valid integer: %w", err)
		}
		if parallelism <= 0 {
			return nil, fmt.Errorf("COMPDB_PARALLELISM must be greater than 0")
		}
	}
	cfg.Parallelism = parallelism

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	// Create the registry directory if it doesn't exist
	registryDir := filepath.Dir(cfg.RegistryPath)
	if err := os.MkdirAll(registryDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	return cfg, nil
}

func defaultRegistryPath(backend string) string {
	if backend == BackendSQLite {
		return "./data/compdb-registry.db"
	}
	return "./data/compdb-registry.json"
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
