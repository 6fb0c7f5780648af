package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"COMPDB_PARALLELISM", "COMPDB_REGISTRY_PATH", "COMPDB_REGISTRY_BACKEND",
	"COMPDB_OUTPUT_DIR", "COMPDB_DATABASE_NAME", "COMPDB_TOOL_TOKEN",
	"COMPDB_DEFAULT_COMPILER_VERSION", "COMPDB_SOLUTION",
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// isolateEnv clears every key Load reads and restores them when the test ends.
func isolateEnv(t *testing.T) {
	t.Helper()
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	t.Cleanup(func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "default values for optional fields",
			setupEnv: func(t *testing.T) {},
			wantErr:  false,
			checkConfig: func(cfg *Config) bool {
				return cfg.Parallelism == runtime.NumCPU() &&
					cfg.RegistryBackend == BackendJSON &&
					cfg.RegistryPath == "./data/compdb-registry.json" &&
					cfg.OutputDir == "." &&
					cfg.DatabaseName == "compile_commands" &&
					cfg.ToolToken == "clang-tool" &&
					cfg.DefaultCompilerVersion == "19.00" &&
					cfg.Solution == "" &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text"
			},
		},
		{
			name: "sqlite backend has its own default path",
			setupEnv: func(t *testing.T) {
				setEnv("COMPDB_REGISTRY_BACKEND", "SQLite")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.RegistryBackend == BackendSQLite &&
					cfg.RegistryPath == "./data/compdb-registry.db"
			},
		},
		{
			name: "custom optional values",
			setupEnv: func(t *testing.T) {
				setEnv("COMPDB_PARALLELISM", "3")
				setEnv("COMPDB_REGISTRY_PATH", filepath.Join(t.TempDir(), "custom", "registry.json"))
				setEnv("COMPDB_DATABASE_NAME", "db")
				setEnv("COMPDB_TOOL_TOKEN", "clangd-tool")
				setEnv("COMPDB_SOLUTION", "app.yaml")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.Parallelism == 3 &&
					filepath.Base(cfg.RegistryPath) == "registry.json" && // Path will vary with temp dir
					cfg.DatabaseName == "db" &&
					cfg.ToolToken == "clangd-tool" &&
					cfg.Solution == "app.yaml" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json"
			},
		},
		{
			name: "invalid COMPDB_PARALLELISM",
			setupEnv: func(t *testing.T) {
				setEnv("COMPDB_PARALLELISM", "invalid")
			},
			wantErr: true,
		},
		{
			name: "zero COMPDB_PARALLELISM",
			setupEnv: func(t *testing.T) {
				setEnv("COMPDB_PARALLELISM", "0")
			},
			wantErr: true,
		},
		{
			name: "negative COMPDB_PARALLELISM",
			setupEnv: func(t *testing.T) {
				setEnv("COMPDB_PARALLELISM", "-1")
			},
			wantErr: true,
		},
		{
			name: "unknown registry backend",
			setupEnv: func(t *testing.T) {
				setEnv("COMPDB_REGISTRY_BACKEND", "postgres")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Change to a temp directory without .env file to avoid loading it
			t.Chdir(t.TempDir())
			isolateEnv(t)

			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesRegistryDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	isolateEnv(t)

	registryPath := filepath.Join(t.TempDir(), "test", "registry.json")
	setEnv("COMPDB_REGISTRY_PATH", registryPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check that directory was created
	dir := filepath.Dir(registryPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Load() should create registry directory: %v", err)
	}

	if cfg.RegistryPath != registryPath {
		t.Errorf("Load() RegistryPath = %v, want %v", cfg.RegistryPath, registryPath)
	}
}

func TestLoad_ReadsDotEnvFromParent(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(child, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("COMPDB_DATABASE_NAME=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(child)
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabaseName != "from-dotenv" {
		t.Errorf("Load() DatabaseName = %q, want %q", cfg.DatabaseName, "from-dotenv")
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}
