package toolchain

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"compdb/internal/contextutil"
	"compdb/internal/project"
)

// DefaultCompilerVersion is used when no compiler binary can be found.
const DefaultCompilerVersion = "19.00"

// CompatibilityFlagPrefix precedes the compiler version in the command.
const CompatibilityFlagPrefix = "-fms-compatibility-version="

// CompilerInfo is the result of probing a unit's compiler.
type CompilerInfo struct {
	BinaryPath string // Empty when the binary was not found
	Version    string // Compiler version, or the fallback
	Fallback   bool   // True when Version is the fallback
}

// CompatibilityFlag renders the version-dependent compatibility flag.
func (c CompilerInfo) CompatibilityFlag() string {
	return CompatibilityFlagPrefix + c.Version
}

// Prober locates compiler binaries and reads their versions. Results are
// cached per (binary, search directories) for the lifetime of the Prober and
// concurrent probes of the same key share one lookup.
type Prober struct {
	reader          VersionReader
	fallbackVersion string

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]CompilerInfo
}

// NewProber creates a Prober. An empty fallbackVersion selects DefaultCompilerVersion.
func NewProber(reader VersionReader, fallbackVersion string) *Prober {
	if reader == nil {
		reader = DefaultVersionReader()
	}
	if v := CompatibilityVersion(fallbackVersion); v != "" {
		fallbackVersion = v
	} else {
		fallbackVersion = DefaultCompilerVersion
	}
	return &Prober{
		reader:          reader,
		fallbackVersion: fallbackVersion,
		cache:           make(map[string]CompilerInfo),
	}
}

// Probe resolves the compiler of unit for cfg. It never fails: every problem
// is logged and answered with the fallback version.
func (p *Prober) Probe(ctx context.Context, unit project.Unit, cfg project.Configuration, resolve project.MacroResolver) CompilerInfo {
	logger := contextutil.LoggerFromContext(ctx)
	binary := unit.CompilerBinary()

	rawDirs, err := unit.ToolSearchDirectories(cfg)
	if err != nil {
		logger.WarnContext(ctx, "failed to get tool search directories", "unit", unit.Name(), "error", err)
	}

	var dirs []string
	for _, raw := range rawDirs {
		dir := raw
		if resolve != nil && strings.Contains(raw, "$(") {
			resolved, err := resolve(raw, cfg)
			if err != nil {
				logger.DebugContext(ctx, "skipping tool search directory", "unit", unit.Name(), "dir", raw, "error", err)
				continue
			}
			dir = resolved
		}
		// MSBuild executable paths are ';' separated.
		for _, d := range strings.Split(dir, ";") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
	}

	key := binary + "|" + strings.Join(dirs, "|")
	p.mu.RLock()
	info, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return info
	}

	v, _, _ := p.group.Do(key, func() (any, error) {
		p.mu.RLock()
		cached, ok := p.cache[key]
		p.mu.RUnlock()
		if ok {
			return cached, nil
		}
		// Cached for every later unit, so detached from the caller's cancellation
		info := p.lookup(context.WithoutCancel(ctx), binary, dirs)
		p.mu.Lock()
		p.cache[key] = info
		p.mu.Unlock()
		return info, nil
	})
	info = v.(CompilerInfo)

	if info.Fallback {
		logger.InfoContext(ctx, "using fallback compiler version", "unit", unit.Name(), "binary", binary, "version", info.Version)
	}
	return info
}

func (p *Prober) lookup(ctx context.Context, binary string, dirs []string) CompilerInfo {
	logger := contextutil.LoggerFromContext(ctx)
	if binary == "" {
		return CompilerInfo{Version: p.fallbackVersion, Fallback: true}
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, binary)
		if !exists(candidate) {
			continue
		}
		version, err := p.reader.ReadVersion(ctx, candidate)
		if err != nil {
			logger.WarnContext(ctx, "failed to read compiler version", "binary", candidate, "error", err)
			return CompilerInfo{BinaryPath: candidate, Version: p.fallbackVersion, Fallback: true}
		}
		compat := CompatibilityVersion(version)
		if compat == "" {
			logger.WarnContext(ctx, "unrecognized compiler version", "binary", candidate, "version", version)
			return CompilerInfo{BinaryPath: candidate, Version: p.fallbackVersion, Fallback: true}
		}
		return CompilerInfo{BinaryPath: candidate, Version: compat}
	}
	return CompilerInfo{Version: p.fallbackVersion, Fallback: true}
}
