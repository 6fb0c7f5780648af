package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"compdb/internal/command"
	"compdb/internal/compdb"
	"compdb/internal/contextutil"
	"compdb/internal/project"
	"compdb/internal/toolchain"
)

// ErrEmptyPath is returned for file items without a path.
var ErrEmptyPath = errors.New("item has no path")

// Result is the output of extracting one unit.
type Result struct {
	Unit       string
	Commands   []compdb.CompileCommand
	HeaderDirs []string // De-duplicated, in discovery order
	Skipped    int      // Items dropped because of an error
	Incomplete bool     // Part of the item tree could not be enumerated
	Compiler   toolchain.CompilerInfo
}

// Extractor turns the file items of a unit into compile commands.
// It is safe for concurrent use by multiple scheduler tasks.
type Extractor struct {
	prober    *toolchain.Prober
	policy    toolchain.StandardPolicy
	toolToken string
	resolver  project.MacroResolver
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStandardPolicy replaces the default language-standard table.
func WithStandardPolicy(policy toolchain.StandardPolicy) Option {
	return func(e *Extractor) { e.policy = policy }
}

// WithToolToken sets the first token of every command. Empty keeps the default.
func WithToolToken(token string) Option {
	return func(e *Extractor) {
		if token != "" {
			e.toolToken = token
		}
	}
}

// WithMacroResolver overrides the resolver each unit provides.
func WithMacroResolver(resolver project.MacroResolver) Option {
	return func(e *Extractor) { e.resolver = resolver }
}

// New creates an Extractor. A nil prober gets a default one.
func New(prober *toolchain.Prober, opts ...Option) *Extractor {
	if prober == nil {
		prober = toolchain.NewProber(nil, "")
	}
	e := &Extractor{
		prober:    prober,
		policy:    toolchain.DefaultStandardPolicy(),
		toolToken: command.DefaultToolToken,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract synthesizes the commands of every source item of unit for cfg.
// Failing items are logged and skipped. Items returned alongside an
// enumeration error are still processed; the unit fails only when none
// could be enumerated.
func (e *Extractor) Extract(ctx context.Context, unit project.Unit, cfg project.Configuration) (*Result, error) {
	ctx = contextutil.WithAttrs(ctx, "unit", unit.Name(), "configuration", cfg.String())
	logger := contextutil.LoggerFromContext(ctx)

	resolve := e.resolver
	if resolve == nil {
		resolve = unit.Macros()
	}
	root := compdb.NormalizePath(unit.RootDir())

	// Compiler version is resolved once per unit
	compiler := e.prober.Probe(ctx, unit, cfg, resolve)

	includeDirs := e.includeDirs(ctx, unit, cfg, root, resolve)
	definitions := e.definitions(ctx, unit, cfg, resolve)

	toolset := unit.ToolsetVersion(cfg)
	standards := map[toolchain.Language]string{
		toolchain.LanguageCPP: e.policy.Standard(toolset, toolchain.LanguageCPP),
		toolchain.LanguageC:   e.policy.Standard(toolset, toolchain.LanguageC),
	}

	res := &Result{Unit: unit.Name(), Compiler: compiler}

	items, err := unit.Items()
	if err != nil {
		if len(items) == 0 {
			return nil, fmt.Errorf("failed to enumerate items of %s: %w", unit.Name(), err)
		}
		logger.WarnContext(ctx, "item enumeration incomplete", "items", len(items), "error", err)
		res.Incomplete = true
	}

	seenHeaders := make(map[string]struct{})

	for _, item := range items {
		out, err := e.item(item, cfg, root, resolve, command.Input{
			ContentType:              item.ContentType,
			Directory:                root,
			ToolToken:                e.toolToken,
			CompatibilityVersionFlag: compiler.CompatibilityFlag(),
			IncludeDirs:              includeDirs,
			Definitions:              definitions,
		}, standards)
		if err != nil {
			logger.WarnContext(ctx, "skipping item", "file", item.Path, "error", err)
			res.Skipped++
			continue
		}

		if out.HasCommand {
			res.Commands = append(res.Commands, out.Command)
		}
		if out.HeaderDir != "" {
			if _, ok := seenHeaders[out.HeaderDir]; !ok {
				seenHeaders[out.HeaderDir] = struct{}{}
				res.HeaderDirs = append(res.HeaderDirs, out.HeaderDir)
			}
		}
	}

	logger.DebugContext(ctx, "unit extracted",
		"commands", len(res.Commands),
		"header_dirs", len(res.HeaderDirs),
		"skipped", res.Skipped,
		"incomplete", res.Incomplete,
		"compiler_version", compiler.Version)

	return res, nil
}

// item synthesizes one file item. A panic anywhere in the item's
// resolution is converted to an error.
func (e *Extractor) item(
	item project.Item,
	cfg project.Configuration,
	root string,
	resolve project.MacroResolver,
	in command.Input,
	standards map[toolchain.Language]string,
) (res command.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing item: %v", r)
		}
	}()

	if strings.TrimSpace(item.Path) == "" {
		return command.Result{}, ErrEmptyPath
	}

	file := item.Path
	if !isAbs(file) {
		file = filepath.Join(root, file)
	}
	in.File = compdb.NormalizePath(file)

	options := item.AdditionalOptions
	if resolve != nil && strings.Contains(options, "$(") {
		options, err = resolve(options, cfg)
		if err != nil {
			return command.Result{}, fmt.Errorf("failed to resolve additional options: %w", err)
		}
	}
	in.AdditionalOptions = options
	in.Standard = standards[toolchain.LanguageFor(in.File)]

	return command.Synthesize(in), nil
}

// includeDirs resolves the include directories of unit. Directories are
// macro-expanded, made absolute against root and kept only if they exist.
func (e *Extractor) includeDirs(ctx context.Context, unit project.Unit, cfg project.Configuration, root string, resolve project.MacroResolver) []string {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := unit.IncludeDirectories(cfg)
	if err != nil {
		logger.WarnContext(ctx, "failed to get include directories", "error", err)
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	var dirs []string
	for _, entry := range splitList(raw) {
		dir := entry
		if resolve != nil && strings.Contains(dir, "$(") {
			resolved, err := resolve(dir, cfg)
			if err != nil {
				logger.DebugContext(ctx, "skipping include directory", "dir", entry, "error", err)
				continue
			}
			dir = resolved
		}

		// A resolved macro may expand to a list itself
		for _, d := range splitList([]string{dir}) {
			if !isAbs(d) {
				d = filepath.Join(root, d)
			}
			d = compdb.NormalizePath(d)
			if _, dup := seen[d]; dup {
				continue
			}
			if info, err := os.Stat(d); err != nil || !info.IsDir() {
				logger.DebugContext(ctx, "skipping missing include directory", "dir", d)
				continue
			}
			seen[d] = struct{}{}
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// definitions resolves the preprocessor definitions of unit.
func (e *Extractor) definitions(ctx context.Context, unit project.Unit, cfg project.Configuration, resolve project.MacroResolver) []string {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := unit.PreprocessorDefinitions(cfg)
	if err != nil {
		logger.WarnContext(ctx, "failed to get preprocessor definitions", "error", err)
		return nil
	}

	defs := make([]string, 0, len(raw))
	for _, def := range splitList(raw) {
		if resolve != nil && strings.Contains(def, "$(") {
			resolved, err := resolve(def, cfg)
			if err != nil {
				logger.DebugContext(ctx, "keeping unresolved definition", "definition", def, "error", err)
			} else {
				def = resolved
			}
		}
		defs = append(defs, def)
	}
	return command.NormalizeDefinitions(defs)
}

// splitList flattens ';' separated build-system lists and drops
// inheritance markers such as %(AdditionalIncludeDirectories).
func splitList(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ";") {
			part = strings.TrimSpace(part)
			if part == "" || strings.HasPrefix(part, "%(") {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

// isAbs accepts both native and drive-letter paths.
func isAbs(p string) bool {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && (p[2] == '/' || p[2] == '\\')
}
