package command

import (
	"path"
	"strings"

	"compdb/internal/compdb"
)

// DefaultToolToken is the first token of every synthesized command.
const DefaultToolToken = "clang-tool"

// CompatibilityFlags are emitted right after the tool token.
var CompatibilityFlags = []string{"-fms-extensions", "-fms-compatibility"}

// Input is everything needed to synthesize the command of one file item.
// Include directories and definitions are expected resolved and de-duplicated.
type Input struct {
	File                     string // Absolute source path
	ContentType              string // Build-system item type hint
	Directory                string // Working directory of the command
	ToolToken                string // Empty selects DefaultToolToken
	CompatibilityVersionFlag string // e.g. -fms-compatibility-version=19.29
	IncludeDirs              []string
	Definitions              []string
	Standard                 string // Language-standard flag, may be empty
	AdditionalOptions        string // Per-file options, may carry its own standard flag
}

// Result is the output of Synthesize. A source yields Command; a header
// yields only HeaderDir.
type Result struct {
	Kind       Kind
	Command    compdb.CompileCommand
	HasCommand bool
	HeaderDir  string
}

// Synthesize builds the compile command for one file item. It has no side
// effects and is safe for concurrent use.
func Synthesize(in Input) Result {
	file := compdb.NormalizePath(in.File)
	kind := Classify(file, in.ContentType)

	switch kind {
	case KindHeader:
		return Result{Kind: kind, HeaderDir: path.Dir(file)}
	case KindOther:
		return Result{Kind: kind}
	}

	tool := in.ToolToken
	if tool == "" {
		tool = DefaultToolToken
	}

	parts := make([]string, 0, 4+len(CompatibilityFlags)+2*len(in.IncludeDirs)+len(in.Definitions))
	parts = append(parts, tool)
	parts = append(parts, CompatibilityFlags...)
	if in.CompatibilityVersionFlag != "" {
		parts = append(parts, in.CompatibilityVersionFlag)
	}
	for _, dir := range in.IncludeDirs {
		parts = append(parts, "-isystem", Quote(compdb.NormalizePath(dir)))
	}
	for _, def := range in.Definitions {
		parts = append(parts, DefinitionFlag(def))
	}
	options := strings.TrimSpace(in.AdditionalOptions)
	if in.Standard != "" && !HasStandardFlag(options) {
		parts = append(parts, in.Standard)
	}
	if options != "" {
		parts = append(parts, options)
	}
	parts = append(parts, Quote(file))

	return Result{
		Kind: kind,
		Command: compdb.CompileCommand{
			Directory: compdb.NormalizePath(in.Directory),
			Command:   strings.Join(parts, " "),
			File:      file,
		},
		HasCommand: true,
	}
}

// HasStandardFlag reports whether options already select a language standard.
func HasStandardFlag(options string) bool {
	for _, tok := range strings.Fields(options) {
		tok = strings.Trim(tok, `"`)
		if strings.HasPrefix(tok, "-std=") || strings.HasPrefix(tok, "/std:") || strings.HasPrefix(tok, "-std:") {
			return true
		}
	}
	return false
}

// DefinitionFlag renders one preprocessor definition.
func DefinitionFlag(def string) string {
	if needsQuoting(def) {
		return "-D" + Quote(def)
	}
	return "-D" + def
}

// Quote wraps s in double quotes, escaping backslashes and quotes.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\"'\\&|<>()^;")
}

// NormalizeDefinitions trims and de-duplicates definitions, replaces
// escaped quotes with plain quotes and drops inheritance markers such as
// %(PreprocessorDefinitions). First occurrence order is kept.
func NormalizeDefinitions(defs []string) []string {
	seen := make(map[string]struct{}, len(defs))
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		d = strings.TrimSpace(strings.ReplaceAll(d, `\"`, `"`))
		if d == "" || strings.HasPrefix(d, "%(") {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
