package compdb

import (
	"path/filepath"
	"strings"
	"time"
)

// CompileCommand is one entry of a compilation database.
// File is the identity key: absolute, cleaned, forward slashes.
type CompileCommand struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

// CompilationDatabase holds the commands of one build run plus its metadata.
type CompilationDatabase struct {
	Name              string
	Directory         string    // Output directory
	SourceBuild       string    // Identifier of the originating solution
	LastUpdated       time.Time // Zero value means "never" or "missing"
	IncludedUnits     []string
	ConfigurationName string
	PlatformName      string
	Commands          []CompileCommand
}

// New creates an empty database for the given output location.
func New(name, directory, sourceBuild, configuration, platform string) *CompilationDatabase {
	return &CompilationDatabase{
		Name:              name,
		Directory:         NormalizePath(directory),
		SourceBuild:       sourceBuild,
		ConfigurationName: configuration,
		PlatformName:      platform,
	}
}

// OutputPath returns the path of the JSON file backing the database.
func (db *CompilationDatabase) OutputPath() string {
	return OutputPath(db.Directory, db.Name)
}

// OutputPath joins an output directory and database name into the JSON file path.
func OutputPath(directory, name string) string {
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		name += ".json"
	}
	return filepath.Join(filepath.FromSlash(directory), name)
}

// Equal reports whether two databases hold the same command set.
// Ordering and metadata (including LastUpdated) are ignored.
func Equal(a, b *CompilationDatabase) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Commands) != len(b.Commands) {
		return false
	}
	byFile := make(map[string]CompileCommand, len(b.Commands))
	for _, cmd := range b.Commands {
		byFile[cmd.File] = cmd
	}
	for _, cmd := range a.Commands {
		other, ok := byFile[cmd.File]
		if !ok || other != cmd {
			return false
		}
	}
	return true
}

// DuplicateFiles returns the File values that occur more than once.
func DuplicateFiles(commands []CompileCommand) []string {
	seen := make(map[string]int, len(commands))
	var dups []string
	for _, cmd := range commands {
		seen[cmd.File]++
		if seen[cmd.File] == 2 {
			dups = append(dups, cmd.File)
		}
	}
	return dups
}

// NormalizePath cleans a path and converts it to forward slashes.
// Trailing separators are removed except for a bare root.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
	if len(cleaned) > 1 && strings.HasSuffix(cleaned, "/") && !strings.HasSuffix(cleaned, ":/") {
		cleaned = strings.TrimRight(cleaned, "/")
	}
	return cleaned
}
