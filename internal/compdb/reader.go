package compdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// trailingComma matches a comma that directly precedes the closing bracket.
// Older writers appended ",\n" after every element.
var trailingComma = regexp.MustCompile(`,\s*\]\s*$`)

// ReadFile parses a compilation database file into its commands.
func ReadFile(path string) ([]CompileCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compilation database %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes the JSON array form of a compilation database.
func Parse(data []byte) ([]CompileCommand, error) {
	var commands []CompileCommand
	if err := json.Unmarshal(data, &commands); err == nil {
		return commands, nil
	}

	trimmed := bytes.TrimSpace(data)
	if loc := trailingComma.FindIndex(trimmed); loc != nil {
		fixed := append(append([]byte{}, trimmed[:loc[0]]...), ']')
		if err := json.Unmarshal(fixed, &commands); err == nil {
			return commands, nil
		}
	}

	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, fmt.Errorf("failed to parse compilation database: %w", err)
	}
	return commands, nil
}

// Load reads the database file of db and replaces its commands.
func (db *CompilationDatabase) Load() error {
	commands, err := ReadFile(db.OutputPath())
	if err != nil {
		return err
	}
	if dups := DuplicateFiles(commands); len(dups) > 0 {
		return fmt.Errorf("compilation database %s has %d duplicate files (first: %s)", db.OutputPath(), len(dups), dups[0])
	}
	db.Commands = commands
	return nil
}
