package project

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var macroPattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_.]*)\)`)

// UnresolvedMacroError reports macros that had no value.
type UnresolvedMacroError struct {
	Raw    string
	Macros []string
}

func (e *UnresolvedMacroError) Error() string {
	return fmt.Sprintf("unresolved macros %s in %q", strings.Join(e.Macros, ", "), e.Raw)
}

// ExpandMacros replaces every $(Name) in raw using lookup.
// Macro values are expanded recursively up to a fixed depth.
func ExpandMacros(raw string, lookup func(name string) (string, bool)) (string, error) {
	const maxDepth = 8

	out := raw
	for depth := 0; depth < maxDepth && strings.Contains(out, "$("); depth++ {
		var missing []string
		next := macroPattern.ReplaceAllStringFunc(out, func(m string) string {
			name := macroPattern.FindStringSubmatch(m)[1]
			if v, ok := lookup(name); ok {
				return v
			}
			missing = append(missing, name)
			return m
		})
		if len(missing) > 0 {
			return "", &UnresolvedMacroError{Raw: raw, Macros: missing}
		}
		if next == out {
			break
		}
		out = next
	}
	return out, nil
}

// EnvLookup chains lookups, falling back to the process environment.
func EnvLookup(maps ...map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		for _, m := range maps {
			if v, ok := m[name]; ok {
				return v, true
			}
		}
		return os.LookupEnv(name)
	}
}
