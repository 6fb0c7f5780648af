package project

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_unit.go -package=mocks compdb/internal/project Unit

// Configuration selects one configuration/platform pair of a build.
type Configuration struct {
	Name     string // e.g. "Release"
	Platform string // e.g. "x64"
}

// String returns the "Name|Platform" form used in logs and registry keys.
func (c Configuration) String() string {
	return c.Name + "|" + c.Platform
}

// Item is one file item of a build unit.
type Item struct {
	Path              string // Canonical absolute path
	ContentType       string // Build-system item type, e.g. "ClCompile" or "ClInclude"
	AdditionalOptions string // Per-file extra compiler options, may be empty
}

// MacroResolver expands build-system macros such as $(ProjectDir) in raw
// for the given configuration.
type MacroResolver func(raw string, cfg Configuration) (string, error)

// Unit is the host build model of one compilable project.
type Unit interface {
	// Name returns the unit name.
	Name() string
	// RootDir returns the absolute directory of the unit.
	RootDir() string
	// IncludeDirectories returns raw include directories, before macro resolution.
	IncludeDirectories(cfg Configuration) ([]string, error)
	// PreprocessorDefinitions returns raw preprocessor definitions.
	PreprocessorDefinitions(cfg Configuration) ([]string, error)
	// ToolSearchDirectories returns the raw directories searched for the compiler.
	ToolSearchDirectories(cfg Configuration) ([]string, error)
	// CompilerBinary returns the file name of the compiler executable.
	CompilerBinary() string
	// ToolsetVersion returns the toolset version, e.g. "14.2". Empty if unknown.
	ToolsetVersion(cfg Configuration) string
	// Items returns every file item of the unit, nested groups included.
	// On error the items that could be enumerated are still returned.
	Items() ([]Item, error)
	// Macros returns the resolver used for the unit's raw strings.
	Macros() MacroResolver
}

// Solution is a named set of units: the build description a database is built from.
type Solution struct {
	// ID identifies the build description, usually its absolute path.
	ID    string
	Name  string
	Units []Unit
}

// Select returns the units whose names are listed. An empty list selects all.
func (s *Solution) Select(names []string) []Unit {
	if len(names) == 0 {
		return s.Units
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var units []Unit
	for _, u := range s.Units {
		if _, ok := wanted[u.Name()]; ok {
			units = append(units, u)
		}
	}
	return units
}
