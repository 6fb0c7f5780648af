package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"compdb/internal/compdb"
)

var (
	// ErrInvalidSolution is returned when a build description fails validation.
	ErrInvalidSolution = errors.New("invalid solution")
	// ErrConfigurationNotFound is returned when a unit has no such configuration/platform pair.
	ErrConfigurationNotFound = errors.New("configuration not found")
)

// solutionFile is the YAML build description.
type solutionFile struct {
	Name   string            `yaml:"name" validate:"required"`
	Macros map[string]string `yaml:"macros"`
	Units  []unitSpec        `yaml:"units" validate:"required,min=1,dive"`
}

type unitSpec struct {
	Name           string            `yaml:"name" validate:"required"`
	Root           string            `yaml:"root"`
	Compiler       string            `yaml:"compiler"`
	Toolset        string            `yaml:"toolset"`
	ToolSearchDirs []string          `yaml:"tool_search_dirs"`
	Macros         map[string]string `yaml:"macros"`
	Configurations []configSpec      `yaml:"configurations" validate:"required,min=1,dive"`
	Items          []itemSpec        `yaml:"items" validate:"dive"`
	Groups         []groupSpec       `yaml:"groups" validate:"dive"`
}

type configSpec struct {
	Name           string            `yaml:"name" validate:"required"`
	Platform       string            `yaml:"platform" validate:"required"`
	Toolset        string            `yaml:"toolset"`
	IncludeDirs    []string          `yaml:"include_dirs"`
	Definitions    []string          `yaml:"definitions"`
	ToolSearchDirs []string          `yaml:"tool_search_dirs"`
	Macros         map[string]string `yaml:"macros"`
}

type itemSpec struct {
	Path    string `yaml:"path" validate:"required"`
	Type    string `yaml:"type"`
	Options string `yaml:"options"`
}

type groupSpec struct {
	Name   string      `yaml:"name"`
	Items  []itemSpec  `yaml:"items" validate:"dive"`
	Groups []groupSpec `yaml:"groups" validate:"dive"`
	Scan   *scanSpec   `yaml:"scan"`
}

type scanSpec struct {
	Dir        string   `yaml:"dir" validate:"required"`
	Extensions []string `yaml:"extensions"`
	Type       string   `yaml:"type"`
}

// LoadSolution reads a YAML build description and returns its units.
func LoadSolution(path string) (*Solution, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve solution path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read solution %s: %w", absPath, err)
	}

	var file solutionFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidSolution, absPath, err)
	}

	if err := validateSolution(&file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSolution, absPath, err)
	}

	solutionDir := filepath.Dir(absPath)
	sol := &Solution{
		ID:   compdb.NormalizePath(absPath),
		Name: file.Name,
	}
	for i := range file.Units {
		spec := file.Units[i]
		root := spec.Root
		if root == "" {
			root = "."
		}
		if !filepath.IsAbs(root) {
			root = filepath.Join(solutionDir, root)
		}
		sol.Units = append(sol.Units, &yamlUnit{
			spec:        spec,
			root:        compdb.NormalizePath(root),
			solutionDir: compdb.NormalizePath(solutionDir),
			solution:    &file,
		})
	}
	return sol, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateSolution(file *solutionFile) error {
	if err := validate.Struct(file); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	seen := make(map[string]struct{}, len(file.Units))
	for _, u := range file.Units {
		if _, dup := seen[u.Name]; dup {
			return fmt.Errorf("duplicate unit name %q", u.Name)
		}
		seen[u.Name] = struct{}{}
	}
	return nil
}

// yamlUnit implements Unit over a YAML unit description.
type yamlUnit struct {
	spec        unitSpec
	root        string
	solutionDir string
	solution    *solutionFile
}

func (u *yamlUnit) Name() string    { return u.spec.Name }
func (u *yamlUnit) RootDir() string { return u.root }

func (u *yamlUnit) CompilerBinary() string {
	if u.spec.Compiler == "" {
		return "cl.exe"
	}
	return u.spec.Compiler
}

func (u *yamlUnit) config(cfg Configuration) (*configSpec, error) {
	for i := range u.spec.Configurations {
		c := &u.spec.Configurations[i]
		if strings.EqualFold(c.Name, cfg.Name) && strings.EqualFold(c.Platform, cfg.Platform) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: unit %s has no %s", ErrConfigurationNotFound, u.spec.Name, cfg)
}

func (u *yamlUnit) IncludeDirectories(cfg Configuration) ([]string, error) {
	c, err := u.config(cfg)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.IncludeDirs...), nil
}

func (u *yamlUnit) PreprocessorDefinitions(cfg Configuration) ([]string, error) {
	c, err := u.config(cfg)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Definitions...), nil
}

func (u *yamlUnit) ToolSearchDirectories(cfg Configuration) ([]string, error) {
	c, err := u.config(cfg)
	if err != nil {
		return nil, err
	}
	if len(c.ToolSearchDirs) > 0 {
		return append([]string(nil), c.ToolSearchDirs...), nil
	}
	return append([]string(nil), u.spec.ToolSearchDirs...), nil
}

func (u *yamlUnit) ToolsetVersion(cfg Configuration) string {
	if c, err := u.config(cfg); err == nil && c.Toolset != "" {
		return c.Toolset
	}
	return u.spec.Toolset
}

// Items returns every item of the unit, nested groups included. A group
// that cannot be enumerated does not stop the others: the items found are
// returned together with the joined errors.
func (u *yamlUnit) Items() ([]Item, error) {
	var items []Item
	for _, it := range u.spec.Items {
		items = append(items, u.item(it))
	}
	var errs []error
	for _, g := range u.spec.Groups {
		groupItems, err := u.groupItems(g)
		items = append(items, groupItems...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return items, errors.Join(errs...)
}

func (u *yamlUnit) groupItems(g groupSpec) ([]Item, error) {
	var items []Item
	for _, it := range g.Items {
		items = append(items, u.item(it))
	}
	var errs []error
	if g.Scan != nil {
		dir := g.Scan.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.FromSlash(u.root), dir)
		}
		scanned, err := ScanDir(dir, g.Scan.Extensions)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to scan group %s of unit %s: %w", g.Name, u.spec.Name, err))
		}
		for _, path := range scanned {
			items = append(items, Item{Path: path, ContentType: g.Scan.Type})
		}
	}
	for _, child := range g.Groups {
		childItems, err := u.groupItems(child)
		items = append(items, childItems...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return items, errors.Join(errs...)
}

func (u *yamlUnit) item(it itemSpec) Item {
	p := it.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.FromSlash(u.root), p)
	}
	return Item{
		Path:              compdb.NormalizePath(p),
		ContentType:       it.Type,
		AdditionalOptions: it.Options,
	}
}

// Macros resolves MSBuild-style macros. Lookup order: built-ins,
// configuration, unit, solution, environment.
func (u *yamlUnit) Macros() MacroResolver {
	return func(raw string, cfg Configuration) (string, error) {
		builtins := map[string]string{
			"SolutionDir":   u.solutionDir + "/",
			"SolutionName":  u.solution.Name,
			"ProjectDir":    u.root + "/",
			"ProjectName":   u.spec.Name,
			"Configuration": cfg.Name,
			"Platform":      cfg.Platform,
		}
		var cfgMacros map[string]string
		if c, err := u.config(cfg); err == nil {
			cfgMacros = c.Macros
		}
		return ExpandMacros(raw, EnvLookup(builtins, cfgMacros, u.spec.Macros, u.solution.Macros))
	}
}
