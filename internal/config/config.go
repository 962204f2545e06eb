// Package config provides the typed model of a mason project.yaml,
// strict decoding, eager validation, and the environment-variable
// overlay that produces the effective configuration used everywhere
// else.
//
// The document shape:
//
//	project:  {name, language: c|c++, standard}
//	compiler: {path, flags: [], defines: []}
//	source_groups:
//	  - {name, source_dirs: [], include_dirs: [], flags: [], defines: []}
//	dependencies: {external_includes: []}
//	build:
//	  output: a.out
//	  linker: {flags: []}
//	  modes:
//	    <name>: {output_dir, output_name, source_groups: [...],
//	             extra_flags: [], linker_flags: []}
//
// All list fields are normalized to empty non-nil slices so callers may
// iterate them without nil checks. Flag, define, and include ordering is
// preserved exactly as declared; nothing is reordered or deduplicated.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/masonbuild/mason/internal/errors"
)

// Config is the typed in-memory representation of a project.yaml.
// Immutable after Load.
type Config struct {
	Project      ProjectConfig  `yaml:"project"`
	Compiler     CompilerConfig `yaml:"compiler"`
	SourceGroups []SourceGroup  `yaml:"source_groups"`
	Dependencies Dependencies   `yaml:"dependencies"`
	Build        BuildConfig    `yaml:"build"`
}

type ProjectConfig struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	Standard string `yaml:"standard"`
}

type CompilerConfig struct {
	Path    string   `yaml:"path"`
	Flags   []string `yaml:"flags"`
	Defines []string `yaml:"defines"`
}

// SourceGroup is a named partition of source files sharing include
// paths, flags, and defines. Identity is the name.
type SourceGroup struct {
	Name        string   `yaml:"name"`
	SourceDirs  []string `yaml:"source_dirs"`
	IncludeDirs []string `yaml:"include_dirs"`
	Flags       []string `yaml:"flags"`
	Defines     []string `yaml:"defines"`
}

type Dependencies struct {
	ExternalIncludes []string `yaml:"external_includes"`
}

type BuildConfig struct {
	Output string               `yaml:"output"`
	Linker LinkerConfig         `yaml:"linker"`
	Modes  map[string]BuildMode `yaml:"modes"`
}

type LinkerConfig struct {
	Flags []string `yaml:"flags"`
}

// BuildMode is a named build profile selecting which source groups to
// compile and with what extra flags.
type BuildMode struct {
	OutputDir    string   `yaml:"output_dir"`
	OutputName   string   `yaml:"output_name"`
	SourceGroups []string `yaml:"source_groups"`
	ExtraFlags   []string `yaml:"extra_flags"`
	LinkerFlags  []string `yaml:"linker_flags"`
}

// IsCPP reports whether the project language is C++. The original tool
// accepted "cpp" and "cxx" as aliases and they are kept for
// compatibility.
func (p ProjectConfig) IsCPP() bool {
	switch p.Language {
	case "c++", "cpp", "cxx":
		return true
	default:
		return false
	}
}

// SourceExtensions returns the file extensions compiled for the project
// language.
func (p ProjectConfig) SourceExtensions() []string {
	if p.IsCPP() {
		return []string{".c", ".cc", ".cpp", ".cxx"}
	}

	return []string{".c"}
}

// Group returns the declared source group with the given name.
func (c *Config) Group(name string) (SourceGroup, bool) {
	for _, g := range c.SourceGroups {
		if g.Name == name {
			return g, true
		}
	}

	return SourceGroup{}, false
}

// GroupNames returns the declared group names in declaration order.
func (c *Config) GroupNames() []string {
	names := make([]string, 0, len(c.SourceGroups))
	for _, g := range c.SourceGroups {
		names = append(names, g.Name)
	}

	return names
}

// ModeNames returns the declared mode names, sorted for deterministic
// iteration (the modes section is a mapping).
func (c *Config) ModeNames() []string {
	names := make([]string, 0, len(c.Build.Modes))
	for name := range c.Build.Modes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Mode returns the named build mode with its optional fields resolved:
// output_dir defaults to build/<name> and output_name falls back to the
// global output name.
func (c *Config) Mode(name string) (BuildMode, error) {
	mode, ok := c.Build.Modes[name]
	if !ok {
		return BuildMode{}, errors.ConfigErrorf(errors.ErrCodeUnknownMode,
			"build.modes."+name, "mode %q is not defined", name)
	}

	if mode.OutputDir == "" {
		mode.OutputDir = "build/" + name
	}
	if mode.OutputName == "" {
		mode.OutputName = c.Build.Output
	}

	return mode, nil
}

// Load reads, decodes, defaults, and validates a project.yaml. Every
// required field that is absent fails with a configuration error naming
// the offending path; no partial configuration is ever returned.
func Load(fs afero.Fs, path string) (*Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed,
			fmt.Sprintf("cannot open configuration file %q", path))
	}
	defer f.Close()

	var cfg Config

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.ConfigErrorf(errors.ErrCodeInvalidValue, "",
			"invalid YAML in %q: %v", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills documented defaults and normalizes every list
// field to a non-nil slice.
func (c *Config) applyDefaults() {
	if c.Compiler.Path == "" {
		if c.Project.IsCPP() {
			c.Compiler.Path = "g++"
		} else {
			c.Compiler.Path = "gcc"
		}
	}
	if c.Build.Output == "" {
		c.Build.Output = "a.out"
	}

	c.Compiler.Flags = nonNil(c.Compiler.Flags)
	c.Compiler.Defines = nonNil(c.Compiler.Defines)
	c.Dependencies.ExternalIncludes = nonNil(c.Dependencies.ExternalIncludes)
	c.Build.Linker.Flags = nonNil(c.Build.Linker.Flags)

	for i := range c.SourceGroups {
		g := &c.SourceGroups[i]
		g.SourceDirs = nonNil(g.SourceDirs)
		g.IncludeDirs = nonNil(g.IncludeDirs)
		g.Flags = nonNil(g.Flags)
		g.Defines = nonNil(g.Defines)
	}

	for name, mode := range c.Build.Modes {
		mode.SourceGroups = nonNil(mode.SourceGroups)
		mode.ExtraFlags = nonNil(mode.ExtraFlags)
		mode.LinkerFlags = nonNil(mode.LinkerFlags)
		c.Build.Modes[name] = mode
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

// DottedPath joins config path segments for error reporting.
func DottedPath(segments ...string) string {
	return strings.Join(segments, ".")
}
