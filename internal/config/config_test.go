package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/errors"
)

const validYAML = `
project:
  name: demo
  language: c
  standard: c11
compiler:
  flags: ["-Wall", "-Wextra"]
  defines: ["NDEBUG"]
source_groups:
  - name: core
    source_dirs: ["src"]
    include_dirs: ["include"]
  - name: tools
    source_dirs: ["tools"]
    flags: ["-O1"]
dependencies:
  external_includes: ["vendor/include"]
build:
  output: demo
  linker:
    flags: ["-lm"]
  modes:
    debug:
      output_dir: build/debug
      source_groups: [core]
      extra_flags: ["-g", "-O0"]
    release:
      source_groups: [core, tools]
      extra_flags: ["-O2"]
      linker_flags: ["-s"]
`

func writeConfig(t *testing.T, fs afero.Fs, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "project.yaml", []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, validYAML)

	cfg, err := Load(fs, "project.yaml")
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, "c11", cfg.Project.Standard)
	assert.Equal(t, "gcc", cfg.Compiler.Path, "compiler defaults to gcc for C")
	assert.Equal(t, []string{"-Wall", "-Wextra"}, cfg.Compiler.Flags)
	assert.Equal(t, []string{"core", "tools"}, cfg.GroupNames())
	assert.Equal(t, []string{"debug", "release"}, cfg.ModeNames())
}

func TestLoadDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, `
project:
  name: minimal
  language: c++
  standard: c++17
source_groups:
  - name: main
    source_dirs: ["src"]
`)

	cfg, err := Load(fs, "project.yaml")
	require.NoError(t, err)

	assert.Equal(t, "g++", cfg.Compiler.Path, "compiler defaults to g++ for C++")
	assert.Equal(t, "a.out", cfg.Build.Output)

	// Every list field must come back as an empty non-nil slice so
	// callers can iterate without nil checks.
	assert.NotNil(t, cfg.Compiler.Flags)
	assert.NotNil(t, cfg.Compiler.Defines)
	assert.NotNil(t, cfg.Dependencies.ExternalIncludes)
	assert.NotNil(t, cfg.Build.Linker.Flags)
	assert.NotNil(t, cfg.SourceGroups[0].IncludeDirs)
	assert.NotNil(t, cfg.SourceGroups[0].Flags)
	assert.NotNil(t, cfg.SourceGroups[0].Defines)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{
			name: "missing project name",
			yaml: `
project:
  language: c
  standard: c11
source_groups:
  - name: main
`,
			path: "project.name",
		},
		{
			name: "missing language",
			yaml: `
project:
  name: demo
  standard: c11
source_groups:
  - name: main
`,
			path: "project.language",
		},
		{
			name: "unsupported language",
			yaml: `
project:
  name: demo
  language: fortran
  standard: f90
source_groups:
  - name: main
`,
			path: "project.language",
		},
		{
			name: "missing standard",
			yaml: `
project:
  name: demo
  language: c
source_groups:
  - name: main
`,
			path: "project.standard",
		},
		{
			name: "no source groups",
			yaml: `
project:
  name: demo
  language: c
  standard: c11
`,
			path: "source_groups",
		},
		{
			name: "duplicate group name",
			yaml: `
project:
  name: demo
  language: c
  standard: c11
source_groups:
  - name: main
  - name: main
`,
			path: "source_groups.main",
		},
		{
			name: "mode with empty source_groups",
			yaml: `
project:
  name: demo
  language: c
  standard: c11
source_groups:
  - name: main
build:
  modes:
    release:
      source_groups: []
`,
			path: "build.modes.release.source_groups",
		},
		{
			name: "mode with missing source_groups",
			yaml: `
project:
  name: demo
  language: c
  standard: c11
source_groups:
  - name: main
build:
  modes:
    release:
      output_dir: build/release
`,
			path: "build.modes.release.source_groups",
		},
		{
			name: "mode referencing undeclared group",
			yaml: `
project:
  name: demo
  language: c
  standard: c11
source_groups:
  - name: main
build:
  modes:
    debug:
      source_groups: [main, ghost]
`,
			path: "build.modes.debug.source_groups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeConfig(t, fs, tt.yaml)

			cfg, err := Load(fs, "project.yaml")
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.IsConfigError(err), "expected a config error, got %v", err)

			var merr *errors.MasonError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tt.path, merr.Path)
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, `
project:
  name: demo
  language: c
  standard: c11
  flavor: spicy
source_groups:
  - name: main
`)

	_, err := Load(fs, "project.yaml")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestLoadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(fs, "project.yaml")
	require.Error(t, err)
	assert.False(t, errors.IsConfigError(err), "a missing file is an IO failure, not a config error")
}

func TestModeResolution(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, validYAML)

	cfg, err := Load(fs, "project.yaml")
	require.NoError(t, err)

	debug, err := cfg.Mode("debug")
	require.NoError(t, err)
	assert.Equal(t, "build/debug", debug.OutputDir)
	assert.Equal(t, "demo", debug.OutputName, "output_name falls back to build.output")

	release, err := cfg.Mode("release")
	require.NoError(t, err)
	assert.Equal(t, "build/release", release.OutputDir, "output_dir defaults to build/<mode>")

	_, err = cfg.Mode("profile")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	var merr *errors.MasonError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "build.modes.profile", merr.Path)
}

func TestSourceExtensions(t *testing.T) {
	assert.Equal(t, []string{".c"}, ProjectConfig{Language: "c"}.SourceExtensions())
	assert.Equal(t, []string{".c", ".cc", ".cpp", ".cxx"}, ProjectConfig{Language: "c++"}.SourceExtensions())
	assert.True(t, ProjectConfig{Language: "cpp"}.IsCPP())
	assert.True(t, ProjectConfig{Language: "cxx"}.IsCPP())
}
