package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/masonbuild/mason/internal/config"
)

func effectiveConfig() *config.EffectiveConfig {
	cfg := &config.Config{
		Project: config.ProjectConfig{Name: "demo", Language: "c", Standard: "c11"},
		Compiler: config.CompilerConfig{
			Path:    "gcc",
			Flags:   []string{"-Wall", "-Wextra"},
			Defines: []string{"NDEBUG", "VERSION=2"},
		},
		Dependencies: config.Dependencies{
			ExternalIncludes: []string{"vendor/include"},
		},
		Build: config.BuildConfig{
			Output: "demo",
			Linker: config.LinkerConfig{Flags: []string{"-lm"}},
		},
	}

	return config.Overlay(cfg, map[string]string{
		"CFLAGS":   "-DFOO",
		"CPPFLAGS": "-DENV=1",
		"LDFLAGS":  "-lenv",
	})
}

func TestCompileCommandOrder(t *testing.T) {
	synth := New(effectiveConfig())

	group := config.SourceGroup{
		Name:        "core",
		IncludeDirs: []string{"include", "src"},
		Flags:       []string{"-fno-common"},
		Defines:     []string{"CORE"},
	}
	mode := config.BuildMode{
		OutputDir:  "build/debug",
		ExtraFlags: []string{"-g", "-O0"},
	}

	argv, object := synth.CompileCommand(group, mode, "src/main.c")

	// Layer order: global flags with environment CFLAGS appended, mode
	// extra flags, group flags, global defines, environment CPPFLAGS,
	// group defines, group includes, dependency includes.
	assert.Equal(t, []string{
		"gcc",
		"-std=c11",
		"-Wall", "-Wextra",
		"-DFOO",
		"-g", "-O0",
		"-fno-common",
		"-DNDEBUG", "-DVERSION=2",
		"-DENV=1",
		"-DCORE",
		"-Iinclude", "-Isrc",
		"-Ivendor/include",
		"-c", "src/main.c",
		"-o", "build/debug/src/main.o",
	}, argv)
	assert.Equal(t, "build/debug/src/main.o", object)
}

func TestDatabaseCommandExcludesModeFlags(t *testing.T) {
	synth := New(effectiveConfig())

	group := config.SourceGroup{Name: "core", Flags: []string{"-fPIC"}}
	argv := synth.DatabaseCommand(group, "src/main.c")

	assert.NotContains(t, argv, "-g",
		"the compile database is mode-agnostic")
	assert.Contains(t, argv, "-fPIC")
	assert.Contains(t, argv, "-Wall")
	assert.Equal(t, "build/src/main.o", argv[len(argv)-1])
}

func TestLinkCommandOrder(t *testing.T) {
	synth := New(effectiveConfig())

	mode := config.BuildMode{
		OutputDir:   "build/release",
		OutputName:  "demo",
		LinkerFlags: []string{"-s"},
	}
	objects := []string{"build/release/src/a.o", "build/release/src/b.o"}

	argv, output := synth.LinkCommand(mode, objects)

	// Mode linker flags first, then global linker flags with LDFLAGS
	// appended, then the objects.
	assert.Equal(t, []string{
		"gcc",
		"-s",
		"-lm", "-lenv",
		"build/release/src/a.o", "build/release/src/b.o",
		"-o", "build/release/demo",
	}, argv)
	assert.Equal(t, "build/release/demo", output)
}

func TestObjectPath(t *testing.T) {
	tests := []struct {
		outputDir string
		source    string
		want      string
	}{
		{"build/debug", "src/main.c", "build/debug/src/main.o"},
		{"build/debug", "./src/main.c", "build/debug/src/main.o"},
		{"build/debug", "src/util/io.c", "build/debug/src/util/io.o"},
		{"build/release", "src/main.c", "build/release/src/main.o"},
		{"out", "a.cpp", "out/a.o"},
		{"out", "../shared/a.c", "out/__/shared/a.o"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectPath(tt.outputDir, tt.source))
	}
}

func TestObjectPathNoCollisions(t *testing.T) {
	// Same stem in different directories must map to different objects.
	a := ObjectPath("build/debug", "src/a/main.c")
	b := ObjectPath("build/debug", "src/b/main.c")
	assert.NotEqual(t, a, b)

	// An underscore in a file name must not be confused with a
	// directory separator.
	flat := ObjectPath("build/debug", "src/util_a.c")
	nested := ObjectPath("build/debug", "src/util/a.c")
	assert.NotEqual(t, flat, nested)

	// Same source across modes lands under different directories.
	debug := ObjectPath("build/debug", "src/main.c")
	release := ObjectPath("build/release", "src/main.c")
	assert.NotEqual(t, debug, release)
}
