// Package toolchain synthesizes the exact compiler and linker argument
// vectors for a project. Argument order is a deliberate, testable
// contract: compilers apply last-wins semantics to conflicting options,
// so later layers override earlier ones, with mode flags after global
// flags and group flags after mode flags as the most specific layer.
package toolchain

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/masonbuild/mason/internal/config"
)

// CompileUnit is one (source file, owning group) pair targeted for
// compilation within a mode. Units are recomputed on every invocation;
// the only state carried across runs is the on-disk object file.
type CompileUnit struct {
	Source string
	Group  string
	Object string
}

// databaseObjectDir anchors the object paths embedded in compile
// database entries, which are mode-agnostic.
const databaseObjectDir = "build"

// Synthesizer produces argument vectors from the effective
// configuration.
type Synthesizer struct {
	cfg *config.EffectiveConfig
}

// New creates a synthesizer over the effective configuration.
func New(cfg *config.EffectiveConfig) *Synthesizer {
	return &Synthesizer{cfg: cfg}
}

// ObjectPath derives the object file path for a source file under the
// given output directory. The source tree is mirrored below the output
// directory (src/util/a.c -> <outputDir>/src/util/a.o), so distinct
// source paths always map to distinct object paths, and two modes never
// collide because their output directories differ. Parent-directory
// segments are neutralized so an object can never land outside the
// output directory.
func ObjectPath(outputDir, source string) string {
	p := path.Clean(filepath.ToSlash(source))
	p = strings.TrimPrefix(p, "./")
	p = strings.ReplaceAll(p, "..", "__")
	if ext := path.Ext(p); ext != "" {
		p = strings.TrimSuffix(p, ext)
	}

	return filepath.ToSlash(filepath.Join(outputDir, p+".o"))
}

// CompileCommand assembles the compile argument vector for one source
// file of one group under one mode, in the fixed layer order:
//
//	compiler, -std, global flags (with environment flags appended),
//	mode extra flags, group flags, global -D defines, environment
//	preprocessor flags, group -D defines, group -I includes,
//	dependency -I includes, -c <source>, -o <object>.
//
// It returns the argument vector and the resolved object path.
func (s *Synthesizer) CompileCommand(group config.SourceGroup, mode config.BuildMode, source string) ([]string, string) {
	object := ObjectPath(mode.OutputDir, source)

	argv := []string{s.cfg.CompilerPath, "-std=" + s.cfg.Project.Standard}
	argv = append(argv, s.cfg.CompilerFlags...)
	argv = append(argv, mode.ExtraFlags...)
	argv = append(argv, group.Flags...)

	for _, def := range s.cfg.Compiler.Defines {
		argv = append(argv, "-D"+def)
	}
	argv = append(argv, s.cfg.PreprocessorFlags...)
	for _, def := range group.Defines {
		argv = append(argv, "-D"+def)
	}

	for _, dir := range group.IncludeDirs {
		argv = append(argv, "-I"+dir)
	}
	for _, dir := range s.cfg.Dependencies.ExternalIncludes {
		argv = append(argv, "-I"+dir)
	}

	argv = append(argv, "-c", source, "-o", object)

	return argv, object
}

// DatabaseCommand assembles the compile argument vector for a compile
// database entry. The database is mode-agnostic, so only the global and
// group scopes contribute; it describes how a file would be compiled
// for understanding, independent of which build mode last ran.
func (s *Synthesizer) DatabaseCommand(group config.SourceGroup, source string) []string {
	argv, _ := s.CompileCommand(group, config.BuildMode{OutputDir: databaseObjectDir}, source)

	return argv
}

// LinkCommand assembles the link argument vector: compiler, mode extra
// linker flags, global linker flags (with environment flags appended),
// the object files in unit order, -o and the output binary path.
func (s *Synthesizer) LinkCommand(mode config.BuildMode, objects []string) ([]string, string) {
	output := filepath.ToSlash(filepath.Join(mode.OutputDir, mode.OutputName))

	argv := []string{s.cfg.CompilerPath}
	argv = append(argv, mode.LinkerFlags...)
	argv = append(argv, s.cfg.LinkerFlags...)
	argv = append(argv, objects...)
	argv = append(argv, "-o", output)

	return argv, output
}
