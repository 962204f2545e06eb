package config

import (
	"os"
	"strings"
)

// EffectiveConfig is the configuration after the standard C/C++
// environment variables have been overlaid on the loaded model.
// Precedence, highest first: environment variable, YAML value, built-in
// default. Environment flag variables append rather than replace, so
// sanitizer or debug options can be added without discarding
// project-mandated warnings.
type EffectiveConfig struct {
	*Config

	// CompilerPath is CC/CXX (by language) when set, else compiler.path.
	CompilerPath string
	// CompilerFlags is compiler.flags followed by CFLAGS/CXXFLAGS tokens.
	CompilerFlags []string
	// PreprocessorFlags holds CPPFLAGS tokens, appended after the
	// configured -D defines.
	PreprocessorFlags []string
	// LinkerFlags is build.linker.flags followed by LDFLAGS tokens.
	LinkerFlags []string
}

// EnvironSnapshot captures the process environment as a map. It is
// taken once per invocation and passed explicitly; no other component
// reads the environment directly.
func EnvironSnapshot() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	return env
}

// Overlay applies the recognized environment variables to a loaded
// configuration. Variable values are split on whitespace into discrete
// tokens; there is no quoting or escaping support, which is a known
// limitation.
func Overlay(cfg *Config, env map[string]string) *EffectiveConfig {
	eff := &EffectiveConfig{
		Config:            cfg,
		CompilerPath:      cfg.Compiler.Path,
		CompilerFlags:     append([]string{}, cfg.Compiler.Flags...),
		PreprocessorFlags: []string{},
		LinkerFlags:       append([]string{}, cfg.Build.Linker.Flags...),
	}

	compilerVar, flagsVar := "CC", "CFLAGS"
	if cfg.Project.IsCPP() {
		compilerVar, flagsVar = "CXX", "CXXFLAGS"
	}

	if v := env[compilerVar]; v != "" {
		eff.CompilerPath = v
	}
	eff.CompilerFlags = append(eff.CompilerFlags, splitTokens(env[flagsVar])...)
	eff.PreprocessorFlags = append(eff.PreprocessorFlags, splitTokens(env["CPPFLAGS"])...)
	eff.LinkerFlags = append(eff.LinkerFlags, splitTokens(env["LDFLAGS"])...)

	return eff
}

// OverlayVariables lists the environment variables the overlay honors
// for the project language, with their effective values, for verbose
// reporting.
func (e *EffectiveConfig) OverlayVariables() [][2]string {
	compilerVar, flagsVar := "CC", "CFLAGS"
	if e.Project.IsCPP() {
		compilerVar, flagsVar = "CXX", "CXXFLAGS"
	}

	return [][2]string{
		{compilerVar, e.CompilerPath},
		{flagsVar, strings.Join(e.CompilerFlags, " ")},
		{"CPPFLAGS", strings.Join(e.PreprocessorFlags, " ")},
		{"LDFLAGS", strings.Join(e.LinkerFlags, " ")},
	}
}

func splitTokens(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Fields(s)
}
