package resolver

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"

	"github.com/masonbuild/mason/internal/config"
)

// TestResolverProperties validates the resolver's ordering guarantees
// over arbitrary file layouts.
func TestResolverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	nameGen := gen.RegexMatch(`[a-z][a-z0-9_]{0,8}`)

	properties.Property("output is sorted and repeat calls are identical", prop.ForAll(
		func(names []string) bool {
			fs := afero.NewMemMapFs()
			for _, name := range names {
				if err := afero.WriteFile(fs, "src/"+name+".c", []byte("int x;\n"), 0o644); err != nil {
					return false
				}
			}

			r := New(fs, config.ProjectConfig{Language: "c"})
			group := config.SourceGroup{Name: "g", SourceDirs: []string{"src"}}

			first, err := r.ResolveGroup(group)
			if err != nil {
				return false
			}
			if !sort.StringsAreSorted(first) {
				return false
			}

			second, err := r.ResolveGroup(group)
			if err != nil || len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					return false
				}
			}

			return true
		},
		gen.SliceOfN(10, nameGen),
	))

	properties.Property("every discovered file has a compilable extension", prop.ForAll(
		func(names []string) bool {
			fs := afero.NewMemMapFs()
			for i, name := range names {
				ext := ".c"
				if i%2 == 0 {
					ext = ".h"
				}
				if err := afero.WriteFile(fs, "src/"+name+ext, []byte{}, 0o644); err != nil {
					return false
				}
			}

			r := New(fs, config.ProjectConfig{Language: "c"})
			files, err := r.ResolveGroup(config.SourceGroup{Name: "g", SourceDirs: []string{"src"}})
			if err != nil {
				return false
			}

			for _, f := range files {
				if f[len(f)-2:] != ".c" {
					return false
				}
			}

			return true
		},
		gen.SliceOfN(8, nameGen),
	))

	properties.TestingRun(t)
}
