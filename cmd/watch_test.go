package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/masonbuild/mason/internal/config"
)

func TestWatchFilter(t *testing.T) {
	project := config.ProjectConfig{Language: "c"}
	filter := watchFilter(project, "project.yaml", []string{"src", "include"})

	assert.True(t, filter("project.yaml"), "the project file always passes")
	assert.True(t, filter("src/main.c"))
	assert.True(t, filter("src/util/io.c"))
	assert.True(t, filter("include/api.h"))

	assert.False(t, filter("stray.c"),
		"sources outside every declared directory must not trigger regeneration")
	assert.False(t, filter("build/gen.c"))
	assert.False(t, filter("src/notes.md"))
	assert.False(t, filter("other.yaml"),
		"only the configured project file passes, not every yaml document")
}

func TestWatchFilterDoesNotMatchDirPrefixes(t *testing.T) {
	filter := watchFilter(config.ProjectConfig{Language: "c"}, "project.yaml", []string{"src"})

	assert.False(t, filter("srcfoo/a.c"),
		"a sibling directory sharing the prefix is not a declared directory")
}
