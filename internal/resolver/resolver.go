// Package resolver expands declared source groups into concrete,
// deterministically ordered lists of compilable files.
//
// Discovery runs fresh on every invocation; nothing is cached between
// runs. The walk goes through an afero.Fs so the logic can be tested
// against an in-memory filesystem.
package resolver

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/errors"
)

// SourceResolver discovers source files for groups of a single project.
type SourceResolver struct {
	fs         afero.Fs
	extensions map[string]bool
}

// New creates a resolver for the project's language.
func New(fs afero.Fs, project config.ProjectConfig) *SourceResolver {
	exts := make(map[string]bool)
	for _, ext := range project.SourceExtensions() {
		exts[ext] = true
	}

	return &SourceResolver{fs: fs, extensions: exts}
}

// ResolveGroup walks each of the group's declared source directories
// recursively and returns every file whose extension matches the
// project language, sorted lexicographically. Filesystem walk order is
// not guaranteed, so the sort is what makes repeated runs identical.
//
// A declared directory that does not exist is a configuration error: a
// typo'd path must not silently produce an empty build. Overlapping
// declared directories are walked independently and their results are
// not deduplicated.
func (r *SourceResolver) ResolveGroup(group config.SourceGroup) ([]string, error) {
	var files []string

	for _, dir := range group.SourceDirs {
		if _, err := r.fs.Stat(dir); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigErrorf(errors.ErrCodeMissingDir,
					config.DottedPath("source_groups", group.Name, "source_dirs"),
					"source directory %q does not exist", dir)
			}

			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed,
				"cannot stat source directory "+dir)
		}

		err := afero.Walk(r.fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return errors.WrapIO(err, errors.ErrCodeReadFailed,
					"walking source directory "+dir)
			}
			if info.IsDir() {
				return nil
			}
			if r.extensions[filepath.Ext(path)] {
				files = append(files, filepath.ToSlash(path))
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)

	return files, nil
}

// WatchedDirs collects every existing source and include directory
// declared by any group, deduplicated, in first-appearance order. These
// are the roots the watch command observes.
func WatchedDirs(fs afero.Fs, cfg *config.Config) []string {
	seen := make(map[string]bool)
	var dirs []string

	add := func(dir string) {
		if seen[dir] {
			return
		}
		seen[dir] = true
		if ok, _ := afero.DirExists(fs, dir); ok {
			dirs = append(dirs, dir)
		}
	}

	for _, group := range cfg.SourceGroups {
		for _, dir := range group.SourceDirs {
			add(dir)
		}
		for _, dir := range group.IncludeDirs {
			add(dir)
		}
	}

	return dirs
}
