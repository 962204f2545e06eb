// Package compiledb emits the compile_commands.json database consumed
// by C/C++ language servers.
package compiledb

import (
	"encoding/json"

	"github.com/spf13/afero"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/errors"
	"github.com/masonbuild/mason/internal/resolver"
	"github.com/masonbuild/mason/internal/toolchain"
)

// Entry is one compile database record in the conventional schema.
type Entry struct {
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments"`
	File      string   `json:"file"`
}

// Writer generates database entries for every declared source group.
// The database is mode-agnostic: it exists purely for editor tooling,
// so every group contributes regardless of which modes reference it.
type Writer struct {
	fs        afero.Fs
	cfg       *config.EffectiveConfig
	resolver  *resolver.SourceResolver
	synth     *toolchain.Synthesizer
	directory string
}

// NewWriter creates a database writer. directory becomes the working
// directory recorded in every entry.
func NewWriter(fs afero.Fs, cfg *config.EffectiveConfig, directory string) *Writer {
	return &Writer{
		fs:        fs,
		cfg:       cfg,
		resolver:  resolver.New(fs, cfg.Project),
		synth:     toolchain.New(cfg),
		directory: directory,
	}
}

// Entries resolves every declared group and produces one entry per
// discovered file. Groups contribute in declaration order and files in
// the resolver's sorted order. A file covered by two groups yields two
// entries, one per group, since their flags may differ.
func (w *Writer) Entries() ([]Entry, error) {
	entries := []Entry{}

	for _, group := range w.cfg.SourceGroups {
		files, err := w.resolver.ResolveGroup(group)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			entries = append(entries, Entry{
				Directory: w.directory,
				Arguments: w.synth.DatabaseCommand(group, file),
				File:      file,
			})
		}
	}

	return entries, nil
}

// Write generates the database and writes it to path in a single write:
// the document is fully constructed in memory first, so a crash during
// generation cannot leave a truncated file behind. It returns the
// number of entries written.
func (w *Writer) Write(path string) (int, error) {
	entries, err := w.Entries()
	if err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, errors.WrapIO(err, errors.ErrCodeWriteFailed,
			"encoding compile database")
	}
	data = append(data, '\n')

	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		return 0, errors.WrapIO(err, errors.ErrCodeWriteFailed,
			"writing compile database to "+path)
	}

	return len(entries), nil
}
