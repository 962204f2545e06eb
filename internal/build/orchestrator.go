// Package build orchestrates incremental, parallel compilation and
// linking for one build mode at a time.
//
// The orchestrator moves through Idle, Resolving, Compiling, Linking,
// Done, with Failed reachable from any active phase. Compilation of
// independent stale units is the only parallelized stage; linking is
// single-threaded and strictly sequenced after every compile worker has
// finished.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/errors"
	"github.com/masonbuild/mason/internal/logging"
	"github.com/masonbuild/mason/internal/resolver"
	"github.com/masonbuild/mason/internal/toolchain"
)

// Phase is the orchestrator's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhaseCompiling
	PhaseLinking
	PhaseDone
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolving:
		return "resolving"
	case PhaseCompiling:
		return "compiling"
	case PhaseLinking:
		return "linking"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UnitFailure records one compile unit whose compiler invocation
// returned non-zero, with the full command and captured stderr.
type UnitFailure struct {
	Unit   toolchain.CompileUnit
	Argv   []string
	Stderr []byte
	Err    error
}

// Report summarizes one build invocation.
type Report struct {
	Mode     string
	Units    []toolchain.CompileUnit
	Stale    int
	Compiled int
	Failures []UnitFailure
	Linked   bool
	Output   string
}

// Orchestrator drives resolve, staleness check, parallel compile, and
// link for a project.
type Orchestrator struct {
	fs       afero.Fs
	cfg      *config.EffectiveConfig
	resolver *resolver.SourceResolver
	synth    *toolchain.Synthesizer
	runner   ToolRunner
	logger   logging.Logger
	jobs     int
	phase    Phase
}

// task pairs a unit with its synthesized command.
type task struct {
	unit toolchain.CompileUnit
	argv []string
}

// NewOrchestrator creates an orchestrator. jobs bounds the worker pool;
// values below one select the host processor count.
func NewOrchestrator(fs afero.Fs, cfg *config.EffectiveConfig, runner ToolRunner, logger logging.Logger, jobs int) *Orchestrator {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}

	return &Orchestrator{
		fs:       fs,
		cfg:      cfg,
		resolver: resolver.New(fs, cfg.Project),
		synth:    toolchain.New(cfg),
		runner:   runner,
		logger:   logger.WithComponent("build"),
		jobs:     jobs,
		phase:    PhaseIdle,
	}
}

// Phase returns the orchestrator's current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Build compiles and links the named mode. Stale units are compiled on
// a bounded worker pool; failures are collected rather than aborting
// in-flight siblings, and linking only happens when every compile unit
// succeeded. The returned report is populated even when err is non-nil.
func (o *Orchestrator) Build(ctx context.Context, modeName string) (*Report, error) {
	report := &Report{Mode: modeName}

	o.phase = PhaseResolving

	mode, err := o.cfg.Mode(modeName)
	if err != nil {
		o.phase = PhaseFailed

		return report, err
	}

	tasks, err := o.resolveUnits(mode)
	if err != nil {
		o.phase = PhaseFailed

		return report, err
	}
	for _, t := range tasks {
		report.Units = append(report.Units, t.unit)
	}

	if len(tasks) == 0 {
		o.phase = PhaseFailed

		return report, errors.ConfigErrorf(errors.ErrCodeInvalidValue,
			config.DottedPath("build", "modes", modeName, "source_groups"),
			"no source files found in mode %q", modeName)
	}

	if err := o.fs.MkdirAll(mode.OutputDir, 0o755); err != nil {
		o.phase = PhaseFailed

		return report, errors.WrapIO(err, errors.ErrCodeWriteFailed,
			"creating output directory "+mode.OutputDir)
	}

	stale, err := o.staleTasks(tasks)
	if err != nil {
		o.phase = PhaseFailed

		return report, err
	}
	report.Stale = len(stale)

	// Object paths mirror the source tree, so each stale unit's parent
	// directory must exist before its worker runs. Done up front and
	// sequentially; workers never create directories.
	for _, t := range stale {
		if err := o.fs.MkdirAll(filepath.Dir(t.unit.Object), 0o755); err != nil {
			o.phase = PhaseFailed

			return report, errors.WrapIO(err, errors.ErrCodeWriteFailed,
				"creating object directory "+filepath.Dir(t.unit.Object))
		}
	}

	o.phase = PhaseCompiling
	report.Failures = o.compile(ctx, stale)
	report.Compiled = len(stale) - len(report.Failures)

	if len(report.Failures) > 0 {
		o.phase = PhaseFailed

		return report, errors.NewToolError(errors.ErrCodeCompileFailed,
			nil, nil, fmt.Errorf("%d of %d compile units failed", len(report.Failures), len(stale)))
	}

	o.phase = PhaseLinking

	objects := make([]string, 0, len(tasks))
	for _, t := range tasks {
		objects = append(objects, t.unit.Object)
	}

	argv, output := o.synth.LinkCommand(mode, objects)
	report.Output = output

	o.logger.Info(ctx, "linking", "output", output, "objects", len(objects))
	o.logger.Debug(ctx, "link command", "argv", argv)

	if stderr, err := o.runner.Run(ctx, argv); err != nil {
		o.phase = PhaseFailed

		return report, errors.NewToolError(errors.ErrCodeLinkFailed, argv, stderr, err)
	}

	report.Linked = true
	o.phase = PhaseDone

	return report, nil
}

// resolveUnits expands the mode's groups into compile tasks. Group
// order follows the mode's source_groups list; file order within a
// group is the resolver's sorted order. Group references were validated
// at config load, before any subprocess could be spawned.
func (o *Orchestrator) resolveUnits(mode config.BuildMode) ([]task, error) {
	var tasks []task

	for _, name := range mode.SourceGroups {
		group, ok := o.cfg.Group(name)
		if !ok {
			return nil, errors.ConfigErrorf(errors.ErrCodeUnknownGroup,
				config.DottedPath("source_groups", name),
				"source group %q is not declared", name)
		}

		files, err := o.resolver.ResolveGroup(group)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			argv, object := o.synth.CompileCommand(group, mode, file)
			tasks = append(tasks, task{
				unit: toolchain.CompileUnit{Source: file, Group: name, Object: object},
				argv: argv,
			})
		}
	}

	return tasks, nil
}

// staleTasks filters tasks down to units needing recompilation: the
// object file is absent, or the source is newer than the object. This
// is a plain timestamp comparison; there is no content hashing and no
// header-dependency tracking.
func (o *Orchestrator) staleTasks(tasks []task) ([]task, error) {
	var stale []task

	for _, t := range tasks {
		src, err := o.fs.Stat(t.unit.Source)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed,
				"stat source file").WithFile(t.unit.Source)
		}

		obj, err := o.fs.Stat(t.unit.Object)
		if err != nil {
			if os.IsNotExist(err) {
				stale = append(stale, t)

				continue
			}

			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed,
				"stat object file").WithFile(t.unit.Object)
		}

		if src.ModTime().After(obj.ModTime()) {
			stale = append(stale, t)
		}
	}

	return stale, nil
}

// compile runs the stale units on a bounded worker pool. Each worker
// owns a disjoint object path, so no locking is needed around output
// files. A failing unit does not stop in-flight siblings; every failure
// is collected so the caller gets the complete picture in one run.
func (o *Orchestrator) compile(ctx context.Context, stale []task) []UnitFailure {
	if len(stale) == 0 {
		return nil
	}

	workers := o.jobs
	if workers > len(stale) {
		workers = len(stale)
	}

	taskCh := make(chan task)
	resultCh := make(chan UnitFailure, len(stale))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				o.logger.Info(ctx, "compiling", "source", t.unit.Source, "group", t.unit.Group)
				o.logger.Debug(ctx, "compile command", "argv", t.argv)

				if stderr, err := o.runner.Run(ctx, t.argv); err != nil {
					resultCh <- UnitFailure{Unit: t.unit, Argv: t.argv, Stderr: stderr, Err: err}
				}
			}
		}()
	}

	for _, t := range stale {
		taskCh <- t
	}
	close(taskCh)
	wg.Wait()
	close(resultCh)

	var failures []UnitFailure
	for f := range resultCh {
		failures = append(failures, f)
	}

	return failures
}

// Clean removes the named mode's build artifacts, or every mode's when
// modeName is empty. Cleaning something that does not exist is not an
// error. It returns the number of files removed.
func (o *Orchestrator) Clean(ctx context.Context, modeName string) (int, error) {
	names := []string{modeName}
	if modeName == "" {
		names = o.cfg.ModeNames()
	}

	removed := 0
	for _, name := range names {
		mode, err := o.cfg.Mode(name)
		if err != nil {
			return removed, err
		}

		n, err := o.cleanDir(ctx, mode.OutputDir, mode.OutputName)
		removed += n
		if err != nil {
			return removed, err
		}
	}

	return removed, nil
}

// cleanDir deletes object files and the mode's binary from one output
// directory, walking the mirrored source tree below it, then removes
// any directories the deletions emptied.
func (o *Orchestrator) cleanDir(ctx context.Context, dir, outputName string) (int, error) {
	if ok, err := afero.DirExists(o.fs, dir); err != nil {
		return 0, errors.WrapIO(err, errors.ErrCodeReadFailed,
			"reading output directory "+dir)
	} else if !ok {
		o.logger.Debug(ctx, "nothing to clean", "dir", dir)

		return 0, nil
	}

	removed := 0
	var subdirs []string

	err := afero.Walk(o.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeReadFailed,
				"walking output directory "+dir)
		}
		if info.IsDir() {
			subdirs = append(subdirs, path)

			return nil
		}
		if filepath.Ext(info.Name()) != ".o" && info.Name() != outputName {
			return nil
		}

		if err := o.fs.Remove(path); err != nil {
			return errors.WrapIO(err, errors.ErrCodeWriteFailed,
				"removing "+path)
		}
		o.logger.Debug(ctx, "removed", "path", path)
		removed++

		return nil
	})
	if err != nil {
		return removed, err
	}

	// Deepest directories first, so an emptied parent chain collapses.
	sort.Sort(sort.Reverse(sort.StringSlice(subdirs)))
	for _, sub := range subdirs {
		if rest, err := afero.ReadDir(o.fs, sub); err == nil && len(rest) == 0 {
			_ = o.fs.Remove(sub)
		}
	}

	return removed, nil
}
