// Package watcher observes a project's declared source and include
// directories and notifies the core when compilable files change.
// Rapid bursts of events (editor save storms, git checkouts) are
// debounced into a single notification.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/logging"
)

// ChangeEvent is one observed file change.
type ChangeEvent struct {
	Type EventType
	Path string
}

// EventType classifies a file change.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
	EventRenamed
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a path is interesting to the watcher.
type FileFilter func(path string) bool

// ChangeHandler receives a debounced batch of change events.
type ChangeHandler func(events []ChangeEvent) error

// ProjectWatcher wraps fsnotify with recursive directory registration,
// extension filtering, and debouncing.
type ProjectWatcher struct {
	watcher  *fsnotify.Watcher
	logger   logging.Logger
	filters  []FileFilter
	handlers []ChangeHandler
	mu       sync.RWMutex

	delay   time.Duration
	batches chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	pendMu  sync.Mutex
}

// New creates a project watcher. delay is the debounce window: events
// arriving within it are coalesced into one handler call.
func New(delay time.Duration, logger logging.Logger) (*ProjectWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ProjectWatcher{
		watcher: w,
		logger:  logger.WithComponent("watcher"),
		delay:   delay,
		batches: make(chan []ChangeEvent, 10),
	}, nil
}

// SourceFilter returns a filter accepting the project's compilable
// sources and headers.
func SourceFilter(project config.ProjectConfig) FileFilter {
	exts := map[string]bool{".h": true}
	for _, ext := range project.SourceExtensions() {
		exts[ext] = true
	}
	if project.IsCPP() {
		exts[".hh"] = true
		exts[".hpp"] = true
	}

	return func(path string) bool {
		return exts[filepath.Ext(path)]
	}
}

// AddFilter registers a file filter. All filters must accept a path for
// it to produce events.
func (pw *ProjectWatcher) AddFilter(filter FileFilter) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.filters = append(pw.filters, filter)
}

// AddHandler registers a change handler.
func (pw *ProjectWatcher) AddHandler(handler ChangeHandler) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.handlers = append(pw.handlers, handler)
}

// Add registers a single directory, without descending into its
// subdirectories.
func (pw *ProjectWatcher) Add(dir string) error {
	return pw.watcher.Add(dir)
}

// AddRecursive registers a directory and all of its subdirectories.
func (pw *ProjectWatcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return pw.watcher.Add(path)
		}

		return nil
	})
}

// Start launches the watch, debounce, and dispatch loops. They run
// until the context is cancelled.
func (pw *ProjectWatcher) Start(ctx context.Context) {
	go pw.watchLoop(ctx)
	go pw.dispatchLoop(ctx)
}

// Stop closes the underlying watcher.
func (pw *ProjectWatcher) Stop() error {
	pw.pendMu.Lock()
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.pendMu.Unlock()

	return pw.watcher.Close()
}

func (pw *ProjectWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			pw.handleEvent(ctx, event)
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Warn(ctx, err, "watch error")
		}
	}
}

func (pw *ProjectWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	pw.mu.RLock()
	filters := pw.filters
	pw.mu.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventCreated
	case event.Op.Has(fsnotify.Remove):
		eventType = EventDeleted
	case event.Op.Has(fsnotify.Rename):
		eventType = EventRenamed
	default:
		eventType = EventModified
	}

	// New directories under a watched root join the watch set so
	// files created inside them are seen too.
	if eventType == EventCreated {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = pw.watcher.Add(event.Name)

			return
		}
	}

	pw.debounce(ChangeEvent{Type: eventType, Path: event.Name})
}

// debounce batches events, resetting the delay timer on each arrival.
func (pw *ProjectWatcher) debounce(event ChangeEvent) {
	pw.pendMu.Lock()
	defer pw.pendMu.Unlock()

	pw.pending = append(pw.pending, event)

	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.delay, pw.flush)
}

func (pw *ProjectWatcher) flush() {
	pw.pendMu.Lock()
	defer pw.pendMu.Unlock()

	if len(pw.pending) == 0 {
		return
	}

	// One event per path; the last observed type wins.
	byPath := make(map[string]ChangeEvent, len(pw.pending))
	for _, event := range pw.pending {
		byPath[event.Path] = event
	}

	batch := make([]ChangeEvent, 0, len(byPath))
	for _, event := range byPath {
		batch = append(batch, event)
	}
	pw.pending = pw.pending[:0]

	select {
	case pw.batches <- batch:
	default:
	}
}

func (pw *ProjectWatcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-pw.batches:
			pw.mu.RLock()
			handlers := pw.handlers
			pw.mu.RUnlock()

			for _, handler := range handlers {
				if err := handler(batch); err != nil {
					pw.logger.Warn(ctx, err, "change handler failed")
				}
			}
		}
	}
}
