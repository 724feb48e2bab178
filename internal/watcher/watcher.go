// Package watcher hot-reloads workflow definitions from a directory.
//
// A Watcher keeps a registry in sync with the YAML files under one
// directory: it loads every definition on start, then applies creates,
// edits, and deletions as they happen, debounced per file. A malformed edit
// logs a warning and leaves the previously loaded workflow in place.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/flowline-dev/flowline/internal/log"
	"github.com/flowline-dev/flowline/pkg/workflow"
)

// DefaultDebounceWindow is how long a file must stay quiet before its
// change is applied.
const DefaultDebounceWindow = 250 * time.Millisecond

// definitionPattern matches workflow definition filenames.
const definitionPattern = "*.{yaml,yml}"

type changeKind int

const (
	changeUpsert changeKind = iota
	changeRemove
)

// change is one debounced filesystem event against a definition file.
type change struct {
	path string
	kind changeKind
}

// Watcher mirrors a directory of workflow definitions into a registry.
type Watcher struct {
	dir       string
	registry  *workflow.Registry
	logger    *slog.Logger
	debounce  *debouncer
	fsw       *fsnotify.Watcher
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	mu      sync.Mutex
	started bool
	loaded  map[string]string // definition path -> workflow ID
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounceWindow overrides the per-file debounce window.
func WithDebounceWindow(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce.window = d
		}
	}
}

// New creates a watcher over dir feeding registry. The directory must
// exist; files appearing later are picked up, subdirectories are not.
func New(dir string, registry *workflow.Registry, opts ...Option) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(absDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", absDir, err)
	}

	w := &Watcher{
		dir:      absDir,
		registry: registry,
		logger:   slog.Default().With("component", "watcher", "dir", absDir),
		fsw:      fsw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		loaded:   make(map[string]string),
	}
	w.debounce = newDebouncer(DefaultDebounceWindow, w.apply)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads the directory's current definitions and begins applying
// filesystem changes until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.loadAll(); err != nil {
		return err
	}
	w.startOnce.Do(func() {
		w.mu.Lock()
		w.started = true
		w.mu.Unlock()
		go w.eventLoop(ctx)
	})
	w.logger.Info("definition watcher started", "workflows", w.Len())
	return nil
}

// Stop stops the watcher, flushing any pending debounced changes.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.doneCh
		}
		w.debounce.stop()
		err = w.fsw.Close()
	})
	return err
}

// Len returns the number of definition files currently mirrored.
func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.loaded)
}

// WorkflowID returns the registry ID loaded from the given definition path.
func (w *Watcher) WorkflowID(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.loaded[path]
	return id, ok
}

// loadAll performs the initial sweep of the directory.
// Unlike LoadDir, a malformed file here is logged and skipped so one bad
// definition cannot keep the watcher from starting.
func (w *Watcher) loadAll() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read watch directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		w.upsert(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("definition watcher stopped", "reason", "context cancelled")
			return
		case <-w.stopCh:
			w.logger.Info("definition watcher stopped")
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isDefinitionFile(filepath.Base(event.Name)) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.debounce.add(change{path: event.Name, kind: changeUpsert})
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.debounce.add(change{path: event.Name, kind: changeRemove})
	}
}

// apply is the debouncer's flush target.
func (w *Watcher) apply(c change) {
	switch c.kind {
	case changeUpsert:
		w.upsert(c.path)
	case changeRemove:
		w.remove(c.path)
	}
}

// upsert loads a definition file and replaces any workflow previously
// registered from the same path. On a parse failure the previous workflow
// stays registered.
func (w *Watcher) upsert(path string) {
	def, err := workflow.LoadDefinition(path)
	if err != nil {
		w.logger.Warn("skipping malformed definition", "path", path, "error", err)
		recordReloadError(w.dir)
		return
	}

	id, err := w.registry.CreateFromDefinition(def)
	if err != nil {
		w.logger.Warn("failed to register definition", "path", path, "error", err)
		recordReloadError(w.dir)
		return
	}

	w.mu.Lock()
	prev, existed := w.loaded[path]
	w.loaded[path] = id
	w.mu.Unlock()

	if existed {
		w.registry.Delete(prev)
	}
	w.logger.Info("definition loaded", "path", path, "workflow", def.Name, log.WorkflowIDKey, id)
	recordReload(w.dir)
}

// remove drops the workflow registered from a deleted definition file.
func (w *Watcher) remove(path string) {
	w.mu.Lock()
	id, ok := w.loaded[path]
	delete(w.loaded, path)
	w.mu.Unlock()

	if !ok {
		return
	}
	w.registry.Delete(id)
	w.logger.Info("definition removed", "path", path, log.WorkflowIDKey, id)
	recordReload(w.dir)
}

func isDefinitionFile(name string) bool {
	ok, err := doublestar.Match(definitionPattern, name)
	return err == nil && ok
}
