// Package watcher turns filesystem events into changesets for continuous
// sync. Events are debounced per path so a save storm produces one
// reconciliation cycle, not one per write.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codeturtle/codeturtle/internal/changeset"
	"github.com/codeturtle/codeturtle/internal/classify"
)

// Operation is the kind of change observed on a path.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one debounced change.
type FileEvent struct {
	// Path is relative to the watch root, slash-separated.
	Path string

	Operation Operation
	Timestamp time.Time
}

// DefaultDebounce is the default coalescing window.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a directory tree with fsnotify and emits debounced
// event batches. Create and modify events are gated by the classifier;
// delete events pass through unfiltered, matching how delete lists are
// treated, since a deleted path's eligibility cannot be re-checked.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *debouncer
	logger    *slog.Logger
	root      string

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a watcher with the given debounce window.
func New(window time.Duration, logger *slog.Logger) (*Watcher, error) {
	if window <= 0 {
		window = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsw:       fsw,
		debouncer: newDebouncer(window),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start watches root until ctx is done or Stop is called. It blocks; run
// it in its own goroutine and consume Batches.
func (w *Watcher) Start(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	w.root = absRoot

	if err := w.addRecursive(absRoot); err != nil {
		return fmt.Errorf("watch directory tree: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// Batches returns the channel of debounced event batches.
func (w *Watcher) Batches() <-chan []FileEvent {
	return w.debouncer.output
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.stop()
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)

	if hasHiddenSegment(relPath) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		// Watch newly created directories so their files are seen.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(event.Name)
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		// The old name is gone; a create will follow for the new name.
		op = OpDelete
	default:
		return
	}

	// Only eligible files are worth (re)indexing. Deletes pass through so
	// vectors for files that were once eligible are still purged.
	if op != OpDelete && !classify.Eligible(relPath) {
		return
	}

	w.debouncer.add(FileEvent{Path: relPath, Operation: op, Timestamp: time.Now()})
}

func hasHiddenSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}

// ToChangeSet converts a debounced batch into a changeset: creates and
// modifies become upserts, deletes become deletes.
func ToChangeSet(events []FileEvent) *changeset.ChangeSet {
	cs := &changeset.ChangeSet{}
	for _, ev := range events {
		switch ev.Operation {
		case OpCreate, OpModify:
			cs.Upserts = append(cs.Upserts, ev.Path)
		case OpDelete:
			cs.Deletes = append(cs.Deletes, ev.Path)
		}
	}
	return cs
}
