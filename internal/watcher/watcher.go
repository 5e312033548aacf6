// Package watcher reports changes to a corpus on disk with fsnotify, coalescing
// bursts of events into a single callback.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/kensaku/internal/corpus"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a corpus file or directory and invokes onChange after changes settle.
type Watcher struct {
	path       string
	isDir      bool
	extensions []string
	recursive  bool
	onChange   func()
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	timer      *time.Timer
	done       chan struct{}
	started    bool
	stopOnce   sync.Once
	logger     *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long the corpus must stay quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecursive controls whether subdirectories of a corpus directory are watched.
func WithRecursive(recursive bool) WatcherOption {
	return func(w *Watcher) { w.recursive = recursive }
}

// NewWatcher creates a watcher for the corpus at path. extensions filter files of a
// corpus directory (nil = corpus.DefaultExtensions); they are ignored for a line file.
func NewWatcher(path string, extensions []string, onChange func(), opts ...WatcherOption) *Watcher {
	if extensions == nil {
		extensions = corpus.DefaultExtensions
	}
	w := &Watcher{
		path:       filepath.Clean(path),
		extensions: extensions,
		recursive:  true,
		onChange:   onChange,
		debounce:   defaultDebounce,
		done:       make(chan struct{}),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	info, err := os.Stat(w.path)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.isDir = info.IsDir()
	w.logger.Debug("watcher starting",
		zap.String("path", w.path), zap.Bool("directory", w.isDir),
		zap.Strings("extensions", w.extensions), zap.Duration("debounce", w.debounce))

	if err := w.addLocked(); err != nil {
		_ = w.watcher.Close()
		w.watcher = nil
		w.mu.Unlock()
		return err
	}
	w.started = true
	w.mu.Unlock()
	go w.run(ctx, watcher)
	return nil
}

// addLocked registers the watched directories. A line file is watched through its
// parent directory so that editors replacing the file are still seen.
func (w *Watcher) addLocked() error {
	if !w.isDir {
		return w.watcher.Add(filepath.Dir(w.path))
	}
	if !w.recursive {
		return w.watcher.Add(w.path)
	}
	return filepath.WalkDir(w.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.path && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if ev.Op == fsnotify.Chmod || !w.relevant(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	if ev.Has(fsnotify.Create) && w.isDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}
	if w.isDir && !corpus.MatchesExtension(path, w.extensions) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.schedule()
}

// relevant reports whether path can affect the corpus.
func (w *Watcher) relevant(path string) bool {
	if !w.isDir {
		return path == w.path
	}
	if !inDir(w.path, path) {
		return false
	}
	rel, _ := filepath.Rel(w.path, path)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if hidden(part) {
			return false
		}
	}
	return true
}

// handleNewDirectory watches a directory created inside the corpus. Files it
// already holds are part of the pending reload.
func (w *Watcher) handleNewDirectory(dirPath string) {
	w.mu.Lock()
	watcher, recursive := w.watcher, w.recursive
	w.mu.Unlock()
	if watcher == nil || !recursive {
		return
	}
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
		} else {
			w.logger.Debug("watcher added new directory", zap.String("path", path))
		}
		return nil
	})
	w.schedule()
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		active := w.started
		w.mu.Unlock()
		if !active {
			return
		}
		w.logger.Debug("watcher corpus changed (debounced)", zap.String("path", w.path))
		if w.onChange != nil {
			w.onChange()
		}
	})
}

// Path returns the watched corpus path.
func (w *Watcher) Path() string {
	return w.path
}

// Stop stops the watcher and releases resources. Pending callbacks are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
