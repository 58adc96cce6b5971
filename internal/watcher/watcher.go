// Package watcher feeds file changes from watched directories into the
// knowledge ingest pipeline, debouncing rapid writes.
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
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches directories and calls onIngest for created or modified
// files that match the configured extensions. Removed files are only
// logged: the knowledge base keeps what it has already ingested.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onIngest   func(path string)
	debounce   time.Duration

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the debounce interval applied to write bursts.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over the given root directories. extensions filter
// which files trigger onIngest (empty = all files).
func New(roots []string, extensions []string, recursive bool, onIngest func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onIngest:   onIngest,
		debounce:   defaultDebounce,
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.Strings("roots", w.roots),
			zap.Strings("extensions", w.extensions),
			zap.Bool("recursive", w.recursive))
	}
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) {
		return
	}
	switch ev.Op {
	case fsnotify.Create, fsnotify.Write:
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.watchNewDirectory(path)
			return
		}
		if w.matchExtension(path) {
			w.debounceIngest(path)
		}
	case fsnotify.Remove:
		w.cancelPending(path)
		if w.matchExtension(path) && w.logger != nil {
			w.logger.Debug("watched file removed, keeping ingested knowledge", zap.String("path", path))
		}
	}
}

// watchNewDirectory registers a directory created after Start and ingests
// the files already inside it.
func (w *Watcher) watchNewDirectory(dirPath string) {
	w.mu.Lock()
	recursive := w.recursive
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}
	if recursive {
		filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if err := watcher.Add(path); err != nil && w.logger != nil {
					w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
			}
			return nil
		})
	} else {
		if err := watcher.Add(dirPath); err != nil && w.logger != nil {
			w.logger.Debug("watcher failed to add directory", zap.String("path", dirPath), zap.Error(err))
		}
	}
	w.syncDirectory(dirPath)
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	clean := filepath.Clean(path)
	for _, root := range roots {
		rootClean := filepath.Clean(root)
		if rootClean == clean || inDir(rootClean, clean) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher ingesting file", zap.String("path", path))
		}
		if w.onIngest != nil {
			w.onIngest(path)
		}
	})
	w.pending[path] = t
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(root, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) syncDirectory(root string) {
	w.mu.Lock()
	exts := append([]string(nil), w.extensions...)
	onIngest := w.onIngest
	logger := w.logger
	w.mu.Unlock()
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if matchExtension(path, exts) {
			if logger != nil {
				logger.Debug("watcher sync ingesting file", zap.String("path", path))
			}
			if onIngest != nil {
				onIngest(path)
			}
		}
		return nil
	})
}

// SyncExistingFiles ingests all files already present under each watched
// root that match the configured extensions. Call after Start().
func (w *Watcher) SyncExistingFiles() {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	for _, root := range roots {
		w.syncDirectory(root)
	}
}

// Directories returns a copy of the watched root directories.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
