package solver

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors directories for newly captured images and emits their
// paths once writes have settled. Solving stays sequential: consumers pull
// one path at a time from Events.
type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan string
	exts     map[string]bool
	debounce time.Duration
	done     chan struct{}
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for files with the given extensions
// (lowercase, with leading dot). Capture software writes FITS files
// incrementally, so each file is held for debounce after its last write.
func NewWatcher(exts []string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}

	return &Watcher{
		watcher:  fsw,
		Events:   make(chan string, 100),
		exts:     extSet,
		debounce: debounce,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
		log:      log,
	}, nil
}

// Start begins monitoring the given directories.
func (w *Watcher) Start(dirs []string) error {
	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.log.Info("watching directory", "dir", dir)
	}
	go w.processEvents()
	return nil
}

// Stop ends monitoring and closes the Events channel.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()

	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.wantFile(ev.Name) {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) wantFile(path string) bool {
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// schedule (re)arms the settle timer for path; the path is emitted only
// after debounce elapses with no further writes.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.Events <- path:
		case <-w.done:
		}
	})
}
