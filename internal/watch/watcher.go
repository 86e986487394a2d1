// Package watch re-runs work when CSV exports change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce absorbs the burst of events an editor or export tool emits per save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports CSV exports that were created or rewritten.
// Parent directories are watched rather than files so atomic replacements are seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)

	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher. onChange runs once per settled change of a path.
func NewWatcher(debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Add watches a CSV file, or every *.csv file inside a directory.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	dir := abs
	w.mu.Lock()
	if info.IsDir() {
		w.dirs[abs] = true
	} else {
		w.files[abs] = true
		dir = filepath.Dir(abs)
	}
	w.mu.Unlock()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Debug().Str("path", abs).Msg("Watching for changes")
	return nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if w.matches(event.Name) {
				w.trigger(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[abs] {
		return true
	}
	return w.dirs[filepath.Dir(abs)] && strings.EqualFold(filepath.Ext(abs), ".csv")
}

// trigger restarts the quiet period for path; onChange fires once it elapses.
func (w *Watcher) trigger(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() { w.settle(path) })
}

// settle reports path unless it disappeared during the quiet period.
func (w *Watcher) settle(path string) {
	if _, err := os.Stat(path); err != nil {
		log.Debug().Str("path", path).Msg("Changed file is gone, skipping")
		return
	}
	if w.onChange != nil {
		w.onChange(path)
	}
}

func (w *Watcher) stopAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
