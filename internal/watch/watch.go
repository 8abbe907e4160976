package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of writes sqlite makes per transaction.
const DefaultDebounce = 250 * time.Millisecond

// DB watches a sqlite database file, including its -wal and -journal
// siblings, and calls onChange once per burst of writes.
type DB struct {
	path     string
	debounce time.Duration
	onChange func()
}

func NewDB(path string, onChange func()) *DB {
	return &DB{path: path, debounce: DefaultDebounce, onChange: onChange}
}

// SetDebounce changes the quiet period before onChange fires.
func (w *DB) SetDebounce(d time.Duration) {
	w.debounce = d
}

func (w *DB) matches(name string) bool {
	base := filepath.Base(w.path)
	return strings.HasPrefix(filepath.Base(name), base)
}

// Run blocks until ctx is done. The parent directory is watched because
// sqlite replaces journal files instead of writing them in place.
func (w *DB) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Watch] File watcher error: %v", err)
		case <-timer.C:
			w.onChange()
		}
	}
}
