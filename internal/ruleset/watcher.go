package ruleset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// ErrWatcherClosed indicates that the underlying fsnotify channels closed.
var ErrWatcherClosed = errors.New("rule file watcher closed")

// Watcher reloads a rule file into a Store whenever the file changes. A file
// that fails to load leaves the previous validator in place.
type Watcher struct {
	path     string
	store    *Store
	log      *logger.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a watcher for the rule file at path.
func NewWatcher(path string, store *Store, log *logger.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rule file path '%s': %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     absPath,
		store:    store,
		log:      log,
		watcher:  watcher,
		debounce: defaultDebounce,
	}, nil
}

// Reload loads the rule file and swaps it into the store.
func (w *Watcher) Reload() error {
	validator, err := LoadFile(w.path)
	if err != nil {
		return err
	}

	w.store.Swap(validator)

	return nil
}

// Run watches the rule file until ctx is cancelled. The parent directory is
// watched so that editors replacing the file by rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		closeErr := w.watcher.Close()
		if closeErr != nil {
			w.log.Warn("Failed to close rule file watcher: %v", closeErr)
		}
	}()

	err := w.watcher.Add(filepath.Dir(w.path))
	if err != nil {
		return fmt.Errorf("failed to watch rule file '%s': %w", w.path, err)
	}

	w.log.Info("Watching rule file %s", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}

			if w.relevant(event) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			reloadErr := w.Reload()
			if reloadErr != nil {
				w.log.Error("Failed to reload rule file, keeping previous rules: %v", reloadErr)

				continue
			}

			w.log.Info("Reloaded rule file %s (variant %s)", w.path, w.store.Variant())

		case watchErr, ok := <-w.watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}

			w.log.Error("Rule file watcher error: %v", watchErr)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}

	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
