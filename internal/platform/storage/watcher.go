package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 250 * time.Millisecond

// ChangeHandler receives the set of watched asset names that changed within one debounce window.
type ChangeHandler func(ctx context.Context, names []string)

// WatcherOption customises watcher construction.
type WatcherOption func(*Watcher)

// WithDebounce overrides the quiet period collected before the handler fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher observes an asset directory and reports writes to the named files.
type Watcher struct {
	dir      string
	names    map[string]struct{}
	handler  ChangeHandler
	debounce time.Duration
	fsw      *fsnotify.Watcher

	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher registers dir with fsnotify. Only events for the given file names reach the handler.
func NewWatcher(dir string, names []string, handler ChangeHandler, opts ...WatcherOption) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("storage watcher: directory is required")
	}
	if handler == nil {
		return nil, errors.New("storage watcher: handler is required")
	}
	if len(names) == 0 {
		return nil, errors.New("storage watcher: at least one file name is required")
	}

	w := &Watcher{
		dir:      dir,
		names:    make(map[string]struct{}, len(names)),
		handler:  handler,
		debounce: defaultWatchDebounce,
		done:     make(chan struct{}),
	}
	for _, name := range names {
		w.names[filepath.Base(name)] = struct{}{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage watcher: %w", err)
	}
	// Watch the directory rather than the files so atomic rename-into-place is observed.
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("storage watcher: watch %s: %w", dir, err)
	}
	w.fsw = fsw
	return w, nil
}

// Run processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context, onError func(error)) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			base := filepath.Base(event.Name)
			if _, watched := w.names[base]; !watched {
				continue
			}
			pending[base] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			w.handler(ctx, names)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Stop releases the underlying fsnotify watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
