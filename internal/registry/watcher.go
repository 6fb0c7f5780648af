package registry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"compdb/internal/compdb"
	"compdb/internal/contextutil"
)

// DefaultDebounce is how long the watcher waits for more events before refreshing.
const DefaultDebounce = 100 * time.Millisecond

// Watcher refreshes a Registry when a database output file is created,
// removed or renamed, so consumers see staleness without polling.
type Watcher struct {
	reg       *Registry
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	onRefresh func(entries []Entry)

	mu      sync.Mutex
	watched map[string]struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher over the output directories of reg.
// onRefresh, if non-nil, is called with the entries after every refresh.
func NewWatcher(reg *Registry, debounce time.Duration, onRefresh func([]Entry)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		reg:       reg,
		watcher:   fw,
		debounce:  debounce,
		onRefresh: onRefresh,
		watched:   make(map[string]struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the current output directories and processes events until
// Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.Sync(ctx); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Sync adds output directories registered since the last call. Missing
// directories are skipped; they are retried on the next Sync.
func (w *Watcher) Sync(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, dir := range w.reg.Directories() {
		if _, ok := w.watched[dir]; ok {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.DebugContext(ctx, "output directory not watchable", "dir", dir)
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.watched[dir] = struct{}{}
	}
	return nil
}

// Stop ends event processing and releases the underlying watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	logger := contextutil.LoggerFromContext(ctx)

	// Armed by the first tracked event.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.tracked(event.Name) {
				continue
			}
			logger.DebugContext(ctx, "database output changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.reg.Refresh(ctx); err != nil {
				logger.ErrorContext(ctx, "failed to refresh registry", "error", err)
				continue
			}
			if w.onRefresh != nil {
				w.onRefresh(w.reg.Entries())
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}

// tracked reports whether path is the output file of a registry entry.
func (w *Watcher) tracked(path string) bool {
	path = compdb.NormalizePath(path)
	for _, e := range w.reg.Entries() {
		if compdb.NormalizePath(e.OutputPath()) == path {
			return true
		}
	}
	return false
}
