package snapshot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc reloads the source data and builds a new grid.
type RebuildFunc func(ctx context.Context) (*grid.Grid, error)

// Watcher rebuilds and publishes a grid whenever a source file changes.
// Bursts of events closer together than the debounce interval trigger one
// rebuild.
type Watcher struct {
	watcher  *fsnotify.Watcher
	holder   *Holder
	rebuild  RebuildFunc
	debounce time.Duration
	log      *zap.Logger

	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs. A non-positive debounce uses DefaultDebounce.
func NewWatcher(holder *Holder, rebuild RebuildFunc, debounce time.Duration, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  w,
		holder:   holder,
		rebuild:  rebuild,
		debounce: debounce,
		log:      logger.Named("watcher"),
		closeCh:  make(chan struct{}),
	}, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// Run processes events until ctx is done or the watcher is closed. Rebuild
// failures are logged and the previous snapshot stays current.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isSourceFile(event.Name) {
				continue
			}
			w.log.Debug("source changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.debounce)
		case <-timer.C:
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-w.closeCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	start := time.Now()
	g, err := w.rebuild(ctx)
	if err != nil {
		w.log.Error("rebuild failed, keeping current snapshot", zap.Error(err))
		return
	}
	snap, swapped := w.holder.Publish(g)
	w.log.Info("rebuild finished",
		zap.Stringer("snapshot", snap.ID),
		zap.Bool("swapped", swapped),
		zap.Duration("took", time.Since(start)),
	)
}

func isSourceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
