package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// ManifestWatcher reloads the manifest file when it changes and registers a
// new coordinator version for it.
//
// The parent directory is watched, not the file, so editors and deploy tools
// that replace the file by rename are picked up.
type ManifestWatcher struct {
	rt       *Runtime
	path     string
	debounce time.Duration

	// onReload is called after each reload attempt. Tests hook it.
	onReload func(*VersionInfo, error)

	startOnce sync.Once
	stopCh    chan struct{}
	stopped   chan struct{}
}

// NewManifestWatcher creates a watcher for path. A zero debounce selects
// DefaultDebounce.
func NewManifestWatcher(rt *Runtime, path string, debounce time.Duration) *ManifestWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ManifestWatcher{
		rt:       rt,
		path:     filepath.Clean(path),
		debounce: debounce,
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins watching. The goroutine runs until Stop is called or ctx is
// cancelled.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	started := false
	w.startOnce.Do(func() {
		started = true
		go w.run(ctx, fw)
	})
	if !started {
		_ = fw.Close()
		return errors.New("manifest watcher already started or stopped")
	}
	return nil
}

func (w *ManifestWatcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.stopped)
	defer fw.Close()

	logger.Info("manifest watcher started", logger.KeyPath, w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("manifest watcher stopping (context cancelled)")
			return
		case <-w.stopCh:
			logger.Debug("manifest watcher stopping (stop signal)")
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("manifest watcher error", logger.Err(err))
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *ManifestWatcher) reload(ctx context.Context) {
	m, err := manifest.Load(w.path)
	if err != nil {
		logger.Warn("ignoring manifest change", logger.KeyPath, w.path, logger.Err(err))
		w.notify(nil, err)
		return
	}
	info, err := w.rt.Register(ctx, m)
	if err != nil {
		logger.Warn("failed to register reloaded manifest", logger.KeyPath, w.path, logger.Err(err))
	} else {
		logger.Info("manifest reloaded", logger.KeyPath, w.path, logger.KeyVersion, info.ID)
	}
	w.notify(info, err)
}

func (w *ManifestWatcher) notify(info *VersionInfo, err error) {
	if w.onReload != nil {
		w.onReload(info, err)
	}
}

// Stop signals the watcher to stop and waits for it to exit. Safe to call on
// a watcher that was never started.
func (w *ManifestWatcher) Stop() {
	select {
	case <-w.stopCh:
		return
	default:
		close(w.stopCh)
	}

	// A watcher that never started has no goroutine to close stopped.
	w.startOnce.Do(func() { close(w.stopped) })
	<-w.stopped
	logger.Debug("manifest watcher stopped")
}
