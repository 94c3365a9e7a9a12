package server

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a guide file and triggers reload when it changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	file     string
	onReload func(filePath string) error
	done     chan struct{}
	stopped  chan struct{}
	started  bool
	logger   *zap.Logger
}

// NewWatcher creates a watcher for file. The parent directory is watched so
// editors that replace the file on save are still seen.
func NewWatcher(file string, onReload func(string) error, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		file:     abs,
		onReload: onReload,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   logger,
	}, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	w.started = true
	go func() {
		defer close(w.stopped)
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if filepath.Clean(event.Name) != w.file {
					continue
				}

				w.logger.Debug("guide changed", zap.String("file", w.file))
				if err := w.onReload(w.file); err != nil {
					w.logger.Warn("guide reload failed", zap.String("file", w.file), zap.Error(err))
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.Error(err))

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	if w.started {
		<-w.stopped
	}
	return err
}
