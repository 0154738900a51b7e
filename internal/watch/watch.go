// Package watch reports changes to a project's JSONL source files.
package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches one directory and calls onChange for every change to its
// *.jsonl files. onChange runs on the watcher goroutine and should return
// quickly; pair it with a debouncer to coalesce bursts.
type Watcher struct {
	dir      string
	onChange func()
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for dir. Nothing is watched until Run.
func New(dir string, onChange func(), opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		onChange: onChange,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx ends. It returns nil on cancellation and an error
// if the directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching project files", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher", zap.String("dir", w.dir))
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !IsSourceEvent(event) {
				continue
			}
			w.logger.Debug("source file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			w.onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// IsSourceEvent reports whether event changes a JSONL source file.
// Temp files written during atomic replacement are ignored; the final
// rename shows up as a Create of the real name.
func IsSourceEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Ext(event.Name) == ".jsonl"
}
