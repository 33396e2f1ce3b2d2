// Package watcher re-runs a callback when files under a directory
// change. Bursts of filesystem events (editor saves, bulk copies) are
// debounced into a single run.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loankit/docpipe/internal/logger"
)

// DefaultDebounce is the quiet period required before the callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher debounces filesystem events for one directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context) error
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over dir. onChange runs after each debounced
// burst of events; its error is logged, not fatal, so one bad run does
// not stop the watch.
func New(dir string, onChange func(ctx context.Context) error, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled, invoking onChange after each
// debounced burst of create/write/rename/remove events under the
// watched directory.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching %s for changes", w.dir)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("fs event: %s", event)
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
			pending = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-pending:
			pending = nil
			if err := w.onChange(ctx); err != nil {
				logger.Error("change handler failed: %v", err)
			}
		}
	}
}
