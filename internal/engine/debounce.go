package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer coalesces bursts of triggers into one refresh that runs after
// the most recent trigger has been quiet for the delay.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// Trigger schedules a refresh, pushing back one already pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Cancel drops a pending refresh. Later triggers still work.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop drops a pending refresh and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Debounced returns a Debouncer that refreshes projectID delay after the
// latest Trigger. done, when non-nil, receives every refresh outcome. The
// refresh uses ctx; once ctx ends pending refreshes do nothing.
func (e *Engine) Debounced(ctx context.Context, delay time.Duration, projectID int64, done func(Result, error)) *Debouncer {
	d := &Debouncer{delay: delay}
	d.fn = func() {
		if ctx.Err() != nil {
			return
		}
		res, err := e.Refresh(ctx, projectID)
		if err != nil {
			e.logger.Warn("debounced refresh failed", zap.Int64("project", projectID), zap.Error(err))
		}
		if done != nil {
			done(res, err)
		}
	}

	e.mu.Lock()
	if e.closed {
		d.stopped = true
	} else {
		e.debouncers = append(e.debouncers, d)
	}
	e.mu.Unlock()
	return d
}
