package layout

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultFrameRate is the tick rate of a Runner, one tick per animation
// frame.
const DefaultFrameRate = 60

// Runner drives a Simulation at a fixed frame rate and streams snapshots to
// a renderer.
type Runner struct {
	sim      *Simulation
	limiter  *rate.Limiter
	logger   *zap.Logger
	maxTicks int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFrameRate sets ticks per second. Zero or negative runs unpaced.
func WithFrameRate(fps float64) RunnerOption {
	return func(r *Runner) {
		if fps <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxTicks bounds a run. Zero means no bound.
func WithMaxTicks(n int) RunnerOption {
	return func(r *Runner) { r.maxTicks = n }
}

// NewRunner creates a Runner for sim.
func NewRunner(sim *Simulation, opts ...RunnerOption) *Runner {
	r := &Runner{
		sim:     sim,
		limiter: rate.NewLimiter(rate.Limit(DefaultFrameRate), 1),
		logger:  zap.NewNop(),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks the simulation once per frame and sends a snapshot after every
// tick. It returns nil when the simulation settles, when the tick bound is
// reached or after Stop, and the context error if ctx ends first. A nil out
// channel discards snapshots.
func (r *Runner) Run(ctx context.Context, out chan<- Snapshot) error {
	ticks := 0
	for {
		select {
		case <-r.stopCh:
			return nil
		default:
		}
		if err := r.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next frame would land after the
			// deadline; the run ends with the context either way.
			r.logger.Debug("frame limiter", zap.Error(err))
			select {
			case <-ctx.Done():
				r.sim.Stop()
				return ctx.Err()
			case <-r.stopCh:
				return nil
			}
		}

		running := r.sim.Step()
		ticks++
		snap := r.sim.Snapshot()
		if out != nil {
			select {
			case out <- snap:
			case <-r.stopCh:
				return nil
			case <-ctx.Done():
				r.sim.Stop()
				return ctx.Err()
			}
		}

		if !running {
			r.logger.Debug("layout settled",
				zap.Int("ticks", snap.Tick),
				zap.Float64("alpha", snap.Alpha),
				zap.Stringer("state", snap.State),
			)
			return nil
		}
		if r.maxTicks > 0 && ticks >= r.maxTicks {
			r.logger.Debug("layout tick bound reached", zap.Int("ticks", ticks))
			return nil
		}
	}
}

// Stop cancels a run and stops the simulation. It is safe to call more
// than once and from any goroutine.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.sim.Stop()
		r.logger.Debug("layout stopped")
	})
}

// Settle runs sim synchronously until it rests or maxTicks steps have run
// (zero means no bound) and returns the number of steps.
func Settle(sim *Simulation, maxTicks int) int {
	if maxTicks <= 0 {
		maxTicks = math.MaxInt
	}
	return sim.Tick(maxTicks)
}
