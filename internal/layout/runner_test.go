package layout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunnerStreamsUntilSettled(t *testing.T) {
	sim := New([]Node{{ID: 1}, {ID: 2}}, []Link{{Source: 1, Target: 2, Weight: 1}}, IdeaParams(), testRNG())
	r := NewRunner(sim, WithFrameRate(0), WithLogger(zaptest.NewLogger(t)))

	out := make(chan Snapshot, 1024)
	err := r.Run(context.Background(), out)
	require.NoError(t, err)
	close(out)

	var last Snapshot
	count := 0
	for snap := range out {
		count++
		assert.Equal(t, count, snap.Tick, "one snapshot per tick, in order")
		last = snap
	}
	assert.Greater(t, count, 0)
	assert.Equal(t, Settled, last.State)
	assert.Equal(t, Settled, sim.State())
}

func TestRunnerMaxTicks(t *testing.T) {
	sim := New([]Node{{ID: 1}, {ID: 2}}, nil, IdeaParams(), testRNG())
	r := NewRunner(sim, WithFrameRate(0), WithMaxTicks(10))

	require.NoError(t, r.Run(context.Background(), nil))
	assert.Equal(t, 10, sim.Ticks())
	assert.Equal(t, Running, sim.State())
}

func TestRunnerContextCancel(t *testing.T) {
	sim := New([]Node{{ID: 1}, {ID: 2}}, nil, IdeaParams(), testRNG())
	r := NewRunner(sim, WithFrameRate(1000))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Idle, sim.State(), "a torn-down view leaves no running simulation")
}

func TestRunnerStop(t *testing.T) {
	sim := New([]Node{{ID: 1}, {ID: 2}}, nil, IdeaParams(), testRNG())
	r := NewRunner(sim, WithFrameRate(100))

	out := make(chan Snapshot)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), out) }()

	<-out
	<-out

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Stop()
		}()
	}
	wg.Wait()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, Idle, sim.State())
}

func TestSettleBound(t *testing.T) {
	sim := New([]Node{{ID: 1}, {ID: 2}}, nil, IdeaParams(), testRNG())
	assert.Equal(t, 7, Settle(sim, 7))
	assert.Equal(t, Running, sim.State())
}
