package layout

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/sutra/internal/viewport"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func distance(snap Snapshot, a, b int64) float64 {
	pa, pb := snap.Positions[a], snap.Positions[b]
	return math.Hypot(pa.X-pb.X, pa.Y-pb.Y)
}

func assertFinite(t *testing.T, snap Snapshot) {
	t.Helper()
	for _, n := range snap.Nodes {
		for _, v := range []float64{n.X, n.Y, n.VX, n.VY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("node %d has non-finite coordinate: %+v", n.ID, n)
			}
		}
	}
}

func TestTwoNodesConvergeToLinkDistance(t *testing.T) {
	params := IdeaParams()
	params.Charge = 0
	params.CollideRadius = 0

	nodes := []Node{{ID: 1}, {ID: 2}}
	links := []Link{{Source: 1, Target: 2, Weight: 1.0}}
	sim := New(nodes, links, params, testRNG())

	ticks := Settle(sim, 0)
	snap := sim.Snapshot()

	assert.Equal(t, Settled, snap.State)
	assert.Less(t, snap.Alpha, DefaultAlphaMin)
	assert.Greater(t, ticks, 100)
	assert.InDelta(t, 30, distance(snap, 1, 2), 0.01)
	assertFinite(t, snap)
}

func TestCharacterPresetSettlesNearTargetDistance(t *testing.T) {
	nodes := []Node{{ID: 1}, {ID: 2}}
	links := []Link{{Source: 1, Target: 2, Weight: 1}}
	sim := New(nodes, links, CharacterParams(), testRNG())

	Settle(sim, 0)
	snap := sim.Snapshot()

	// repulsion stretches the link a little past 100
	d := distance(snap, 1, 2)
	assert.Greater(t, d, 100.0)
	assert.Less(t, d, 110.0)
	assert.Equal(t, Settled, sim.State())
}

func TestIdeaPresetLinkValues(t *testing.T) {
	p := IdeaParams()
	tests := []struct {
		score, distance, strength float64
	}{
		{1.0, 30, 0.5},
		{0.9, 30, 0.45},
		{0.5, 75, 0.25},
		{0.1, 135, 0.05},
	}
	for _, tt := range tests {
		l := Link{Weight: tt.score}
		assert.InDelta(t, tt.distance, p.LinkDistance(l), 1e-9, "distance for %v", tt.score)
		assert.InDelta(t, tt.strength, p.LinkStrength(l), 1e-9, "strength for %v", tt.score)
	}

	c := CharacterParams()
	assert.Equal(t, 100.0, c.LinkDistance(Link{Kind: "rival"}))
	assert.Equal(t, 100.0, c.LinkDistance(Link{Kind: "love"}))
	assert.InDelta(t, 0.0228, c.AlphaDecay, 1e-4)
}

func TestSeedingStaysWithinExtent(t *testing.T) {
	nodes := make([]Node, 50)
	for i := range nodes {
		nodes[i].ID = int64(i + 1)
	}
	params := IdeaParams()
	sim := New(nodes, nil, params, testRNG())
	snap := sim.Snapshot()

	for _, n := range snap.Nodes {
		assert.LessOrEqual(t, math.Abs(n.X), params.SeedExtent)
		assert.LessOrEqual(t, math.Abs(n.Y), params.SeedExtent)
		assert.False(t, n.X == 0 && n.Y == 0)
	}
}

func TestInitialPositionsAreKept(t *testing.T) {
	nodes := []Node{{ID: 1, X: 12, Y: -4}, {ID: 2}}
	sim := New(nodes, nil, IdeaParams(), testRNG())
	snap := sim.Snapshot()
	assert.Equal(t, viewport.Point{X: 12, Y: -4}, snap.Positions[1])
}

func TestCoincidentNodesStayFinite(t *testing.T) {
	nodes := make([]Node, 12)
	links := make([]Link, 0, len(nodes))
	for i := range nodes {
		nodes[i] = Node{ID: int64(i + 1), X: 5, Y: 5}
		if i > 0 {
			links = append(links, Link{Source: int64(i), Target: int64(i + 1), Weight: 0})
		}
	}
	sim := New(nodes, links, IdeaParams(), testRNG())

	Settle(sim, 0)
	snap := sim.Snapshot()
	assertFinite(t, snap)

	// collision keeps every pair apart once settled
	for i := 1; i <= len(nodes); i++ {
		for j := i + 1; j <= len(nodes); j++ {
			assert.Greater(t, distance(snap, int64(i), int64(j)), 1.0)
		}
	}
}

func TestInvalidLinksAreIgnored(t *testing.T) {
	nodes := []Node{{ID: 1}, {ID: 2}}
	links := []Link{
		{Source: 1, Target: 2, Weight: 0.5},
		{Source: 1, Target: 99, Weight: 0.5},
		{Source: 2, Target: 2, Weight: 0.5},
	}
	sim := New(nodes, links, IdeaParams(), testRNG())
	snap := sim.Snapshot()

	require.Len(t, snap.Edges, 1)
	assert.Equal(t, int64(1), snap.Edges[0].Source)
	assert.Equal(t, snap.Positions[1], snap.Edges[0].From)
	assert.Equal(t, snap.Positions[2], snap.Edges[0].To)
}

func TestStateMachine(t *testing.T) {
	nodes := []Node{{ID: 1}, {ID: 2}, {ID: 3}}
	links := []Link{{Source: 1, Target: 2, Weight: 0.8}}
	sim := New(nodes, links, IdeaParams(), testRNG())
	assert.Equal(t, Running, sim.State())

	assert.Equal(t, 5, sim.Tick(5))
	assert.Equal(t, 5, sim.Ticks())

	sim.Stop()
	assert.Equal(t, Idle, sim.State())
	before := sim.Snapshot()
	assert.False(t, sim.Step())
	assert.Equal(t, before.Positions, sim.Snapshot().Positions, "a stopped simulation must not move")

	sim.Restart(append(nodes, Node{ID: 4}), links)
	assert.Equal(t, Running, sim.State())
	assert.Equal(t, 0, sim.Ticks())
	assert.Equal(t, 0.8, sim.Alpha())
	restarted := sim.Snapshot()
	assert.Len(t, restarted.Nodes, 4)
	assert.NotEqual(t, before.Positions[1], restarted.Positions[1], "restart re-seeds positions")

	Settle(sim, 0)
	assert.Equal(t, Settled, sim.State())
	assert.False(t, sim.Step())
}

func TestDragPinsAndReheats(t *testing.T) {
	nodes := []Node{{ID: 1}, {ID: 2}}
	links := []Link{{Source: 1, Target: 2, Weight: 0.5}}
	sim := New(nodes, links, IdeaParams(), testRNG())
	Settle(sim, 0)
	require.Equal(t, Settled, sim.State())

	target := viewport.Point{X: 120, Y: -80}
	require.NoError(t, sim.Drag(1, target))
	assert.Equal(t, Running, sim.State())

	sim.Tick(50)
	snap := sim.Snapshot()
	assert.Equal(t, target, snap.Positions[1])
	assert.Greater(t, sim.Alpha(), 0.1, "dragging keeps the simulation warm")

	require.NoError(t, sim.Release(1))
	Settle(sim, 0)
	assert.Equal(t, Settled, sim.State())

	assert.ErrorIs(t, sim.Drag(42, target), ErrNodeNotFound)
	assert.ErrorIs(t, sim.Release(42), ErrNodeNotFound)
}

func TestDragDoesNotWakeStoppedSimulation(t *testing.T) {
	sim := New([]Node{{ID: 1}}, nil, IdeaParams(), testRNG())
	sim.Stop()
	require.NoError(t, sim.Drag(1, viewport.Point{X: 1, Y: 1}))
	assert.Equal(t, Idle, sim.State())
}

func TestEmptySimulationSettles(t *testing.T) {
	sim := New(nil, nil, IdeaParams(), testRNG())
	Settle(sim, 0)
	snap := sim.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)
	assert.Equal(t, viewport.Rect{}, snap.Bounds(10))
}

func TestDeterministicWithSeed(t *testing.T) {
	nodes := []Node{{ID: 1}, {ID: 2}, {ID: 3}}
	links := []Link{{Source: 1, Target: 2, Weight: 0.6}, {Source: 2, Target: 3, Weight: 0.3}}

	a := New(nodes, links, IdeaParams(), testRNG())
	b := New(nodes, links, IdeaParams(), testRNG())
	Settle(a, 0)
	Settle(b, 0)
	assert.Equal(t, a.Snapshot().Positions, b.Snapshot().Positions)
}

func TestSnapshotBounds(t *testing.T) {
	snap := Snapshot{Nodes: []Node{{X: -10, Y: 5}, {X: 30, Y: -15}}}
	assert.Equal(t, viewport.Rect{X: -12, Y: -17, W: 44, H: 24}, snap.Bounds(2))
}

func TestCenteringKeepsMeanAtOrigin(t *testing.T) {
	nodes := []Node{{ID: 1, X: 400, Y: 400}, {ID: 2, X: 420, Y: 380}, {ID: 3, X: 390, Y: 410}}
	sim := New(nodes, nil, CharacterParams(), testRNG())
	Settle(sim, 0)

	var mx, my float64
	snap := sim.Snapshot()
	for _, n := range snap.Nodes {
		mx += n.X
		my += n.Y
	}
	assert.InDelta(t, 0, mx/3, 1.0)
	assert.InDelta(t, 0, my/3, 1.0)
}
