package overlay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/sutra/internal/viewport"
)

var testAxes = viewport.Axes{Left: 100, Width: 1000, Top: 70, Bottom: 570}

func TestDrag_ClickWithoutMovement(t *testing.T) {
	d := NewDrag(testAxes)
	persisted := Value{Position: 0.25, Fortune: 0.5}

	d.PointerDown(Target{ID: 7, Axis: AxisX}, viewport.Point{X: 350, Y: 300}, persisted)
	assert.Equal(t, Pending, d.Phase())
	_, live := d.Live()
	assert.False(t, live)

	res := d.PointerUp()
	assert.Equal(t, Click, res.Kind)
	assert.Equal(t, int64(7), res.ID)
	assert.Equal(t, persisted, res.Value)
	assert.Equal(t, Idle, d.Phase())
}

func TestDrag_JitterBelowThresholdIsStillAClick(t *testing.T) {
	d := NewDrag(testAxes)
	d.PointerDown(Target{ID: 1, Axis: AxisXY}, viewport.Point{X: 350, Y: 300}, Value{Position: 0.25, Fortune: 0.54})

	assert.False(t, d.PointerMove(viewport.Point{X: 352, Y: 302}))
	assert.False(t, d.PointerMove(viewport.Point{X: 347.5, Y: 300}))
	assert.Equal(t, Pending, d.Phase())

	assert.Equal(t, Click, d.PointerUp().Kind)
}

func TestDrag_CommitRoundsAndClamps(t *testing.T) {
	d := NewDrag(testAxes)
	d.PointerDown(Target{ID: 3, Axis: AxisXY}, viewport.Point{X: 350, Y: 320}, Value{Position: 0.25, Fortune: 0.5})

	require.True(t, d.PointerMove(viewport.Point{X: 361.2345, Y: 200}))
	assert.Equal(t, Dragging, d.Phase())
	assert.Equal(t, int64(3), d.Dragged())

	live, ok := d.Live()
	require.True(t, ok)
	assert.InDelta(t, 0.2612345, live.Position, 1e-9, "live value is not rounded")
	assert.InDelta(t, 0.74, live.Fortune, 1e-9)

	d.PointerMove(viewport.Point{X: 2000, Y: 900})
	live, _ = d.Live()
	assert.Equal(t, Value{Position: 1, Fortune: 0}, live)

	d.PointerMove(viewport.Point{X: 361.2345, Y: 200})
	res := d.PointerUp()
	assert.Equal(t, Commit, res.Kind)
	assert.Equal(t, int64(3), res.ID)
	assert.Equal(t, Value{Position: 0.261, Fortune: 0.74}, res.Value)
	assert.Equal(t, Idle, d.Phase())
	assert.Equal(t, int64(0), d.Dragged())
}

func TestDrag_AxisXKeepsFortune(t *testing.T) {
	d := NewDrag(testAxes)
	d.PointerDown(Target{ID: 9, Axis: AxisX}, viewport.Point{X: 600, Y: 300}, Value{Position: 0.5, Fortune: 0.123})

	d.PointerMove(viewport.Point{X: 700, Y: 90})
	res := d.PointerUp()
	assert.Equal(t, Commit, res.Kind)
	assert.Equal(t, 0.6, res.Value.Position)
	assert.Equal(t, 0.123, res.Value.Fortune)
}

func TestDrag_Cancel(t *testing.T) {
	d := NewDrag(testAxes)
	d.PointerDown(Target{ID: 2}, viewport.Point{X: 100, Y: 100}, Value{})
	d.PointerMove(viewport.Point{X: 300, Y: 100})
	require.Equal(t, Dragging, d.Phase())

	d.Cancel()
	assert.Equal(t, Idle, d.Phase())
	assert.Equal(t, None, d.PointerUp().Kind, "nothing is committed after cancel")
}

func TestDrag_MoveWhileIdle(t *testing.T) {
	d := NewDrag(testAxes)
	assert.False(t, d.PointerMove(viewport.Point{X: 500, Y: 500}))
	assert.Equal(t, Idle, d.Phase())
	assert.Equal(t, None, d.PointerUp().Kind)
}

func TestDrag_CustomThreshold(t *testing.T) {
	d := NewDrag(testAxes, WithThreshold(10))
	d.PointerDown(Target{ID: 1}, viewport.Point{X: 0, Y: 0}, Value{})
	d.PointerMove(viewport.Point{X: 6, Y: 6})
	assert.Equal(t, Pending, d.Phase())
	d.PointerMove(viewport.Point{X: 6, Y: 8})
	assert.Equal(t, Dragging, d.Phase())
}

func TestDrag_NonFinitePointerNeverCommits(t *testing.T) {
	d := NewDrag(testAxes)
	persisted := Value{Position: 0.25, Fortune: 0.5}
	d.PointerDown(Target{ID: 3, Axis: AxisXY}, viewport.Point{X: 10, Y: 10}, persisted)

	assert.False(t, d.PointerMove(viewport.Point{X: math.NaN(), Y: 50}))
	assert.False(t, d.PointerMove(viewport.Point{X: 400, Y: math.Inf(-1)}))
	assert.Equal(t, Pending, d.Phase())
	assert.Equal(t, Click, d.PointerUp().Kind)

	d.PointerDown(Target{ID: 3, Axis: AxisXY}, viewport.Point{X: 10, Y: 10}, persisted)
	d.PointerMove(viewport.Point{X: 600, Y: 320})
	d.PointerMove(viewport.Point{X: math.NaN(), Y: math.NaN()})
	res := d.PointerUp()
	require.Equal(t, Commit, res.Kind)
	assert.Equal(t, Value{Position: 0.5, Fortune: 0.5}, res.Value)

	d.PointerDown(Target{ID: 3, Axis: AxisX}, viewport.Point{X: math.NaN(), Y: 10}, persisted)
	assert.Equal(t, Idle, d.Phase())
}

func TestRoundValue_NaN(t *testing.T) {
	got := RoundValue(Value{Position: math.NaN(), Fortune: 0.1234})
	assert.Equal(t, Value{Position: 0, Fortune: 0.123}, got)
}

func TestPlaceAt(t *testing.T) {
	got := PlaceAt(testAxes, viewport.Point{X: 433.33333, Y: 445})
	assert.Equal(t, Value{Position: 0.333, Fortune: 0.25}, got)
}
