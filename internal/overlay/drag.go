// Package overlay holds the pointer-driven interaction state of the
// visualizations: dragging timeline points, hover and selection.
package overlay

import (
	"math"

	"github.com/matsen/sutra/internal/viewport"
)

// DefaultDragThreshold is how far (in content pixels) the pointer must move
// before a press becomes a drag.
const DefaultDragThreshold = 4.0

// Phase is the state of a Drag.
type Phase int

// Drag phases.
const (
	Idle Phase = iota
	Pending
	Dragging
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// Axis selects which coordinates a drag may change.
type Axis int

// Drag axes. Timeline events move along the story axis only; character
// appearances move in both position and fortune.
const (
	AxisX Axis = iota
	AxisXY
)

// Value is a point in the normalized timeline domain.
type Value struct {
	Position float64 `json:"position"`
	Fortune  float64 `json:"fortune"`
}

// Target identifies the element under the pointer.
type Target struct {
	ID   int64
	Axis Axis
}

// ResultKind classifies the end of a gesture.
type ResultKind int

// Gesture outcomes.
const (
	None ResultKind = iota
	Click
	Commit
)

func (k ResultKind) String() string {
	switch k {
	case Click:
		return "click"
	case Commit:
		return "commit"
	}
	return "none"
}

// MarshalText lets result kinds appear by name in JSON output.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is returned by PointerUp. For a Commit, Value holds the new
// persisted value, clamped to [0,1] and rounded to three decimals.
type Result struct {
	Kind  ResultKind `json:"kind"`
	ID    int64      `json:"id,omitempty"`
	Value Value      `json:"value"`
}

// Drag distinguishes clicks from drags on timeline elements and tracks the
// live, uncommitted position while dragging.
type Drag struct {
	axes      viewport.Axes
	threshold float64

	phase     Phase
	target    Target
	start     viewport.Point
	persisted Value
	live      Value
}

// DragOption configures a Drag.
type DragOption func(*Drag)

// WithThreshold overrides DefaultDragThreshold.
func WithThreshold(px float64) DragOption {
	return func(d *Drag) { d.threshold = px }
}

// NewDrag creates an idle drag over the given plot axes.
func NewDrag(axes viewport.Axes, opts ...DragOption) *Drag {
	d := &Drag{axes: axes, threshold: DefaultDragThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetAxes updates the plot geometry, e.g. after the container resized.
func (d *Drag) SetAxes(axes viewport.Axes) {
	d.axes = axes
}

// Phase returns the current phase.
func (d *Drag) Phase() Phase {
	return d.phase
}

// PointerDown starts a gesture on target. Nothing is mutated until the
// pointer moves past the threshold. A non-finite pointer is ignored.
func (d *Drag) PointerDown(target Target, pointer viewport.Point, persisted Value) {
	if !finite(pointer) {
		return
	}
	d.phase = Pending
	d.target = target
	d.start = pointer
	d.persisted = persisted
	d.live = persisted
}

// PointerMove updates the gesture and reports whether the live value
// changed. Non-finite pointers are dropped.
func (d *Drag) PointerMove(pointer viewport.Point) bool {
	if !finite(pointer) {
		return false
	}
	switch d.phase {
	case Pending:
		if math.Hypot(pointer.X-d.start.X, pointer.Y-d.start.Y) < d.threshold {
			return false
		}
		d.phase = Dragging
	case Dragging:
	default:
		return false
	}

	next := d.persisted
	next.Position = d.axes.XToPos(pointer.X)
	if d.target.Axis == AxisXY {
		next.Fortune = d.axes.YToFortune(pointer.Y)
	}
	changed := next != d.live
	d.live = next
	return changed
}

// Live returns the uncommitted value while dragging.
func (d *Drag) Live() (Value, bool) {
	if d.phase != Dragging {
		return Value{}, false
	}
	return d.live, true
}

// Dragged returns the id being dragged, or 0.
func (d *Drag) Dragged() int64 {
	if d.phase != Dragging {
		return 0
	}
	return d.target.ID
}

// PointerUp ends the gesture. A press that never left Pending is a click; a
// drag commits its rounded live value.
func (d *Drag) PointerUp() Result {
	defer d.reset()
	switch d.phase {
	case Pending:
		return Result{Kind: Click, ID: d.target.ID, Value: d.persisted}
	case Dragging:
		return Result{Kind: Commit, ID: d.target.ID, Value: RoundValue(d.live)}
	}
	return Result{Kind: None}
}

// Cancel abandons the gesture without committing, e.g. when the pointer
// leaves the view or the view is torn down.
func (d *Drag) Cancel() {
	d.reset()
}

func (d *Drag) reset() {
	d.phase = Idle
	d.target = Target{}
	d.live = Value{}
	d.persisted = Value{}
}

func finite(p viewport.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// RoundValue clamps v to [0,1] and rounds it to the persisted precision.
func RoundValue(v Value) Value {
	return Value{
		Position: viewport.Round3(viewport.Clamp01(v.Position)),
		Fortune:  viewport.Round3(viewport.Clamp01(v.Fortune)),
	}
}

// PlaceAt converts a double-click at pointer into a new appearance value.
func PlaceAt(axes viewport.Axes, pointer viewport.Point) Value {
	return RoundValue(Value{
		Position: axes.XToPos(pointer.X),
		Fortune:  axes.YToFortune(pointer.Y),
	})
}
