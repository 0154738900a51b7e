// Package viewport converts between data space and device pixels for the
// force graphs and the timeline.
package viewport

import (
	"fmt"
	"math"
)

// Multiplicative change of the visible data extent per wheel tick. The two
// steps are not inverses: zooming in then out leaves the view 1% smaller.
const (
	ZoomOutFactor = 1.1
	ZoomInFactor  = 0.9
)

// Point is a position in either data or pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an on-screen element size in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle. For a Mapper it is the visible region
// of data space (an SVG viewBox).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Mapper holds the current viewport rectangle and the pixels-per-unit scale
// derived from the element width.
type Mapper struct {
	view    Rect
	element Size
	scale   float64
}

// NewMapper creates a mapper for view rendered into an element of the given
// size. An unusable element size leaves the scale at 1 until a valid Resize.
func NewMapper(view Rect, element Size) *Mapper {
	m := &Mapper{view: view, scale: 1}
	m.Resize(element)
	return m
}

// Resize recomputes the scale from the element width. Sizes <= 0 (hidden or
// collapsed elements) are ignored and the previous scale is kept.
func (m *Mapper) Resize(element Size) {
	if element.W <= 0 || element.H <= 0 || m.view.W <= 0 {
		return
	}
	m.element = element
	m.scale = element.W / m.view.W
}

// Scale returns the current pixels per data unit.
func (m *Mapper) Scale() float64 {
	return m.scale
}

// View returns the visible data rectangle.
func (m *Mapper) View() Rect {
	return m.view
}

// Element returns the last accepted element size.
func (m *Mapper) Element() Size {
	return m.element
}

// ViewBox formats the visible rectangle as an SVG viewBox attribute.
func (m *Mapper) ViewBox() string {
	return fmt.Sprintf("%g %g %g %g", m.view.X, m.view.Y, m.view.W, m.view.H)
}

// ToScreen maps a data point to element-relative pixels.
func (m *Mapper) ToScreen(p Point) Point {
	return Point{
		X: (p.X - m.view.X) * m.scale,
		Y: (p.Y - m.view.Y) * m.scale,
	}
}

// ToData maps element-relative pixels back to data space.
func (m *Mapper) ToData(p Point) Point {
	return Point{
		X: m.view.X + p.X/m.scale,
		Y: m.view.Y + p.Y/m.scale,
	}
}

// Pan moves the content by delta pixels: the data point under the pointer
// stays under the pointer.
func (m *Mapper) Pan(delta Point) {
	m.view.X -= delta.X / m.scale
	m.view.Y -= delta.Y / m.scale
}

// Zoom rescales the view around anchor (element pixels). A positive
// direction (wheel deltaY > 0) grows the view by ZoomOutFactor, a negative
// one shrinks it by ZoomInFactor. The data point under the anchor does not
// move.
func (m *Mapper) Zoom(direction int, anchor Point) {
	if direction == 0 {
		return
	}
	factor := ZoomOutFactor
	if direction < 0 {
		factor = ZoomInFactor
	}

	fixed := m.ToData(anchor)
	m.view.W *= factor
	m.view.H *= factor
	m.scale /= factor
	m.view.X = fixed.X - anchor.X/m.scale
	m.view.Y = fixed.Y - anchor.Y/m.scale
}

// Px converts a size given in screen pixels to data units, so node radii,
// fonts and strokes keep a constant on-screen size.
func (m *Mapper) Px(screenPx float64) float64 {
	return screenPx / m.scale
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Round3 rounds v to three decimal places, the precision of persisted
// story positions and fortunes.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
