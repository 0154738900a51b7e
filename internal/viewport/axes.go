package viewport

// Axes maps the normalized timeline domain (story position on X, fortune on
// Y, both in [0,1]) into the plot area of the timeline content.
type Axes struct {
	Left   float64 // x of position 0
	Width  float64 // plot width; position 1 is at Left+Width
	Top    float64 // y of fortune 1
	Bottom float64 // y of fortune 0
}

// Height returns the vertical extent of the plot area.
func (a Axes) Height() float64 {
	return a.Bottom - a.Top
}

// PosToX maps a story position to content x.
func (a Axes) PosToX(pos float64) float64 {
	return a.Left + pos*a.Width
}

// FortuneToY maps a fortune value to content y. Good fortune is up.
func (a Axes) FortuneToY(f float64) float64 {
	return a.Bottom - f*a.Height()
}

// XToPos maps content x back to a story position, clamped to [0,1].
func (a Axes) XToPos(x float64) float64 {
	if a.Width <= 0 {
		return 0
	}
	return Clamp01((x - a.Left) / a.Width)
}

// YToFortune maps content y back to a fortune value, clamped to [0,1].
func (a Axes) YToFortune(y float64) float64 {
	h := a.Height()
	if h <= 0 {
		return 0
	}
	return Clamp01((a.Bottom - y) / h)
}

// ClientToLocal converts a client pointer position into content coordinates
// for an SVG of the given content size drawn into bounds, which may be
// scaled. A collapsed bounds rectangle maps everything to the origin.
func ClientToLocal(client Point, bounds Rect, content Size) Point {
	if bounds.W <= 0 || bounds.H <= 0 {
		return Point{}
	}
	return Point{
		X: (client.X - bounds.X) / bounds.W * content.W,
		Y: (client.Y - bounds.Y) / bounds.H * content.H,
	}
}
