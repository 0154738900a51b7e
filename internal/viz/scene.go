package viz

import (
	"github.com/matsen/sutra/internal/layout"
	"github.com/matsen/sutra/internal/overlay"
	"github.com/matsen/sutra/internal/viewport"
)

// Options configures scene construction.
type Options struct {
	Width    float64            // element width in screen pixels
	Padding  float64            // data units kept around the layout bounds
	Title    string             // page title; each scene has a default
	Hovered  int64              // node under the pointer, 0 for none
	Selected *overlay.Selection // selected nodes, may be nil
}

// DefaultOptions returns default scene options.
func DefaultOptions() Options {
	return Options{
		Width:   960,
		Padding: 40,
	}
}

// Height limits for force-layout scenes, in screen pixels.
const (
	minSceneHeight = 240
	maxSceneHeight = 2400
)

// layoutMapper fits a layout snapshot into an element opts.Width wide. The
// element height follows the aspect ratio of the layout bounds. When that
// height is clamped the view grows to the element's aspect, so the SVG is
// drawn at exactly the mapper's scale.
func layoutMapper(snap layout.Snapshot, opts Options) *viewport.Mapper {
	view := snap.Bounds(opts.Padding)
	width := opts.Width
	if width <= 0 {
		width = DefaultOptions().Width
	}
	height := width
	if view.W > 0 {
		natural := width * view.H / view.W
		height = viewport.Clamp(natural, minSceneHeight, maxSceneHeight)
		if height != natural {
			view = fitAspect(view, width/height)
		}
	}
	return viewport.NewMapper(view, viewport.Size{W: width, H: height})
}

// fitAspect grows view around its centre until W/H equals aspect.
func fitAspect(view viewport.Rect, aspect float64) viewport.Rect {
	if view.W <= 0 || view.H <= 0 || aspect <= 0 {
		return view
	}
	if view.W/view.H < aspect {
		w := view.H * aspect
		view.X -= (w - view.W) / 2
		view.W = w
	} else {
		h := view.W / aspect
		view.Y -= (h - view.H) / 2
		view.H = h
	}
	return view
}

func newScene(kind, title string, m *viewport.Mapper) *Scene {
	el := m.Element()
	return &Scene{
		Kind:    kind,
		Title:   title,
		Width:   el.W,
		Height:  el.H,
		ViewBox: m.ViewBox(),
		Scale:   m.Scale(),
	}
}

func isSelected(sel *overlay.Selection, id int64) bool {
	return sel != nil && sel.Has(id)
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}
