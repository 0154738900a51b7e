package timeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/viewport"
)

// Plot layout constants, in content pixels.
const (
	PaddingTop        = 70
	PaddingBottom     = 110
	LabelGap          = 18
	LabelPadLeft      = 10
	LabelFontSize     = 15
	CharPxWidth       = 9.5
	DefaultLeftMargin = 60
	MinContentWidth   = 600
	MinHeight         = 400
	ScenePx           = 80
	EventLabelBaseY   = 34
	EventLabelRowH    = 16
)

// FortuneGrid lists the fortune values that get horizontal guide lines.
var FortuneGrid = []float64{0.25, 0.5, 0.75}

// Geometry is the size of the timeline content and its plot area.
type Geometry struct {
	LeftMargin float64 `json:"left_margin"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PlotTop    float64 `json:"plot_top"`
	PlotBottom float64 `json:"plot_bottom"`
}

// NewGeometry sizes the timeline. The left margin fits the longest
// character name, the width grows with the number of scenes and never
// shrinks below the container.
func NewGeometry(names []string, totalScenes int, container viewport.Size) Geometry {
	left := float64(DefaultLeftMargin)
	if len(names) > 0 {
		longest := 0
		for _, n := range names {
			longest = max(longest, utf8.RuneCountInString(n))
		}
		left = LabelPadLeft + float64(longest)*CharPxWidth + LabelGap
	}

	content := max(MinContentWidth, float64(totalScenes)*ScenePx+200+left)
	width := max(content, container.W-4)
	height := max(MinHeight, container.H)
	return Geometry{
		LeftMargin: left,
		Width:      width,
		Height:     height,
		PlotTop:    PaddingTop,
		PlotBottom: height - PaddingBottom,
	}
}

// Axes returns the position/fortune mapping for the plot area.
func (g Geometry) Axes() viewport.Axes {
	return viewport.Axes{
		Left:   g.LeftMargin,
		Width:  g.Width - g.LeftMargin,
		Top:    g.PlotTop,
		Bottom: g.PlotBottom,
	}
}

// Size returns the content size.
func (g Geometry) Size() viewport.Size {
	return viewport.Size{W: g.Width, H: g.Height}
}

// EventLabelY returns the baseline of an event label in stagger row.
func (g Geometry) EventLabelY(row int) float64 {
	return g.PlotBottom + EventLabelBaseY + float64(row)*EventLabelRowH
}

// DefaultFortune spreads characters without appearances evenly between 0.2
// and 0.8, first character highest.
func DefaultFortune(idx, n int) float64 {
	if n <= 1 {
		return NeutralFortune
	}
	return 0.2 + 0.6*float64(n-1-idx)/float64(n-1)
}

// Override substitutes a live (uncommitted) value for one appearance while
// it is being dragged.
type Override struct {
	AppearanceID int64
	Position     float64
	Fortune      float64
}

// CharacterPath is the polyline of one character across the story.
type CharacterPath struct {
	CharacterID    int64            `json:"character_id"`
	Name           string           `json:"name"`
	Color          string           `json:"color"`
	Points         []viewport.Point `json:"points"`
	AppearanceIDs  []int64          `json:"appearance_ids,omitempty"`
	HasData        bool             `json:"has_data"`
	DefaultFortune float64          `json:"default_fortune,omitempty"`
}

// LabelY returns where the character's name is drawn: the mean height of
// its points, or the neutral line when there are none.
func (p CharacterPath) LabelY(axes viewport.Axes) float64 {
	if len(p.Points) == 0 {
		return axes.FortuneToY(NeutralFortune)
	}
	var sum float64
	for _, pt := range p.Points {
		sum += pt.Y
	}
	return sum / float64(len(p.Points))
}

// Paths builds one path per character, in character order. Appearances are
// sorted by position; a character with none gets a flat line at its default
// fortune across the whole plot.
func Paths(g Geometry, chars []character.Character, apps []Appearance, live *Override) []CharacterPath {
	axes := g.Axes()
	byChar := make(map[int64][]Appearance)
	for _, a := range apps {
		if live != nil && a.ID == live.AppearanceID {
			a.Position, a.Fortune = live.Position, live.Fortune
		}
		byChar[a.CharacterID] = append(byChar[a.CharacterID], a)
	}

	paths := make([]CharacterPath, 0, len(chars))
	for idx, c := range chars {
		path := CharacterPath{CharacterID: c.ID, Name: c.Name, Color: c.Color}
		own := byChar[c.ID]
		if len(own) == 0 {
			f := DefaultFortune(idx, len(chars))
			y := axes.FortuneToY(f)
			path.DefaultFortune = f
			path.Points = []viewport.Point{{X: g.LeftMargin, Y: y}, {X: g.Width, Y: y}}
			paths = append(paths, path)
			continue
		}

		sort.SliceStable(own, func(i, j int) bool { return own[i].Position < own[j].Position })
		path.HasData = true
		for _, a := range own {
			path.Points = append(path.Points, viewport.Point{
				X: axes.PosToX(a.Position),
				Y: axes.FortuneToY(a.Fortune),
			})
			path.AppearanceIDs = append(path.AppearanceIDs, a.ID)
		}
		paths = append(paths, path)
	}
	return paths
}

// BezierPath returns SVG path data joining points with smooth cubic curves
// whose control points sit at the horizontal midpoint of each segment.
// Fewer than two points produce an empty path.
func BezierPath(points []viewport.Point) string {
	if len(points) < 2 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %g %g", points[0].X, points[0].Y)
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		cpx := (prev.X + curr.X) / 2
		fmt.Fprintf(&b, " C %g %g, %g %g, %g %g", cpx, prev.Y, cpx, curr.Y, curr.X, curr.Y)
	}
	return b.String()
}

// Division is a vertical chapter marker.
type Division struct {
	X     float64 `json:"x"`
	Label string  `json:"label"`
}

// ChapterDivisions places a marker at the first scene of each chapter,
// proportionally to the scene count.
func ChapterDivisions(g Geometry, chapters []Chapter) []Division {
	total := TotalScenes(chapters)
	axes := g.Axes()
	divs := make([]Division, 0, len(chapters))
	offset := 0
	for _, c := range chapters {
		x := g.LeftMargin
		if total > 0 {
			x = axes.PosToX(float64(offset) / float64(total))
		}
		divs = append(divs, Division{X: x, Label: c.Title})
		offset += c.Scenes
	}
	return divs
}

// TotalScenes sums the scene counts of chapters.
func TotalScenes(chapters []Chapter) int {
	total := 0
	for _, c := range chapters {
		total += c.Scenes
	}
	return total
}
