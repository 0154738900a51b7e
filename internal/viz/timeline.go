package viz

import (
	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/overlay"
	"github.com/matsen/sutra/internal/timeline"
	"github.com/matsen/sutra/internal/viewport"
)

// TimelineInput is everything the timeline view draws.
type TimelineInput struct {
	Characters  []character.Character
	Appearances []timeline.Appearance
	Events      []timeline.Event
	Chapters    []timeline.Chapter
	Container   viewport.Size      // visible area; the content may be wider
	Live        *timeline.Override // appearance being dragged, may be nil
}

// Timeline sizes in content pixels.
const (
	TimelinePathWidth      = 2.5
	TimelineDotRadius      = 5
	TimelineDeathMark      = 6
	TimelineEventFontSize  = 12
	TimelineChapterFont    = 11
	TimelineGridColor      = "#dddddd"
	TimelineChapterColor   = "#bbbbbb"
	timelineEventOpacity   = 0.15
	timelineNoDataOpacity  = 0.45
	timelineChapterOverlap = 20
)

// Timeline draws the story arc: fortune guide lines, chapter divisions,
// event bands with staggered labels, one smoothed path per character and a
// dot per appearance.
func Timeline(in TimelineInput, opts Options) *Scene {
	if len(in.Characters) == 0 && len(in.Events) == 0 {
		return &Scene{
			Kind:  "timeline",
			Title: titleOr(opts.Title, "Story timeline"),
			Empty: &EmptyState{
				Heading: "Nothing on the timeline yet",
				Message: "Add characters and story events to plot their arcs.",
				Hint:    "sutra event add <title> --position 0.5",
			},
		}
	}

	names := make([]string, len(in.Characters))
	colors := make(map[int64]string, len(in.Characters))
	for i, c := range in.Characters {
		names[i] = c.Name
		colors[c.ID] = c.Color
	}

	g := timeline.NewGeometry(names, timeline.TotalScenes(in.Chapters), in.Container)
	axes := g.Axes()
	size := g.Size()
	m := viewport.NewMapper(viewport.Rect{W: size.W, H: size.H}, size)
	scene := newScene("timeline", titleOr(opts.Title, "Story timeline"), m)

	for _, f := range timeline.FortuneGrid {
		y := axes.FortuneToY(f)
		scene.Lines = append(scene.Lines, Line{
			X1: g.LeftMargin, Y1: y, X2: g.Width, Y2: y,
			Stroke: TimelineGridColor, Width: m.Px(1), Opacity: 1, Dash: "4 4",
		})
	}

	for _, d := range timeline.ChapterDivisions(g, in.Chapters) {
		scene.Lines = append(scene.Lines, Line{
			X1: d.X, Y1: g.PlotTop - timelineChapterOverlap, X2: d.X, Y2: g.PlotBottom,
			Stroke: TimelineChapterColor, Width: m.Px(1), Opacity: 1,
		})
		scene.Texts = append(scene.Texts, Text{
			X: d.X + 4, Y: g.PlotTop - timelineChapterOverlap - 6,
			Content: d.Label, Size: m.Px(TimelineChapterFont), Fill: "#888888",
		})
	}

	items := make([]overlay.LabelItem, 0, len(in.Events))
	for _, e := range in.Events {
		left := axes.PosToX(viewport.Clamp01(e.Position - e.Width/2))
		right := axes.PosToX(viewport.Clamp01(e.Position + e.Width/2))
		scene.Rects = append(scene.Rects, Rect{
			X: left, Y: g.PlotTop, W: right - left, H: g.PlotBottom - g.PlotTop,
			Fill: e.Color, Opacity: timelineEventOpacity, Title: e.Title,
		})
		items = append(items, overlay.LabelItem{ID: e.ID, X: axes.PosToX(e.Position), Title: e.Title})
	}
	rows := overlay.LabelRows(items, overlay.EventLabelCharPx, overlay.EventLabelPad)
	for i, e := range in.Events {
		scene.Texts = append(scene.Texts, Text{
			X: items[i].X, Y: g.EventLabelY(rows[e.ID]),
			Content: e.Title, Size: m.Px(TimelineEventFontSize), Fill: e.Color, Anchor: "middle",
		})
	}

	for _, p := range timeline.Paths(g, in.Characters, in.Appearances, in.Live) {
		path := Path{
			D:      timeline.BezierPath(p.Points),
			Stroke: p.Color, Width: m.Px(TimelinePathWidth), Opacity: 1,
		}
		if !p.HasData {
			path.Opacity = timelineNoDataOpacity
			path.Dash = "6 4"
		}
		scene.Paths = append(scene.Paths, path)
		scene.Texts = append(scene.Texts, Text{
			X: timeline.LabelPadLeft, Y: p.LabelY(axes) + timeline.LabelFontSize/3,
			Content: p.Name, Size: m.Px(timeline.LabelFontSize), Fill: p.Color, Bold: true,
		})
	}

	for _, a := range in.Appearances {
		color, ok := colors[a.CharacterID]
		if !ok {
			continue
		}
		pos, fortune := a.Position, a.Fortune
		if in.Live != nil && in.Live.AppearanceID == a.ID {
			pos, fortune = in.Live.Position, in.Live.Fortune
		}
		x, y := axes.PosToX(pos), axes.FortuneToY(fortune)
		scene.Circles = append(scene.Circles, Circle{
			ID: a.ID, CX: x, CY: y, R: m.Px(TimelineDotRadius),
			Fill: color, Stroke: "#ffffff", StrokeWidth: m.Px(1.5), Opacity: 1,
			Title: a.Note,
		})
		if a.IsDeath {
			d := m.Px(TimelineDeathMark)
			scene.Lines = append(scene.Lines,
				Line{X1: x - d, Y1: y - d, X2: x + d, Y2: y + d, Stroke: "#333333", Width: m.Px(2), Opacity: 1},
				Line{X1: x - d, Y1: y + d, X2: x + d, Y2: y - d, Stroke: "#333333", Width: m.Px(2), Opacity: 1},
			)
		}
	}
	return scene
}
