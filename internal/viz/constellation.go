package viz

import (
	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/layout"
	"github.com/matsen/sutra/internal/overlay"
)

// Constellation sizes in screen pixels.
const (
	IdeaNodeRadius         = 5
	IdeaSelectedNodeRadius = 7
	IdeaTagRingRadius      = 10
	IdeaHoverGlowRadius    = 14
	IdeaEdgeWidth          = 1
	IdeaHighlightEdgeWidth = 2
	IdeaTooltipFontSize    = 12
)

// Constellation colors.
const (
	ideaNodeColor     = "#e8e1d5"
	ideaAccentColor   = "#c4915e"
	ideaTagRingColor  = "#5a9e9e"
	ideaEdgeColor     = "#9aa5b1"
	ideaTooltipColor  = "#333333"
	ideaGlowOpacity   = 0.25
	ideaEdgeMinOpaque = 0.15
)

// Constellation draws the idea similarity graph. Edge opacity follows the
// similarity score; ideas with tags get a ring; the hovered idea glows and
// shows its tooltip.
func Constellation(snap layout.Snapshot, ideas []idea.Idea, opts Options) *Scene {
	if len(snap.Nodes) == 0 {
		return &Scene{
			Kind:  "constellation",
			Title: titleOr(opts.Title, "Idea constellation"),
			Empty: &EmptyState{
				Heading: "No ideas captured yet",
				Message: "Ideas you capture show up here, linked to the ideas they resemble.",
				Hint:    "sutra idea add \"...\"",
			},
		}
	}

	m := layoutMapper(snap, opts)
	scene := newScene("constellation", titleOr(opts.Title, "Idea constellation"), m)

	byID := make(map[int64]idea.Idea, len(ideas))
	for _, i := range ideas {
		byID[i.ID] = i
	}

	for _, e := range snap.Edges {
		line := Line{
			X1: e.From.X, Y1: e.From.Y, X2: e.To.X, Y2: e.To.Y,
			Stroke:  ideaEdgeColor,
			Width:   m.Px(IdeaEdgeWidth),
			Opacity: ideaEdgeMinOpaque + (1-ideaEdgeMinOpaque)*e.Weight,
		}
		if overlay.LinkHighlighted(opts.Hovered, e.Source, e.Target) {
			line.Stroke = ideaAccentColor
			line.Width = m.Px(IdeaHighlightEdgeWidth)
			line.Opacity = 1
		}
		scene.Lines = append(scene.Lines, line)
	}

	for _, n := range snap.Nodes {
		p := snap.Positions[n.ID]
		i := byID[n.ID]
		content := i.Label()
		if content == "" {
			content = n.Label
		}

		if n.ID == opts.Hovered {
			scene.Circles = append(scene.Circles, Circle{
				CX: p.X, CY: p.Y, R: m.Px(IdeaHoverGlowRadius),
				Fill: ideaAccentColor, Opacity: ideaGlowOpacity,
			})
			scene.Texts = append(scene.Texts, Text{
				X: p.X + m.Px(IdeaHoverGlowRadius), Y: p.Y - m.Px(IdeaHoverGlowRadius),
				Content: overlay.Tooltip(content),
				Size:    m.Px(IdeaTooltipFontSize),
				Fill:    ideaTooltipColor,
			})
		}
		if len(i.Tags) > 0 {
			scene.Circles = append(scene.Circles, Circle{
				CX: p.X, CY: p.Y, R: m.Px(IdeaTagRingRadius),
				Fill: "none", Stroke: ideaTagRingColor, StrokeWidth: m.Px(1), Opacity: 1,
			})
		}

		node := Circle{
			ID: n.ID, CX: p.X, CY: p.Y, R: m.Px(IdeaNodeRadius),
			Fill: ideaNodeColor, Stroke: ideaAccentColor, StrokeWidth: m.Px(1), Opacity: 1,
			Title: overlay.Tooltip(content),
		}
		if isSelected(opts.Selected, n.ID) {
			node.R = m.Px(IdeaSelectedNodeRadius)
			node.Fill = ideaAccentColor
		}
		scene.Circles = append(scene.Circles, node)
	}
	return scene
}
