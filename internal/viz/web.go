package viz

import (
	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/layout"
	"github.com/matsen/sutra/internal/overlay"
)

// Character web sizes in screen pixels.
const (
	WebNodeRadius       = 16
	WebHoverGlowRadius  = 22
	WebInitialsFontSize = 14
	WebLabelFontSize    = 11
	WebNameFontSize     = 12
	WebNameOffset       = 28
	WebEdgeWidth        = 2
	WebHighlightWidth   = 3
)

// CharacterWeb draws characters as badges joined by relationship lines
// colored by relationship type.
func CharacterWeb(snap layout.Snapshot, chars []character.Character, opts Options) *Scene {
	if len(snap.Nodes) == 0 {
		return &Scene{
			Kind:  "web",
			Title: titleOr(opts.Title, "Character web"),
			Empty: &EmptyState{
				Heading: "No characters yet",
				Message: "Add characters and relationships to see how your cast connects.",
				Hint:    "sutra character add <name>",
			},
		}
	}

	m := layoutMapper(snap, opts)
	scene := newScene("web", titleOr(opts.Title, "Character web"), m)

	byID := make(map[int64]character.Character, len(chars))
	for _, c := range chars {
		byID[c.ID] = c
	}

	for _, e := range snap.Edges {
		typ := character.RelationshipType(e.Kind)
		line := Line{
			X1: e.From.X, Y1: e.From.Y, X2: e.To.X, Y2: e.To.Y,
			Stroke:  typ.Color(),
			Width:   m.Px(WebEdgeWidth),
			Opacity: 0.6,
		}
		if overlay.LinkHighlighted(opts.Hovered, e.Source, e.Target) {
			line.Width = m.Px(WebHighlightWidth)
			line.Opacity = 1
		}
		scene.Lines = append(scene.Lines, line)
		scene.Texts = append(scene.Texts, Text{
			X: (e.From.X + e.To.X) / 2, Y: (e.From.Y + e.To.Y) / 2,
			Content: string(typ),
			Size:    m.Px(WebLabelFontSize),
			Fill:    typ.Color(),
			Anchor:  "middle",
		})
	}

	for _, n := range snap.Nodes {
		p := snap.Positions[n.ID]
		c, ok := byID[n.ID]
		if !ok {
			c = character.Character{ID: n.ID, Name: n.Label, Color: character.DefaultColor}
		}

		if n.ID == opts.Hovered {
			scene.Circles = append(scene.Circles, Circle{
				CX: p.X, CY: p.Y, R: m.Px(WebHoverGlowRadius),
				Fill: c.Color, Opacity: 0.3,
			})
		}
		badge := Circle{
			ID: n.ID, CX: p.X, CY: p.Y, R: m.Px(WebNodeRadius),
			Fill: c.Color, Opacity: 1, Title: c.Name,
		}
		if isSelected(opts.Selected, n.ID) {
			badge.Stroke = "#333333"
			badge.StrokeWidth = m.Px(2)
		}
		scene.Circles = append(scene.Circles, badge)
		scene.Texts = append(scene.Texts,
			Text{
				X: p.X, Y: p.Y + m.Px(WebInitialsFontSize)/3,
				Content: character.Initials(c.Name),
				Size:    m.Px(WebInitialsFontSize),
				Fill:    "#ffffff",
				Anchor:  "middle",
				Bold:    true,
			},
			Text{
				X: p.X, Y: p.Y + m.Px(WebNameOffset),
				Content: c.Name,
				Size:    m.Px(WebNameFontSize),
				Fill:    "#333333",
				Anchor:  "middle",
			},
		)
	}
	return scene
}
