package layout

import "github.com/matsen/sutra/internal/viewport"

// ResolvedEdge is a link with its endpoint positions at one tick.
type ResolvedEdge struct {
	Source int64          `json:"source"`
	Target int64          `json:"target"`
	Weight float64        `json:"weight"`
	Kind   string         `json:"kind,omitempty"`
	From   viewport.Point `json:"from"`
	To     viewport.Point `json:"to"`
}

// Snapshot is everything a renderer needs to redraw one frame. It shares no
// memory with the simulation.
type Snapshot struct {
	Tick      int                      `json:"tick"`
	Alpha     float64                  `json:"alpha"`
	State     State                    `json:"state"`
	Nodes     []Node                   `json:"nodes"`
	Positions map[int64]viewport.Point `json:"positions"`
	Edges     []ResolvedEdge           `json:"edges"`
}

// Snapshot copies the current positions and resolved edges.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Tick:      s.ticks,
		Alpha:     s.alpha,
		State:     s.state,
		Nodes:     make([]Node, len(s.nodes)),
		Positions: make(map[int64]viewport.Point, len(s.nodes)),
		Edges:     make([]ResolvedEdge, 0, len(s.links)),
	}
	copy(snap.Nodes, s.nodes)
	for _, n := range s.nodes {
		snap.Positions[n.ID] = viewport.Point{X: n.X, Y: n.Y}
	}
	for _, l := range s.links {
		src, tgt := s.nodes[l.source], s.nodes[l.target]
		snap.Edges = append(snap.Edges, ResolvedEdge{
			Source: l.Source,
			Target: l.Target,
			Weight: l.Weight,
			Kind:   l.Kind,
			From:   viewport.Point{X: src.X, Y: src.Y},
			To:     viewport.Point{X: tgt.X, Y: tgt.Y},
		})
	}
	return snap
}

// Bounds returns the smallest rectangle containing every node, grown by pad
// on each side. An empty snapshot yields a zero rectangle.
func (s Snapshot) Bounds(pad float64) viewport.Rect {
	if len(s.Nodes) == 0 {
		return viewport.Rect{}
	}
	minX, minY := s.Nodes[0].X, s.Nodes[0].Y
	maxX, maxY := minX, minY
	for _, n := range s.Nodes[1:] {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		maxX = max(maxX, n.X)
		maxY = max(maxY, n.Y)
	}
	return viewport.Rect{
		X: minX - pad,
		Y: minY - pad,
		W: maxX - minX + 2*pad,
		H: maxY - minY + 2*pad,
	}
}
