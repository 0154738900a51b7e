package layout

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/matsen/sutra/internal/viewport"
)

// State is the lifecycle state of a simulation.
type State int

// Simulation states. A structural change restarts a simulation from any
// state; Stop parks it in Idle until the next Restart.
const (
	Idle State = iota
	Running
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// MarshalText lets states appear by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrNodeNotFound is returned when dragging an id that is not simulated.
var ErrNodeNotFound = errors.New("node not found in simulation")

const (
	// distanceMin2 floors the squared distance used by the many-body force
	// so coincident nodes cannot produce infinite forces.
	distanceMin2 = 1.0

	// dragAlphaTarget keeps the simulation warm while a node is held.
	dragAlphaTarget = 0.3
)

type simLink struct {
	Link
	source, target int
	bias           float64
}

// Simulation is a d3-style velocity Verlet force simulation. All methods
// are safe for concurrent use; a Runner typically calls Step while a UI
// goroutine calls Drag or Snapshot.
type Simulation struct {
	mu sync.Mutex

	params      Params
	rng         *rand.Rand
	nodes       []Node
	index       map[int64]int
	links       []simLink
	alpha       float64
	alphaTarget float64
	state       State
	ticks       int
}

// New creates a running simulation. Nodes left at the origin are seeded at
// random inside ±SeedExtent; links whose endpoints are missing, or that
// connect a node to itself, are ignored. A nil rng uses a time-seeded PCG.
func New(nodes []Node, links []Link, params Params, rng *rand.Rand) *Simulation {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	if params.Alpha == 0 {
		params.Alpha = 1
	}
	if params.AlphaMin == 0 {
		params.AlphaMin = DefaultAlphaMin
	}
	if params.AlphaDecay == 0 {
		params.AlphaDecay = DefaultAlphaDecay()
	}
	s := &Simulation{params: params, rng: rng}
	s.initialize(nodes, links, false)
	return s
}

func (s *Simulation) initialize(nodes []Node, links []Link, reseed bool) {
	s.nodes = make([]Node, len(nodes))
	copy(s.nodes, nodes)
	s.index = make(map[int64]int, len(nodes))
	for i := range s.nodes {
		n := &s.nodes[i]
		s.index[n.ID] = i
		if n.Fixed {
			n.X, n.Y = n.FX, n.FY
		} else if reseed || (n.X == 0 && n.Y == 0) {
			n.X = s.seed()
			n.Y = s.seed()
		}
		n.VX, n.VY = 0, 0
	}

	count := make([]int, len(s.nodes))
	s.links = s.links[:0]
	for _, l := range links {
		src, okS := s.index[l.Source]
		tgt, okT := s.index[l.Target]
		if !okS || !okT || src == tgt {
			continue
		}
		count[src]++
		count[tgt]++
		s.links = append(s.links, simLink{Link: l, source: src, target: tgt})
	}
	for i := range s.links {
		l := &s.links[i]
		cs, ct := count[l.source], count[l.target]
		l.bias = float64(cs) / float64(cs+ct)
		if s.params.LinkStrength != nil {
			l.Strength = s.params.LinkStrength(l.Link)
		} else {
			l.Strength = 1 / float64(min(cs, ct))
		}
		if s.params.LinkDistance != nil {
			l.Distance = s.params.LinkDistance(l.Link)
		} else {
			l.Distance = 30
		}
	}

	s.alpha = s.params.Alpha
	s.alphaTarget = 0
	s.ticks = 0
	s.state = Running
}

func (s *Simulation) seed() float64 {
	return (s.rng.Float64()*2 - 1) * s.params.SeedExtent
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// Restart discards every position, re-seeds and starts over. It is the
// response to any structural change of the node or link set.
func (s *Simulation) Restart(nodes []Node, links []Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialize(nodes, links, true)
}

// Stop halts the simulation. Further Steps are no-ops until Restart.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
}

// State returns the lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Ticks returns the number of ticks since the last (re)start.
func (s *Simulation) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Step advances one tick. It returns false without moving anything when the
// simulation is not running, and false after the tick that brings alpha
// below AlphaMin.
func (s *Simulation) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return false
	}
	s.tick()
	if s.alpha < s.params.AlphaMin {
		s.state = Settled
		return false
	}
	return true
}

// Tick runs up to n steps and returns how many ran.
func (s *Simulation) Tick(n int) int {
	ran := 0
	for ran < n {
		if s.State() != Running {
			break
		}
		ran++
		if !s.Step() {
			break
		}
	}
	return ran
}

// Drag pins node id at p and keeps the simulation warm so its neighbours
// follow. A settled simulation starts running again; a stopped one stays
// stopped.
func (s *Simulation) Drag(id int64, p viewport.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNodeNotFound
	}
	n := &s.nodes[i]
	n.Fixed = true
	n.FX, n.FY = p.X, p.Y
	s.alphaTarget = dragAlphaTarget
	if s.state == Settled {
		s.state = Running
	}
	return nil
}

// Release unpins node id and lets the simulation cool down again.
func (s *Simulation) Release(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNodeNotFound
	}
	s.nodes[i].Fixed = false
	s.alphaTarget = 0
	return nil
}

func (s *Simulation) tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()

	keep := 1 - s.params.VelocityDecay
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Fixed {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
	}
	s.ticks++
}

// applyLinks moves each link's endpoints toward the link distance, splitting
// the correction by degree so hubs move less.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		src, tgt := &s.nodes[l.source], &s.nodes[l.target]
		x := tgt.X + tgt.VX - src.X - src.VX
		if x == 0 {
			x = s.jiggle()
		}
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.Distance) / d * s.alpha * l.Strength
		x *= k
		y *= k
		tgt.VX -= x * l.bias
		tgt.VY -= y * l.bias
		src.VX += x * (1 - l.bias)
		src.VY += y * (1 - l.bias)
	}
}

// applyCharge is the exact O(n²) many-body force.
func (s *Simulation) applyCharge() {
	if s.params.Charge == 0 {
		return
	}
	w0 := s.params.Charge * s.alpha
	for i := range s.nodes {
		ni := &s.nodes[i]
		for j := range s.nodes {
			if i == j {
				continue
			}
			nj := &s.nodes[j]
			x := nj.X - ni.X
			y := nj.Y - ni.Y
			l := x*x + y*y
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			if l == 0 {
				continue
			}
			w := w0 / l
			ni.VX += x * w
			ni.VY += y * w
		}
	}
}

// applyCenter translates the whole graph so its mean sits at the center.
func (s *Simulation) applyCenter() {
	if len(s.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range s.nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx/float64(len(s.nodes)) - s.params.CenterX
	sy = sy/float64(len(s.nodes)) - s.params.CenterY
	for i := range s.nodes {
		s.nodes[i].X -= sx
		s.nodes[i].Y -= sy
	}
}

// applyCollide pushes apart any pair closer than twice the collision
// radius, using positions anticipated from current velocities.
func (s *Simulation) applyCollide() {
	r := s.params.CollideRadius
	if r <= 0 {
		return
	}
	sum := 2 * r
	for i := range s.nodes {
		ni := &s.nodes[i]
		xi := ni.X + ni.VX
		yi := ni.Y + ni.VY
		for j := i + 1; j < len(s.nodes); j++ {
			nj := &s.nodes[j]
			x := xi - nj.X - nj.VX
			y := yi - nj.Y - nj.VY
			l := x*x + y*y
			if l >= sum*sum {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			if l == 0 {
				continue
			}
			k := (sum - l) / l
			x *= k
			y *= k
			// equal radii split the correction evenly
			ni.VX += x * 0.5
			ni.VY += y * 0.5
			nj.VX -= x * 0.5
			nj.VY -= y * 0.5
		}
	}
}
