// Package layout implements the force-directed layout used by the idea
// constellation and the character web.
package layout

import "math"

// DefaultAlphaMin is the energy below which a simulation is at rest.
const DefaultAlphaMin = 0.001

// Node is a simulated body. Fixed nodes are held at (FX, FY).
type Node struct {
	ID    int64   `json:"id"`
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Fixed bool    `json:"fixed,omitempty"`
	FX    float64 `json:"fx,omitempty"`
	FY    float64 `json:"fy,omitempty"`
}

// Link connects two nodes by id. Weight is the domain score (similarity or
// 1 for relationships). Distance and Strength are resolved from Params when
// the simulation is initialized.
type Link struct {
	Source   int64   `json:"source"`
	Target   int64   `json:"target"`
	Weight   float64 `json:"weight"`
	Kind     string  `json:"kind,omitempty"`
	Distance float64 `json:"distance"`
	Strength float64 `json:"strength"`
}

// Params configures the forces of a simulation.
type Params struct {
	Charge        float64 // many-body strength; negative repels
	CollideRadius float64 // per-node collision radius
	SeedExtent    float64 // initial positions are uniform in ±SeedExtent
	Alpha         float64 // starting energy
	AlphaMin      float64
	AlphaDecay    float64
	VelocityDecay float64 // fraction of velocity lost per tick
	CenterX       float64
	CenterY       float64

	// LinkDistance and LinkStrength resolve per-link values. A nil
	// LinkStrength uses 1/min(degree(source), degree(target)).
	LinkDistance func(Link) float64
	LinkStrength func(Link) float64
}

// DefaultAlphaDecay reaches AlphaMin from 1 in 300 ticks.
func DefaultAlphaDecay() float64 {
	return 1 - math.Pow(DefaultAlphaMin, 1.0/300)
}

// IdeaParams returns the constellation preset: gentle repulsion, small
// collision radius and a fast decay so large idea sets settle quickly.
// Link distance shrinks as similarity grows.
func IdeaParams() Params {
	return Params{
		Charge:        -80,
		CollideRadius: 20,
		SeedExtent:    200,
		Alpha:         0.8,
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    0.02,
		VelocityDecay: 0.4,
		LinkDistance: func(l Link) float64 {
			return math.Max(30, 150*(1-l.Weight))
		},
		LinkStrength: func(l Link) float64 {
			return l.Weight * 0.5
		},
	}
}

// CharacterParams returns the character web preset: constant link distance
// regardless of relationship type.
func CharacterParams() Params {
	return Params{
		Charge:        -200,
		CollideRadius: 35,
		SeedExtent:    150,
		Alpha:         0.8,
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    DefaultAlphaDecay(),
		VelocityDecay: 0.4,
		LinkDistance: func(Link) float64 {
			return 100
		},
	}
}
