package swarm

import (
	"math"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// Strategy is a pluggable update rule: consume the swarm state at
// iteration t and produce positions and velocities for t+1. Strategies
// draw randomness only from the swarm's own RNG, sequentially, so runs
// stay reproducible under parallel evaluation.
type Strategy interface {
	Move(s *Swarm)
}

// Default coefficients follow the Clerc-Kennedy constriction analysis;
// the annealed inertia schedule follows Shi & Eberhart (1998).
const (
	DefaultInertia      = 0.7298
	DefaultCognitive    = 1.49618
	DefaultSocial       = 1.49618
	DefaultVMax         = 0.5
	DefaultInertiaStart = 0.9
	DefaultInertiaEnd   = 0.4
)

// ForName resolves a strategy by its configuration name. The empty name
// selects vanilla.
func ForName(name string) (Strategy, error) {
	switch name {
	case "", "vanilla":
		return NewVanilla(), nil
	case "anneal":
		return NewAnneal(), nil
	case "ring":
		return NewRing(), nil
	default:
		return nil, search.NewErrorf("unknown strategy %q (want vanilla, anneal or ring)", name).WithComponent("swarm")
	}
}

// stepAxis applies the velocity and position update for one axis:
// velocity toward the cognitive and social targets under inertia w,
// clamped to +/-vmax, then position clamped to [0,1]. A position that
// saturates at a wall zeroes its velocity component so the particle
// stops pushing against the boundary.
func stepAxis(p *Particle, i int, w, c1, c2, r1, r2, social, vmax float64) {
	v := w*p.Vel[i] + c1*r1*(p.BestPos[i]-p.Pos[i]) + c2*r2*(social-p.Pos[i])
	if v > vmax {
		v = vmax
	} else if v < -vmax {
		v = -vmax
	}
	x := p.Pos[i] + v
	if x <= 0 {
		x, v = 0, 0
	} else if x >= 1 {
		x, v = 1, 0
	}
	p.Vel[i] = v
	p.Pos[i] = x
}

// Vanilla is the canonical global-best PSO update with fixed inertia.
type Vanilla struct {
	Inertia   float64
	Cognitive float64
	Social    float64
	VMax      float64
}

// NewVanilla returns a vanilla strategy with the default coefficients.
func NewVanilla() *Vanilla {
	return &Vanilla{
		Inertia:   DefaultInertia,
		Cognitive: DefaultCognitive,
		Social:    DefaultSocial,
		VMax:      DefaultVMax,
	}
}

func (v *Vanilla) Move(s *Swarm) {
	for _, p := range s.Particles {
		for i := range p.Pos {
			r1, r2 := s.Rng.Float64(), s.Rng.Float64()
			stepAxis(p, i, v.Inertia, v.Cognitive, v.Social, r1, r2, s.BestPos[i], v.VMax)
		}
	}
}

// Anneal is vanilla PSO with an inertia weight that decreases linearly
// from Start to End across the generation budget, shifting the swarm
// from exploration toward exploitation as the run progresses.
type Anneal struct {
	Start     float64
	End       float64
	Cognitive float64
	Social    float64
	VMax      float64
}

// NewAnneal returns an annealed-inertia strategy with the default
// schedule.
func NewAnneal() *Anneal {
	return &Anneal{
		Start:     DefaultInertiaStart,
		End:       DefaultInertiaEnd,
		Cognitive: DefaultCognitive,
		Social:    DefaultSocial,
		VMax:      DefaultVMax,
	}
}

func (a *Anneal) Move(s *Swarm) {
	span := float64(s.MaxIter - 1)
	frac := 0.0
	if span > 0 {
		frac = math.Min(float64(s.Iter)/span, 1)
	}
	w := a.Start + (a.End-a.Start)*frac
	for _, p := range s.Particles {
		for i := range p.Pos {
			r1, r2 := s.Rng.Float64(), s.Rng.Float64()
			stepAxis(p, i, w, a.Cognitive, a.Social, r1, r2, s.BestPos[i], a.VMax)
		}
	}
}

// Ring is local-best PSO on a ring topology: the social target of
// particle i is the best personal best among particles i-1, i and i+1
// (mod n). Information spreads gradually around the ring, which resists
// premature convergence on deceptive landscapes.
type Ring struct {
	Inertia   float64
	Cognitive float64
	Social    float64
	VMax      float64
}

// NewRing returns a ring-topology strategy with the default
// coefficients.
func NewRing() *Ring {
	return &Ring{
		Inertia:   DefaultInertia,
		Cognitive: DefaultCognitive,
		Social:    DefaultSocial,
		VMax:      DefaultVMax,
	}
}

func (r *Ring) Move(s *Swarm) {
	n := len(s.Particles)
	// Neighborhood bests are resolved against the state at t for every
	// particle before any position moves.
	targets := make([][]float64, n)
	for i := range s.Particles {
		best := s.Particles[i]
		for _, j := range []int{(i - 1 + n) % n, (i + 1) % n} {
			if s.Particles[j].BestVal > best.BestVal {
				best = s.Particles[j]
			}
		}
		targets[i] = append([]float64(nil), best.BestPos...)
	}
	for i, p := range s.Particles {
		for j := range p.Pos {
			r1, r2 := s.Rng.Float64(), s.Rng.Float64()
			stepAxis(p, j, r.Inertia, r.Cognitive, r.Social, r1, r2, targets[i][j], r.VMax)
		}
	}
}
