// Package swarm holds the particle population state of a PSO run and the
// pluggable update strategies that move it between generations.
package swarm

import (
	"math"
	"math/rand"
)

// Particle is one candidate solution: a position in the unit hypercube,
// its velocity, and the best position this particle has seen.
type Particle struct {
	Pos     []float64
	Vel     []float64
	Val     float64
	BestPos []float64
	BestVal float64
}

// Observe records a freshly evaluated fitness and advances the personal
// best on strict improvement only, so ties never churn the best.
func (p *Particle) Observe(val float64) {
	p.Val = val
	if val > p.BestVal {
		p.BestVal = val
		copy(p.BestPos, p.Pos)
	}
}

// Swarm is the population plus the swarm-wide best. The RNG is owned
// explicitly so a fixed seed reproduces an identical run; only
// initialization and the dynamics step consume it.
type Swarm struct {
	Particles []*Particle
	BestPos   []float64
	BestVal   float64
	Iter      int
	MaxIter   int
	Rng       *rand.Rand
}

// New allocates a swarm of n particles over dims axes. Positions are
// drawn uniformly from [0,1] per axis, velocities start at zero, and all
// bests start at the worst sentinel.
func New(n, dims, maxIter int, rng *rand.Rand) *Swarm {
	s := &Swarm{
		Particles: make([]*Particle, n),
		BestPos:   make([]float64, dims),
		BestVal:   math.Inf(-1),
		MaxIter:   maxIter,
		Rng:       rng,
	}
	for i := range s.Particles {
		p := &Particle{
			Pos:     make([]float64, dims),
			Vel:     make([]float64, dims),
			BestPos: make([]float64, dims),
			BestVal: math.Inf(-1),
			Val:     math.Inf(-1),
		}
		for j := range p.Pos {
			p.Pos[j] = rng.Float64()
		}
		copy(p.BestPos, p.Pos)
		s.Particles[i] = p
	}
	return s
}

// Commit applies one generation's fitness values behind the evaluation
// barrier: personal bests first, then the swarm-wide best across all
// personal bests. Strict improvement only; the incumbent wins ties.
// Returns true when the global best improved.
func (s *Swarm) Commit(vals []float64) bool {
	for i, p := range s.Particles {
		p.Observe(vals[i])
	}
	improved := false
	for _, p := range s.Particles {
		if p.BestVal > s.BestVal {
			s.BestVal = p.BestVal
			copy(s.BestPos, p.BestPos)
			improved = true
		}
	}
	return improved
}
