// Package space declares the typed search dimensions a swarm navigates
// and the mapping between continuous particle coordinates in [0,1] and
// concrete domain values.
package space

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// Scale selects how a coordinate spreads across a numeric range.
type Scale string

const (
	// Linear maps coordinates evenly across [low, high].
	Linear Scale = "linear"
	// Exponential maps coordinates log-uniformly across [low, high].
	// Requires low > 0.
	Exponential Scale = "exponential"
)

// InclusionThreshold is the coordinate above which a feature dimension
// decodes to "included".
const InclusionThreshold = 0.5

// Dimension describes one axis of the search space. Decode is pure,
// total over [0,1] and range-safe: coordinates outside [0,1] are clamped
// before mapping, so the image never leaves the declared domain.
type Dimension interface {
	Name() string
	Decode(c float64) any
	Validate() error
}

// Categorical is an ordered, finite value set. Decoding picks the value
// whose index is nearest to c scaled across the set; array position
// carries no ordering semantics.
type Categorical struct {
	name   string
	Values []any
}

// NewCategorical builds a categorical dimension over the given values.
func NewCategorical(name string, values ...any) *Categorical {
	return &Categorical{name: name, Values: values}
}

func (d *Categorical) Name() string { return d.name }

func (d *Categorical) Decode(c float64) any {
	n := len(d.Values)
	idx := int(math.Round(clamp01(c) * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return d.Values[idx]
}

func (d *Categorical) Validate() error {
	if len(d.Values) == 0 {
		return search.NewErrorf("categorical dimension %q has no values", d.name).WithComponent("space")
	}
	return nil
}

// Integer is a bounded integer range with a linear or exponential scale.
type Integer struct {
	name      string
	Low, High int
	Scale     Scale
}

// NewInteger builds an integer dimension over [low, high].
func NewInteger(name string, low, high int, scale Scale) *Integer {
	return &Integer{name: name, Low: low, High: high, Scale: scale}
}

func (d *Integer) Name() string { return d.name }

func (d *Integer) Decode(c float64) any {
	c = clamp01(c)
	lo, hi := float64(d.Low), float64(d.High)
	var v float64
	if d.Scale == Exponential {
		v = math.Round(lo * math.Pow(hi/lo, c))
	} else {
		v = math.Round(lo + c*(hi-lo))
	}
	// Rounding can land one step outside the range at the edges.
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return int(v)
}

func (d *Integer) Validate() error {
	if d.High < d.Low {
		return search.NewErrorf("integer dimension %q: high %d < low %d", d.name, d.High, d.Low).WithComponent("space")
	}
	if d.Scale == Exponential && d.Low <= 0 {
		return search.NewErrorf("integer dimension %q: exponential scale requires low > 0, got %d", d.name, d.Low).WithComponent("space")
	}
	if d.Scale != Linear && d.Scale != Exponential {
		return search.NewErrorf("integer dimension %q: unknown scale %q", d.name, d.Scale).WithComponent("space")
	}
	return nil
}

// Real is a bounded continuous range with a linear or exponential scale.
type Real struct {
	name      string
	Low, High float64
	Scale     Scale
}

// NewReal builds a real-valued dimension over [low, high].
func NewReal(name string, low, high float64, scale Scale) *Real {
	return &Real{name: name, Low: low, High: high, Scale: scale}
}

func (d *Real) Name() string { return d.name }

func (d *Real) Decode(c float64) any {
	c = clamp01(c)
	var v float64
	if d.Scale == Exponential {
		v = d.Low * math.Pow(d.High/d.Low, c)
	} else {
		v = d.Low + c*(d.High-d.Low)
	}
	if v < d.Low {
		v = d.Low
	}
	if v > d.High {
		v = d.High
	}
	return v
}

func (d *Real) Validate() error {
	if d.High < d.Low {
		return search.NewErrorf("real dimension %q: high %v < low %v", d.name, d.High, d.Low).WithComponent("space")
	}
	if d.Scale == Exponential && d.Low <= 0 {
		return search.NewErrorf("real dimension %q: exponential scale requires low > 0, got %v", d.name, d.Low).WithComponent("space")
	}
	if d.Scale != Linear && d.Scale != Exponential {
		return search.NewErrorf("real dimension %q: unknown scale %q", d.name, d.Scale).WithComponent("space")
	}
	return nil
}

// Space is an ordered collection of dimensions. Order fixes the axis
// layout of every particle position.
type Space struct {
	dims []Dimension
}

// New builds a search space from the given dimensions, preserving order.
func New(dims ...Dimension) *Space {
	return &Space{dims: dims}
}

// Len returns the number of axes.
func (s *Space) Len() int { return len(s.dims) }

// Dimensions returns the ordered dimensions. Callers must not mutate.
func (s *Space) Dimensions() []Dimension { return s.dims }

// Validate checks every dimension and rejects empty spaces and
// duplicate names.
func (s *Space) Validate() error {
	if len(s.dims) == 0 {
		return search.NewError("search space has no dimensions").WithComponent("space")
	}
	seen := make(map[string]bool, len(s.dims))
	for _, d := range s.dims {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name()] {
			return search.NewErrorf("duplicate dimension name %q", d.Name()).WithComponent("space")
		}
		seen[d.Name()] = true
	}
	return nil
}

// Decode maps a position vector to a name -> value parameter mapping.
func (s *Space) Decode(pos []float64) map[string]any {
	params := make(map[string]any, len(s.dims))
	for i, d := range s.dims {
		params[d.Name()] = d.Decode(pos[i])
	}
	return params
}

// Mask decodes a position into the set of included feature indices,
// ascending. A coordinate at or above InclusionThreshold includes the
// feature. An all-excluded position force-includes the feature with the
// highest coordinate so the evaluator never sees an empty feature set.
func Mask(pos []float64) []int {
	mask := make([]int, 0, len(pos))
	for i, c := range pos {
		if c >= InclusionThreshold {
			mask = append(mask, i)
		}
	}
	if len(mask) == 0 && len(pos) > 0 {
		mask = append(mask, floats.MaxIdx(pos))
	}
	return mask
}

func clamp01(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
