package entities

import (
	"fmt"
	"math"
)

// Relationship is a piecewise function over sorted sample points with a
// running value clamped to [Minimum, Maximum]
type Relationship struct {
	Name          string
	X             []float64
	Y             []float64
	Minimum       float64
	Maximum       float64
	StartingValue float64
	value         float64
}

// NewRelationship creates a validated Relationship. Bounds default to the
// Y range when both are zero.
func NewRelationship(name string, x, y []float64, minimum, maximum, startingValue float64) (*Relationship, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("relationship [%s] requires at least 2 points, got %d", name, len(x))
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("relationship [%s] has %d x values but %d y values", name, len(x), len(y))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("relationship [%s] x values must be strictly increasing at index %d", name, i)
		}
	}
	if minimum == 0 && maximum == 0 {
		minimum, maximum = math.Inf(-1), math.Inf(1)
	}
	if minimum > maximum {
		return nil, fmt.Errorf("relationship [%s] minimum %g is greater than maximum %g", name, minimum, maximum)
	}

	r := &Relationship{
		Name:          name,
		X:             append([]float64(nil), x...),
		Y:             append([]float64(nil), y...),
		Minimum:       minimum,
		Maximum:       maximum,
		StartingValue: startingValue,
	}
	r.Initialise()
	return r, nil
}

// Initialise resets the running value at simulation start
func (r *Relationship) Initialise() {
	r.value = r.clamp(r.StartingValue)
}

// Value returns the running value
func (r *Relationship) Value() float64 {
	return r.value
}

// SolveY evaluates the function at x. Outside the sampled range the first or
// last y is returned. Inside, the right endpoint of the bracketing interval
// is returned unless interpolate is set.
func (r *Relationship) SolveY(x float64, interpolate bool) float64 {
	if x <= r.X[0] {
		return r.Y[0]
	}
	last := len(r.X) - 1
	if x >= r.X[last] {
		return r.Y[last]
	}

	k := 1
	for ; k < last; k++ {
		if r.X[k] >= x {
			break
		}
	}
	if !interpolate {
		return r.Y[k]
	}
	slope := (r.Y[k] - r.Y[k-1]) / (r.X[k] - r.X[k-1])
	return r.Y[k-1] + slope*(x-r.X[k-1])
}

// Modify adds the interpolated y at x to the running value
func (r *Relationship) Modify(x float64) float64 {
	r.value = r.clamp(r.value + r.SolveY(x, true))
	return r.value
}

// Calculate replaces the running value with the interpolated y at x
func (r *Relationship) Calculate(x float64) float64 {
	r.value = r.clamp(r.SolveY(x, true))
	return r.value
}

func (r *Relationship) clamp(v float64) float64 {
	return math.Max(r.Minimum, math.Min(r.Maximum, v))
}
