package entities

import "math"

// Plan pairs the quantity an activity intended to handle with the quantity
// it can handle after shortfalls. Values are immutable; Scale returns a copy.
type Plan struct {
	Planned  float64
	Adjusted float64
}

// NewPlan creates a plan with nothing adjusted yet
func NewPlan(planned float64) Plan {
	return Plan{Planned: planned, Adjusted: planned}
}

// Scale reduces the adjusted quantity by the given shortfall proportion
func (p Plan) Scale(shortfallProportion float64) Plan {
	if shortfallProportion <= 0 {
		return p
	}
	if shortfallProportion > 1 {
		shortfallProportion = 1
	}
	return Plan{Planned: p.Planned, Adjusted: p.Adjusted * (1 - shortfallProportion)}
}

// wholeTolerance absorbs float error in proportions such as 1 - 400/600
const wholeTolerance = 1e-9

// ScaleWhole is Scale for counted things (head): the number skipped is
// rounded up so a partial animal is never handled
func (p Plan) ScaleWhole(shortfallProportion float64) Plan {
	if shortfallProportion <= 0 {
		return p
	}
	skip := math.Ceil(p.Adjusted*math.Min(shortfallProportion, 1) - wholeTolerance)
	return Plan{Planned: p.Planned, Adjusted: math.Max(p.Adjusted-skip, 0)}
}

// Limit caps the adjusted quantity
func (p Plan) Limit(maximum float64) Plan {
	if maximum < 0 {
		maximum = 0
	}
	if p.Adjusted <= maximum {
		return p
	}
	return Plan{Planned: p.Planned, Adjusted: maximum}
}

// Skipped returns how much of the plan will not be carried out
func (p Plan) Skipped() float64 {
	return p.Planned - p.Adjusted
}

// Reduced reports whether anything was skipped
func (p Plan) Reduced() bool {
	return p.Adjusted < p.Planned
}
