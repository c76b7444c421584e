package timers

import (
	"fmt"
	"time"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// BiomassSource reports the current biomass density of a pasture, kg/ha
type BiomassSource interface {
	BiomassDensity() float64
}

// PastureLevel is due while the pasture's biomass density lies in
// [Minimum, Maximum). Unlike the calendar timers it notifies on every
// evaluation, due or not.
type PastureLevel struct {
	base
	Pasture BiomassSource
	Minimum float64
	Maximum float64
}

// NewPastureLevel creates a validated PastureLevel timer
func NewPastureLevel(name string, pasture BiomassSource, minimum, maximum float64, clock repositories.Clock, notifier repositories.Notifier) (*PastureLevel, error) {
	if pasture == nil {
		return nil, fmt.Errorf("timer [%s] requires a pasture", name)
	}
	if minimum >= maximum {
		return nil, fmt.Errorf("timer [%s] minimum %g must be less than maximum %g", name, minimum, maximum)
	}
	return &PastureLevel{
		base:    newBase(name, clock, notifier),
		Pasture: pasture,
		Minimum: minimum,
		Maximum: maximum,
	}, nil
}

func (t *PastureLevel) ActivityDue() bool {
	t.performed()
	return t.Check(t.clock.Today())
}

// Check ignores date: only the current pasture state is known
func (t *PastureLevel) Check(time.Time) bool {
	density := t.Pasture.BiomassDensity()
	return density >= t.Minimum && density < t.Maximum
}
