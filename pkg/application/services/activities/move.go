package activities

import (
	"context"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// RuminantMoveConfig describes a move of cohorts to another location
type RuminantMoveConfig struct {
	Filter     repositories.HerdFilter
	ToLocation string
	// MarkForSale flags moved animals for a later RuminantSell
	MarkForSale bool
}

// RuminantMove moves the selected animals and optionally marks them for
// sale
type RuminantMove struct {
	protocol.Base
	config RuminantMoveConfig
	herd   repositories.HerdRepository

	cohorts []*entities.RuminantCohort
	plan    entities.Plan
	moved   int
}

var _ protocol.Activity = (*RuminantMove)(nil)

// NewRuminantMove creates a validated RuminantMove
func NewRuminantMove(name string, deps protocol.Dependencies, settings protocol.Settings, config RuminantMoveConfig, herd repositories.HerdRepository) (*RuminantMove, error) {
	if herd == nil {
		return nil, entities.NewConfigurationError(name, "herd", "a herd is required")
	}
	if config.ToLocation == "" && !config.MarkForSale {
		return nil, entities.NewConfigurationError(name, "location", "a destination or mark for sale is required")
	}
	settings.ShortfallPolicy = protocol.WorstProportion

	a := &RuminantMove{config: config, herd: herd}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindRuminantMove],
		entities.UnitTable{
			entities.UnitFixed:   func() float64 { return 1 },
			entities.UnitPerHead: func() float64 { return a.plan.Planned },
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *RuminantMove) needsMove(c *entities.RuminantCohort) bool {
	if a.config.ToLocation != "" && c.Location != a.config.ToLocation {
		return true
	}
	return a.config.MarkForSale && !c.ForSale
}

func (a *RuminantMove) PrepareForTimestep(context.Context) error {
	a.moved = 0
	a.cohorts = a.cohorts[:0]
	heads := 0
	for _, c := range a.herd.Find(a.config.Filter) {
		if a.needsMove(c) {
			a.cohorts = append(a.cohorts, c)
			heads += c.Number
		}
	}
	a.plan = entities.NewPlan(float64(heads))
	return nil
}

func (a *RuminantMove) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	return withCompanions(&a.Base, nil)
}

func (a *RuminantMove) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, true)
	a.plan = plan
	return err
}

func (a *RuminantMove) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	remaining := int(a.plan.Adjusted)
	for _, c := range a.cohorts {
		if remaining <= 0 {
			break
		}
		n := min(remaining, c.Number)
		if n <= 0 {
			continue
		}
		_, err := a.herd.Split(c.ID, n, func(moved *entities.RuminantCohort) {
			if a.config.ToLocation != "" {
				moved.Location = a.config.ToLocation
			}
			if a.config.MarkForSale {
				moved.ForSale = true
			}
		})
		if err != nil {
			return err
		}
		remaining -= n
		a.moved += n
	}
	if err := a.PerformCompanions(fractionDone(a.plan)); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// Moved returns the head moved this timestep
func (a *RuminantMove) Moved() int {
	return a.moved
}
