package activities

import (
	"context"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// RuminantFeedConfig describes a feeding regime
type RuminantFeedConfig struct {
	Filter          repositories.HerdFilter
	FeedStore       string
	KgPerHeadPerDay float64
	// GainPerKgFed is live weight gained per kg of feed eaten
	GainPerKgFed float64
	DaysPerMonth float64
}

// RuminantFeed feeds the selected cohorts from a feed store. A short store
// reduces the ration of every animal by the same proportion.
type RuminantFeed struct {
	protocol.Base
	config RuminantFeedConfig
	herd   repositories.HerdRepository

	cohorts []*entities.RuminantCohort
	heads   int
	plan    entities.Plan
	fed     float64
}

var _ protocol.Activity = (*RuminantFeed)(nil)

// NewRuminantFeed creates a validated RuminantFeed
func NewRuminantFeed(name string, deps protocol.Dependencies, settings protocol.Settings, config RuminantFeedConfig, herd repositories.HerdRepository) (*RuminantFeed, error) {
	if herd == nil {
		return nil, entities.NewConfigurationError(name, "herd", "a herd is required")
	}
	if config.FeedStore == "" {
		return nil, entities.NewConfigurationError(name, "feed store", "a feed store is required")
	}
	if err := requirePositive(name, "kg per head per day", config.KgPerHeadPerDay); err != nil {
		return nil, err
	}
	if config.DaysPerMonth <= 0 {
		config.DaysPerMonth = entities.AverageDaysPerMonth
	}
	settings.ShortfallPolicy = protocol.WorstProportion

	a := &RuminantFeed{config: config, herd: herd}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindRuminantFeed],
		entities.UnitTable{
			entities.UnitFixed:    func() float64 { return 1 },
			entities.UnitPerHead:  func() float64 { return float64(a.heads) },
			entities.UnitPerKgFed: func() float64 { return a.plan.Planned },
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *RuminantFeed) PrepareForTimestep(context.Context) error {
	a.fed = 0
	a.cohorts = a.herd.Find(a.config.Filter)
	a.heads = 0
	for _, c := range a.cohorts {
		a.heads += c.Number
	}
	a.plan = entities.NewPlan(float64(a.heads) * a.config.KgPerHeadPerDay * a.config.DaysPerMonth)
	return nil
}

func (a *RuminantFeed) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	req, err := a.NewRequest(a.config.FeedStore, a.plan.Planned, "Feed")
	if err != nil {
		return nil, err
	}
	req.RelatesTo = a.config.Filter.Herd
	return withCompanions(&a.Base, entities.RequestList{}.Add(req))
}

func (a *RuminantFeed) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, false)
	a.plan = plan
	return err
}

func (a *RuminantFeed) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	fraction := fractionDone(a.plan)
	a.fed = a.plan.Adjusted
	if a.config.GainPerKgFed > 0 {
		eaten := a.config.KgPerHeadPerDay * a.config.DaysPerMonth * fraction
		for _, c := range a.cohorts {
			c.Weight += eaten * a.config.GainPerKgFed
		}
	}
	if err := a.PerformCompanions(fraction); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// FedThisTimestep returns the kg of feed eaten this timestep
func (a *RuminantFeed) FedThisTimestep() float64 {
	return a.fed
}

// Plan returns this timestep's planned and adjusted feed
func (a *RuminantFeed) Plan() entities.Plan {
	return a.plan
}
