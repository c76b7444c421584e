package activities

import (
	"context"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// CollectManureConfig describes manure collection from a herd
type CollectManureConfig struct {
	Filter          repositories.HerdFilter
	Store           string
	KgPerHeadPerDay float64
	// ProportionCollected of what is produced, 0 means all of it
	ProportionCollected float64
	DaysPerMonth        float64
	Limiter             *entities.ActivityLimiter
}

// CollectManure gathers manure into a store. Collection is capped by a
// shared carrying limiter and reduced by labour or fee shortfalls.
type CollectManure struct {
	protocol.Base
	config CollectManureConfig
	herd   repositories.HerdRepository
	store  repositories.ResourceType

	plan      entities.Plan
	collected float64
}

var _ protocol.Activity = (*CollectManure)(nil)

// NewCollectManure creates a validated CollectManure
func NewCollectManure(name string, deps protocol.Dependencies, settings protocol.Settings, config CollectManureConfig,
	herd repositories.HerdRepository, registry repositories.ResourceRegistry, onMissing entities.MissingResourceAction) (*CollectManure, error) {
	if herd == nil {
		return nil, entities.NewConfigurationError(name, "herd", "a herd is required")
	}
	if err := requirePositive(name, "kg per head per day", config.KgPerHeadPerDay); err != nil {
		return nil, err
	}
	if config.ProportionCollected < 0 || config.ProportionCollected > 1 {
		return nil, entities.NewConfigurationError(name, "proportion collected", "must be between 0 and 1")
	}
	if config.ProportionCollected == 0 {
		config.ProportionCollected = 1
	}
	if config.DaysPerMonth <= 0 {
		config.DaysPerMonth = entities.AverageDaysPerMonth
	}
	store, err := resolvePool(registry, name, config.Store, onMissing)
	if err != nil {
		return nil, err
	}
	settings.ShortfallPolicy = protocol.WorstProportion

	a := &CollectManure{config: config, herd: herd, store: store}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindCollectManure],
		entities.UnitTable{
			entities.UnitFixed:        func() float64 { return 1 },
			entities.UnitPerKgCollect: func() float64 { return a.plan.Planned },
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *CollectManure) PrepareForTimestep(context.Context) error {
	a.collected = 0
	heads := a.herd.Count(a.config.Filter)
	a.plan = entities.NewPlan(float64(heads) * a.config.KgPerHeadPerDay * a.config.DaysPerMonth * a.config.ProportionCollected)
	return nil
}

func (a *CollectManure) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	return withCompanions(&a.Base, nil)
}

func (a *CollectManure) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, false)
	a.plan = plan
	return err
}

func (a *CollectManure) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	a.plan = applyLimiter(&a.Base, a.config.Limiter, a.plan)
	a.collected = a.plan.Adjusted
	if a.store != nil {
		a.store.Add(a.collected, a.Name(), a.config.Filter.Herd, "Manure")
	}
	if err := a.PerformCompanions(fractionDone(a.plan)); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// Collected returns kg collected this timestep
func (a *CollectManure) Collected() float64 {
	return a.collected
}
