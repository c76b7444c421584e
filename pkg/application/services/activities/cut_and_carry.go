package activities

import (
	"context"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// CutAndCarryConfig describes a forage harvest carried to a feed store
type CutAndCarryConfig struct {
	Pasture             string
	ProportionHarvested float64
	FeedStore           string
	LabourPool          string
	LabourDaysPerHa     float64
	Limiter             *entities.ActivityLimiter
}

// CutAndCarry cuts standing biomass from a pasture into a feed store. The
// harvest is gated by the untagged labour request only; tagged companion
// shortfalls are reported without reducing the cut.
type CutAndCarry struct {
	protocol.Base
	config  CutAndCarryConfig
	pasture *entities.Pasture
	store   repositories.ResourceType

	available float64
	plan      entities.Plan
	harvested float64
}

var _ protocol.Activity = (*CutAndCarry)(nil)

// NewCutAndCarry creates a validated CutAndCarry
func NewCutAndCarry(name string, deps protocol.Dependencies, settings protocol.Settings, config CutAndCarryConfig,
	pastures PastureSource, registry repositories.ResourceRegistry, onMissing entities.MissingResourceAction) (*CutAndCarry, error) {
	if pastures == nil {
		return nil, entities.NewConfigurationError(name, "pasture", "a pasture source is required")
	}
	pasture, err := pastures.Pasture(config.Pasture)
	if err != nil {
		return nil, entities.NewConfigurationError(name, config.Pasture, err.Error())
	}
	if config.ProportionHarvested <= 0 || config.ProportionHarvested > 1 {
		return nil, entities.NewConfigurationError(name, "proportion harvested", "must be in (0, 1]")
	}
	if config.LabourDaysPerHa < 0 {
		return nil, entities.NewConfigurationError(name, "labour days per ha", "cannot be negative")
	}
	if config.LabourDaysPerHa > 0 && config.LabourPool == "" {
		return nil, entities.NewConfigurationError(name, "labour", "a labour pool is required when labour days are set")
	}
	store, err := resolvePool(registry, name, config.FeedStore, onMissing)
	if err != nil {
		return nil, err
	}
	settings.ShortfallPolicy = protocol.FirstMatchingTag
	settings.ShortfallTag = ""

	a := &CutAndCarry{config: config, pasture: pasture, store: store}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindCutAndCarry],
		entities.UnitTable{
			entities.UnitFixed:        func() float64 { return 1 },
			entities.UnitPerKgHarvest: func() float64 { return a.plan.Planned },
			entities.UnitPerHectare:   func() float64 { return a.pasture.Area },
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *CutAndCarry) PrepareForTimestep(context.Context) error {
	a.harvested = 0
	a.available = a.pasture.Biomass * a.config.ProportionHarvested
	a.plan = entities.NewPlan(a.available)
	return nil
}

// RequestResourcesForTimestep scales the cut by argument, 1 being the
// configured proportion
func (a *CutAndCarry) RequestResourcesForTimestep(_ context.Context, argument float64) (entities.RequestList, error) {
	if argument > 0 && argument != 1 {
		a.plan = entities.NewPlan(min(a.available*argument, a.pasture.Biomass))
	}
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	var requests entities.RequestList
	if a.config.LabourDaysPerHa > 0 {
		req, err := a.NewRequest(a.config.LabourPool, a.config.LabourDaysPerHa*a.pasture.Area, "Labour")
		if err != nil {
			return nil, err
		}
		requests = requests.Add(req)
	}
	return withCompanions(&a.Base, requests)
}

func (a *CutAndCarry) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, false)
	a.plan = plan
	return err
}

func (a *CutAndCarry) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	a.plan = applyLimiter(&a.Base, a.config.Limiter, a.plan)
	a.harvested = min(a.plan.Adjusted, a.pasture.Biomass)
	a.pasture.Biomass -= a.harvested
	if a.store != nil {
		a.store.Add(a.harvested, a.Name(), a.pasture.Name, "Cut and carry")
	}
	if err := a.PerformCompanions(fractionDone(a.plan)); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// Harvested returns kg cut this timestep
func (a *CutAndCarry) Harvested() float64 {
	return a.harvested
}
