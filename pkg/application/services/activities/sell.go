package activities

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// RuminantSellConfig describes a sale of animals marked for sale
type RuminantSellConfig struct {
	Filter       repositories.HerdFilter
	Account      string
	PricePerHead decimal.Decimal
	PricePerKg   decimal.Decimal
	AEByWeight   *entities.Relationship
}

// RuminantSell sells cohorts marked for sale, oldest first, and credits the
// sale income
type RuminantSell struct {
	protocol.Base
	config  RuminantSellConfig
	herd    repositories.HerdRepository
	account repositories.ResourceType

	cohorts []*entities.RuminantCohort
	ae      float64
	plan    entities.Plan
	income  entities.Money
}

var _ protocol.Activity = (*RuminantSell)(nil)

// NewRuminantSell creates a validated RuminantSell
func NewRuminantSell(name string, deps protocol.Dependencies, settings protocol.Settings, config RuminantSellConfig,
	herd repositories.HerdRepository, registry repositories.ResourceRegistry, onMissing entities.MissingResourceAction) (*RuminantSell, error) {
	if herd == nil {
		return nil, entities.NewConfigurationError(name, "herd", "a herd is required")
	}
	if config.PricePerHead.IsNegative() || config.PricePerKg.IsNegative() {
		return nil, entities.NewConfigurationError(name, "price", "sale price cannot be negative")
	}
	account, err := resolvePool(registry, name, config.Account, onMissing)
	if err != nil {
		return nil, err
	}
	forSale := true
	config.Filter.ForSale = &forSale
	settings.ShortfallPolicy = protocol.WorstProportion

	a := &RuminantSell{config: config, herd: herd, account: account}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindRuminantSell],
		entities.UnitTable{
			entities.UnitFixed:   func() float64 { return 1 },
			entities.UnitPerHead: func() float64 { return a.plan.Planned },
			entities.UnitPerAE:   func() float64 { return a.ae },
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *RuminantSell) PrepareForTimestep(context.Context) error {
	a.income = decimal.Zero
	a.cohorts = a.herd.Find(a.config.Filter)
	heads := 0
	a.ae = 0
	for _, c := range a.cohorts {
		heads += c.Number
		a.ae += c.AdultEquivalents(a.config.AEByWeight)
	}
	a.plan = entities.NewPlan(float64(heads))
	return nil
}

func (a *RuminantSell) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	return withCompanions(&a.Base, nil)
}

func (a *RuminantSell) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, true)
	a.plan = plan
	return err
}

func (a *RuminantSell) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	remaining := int(a.plan.Adjusted)
	for _, c := range a.cohorts {
		if remaining <= 0 {
			break
		}
		weight := c.Weight
		sold, err := a.herd.Remove(c.ID, min(remaining, c.Number))
		if err != nil {
			return err
		}
		remaining -= sold
		perHead := a.config.PricePerHead.Add(a.config.PricePerKg.Mul(decimal.NewFromFloat(weight)))
		a.income = a.income.Add(perHead.Mul(decimal.NewFromInt(int64(sold))))
	}
	a.income = a.income.Round(2)
	credit(a.account, a.income, a.Name(), a.config.Filter.Herd, "Sales")

	if err := a.PerformCompanions(fractionDone(a.plan)); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// Income returns the sale income credited this timestep
func (a *RuminantSell) Income() entities.Money {
	return a.income
}
