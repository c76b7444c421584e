package activities

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// RuminantBuyConfig describes the animals bought to keep a herd at size
type RuminantBuyConfig struct {
	Herd         string
	Breed        string
	Sex          entities.Sex
	AgeMonths    int
	Weight       float64
	Location     string
	TargetHead   int
	Account      string
	PricePerHead decimal.Decimal
	// AEByWeight converts live weight to adult equivalents, nil = 1 per head
	AEByWeight *entities.Relationship
}

// RuminantBuy buys animals up to a target herd size. Purchases are whole
// animals; a shortfall in any resource reduces the number bought.
type RuminantBuy struct {
	protocol.Base
	config  RuminantBuyConfig
	herd    repositories.HerdRepository
	account repositories.ResourceType

	plan    entities.Plan
	payment *entities.ResourceRequest
	bought  int
}

var _ protocol.Activity = (*RuminantBuy)(nil)

// NewRuminantBuy creates a validated RuminantBuy
func NewRuminantBuy(name string, deps protocol.Dependencies, settings protocol.Settings, config RuminantBuyConfig,
	herd repositories.HerdRepository, registry repositories.ResourceRegistry, onMissing entities.MissingResourceAction) (*RuminantBuy, error) {
	if herd == nil {
		return nil, entities.NewConfigurationError(name, "herd", "a herd is required")
	}
	if config.Herd == "" {
		return nil, entities.NewConfigurationError(name, "herd", "herd name cannot be empty")
	}
	if err := requirePositive(name, "weight", config.Weight); err != nil {
		return nil, err
	}
	if config.PricePerHead.IsNegative() {
		return nil, entities.NewConfigurationError(name, "price", "price per head cannot be negative")
	}
	account, err := resolvePool(registry, name, config.Account, onMissing)
	if err != nil {
		return nil, err
	}
	settings.ShortfallPolicy = protocol.WorstProportion

	a := &RuminantBuy{config: config, herd: herd, account: account}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindRuminantBuy],
		entities.UnitTable{
			entities.UnitFixed:   func() float64 { return 1 },
			entities.UnitPerHead: func() float64 { return a.plan.Planned },
			entities.UnitPerAE:   func() float64 { return a.plan.Planned * a.aePerHead() },
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *RuminantBuy) aePerHead() float64 {
	if a.config.AEByWeight == nil {
		return 1
	}
	return a.config.AEByWeight.SolveY(a.config.Weight, true)
}

func (a *RuminantBuy) PrepareForTimestep(context.Context) error {
	a.bought = 0
	a.payment = nil
	current := a.herd.Count(repositories.HerdFilter{Herd: a.config.Herd})
	a.plan = entities.NewPlan(math.Max(float64(a.config.TargetHead-current), 0))
	return nil
}

func (a *RuminantBuy) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	var requests entities.RequestList
	if a.account != nil {
		cost := a.config.PricePerHead.Mul(decimal.NewFromFloat(a.plan.Planned)).Round(2)
		a.payment, err = a.NewRequest(a.config.Account, entities.MoneyToFloat(cost), "Purchases")
		if err != nil {
			return nil, err
		}
		a.payment.RelatesTo = a.config.Herd
		requests = requests.Add(a.payment)
	}
	return withCompanions(&a.Base, requests)
}

func (a *RuminantBuy) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, true)
	a.plan = plan
	return err
}

func (a *RuminantBuy) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	n := int(a.plan.Adjusted)
	if n > 0 {
		cohort, err := entities.NewRuminantCohort(a.config.Herd, a.config.Breed, a.config.Sex,
			a.config.AgeMonths, a.config.Weight, n, a.config.Location)
		if err != nil {
			return entities.NewConfigurationError(a.Name(), "cohort", err.Error())
		}
		if err := a.herd.AddCohort(cohort); err != nil {
			return err
		}
	}
	a.bought = n

	// money taken for animals that could not be bought goes back
	if a.payment != nil {
		spent := a.config.PricePerHead.Mul(decimal.NewFromInt(int64(n))).Round(2)
		refund := entities.MoneyFromFloat(a.payment.Provided).Sub(spent)
		credit(a.account, refund, a.Name(), a.config.Herd, "Purchase refund")
	}

	if err := a.PerformCompanions(fractionDone(a.plan)); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// Bought returns the head bought this timestep
func (a *RuminantBuy) Bought() int {
	return a.bought
}
