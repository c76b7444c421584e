// Package activities holds the farm management activities run by the
// protocol Runner. Every activity embeds protocol.Base and follows the
// prepare, request, adjust and perform phases.
package activities

import (
	"fmt"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Activity kinds as named in scenario files
const (
	KindRuminantFeed      = "RuminantFeed"
	KindRuminantBuy       = "RuminantBuy"
	KindRuminantSell      = "RuminantSell"
	KindRuminantMove      = "RuminantMove"
	KindCollectManure     = "CollectManure"
	KindCutAndCarry       = "CutAndCarry"
	KindPayExpense        = "PayExpense"
	KindCalculateInterest = "CalculateInterest"
	KindEmitGreenhouseGas = "EmitGreenhouseGas"
)

var companionLabels = map[string]entities.CompanionLabels{
	KindRuminantFeed:  {Units: []entities.Unit{entities.UnitFixed, entities.UnitPerHead, entities.UnitPerKgFed}},
	KindRuminantBuy:   {Units: []entities.Unit{entities.UnitFixed, entities.UnitPerHead, entities.UnitPerAE}},
	KindRuminantSell:  {Units: []entities.Unit{entities.UnitFixed, entities.UnitPerHead, entities.UnitPerAE}},
	KindRuminantMove:  {Units: []entities.Unit{entities.UnitFixed, entities.UnitPerHead}},
	KindCollectManure: {Units: []entities.Unit{entities.UnitFixed, entities.UnitPerKgCollect}},
	KindCutAndCarry: {
		Identifiers: []string{"", "cutting", "carting"},
		Units:       []entities.Unit{entities.UnitFixed, entities.UnitPerKgHarvest, entities.UnitPerHectare},
	},
	KindPayExpense:        {Units: []entities.Unit{entities.UnitFixed}},
	KindCalculateInterest: {},
	KindEmitGreenhouseGas: {Units: []entities.Unit{entities.UnitFixed, entities.UnitPerHead, entities.UnitPerKgFed}},
}

// LabelsFor returns the identifiers and units an activity kind offers its
// companion models
func LabelsFor(kind string) (entities.CompanionLabels, bool) {
	labels, ok := companionLabels[kind]
	return labels, ok
}

// PastureSource looks up pastures by name
type PastureSource interface {
	Pasture(name string) (*entities.Pasture, error)
}

// FedSource reports how much feed an activity plans and fed this timestep
type FedSource interface {
	FedThisTimestep() float64
	Plan() entities.Plan
}

// InterestAccount is a bank account that accrues interest
type InterestAccount interface {
	Name() string
	Balance() entities.Money
	Deposit(amount entities.Money, source, tag, category string)
	Withdraw(amount entities.Money, source, category string)
	// InterestRates returns annual percentages
	InterestRates() (earned, paid entities.Money)
}

type depositor interface {
	Deposit(amount entities.Money, source, tag, category string)
}

// credit adds money to a pool, keeping decimal precision where the pool
// supports it
func credit(pool repositories.ResourceType, amount entities.Money, source, tag, category string) {
	if !amount.IsPositive() || pool == nil {
		return
	}
	if d, ok := pool.(depositor); ok {
		d.Deposit(amount, source, tag, category)
		return
	}
	pool.Add(entities.MoneyToFloat(amount), source, tag, category)
}

// resolvePool resolves a pool an activity adds to directly. A nil pool
// with no error means the missing-resource action allowed continuing.
func resolvePool(registry repositories.ResourceRegistry, activity, name string, onMissing entities.MissingResourceAction) (repositories.ResourceType, error) {
	if registry == nil {
		return nil, entities.NewConfigurationError(activity, name, "a resource registry is required")
	}
	if name == "" {
		return nil, entities.NewConfigurationError(activity, "", "resource name cannot be empty")
	}
	pool, err := registry.Resolve(name, onMissing)
	if err != nil {
		return nil, entities.NewConfigurationError(activity, name, err.Error())
	}
	return pool, nil
}

// requestGate applies the timer check and values companions. It returns
// false when the activity has nothing to request this timestep.
func requestGate(b *protocol.Base, planned float64) (bool, error) {
	if !b.TimingOK() {
		b.SetStatus(entities.Ignored, "")
		return false, nil
	}
	if planned <= 0 {
		return false, nil
	}
	if err := b.UpdateCompanionValues(); err != nil {
		return false, err
	}
	return true, nil
}

// withCompanions appends the companions' demand to requests
func withCompanions(b *protocol.Base, requests entities.RequestList) (entities.RequestList, error) {
	extra, err := b.CompanionRequests()
	if err != nil {
		return nil, err
	}
	return append(requests, extra...), nil
}

// adjust evaluates shortfall and scales the plan
func adjust(b *protocol.Base, plan entities.Plan, requests entities.RequestList, whole bool) (entities.Plan, error) {
	if _, err := b.EvaluateShortfall(requests); err != nil {
		return plan, err
	}
	return b.ApplyShortfall(plan, whole), nil
}

// fractionDone is the share of the plan carried out
func fractionDone(plan entities.Plan) float64 {
	if plan.Planned <= 0 {
		return 0
	}
	return plan.Adjusted / plan.Planned
}

// applyLimiter caps the plan to what the shared limiter has left this
// month and records the consumption
func applyLimiter(b *protocol.Base, limiter *entities.ActivityLimiter, plan entities.Plan) entities.Plan {
	if limiter == nil {
		return plan
	}
	limited := plan.Limit(limiter.GetAmountAvailable(int(b.Clock().Today().Month())))
	if limited.Adjusted < plan.Adjusted {
		b.SetStatus(entities.Warning, fmt.Sprintf("limiter [%s] enforced", limiter.Name))
		b.Logger().Info("limiter enforced", "limiter", limiter.Name, "planned", plan.Adjusted, "allowed", limited.Adjusted)
	}
	limiter.AddWeightCarried(limited.Adjusted)
	return limited
}

func requirePositive(activity, key string, v float64) error {
	if v <= 0 {
		return entities.NewConfigurationError(activity, key, fmt.Sprintf("must be positive, got %g", v))
	}
	return nil
}
