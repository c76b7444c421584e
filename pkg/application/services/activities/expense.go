package activities

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
)

// PayExpenseConfig describes a recurring farm overhead
type PayExpenseConfig struct {
	Account  string
	Amount   decimal.Decimal
	Category string
}

// PayExpense pays a fixed amount whenever its timer is due
type PayExpense struct {
	protocol.Base
	config PayExpenseConfig
	plan   entities.Plan
	paid   float64
}

var _ protocol.Activity = (*PayExpense)(nil)

// NewPayExpense creates a validated PayExpense
func NewPayExpense(name string, deps protocol.Dependencies, settings protocol.Settings, config PayExpenseConfig) (*PayExpense, error) {
	if config.Account == "" {
		return nil, entities.NewConfigurationError(name, "account", "a bank account is required")
	}
	if config.Amount.IsNegative() {
		return nil, entities.NewConfigurationError(name, "amount", "cannot be negative")
	}
	if config.Category == "" {
		config.Category = "Overheads"
	}
	settings.ShortfallPolicy = protocol.WorstProportion
	settings.Category = config.Category

	a := &PayExpense{config: config}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindPayExpense],
		entities.UnitTable{entities.UnitFixed: func() float64 { return 1 }})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *PayExpense) PrepareForTimestep(context.Context) error {
	a.paid = 0
	a.plan = entities.NewPlan(entities.MoneyToFloat(a.config.Amount))
	return nil
}

func (a *PayExpense) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, a.plan.Planned)
	if !ok || err != nil {
		return nil, err
	}
	req, err := a.NewRequest(a.config.Account, a.plan.Planned, "")
	if err != nil {
		return nil, err
	}
	return withCompanions(&a.Base, entities.RequestList{}.Add(req))
}

func (a *PayExpense) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	plan, err := adjust(&a.Base, a.plan, requests, false)
	a.plan = plan
	for _, req := range requests {
		if req.ResourceTypeName == a.config.Account && req.Category == a.config.Category {
			a.paid += req.Provided
		}
	}
	return err
}

func (a *PayExpense) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.plan.Planned <= 0 {
		return nil
	}
	if err := a.PerformCompanions(fractionDone(a.plan)); err != nil {
		return err
	}
	a.SetStatusSuccessOrPartial(a.plan.Reduced())
	return nil
}

// Paid returns the amount paid this timestep
func (a *PayExpense) Paid() float64 {
	return a.paid
}
