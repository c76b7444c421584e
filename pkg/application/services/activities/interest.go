package activities

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
)

// CalculateInterest applies a month of interest to bank accounts: earned
// on positive balances, charged on overdrawn ones
type CalculateInterest struct {
	protocol.Base
	accounts []InterestAccount
	earned   entities.Money
	charged  entities.Money
}

var _ protocol.Activity = (*CalculateInterest)(nil)

// NewCalculateInterest creates a CalculateInterest for the given accounts
func NewCalculateInterest(name string, deps protocol.Dependencies, settings protocol.Settings, accounts ...InterestAccount) (*CalculateInterest, error) {
	if len(accounts) == 0 {
		return nil, entities.NewConfigurationError(name, "accounts", "at least one bank account is required")
	}
	base, err := protocol.NewBase(name, deps, settings, companionLabels[KindCalculateInterest], entities.UnitTable{})
	if err != nil {
		return nil, err
	}
	return &CalculateInterest{Base: base, accounts: accounts}, nil
}

func (a *CalculateInterest) PrepareForTimestep(context.Context) error {
	a.earned = decimal.Zero
	a.charged = decimal.Zero
	return nil
}

func (a *CalculateInterest) RequestResourcesForTimestep(context.Context, float64) (entities.RequestList, error) {
	if !a.TimingOK() {
		a.SetStatus(entities.Ignored, "")
	}
	return nil, nil
}

func (a *CalculateInterest) AdjustResourcesForTimestep(context.Context, entities.RequestList) error {
	return nil
}

func (a *CalculateInterest) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() {
		return nil
	}
	for _, account := range a.accounts {
		earnedRate, paidRate := account.InterestRates()
		balance := account.Balance()
		switch {
		case balance.IsPositive():
			interest := entities.MonthlyInterest(balance, earnedRate)
			account.Deposit(interest, a.Name(), "", "Interest earned")
			a.earned = a.earned.Add(interest)
		case balance.IsNegative():
			interest := entities.MonthlyInterest(balance.Neg(), paidRate)
			account.Withdraw(interest, a.Name(), "Interest paid")
			a.charged = a.charged.Add(interest)
		}
	}
	if a.earned.IsZero() && a.charged.IsZero() {
		return nil
	}
	a.SetStatus(entities.Calculation, "")
	return nil
}

// Earned returns interest credited this timestep
func (a *CalculateInterest) Earned() entities.Money { return a.earned }

// Charged returns interest charged this timestep
func (a *CalculateInterest) Charged() entities.Money { return a.charged }
