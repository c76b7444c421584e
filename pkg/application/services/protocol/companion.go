package protocol

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Companion is a sub-model attached to an activity that adds its own demand
// scaled by a value the activity computes each timestep
type Companion interface {
	Name() string
	Key() entities.CompanionKey
	// Requests builds the companion's demand for value units
	Requests(owner *Base, value float64) (entities.RequestList, error)
}

// Performer is implemented by companions with an effect in the perform
// phase rather than a demand, such as emissions
type Performer interface {
	Perform(owner *Base, value float64) error
}

// FeeCompanion charges money per unit
type FeeCompanion struct {
	name          string
	key           entities.CompanionKey
	Account       string
	AmountPerUnit decimal.Decimal
}

// NewFeeCompanion creates a validated FeeCompanion
func NewFeeCompanion(name, identifier string, unit entities.Unit, account string, amountPerUnit decimal.Decimal) (*FeeCompanion, error) {
	if account == "" {
		return nil, fmt.Errorf("fee [%s] requires a bank account", name)
	}
	if amountPerUnit.IsNegative() {
		return nil, fmt.Errorf("fee [%s] amount cannot be negative, got %s", name, amountPerUnit)
	}
	return &FeeCompanion{
		name:          name,
		key:           entities.CompanionKey{ModelType: "Fee", Identifier: identifier, Unit: unit},
		Account:       account,
		AmountPerUnit: amountPerUnit,
	}, nil
}

func (f *FeeCompanion) Name() string               { return f.name }
func (f *FeeCompanion) Key() entities.CompanionKey { return f.key }

func (f *FeeCompanion) Requests(owner *Base, value float64) (entities.RequestList, error) {
	amount := entities.MoneyToFloat(f.AmountPerUnit.Mul(decimal.NewFromFloat(value)).Round(2))
	req, err := owner.NewRequest(f.Account, amount, f.name)
	if err != nil {
		return nil, err
	}
	req.RelatesTo = f.key.Identifier
	return entities.RequestList{}.Add(req), nil
}

// LabourCompanion requires person-days per unit
type LabourCompanion struct {
	name        string
	key         entities.CompanionKey
	Pool        string
	DaysPerUnit float64
	// MinimumDays is requested whenever the activity has any work
	MinimumDays float64
}

// NewLabourCompanion creates a validated LabourCompanion
func NewLabourCompanion(name, identifier string, unit entities.Unit, pool string, daysPerUnit, minimumDays float64) (*LabourCompanion, error) {
	if pool == "" {
		return nil, fmt.Errorf("labour requirement [%s] requires a labour pool", name)
	}
	if daysPerUnit < 0 || minimumDays < 0 {
		return nil, fmt.Errorf("labour requirement [%s] days cannot be negative", name)
	}
	return &LabourCompanion{
		name:        name,
		key:         entities.CompanionKey{ModelType: "LabourRequirement", Identifier: identifier, Unit: unit},
		Pool:        pool,
		DaysPerUnit: daysPerUnit,
		MinimumDays: minimumDays,
	}, nil
}

func (l *LabourCompanion) Name() string               { return l.name }
func (l *LabourCompanion) Key() entities.CompanionKey { return l.key }

func (l *LabourCompanion) Requests(owner *Base, value float64) (entities.RequestList, error) {
	if value <= 0 {
		return nil, nil
	}
	days := value * l.DaysPerUnit
	if days < l.MinimumDays {
		days = l.MinimumDays
	}
	req, err := owner.NewRequest(l.Pool, days, "Labour")
	if err != nil {
		return nil, err
	}
	req.RelatesTo = l.key.Identifier
	return entities.RequestList{}.Add(req), nil
}

// EmissionCompanion adds greenhouse gas per unit when the activity performs
type EmissionCompanion struct {
	name      string
	key       entities.CompanionKey
	Store     repositories.ResourceType
	KgPerUnit float64
}

// NewEmissionCompanion creates a validated EmissionCompanion
func NewEmissionCompanion(name, identifier string, unit entities.Unit, store repositories.ResourceType, kgPerUnit float64) (*EmissionCompanion, error) {
	if store == nil {
		return nil, fmt.Errorf("emission [%s] requires a greenhouse gas store", name)
	}
	if kgPerUnit < 0 {
		return nil, fmt.Errorf("emission [%s] rate cannot be negative, got %g", name, kgPerUnit)
	}
	return &EmissionCompanion{
		name:      name,
		key:       entities.CompanionKey{ModelType: "GreenhouseGasEmission", Identifier: identifier, Unit: unit},
		Store:     store,
		KgPerUnit: kgPerUnit,
	}, nil
}

func (e *EmissionCompanion) Name() string               { return e.name }
func (e *EmissionCompanion) Key() entities.CompanionKey { return e.key }

func (e *EmissionCompanion) Requests(*Base, float64) (entities.RequestList, error) {
	return nil, nil
}

func (e *EmissionCompanion) Perform(owner *Base, value float64) error {
	e.Store.Add(value*e.KgPerUnit, owner.Name(), e.key.Identifier, "Emission")
	return nil
}
