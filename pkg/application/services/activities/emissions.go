package activities

import (
	"context"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// EmitGreenhouseGasConfig gives emission factors for a herd
type EmitGreenhouseGasConfig struct {
	Filter     repositories.HerdFilter
	Store      string
	KgPerHead  float64
	KgPerKgFed float64
	FixedKg    float64
	// Feed supplies kg fed; it must run earlier in configuration order
	Feed FedSource
}

// EmitGreenhouseGas adds the month's herd emissions to a greenhouse gas
// store. Only its companions make requests.
type EmitGreenhouseGas struct {
	protocol.Base
	config EmitGreenhouseGasConfig
	herd   repositories.HerdRepository
	store  repositories.ResourceType

	heads   int
	emitted float64
}

var _ protocol.Activity = (*EmitGreenhouseGas)(nil)

// NewEmitGreenhouseGas creates a validated EmitGreenhouseGas
func NewEmitGreenhouseGas(name string, deps protocol.Dependencies, settings protocol.Settings, config EmitGreenhouseGasConfig,
	herd repositories.HerdRepository, registry repositories.ResourceRegistry, onMissing entities.MissingResourceAction) (*EmitGreenhouseGas, error) {
	if herd == nil {
		return nil, entities.NewConfigurationError(name, "herd", "a herd is required")
	}
	if config.KgPerHead < 0 || config.KgPerKgFed < 0 || config.FixedKg < 0 {
		return nil, entities.NewConfigurationError(name, "emission factor", "cannot be negative")
	}
	if config.KgPerKgFed > 0 && config.Feed == nil {
		return nil, entities.NewConfigurationError(name, "feed", "a feed activity is required for per kg fed emissions")
	}
	store, err := resolvePool(registry, name, config.Store, onMissing)
	if err != nil {
		return nil, err
	}

	settings.ShortfallPolicy = protocol.WorstProportion

	a := &EmitGreenhouseGas{config: config, herd: herd, store: store}
	base, err := protocol.NewBase(name, deps, settings,
		companionLabels[KindEmitGreenhouseGas],
		entities.UnitTable{
			entities.UnitFixed:    func() float64 { return 1 },
			entities.UnitPerHead:  func() float64 { return float64(a.heads) },
			entities.UnitPerKgFed: a.plannedFeed,
		})
	if err != nil {
		return nil, err
	}
	a.Base = base
	return a, nil
}

func (a *EmitGreenhouseGas) fed() float64 {
	if a.config.Feed == nil {
		return 0
	}
	return a.config.Feed.FedThisTimestep()
}

// plannedFeed values per kg fed companions in the request phase, before the
// feed activity has performed
func (a *EmitGreenhouseGas) plannedFeed() float64 {
	if a.config.Feed == nil {
		return 0
	}
	return a.config.Feed.Plan().Planned
}

func (a *EmitGreenhouseGas) PrepareForTimestep(context.Context) error {
	a.emitted = 0
	a.heads = a.herd.Count(a.config.Filter)
	return nil
}

func (a *EmitGreenhouseGas) RequestResourcesForTimestep(context.Context, float64) (entities.RequestList, error) {
	ok, err := requestGate(&a.Base, float64(a.heads))
	if !ok || err != nil {
		return nil, err
	}
	return withCompanions(&a.Base, nil)
}

func (a *EmitGreenhouseGas) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	_, err := a.EvaluateShortfall(requests)
	return err
}

// PerformTasksForTimestep reads feed eaten this timestep, so it runs after
// the feed activity has performed
func (a *EmitGreenhouseGas) PerformTasksForTimestep(context.Context, float64) error {
	if !a.TimingOK() || a.heads <= 0 {
		return nil
	}
	a.emitted = float64(a.heads)*a.config.KgPerHead + a.fed()*a.config.KgPerKgFed + a.config.FixedKg
	if a.emitted > 0 && a.store != nil {
		a.store.Add(a.emitted, a.Name(), a.config.Filter.Herd, "Emission")
	}
	if err := a.PerformCompanions(1); err != nil {
		return err
	}
	if a.Status().IsNominal() {
		a.SetStatus(entities.Calculation, "")
	}
	return nil
}

// Emitted returns kg emitted this timestep
func (a *EmitGreenhouseGas) Emitted() float64 {
	return a.emitted
}
