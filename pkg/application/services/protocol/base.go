package protocol

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/domain/timers"
)

// Dependencies are the collaborators every activity is constructed with
type Dependencies struct {
	Clock    repositories.Clock
	Notifier repositories.Notifier
	Logger   *slog.Logger
}

// Settings are the per-activity protocol choices
type Settings struct {
	Timer              timers.Timer
	OnPartialResources entities.PartialResourcesAction
	ShortfallPolicy    ShortfallPolicy
	ShortfallTag       string // used by FirstMatchingTag
	Category           string // transaction category for requests
	AllowTransmutation bool   // shortfalls may be bought from the transmutation account
}

// Base carries the state and helpers shared by every activity. Concrete
// activities embed it and implement the four protocol phases.
type Base struct {
	id       uuid.UUID
	name     string
	status   entities.ActivityStatus
	message  string
	settings Settings

	labels     entities.CompanionLabels
	units      entities.UnitTable
	companions []Companion
	values     entities.CompanionValues

	timingChecked bool
	timingDue     bool
	shortfall     float64
	shortRequest  *entities.ResourceRequest

	clock    repositories.Clock
	notifier repositories.Notifier
	logger   *slog.Logger
}

// NewBase creates the shared activity state. units is the activity's unit
// table, labels the identifiers and units it offers companions.
func NewBase(name string, deps Dependencies, settings Settings, labels entities.CompanionLabels, units entities.UnitTable) (Base, error) {
	if name == "" {
		return Base{}, fmt.Errorf("activity name cannot be empty")
	}
	if deps.Clock == nil {
		return Base{}, entities.NewConfigurationError(name, "", "a simulation clock is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = repositories.NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if settings.Category == "" {
		settings.Category = name
	}
	return Base{
		id:       uuid.New(),
		name:     name,
		settings: settings,
		labels:   labels,
		units:    units,
		values:   entities.NewCompanionValues(),
		clock:    deps.Clock,
		notifier: deps.Notifier,
		logger:   deps.Logger.With("activity", name),
	}, nil
}

func (b *Base) ID() uuid.UUID                   { return b.id }
func (b *Base) Name() string                    { return b.name }
func (b *Base) Status() entities.ActivityStatus { return b.status }
func (b *Base) Message() string                 { return b.message }
func (b *Base) Settings() Settings              { return b.settings }
func (b *Base) Clock() repositories.Clock       { return b.clock }
func (b *Base) Logger() *slog.Logger            { return b.logger }
func (b *Base) Companions() []Companion         { return b.companions }

// AttachCompanion adds a companion after checking that its key is within the
// activity's labels and its unit is one the activity can compute
func (b *Base) AttachCompanion(c Companion) error {
	key := c.Key()
	if !b.units.Supports(key.Unit) {
		return entities.NewConfigurationError(b.name, key.String(),
			fmt.Sprintf("unit [%s] is not supported, expected one of %v", key.Unit, b.units.Units()))
	}
	if !b.labels.Allows(key) {
		return entities.NewConfigurationError(b.name, key.String(),
			fmt.Sprintf("identifier [%s] is not offered, expected one of %v", key.Identifier, b.labels.Identifiers))
	}
	b.companions = append(b.companions, c)
	return nil
}

// BeginTimestep resets status and per-timestep caches
func (b *Base) BeginTimestep() {
	b.status = entities.NotNeeded
	b.message = ""
	b.timingChecked = false
	b.timingDue = false
	b.shortfall = 0
	b.shortRequest = nil
	b.values.Reset()
}

// TimingOK consults the timer once per timestep; later calls return the
// cached answer so the timer's notification fires exactly once
func (b *Base) TimingOK() bool {
	if b.timingChecked {
		return b.timingDue
	}
	b.timingChecked = true
	b.timingDue = b.settings.Timer == nil || b.settings.Timer.ActivityDue()
	return b.timingDue
}

// SetStatus overwrites the status
func (b *Base) SetStatus(status entities.ActivityStatus, message string) {
	b.status = status
	b.message = message
}

// SetStatusSuccessOrPartial records the final outcome of a performed task.
// A Warning, Partial or Critical set earlier in the timestep is kept.
func (b *Base) SetStatusSuccessOrPartial(shortfall bool) {
	if !b.status.IsNominal() {
		return
	}
	if shortfall {
		b.SetStatus(entities.Partial, "insufficient resources provided")
		return
	}
	b.SetStatus(entities.Success, "")
}

// NewRequest builds a request attributed to this activity
func (b *Base) NewRequest(resource string, required float64, category string) (*entities.ResourceRequest, error) {
	if category == "" {
		category = b.settings.Category
	}
	req, err := entities.NewResourceRequest(resource, required, b.id, b.name, category)
	if err != nil {
		return nil, entities.NewConfigurationError(b.name, resource, err.Error())
	}
	req.AllowTransmutation = b.settings.AllowTransmutation
	return req, nil
}

// UpdateCompanionValues computes every attached companion's value from the
// unit table; an unknown unit is a configuration error
func (b *Base) UpdateCompanionValues() error {
	for _, c := range b.companions {
		value, err := b.units.Resolve(b.name, c.Key())
		if err != nil {
			return err
		}
		b.values.Set(c.Key(), value)
	}
	return nil
}

// CompanionValue returns the value computed for key this timestep
func (b *Base) CompanionValue(key entities.CompanionKey) (float64, error) {
	return b.values.Get(b.name, key)
}

// CompanionRequests collects companion demand. Every companion value must
// have been assigned by UpdateCompanionValues.
func (b *Base) CompanionRequests() (entities.RequestList, error) {
	keys := make([]entities.CompanionKey, 0, len(b.companions))
	for _, c := range b.companions {
		keys = append(keys, c.Key())
	}
	if err := b.values.Require(b.name, keys); err != nil {
		return nil, err
	}

	var requests entities.RequestList
	for _, c := range b.companions {
		reqs, err := c.Requests(b, b.values[c.Key()])
		if err != nil {
			return nil, err
		}
		for _, req := range reqs {
			requests = requests.Add(req)
		}
	}
	return requests, nil
}

// PerformCompanions runs companions with a perform-phase effect, scaled by
// the fraction of the task actually carried out
func (b *Base) PerformCompanions(fraction float64) error {
	for _, c := range b.companions {
		p, ok := c.(Performer)
		if !ok {
			continue
		}
		value, err := b.CompanionValue(c.Key())
		if err != nil {
			return err
		}
		if err := p.Perform(b, value*fraction); err != nil {
			return fmt.Errorf("companion %s: %w", c.Name(), err)
		}
	}
	return nil
}

// EvaluateShortfall applies the activity's shortfall policy to its
// arbitrated requests. Every short request is reported. Under
// ReportErrorAndStop a shortfall is returned as a *ShortfallError; under
// SkipActivity the whole task is skipped.
func (b *Base) EvaluateShortfall(requests entities.RequestList) (float64, error) {
	for _, req := range requests {
		if req.Satisfied() {
			continue
		}
		b.logger.Warn("resource shortfall",
			"resource", req.ResourceTypeName,
			"required", req.Required,
			"provided", req.Provided,
			"tag", req.RelatesTo)
		b.notifier.Notify(repositories.ResourceShortfallEvent, b.name, repositories.ResourceShortfall{
			Activity: b.name,
			Request:  *req,
			Date:     b.clock.Today(),
		})
	}

	proportion, short := b.settings.ShortfallPolicy.Evaluate(requests, b.settings.ShortfallTag)
	if short == nil {
		return 0, nil
	}
	b.shortRequest = short

	switch b.settings.OnPartialResources {
	case entities.ReportErrorAndStop:
		b.SetStatus(entities.Critical, "insufficient resources")
		return 0, &entities.ShortfallError{
			Activity: b.name,
			Resource: short.ResourceTypeName,
			Required: short.Required,
			Provided: short.Provided,
		}
	case entities.SkipActivity:
		proportion = 1
	}
	b.shortfall = proportion
	return proportion, nil
}

// ApplyShortfall scales a plan by the evaluated shortfall. A plan that
// would grow is a data inconsistency and is reported as a Warning.
func (b *Base) ApplyShortfall(plan entities.Plan, whole bool) entities.Plan {
	if b.shortfall == 0 {
		return plan
	}
	var adjusted entities.Plan
	if whole {
		adjusted = plan.ScaleWhole(b.shortfall)
	} else {
		adjusted = plan.Scale(b.shortfall)
	}
	if adjusted.Skipped() < 0 || (plan.Planned == 0 && b.shortfall > 0) {
		b.SetStatus(entities.Warning, "resource shortfall prevented any action")
		return entities.Plan{Planned: plan.Planned, Adjusted: 0}
	}
	return adjusted
}

// Shortfall returns the proportion evaluated this timestep
func (b *Base) Shortfall() float64 {
	return b.shortfall
}

// ShortRequest returns the request that gated the task, if any
func (b *Base) ShortRequest() *entities.ResourceRequest {
	return b.shortRequest
}
