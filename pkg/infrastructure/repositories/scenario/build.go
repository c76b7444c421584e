package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/application/dto"
	"github.com/vsinha/clem/pkg/application/services/activities"
	"github.com/vsinha/clem/pkg/application/services/arbitration"
	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/domain/timers"
	"github.com/vsinha/clem/pkg/infrastructure/clock"
	"github.com/vsinha/clem/pkg/infrastructure/config"
	"github.com/vsinha/clem/pkg/infrastructure/events"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/memory"
)

const dateLayout = "2006-01-02"

// Options are run settings a scenario file may override
type Options struct {
	// Start and End are used when the scenario gives no dates
	Start       time.Time
	End         time.Time
	Arbitration string
	Logger      *slog.Logger

	Outcomes     repositories.OutcomeRepository
	Transactions protocol.TransactionRepository
	Recorder     protocol.Recorder
	// EventHistory bounds the events kept by the bus
	EventHistory int
}

// Simulation is a composed scenario ready to run
type Simulation struct {
	Name     string
	Clock    *clock.MonthlyClock
	Registry *memory.Registry
	Bus      *events.Bus
	Runner   *protocol.Runner
	// Events counts every notification published during the run
	Events *events.Tally
}

// Run executes the simulation and attaches closing balances to the result
func (s *Simulation) Run(ctx context.Context) (*dto.RunResult, error) {
	result, err := s.Runner.Run(ctx)
	if result != nil {
		result.Balances = s.Balances()
		if s.Events != nil {
			result.Events = s.Events.Counts()
		}
	}
	return result, err
}

// Balances returns the current amount of every registered pool
func (s *Simulation) Balances() map[string]float64 {
	balances := make(map[string]float64)
	for _, name := range s.Registry.Names() {
		pool, err := s.Registry.Resolve(name, entities.Ignore)
		if err != nil || pool == nil {
			continue
		}
		balances[name] = pool.Amount()
	}
	return balances
}

// companionHost is implemented by every activity through protocol.Base
type companionHost interface {
	AttachCompanion(c protocol.Companion) error
}

type builder struct {
	sc     *Scenario
	opts   Options
	tables *tables
	logger *slog.Logger

	clock     *clock.MonthlyClock
	bus       *events.Bus
	tally     *events.Tally
	registry  *memory.Registry
	onMissing entities.MissingResourceAction

	relationships map[string]*entities.Relationship
	limiters      map[string]*entities.ActivityLimiter
	limiterOrder  []*entities.ActivityLimiter
	timerSpecs    map[string]TimerSpec
	initialisers  []timers.Initialiser
	feeds         map[string]*activities.RuminantFeed
}

// Build validates a scenario and composes its simulation
func Build(sc *Scenario, opts Options) (*Simulation, error) {
	tbl, result, err := validate(sc)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	b := &builder{
		sc:            sc,
		opts:          opts,
		tables:        tbl,
		logger:        opts.Logger,
		relationships: make(map[string]*entities.Relationship),
		limiters:      make(map[string]*entities.ActivityLimiter),
		timerSpecs:    make(map[string]TimerSpec),
		feeds:         make(map[string]*activities.RuminantFeed),
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b.build()
}

func (b *builder) build() (*Simulation, error) {
	if err := b.buildClock(); err != nil {
		return nil, err
	}
	b.bus = events.NewBus(b.opts.EventHistory, b.clock.Today, b.logger)
	b.tally = events.NewTally()
	b.bus.Subscribe(events.SimulationEvents, b.tally)
	b.bus.Subscribe(events.SimulationEvents, events.NewLogHandler(b.logger))
	b.registry = memory.NewRegistry(b.clock.Today, b.logger)

	b.onMissing = entities.ReportErrorAndStopOnMissing
	if b.sc.OnMissingResource != "" {
		b.onMissing, _ = entities.ParseMissingResourceAction(b.sc.OnMissingResource)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"resources", b.buildResources},
		{"herd", b.buildHerd},
		{"relationships", b.buildRelationships},
		{"limiters", b.buildLimiters},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("build %s: %w", step.name, err)
		}
	}
	for _, spec := range b.sc.Timers {
		b.timerSpecs[spec.Name] = spec
	}

	acts, err := b.buildActivities()
	if err != nil {
		return nil, err
	}

	arbitrator, err := b.buildArbitrator()
	if err != nil {
		return nil, err
	}

	runner, err := protocol.NewRunner(protocol.RunnerConfig{
		Clock:        b.clock,
		Arbitrator:   arbitrator,
		Limiters:     b.limiterOrder,
		Resetters:    []repositories.Resetter{b.registry, b.registry.Herd},
		Initialisers: b.initialisers,
		Outcomes:     b.opts.Outcomes,
		Transactions: b.opts.Transactions,
		Ledger:       b.registry.Ledger,
		Recorder:     b.opts.Recorder,
		Notifier:     b.bus,
		Logger:       b.logger,
	}, acts...)
	if err != nil {
		return nil, err
	}

	b.logger.Info("scenario built",
		"scenario", b.sc.Name,
		"activities", len(acts),
		"resources", len(b.registry.Names()),
		"start", b.clock.StartDate().Format(dateLayout),
		"end", b.clock.EndDate().Format(dateLayout))

	return &Simulation{
		Name:     b.sc.Name,
		Clock:    b.clock,
		Registry: b.registry,
		Bus:      b.bus,
		Runner:   runner,
		Events:   b.tally,
	}, nil
}

func (b *builder) buildClock() error {
	start, end := b.opts.Start, b.opts.End
	if b.sc.Start != "" {
		start, _ = time.Parse(dateLayout, b.sc.Start)
	}
	if b.sc.End != "" {
		end, _ = time.Parse(dateLayout, b.sc.End)
	}
	if start.IsZero() || end.IsZero() {
		return entities.NewConfigurationError(b.sc.Name, "dates", "simulation start and end dates are required")
	}
	clk, err := clock.NewMonthlyClock(start, end)
	if err != nil {
		return entities.NewConfigurationError(b.sc.Name, "dates", err.Error())
	}
	b.clock = clk
	return nil
}

func (b *builder) buildResources() error {
	res := b.sc.Resources
	for _, s := range res.Stores {
		if err := b.registry.AddPool(memory.NewStore(s.Name, s.Initial, b.registry.Ledger)); err != nil {
			return err
		}
	}
	for _, s := range res.Banks {
		account := memory.NewBankAccount(s.Name, parseMoney(s.Opening), parseMoney(s.Overdraft), b.registry.Ledger)
		account.InterestRateEarned = parseMoney(s.InterestEarned)
		account.InterestRatePaid = parseMoney(s.InterestPaid)
		if err := b.registry.AddPool(account); err != nil {
			return err
		}
	}
	for _, s := range res.Labour {
		pool := memory.NewLabourPool(s.Name, s.Workers, b.registry.Ledger)
		if s.DaysInMonth > 0 {
			pool.DaysInMonth = s.DaysInMonth
		}
		if err := b.registry.AddPool(pool); err != nil {
			return err
		}
	}
	for _, s := range res.Pastures {
		b.registry.AddPasture(&entities.Pasture{Name: s.Name, Area: s.Area, Biomass: s.Biomass})
	}
	for _, c := range res.Crops {
		harvests := make([]time.Time, 0, len(c.Harvests))
		for _, h := range c.Harvests {
			date, _ := time.Parse(dateLayout, h)
			harvests = append(harvests, date)
		}
		b.registry.AddCrop(entities.NewCropHarvestSchedule(c.Name, harvests))
	}
	for _, schedule := range b.tables.harvests {
		b.registry.AddCrop(schedule)
	}
	return nil
}

func (b *builder) buildHerd() error {
	cohorts := make([]*entities.RuminantCohort, 0, len(b.sc.Herd))
	for i, spec := range b.sc.Herd {
		cohort, err := entities.NewRuminantCohort(spec.Herd, spec.Breed, parseSex(spec.Sex),
			spec.AgeMonths, spec.Weight, spec.Number, spec.Location)
		if err != nil {
			return fmt.Errorf("cohort %d: %w", i+1, err)
		}
		cohort.ForSale = spec.ForSale
		cohorts = append(cohorts, cohort)
	}
	if err := b.registry.Herd.LoadCohorts(cohorts); err != nil {
		return fmt.Errorf("herd: %w", err)
	}
	return nil
}

func (b *builder) buildRelationships() error {
	bounds := make(map[string]RelationshipSpec, len(b.sc.Relationships))
	for _, spec := range b.sc.Relationships {
		bounds[spec.Name] = spec
	}
	for _, table := range b.tables.relationships {
		spec := bounds[table.Name]
		rel, err := entities.NewRelationship(table.Name, table.X, table.Y, spec.Minimum, spec.Maximum, spec.Start)
		if err != nil {
			return err
		}
		b.relationships[table.Name] = rel
	}
	return nil
}

func (b *builder) buildLimiters() error {
	for _, spec := range b.sc.Limiters {
		if _, exists := b.limiters[spec.Name]; exists {
			return fmt.Errorf("duplicate limiter %s", spec.Name)
		}
		limiter, err := entities.NewActivityLimiter(spec.Name, spec.LimitPerDay)
		if err != nil {
			return err
		}
		b.limiters[spec.Name] = limiter
		b.limiterOrder = append(b.limiterOrder, limiter)
	}
	return nil
}

func (b *builder) buildArbitrator() (protocol.Arbitrator, error) {
	policy := b.sc.Arbitration
	if policy == "" {
		policy = b.opts.Arbitration
	}
	cfg := arbitration.Config{
		Registry:  b.registry,
		OnMissing: b.onMissing,
		Logger:    b.logger,
	}
	if t := b.sc.Transmutation; t != nil {
		prices := make(map[string]decimal.Decimal, len(t.Prices))
		for resource, price := range t.Prices {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return nil, entities.NewConfigurationError("transmutation", resource, fmt.Sprintf("invalid price %q", price))
			}
			prices[resource] = p
		}
		cfg.Transmutation = &arbitration.Transmutation{Account: t.Account, Prices: prices}
	}
	return arbitration.New(arbitration.Policy(policy), cfg)
}

func (b *builder) buildActivities() ([]protocol.Activity, error) {
	var acts []protocol.Activity
	for _, spec := range b.sc.Activities {
		if spec.Type == KindFolder {
			continue
		}
		a, err := b.buildActivity(spec)
		if err != nil {
			return nil, err
		}
		host, ok := a.(companionHost)
		if !ok && len(spec.Companions) > 0 {
			return nil, entities.NewConfigurationError(spec.Name, "companions", "activity does not accept companion models")
		}
		for _, cs := range spec.Companions {
			c, err := b.buildCompanion(cs)
			if err != nil {
				return nil, entities.NewConfigurationError(spec.Name, cs.Name, err.Error())
			}
			if err := host.AttachCompanion(c); err != nil {
				return nil, err
			}
		}
		acts = append(acts, a)
	}
	return acts, nil
}

func (b *builder) settings(spec ActivitySpec) (protocol.Settings, error) {
	settings := protocol.Settings{
		OnPartialResources: entities.ReportErrorAndStop,
		Category:           spec.Category,
		AllowTransmutation: spec.AllowTransmutation,
	}
	if spec.OnPartialResources != "" {
		settings.OnPartialResources, _ = entities.ParsePartialResourcesAction(spec.OnPartialResources)
	}
	timer, err := b.timer(spec.Name, spec.Timers)
	if err != nil {
		return settings, err
	}
	settings.Timer = timer
	return settings, nil
}

func (b *builder) buildActivity(spec ActivitySpec) (protocol.Activity, error) {
	settings, err := b.settings(spec)
	if err != nil {
		return nil, err
	}
	deps := protocol.Dependencies{
		Clock:    b.clock,
		Notifier: b.bus,
		Logger:   b.logger,
	}
	filter := herdFilter(spec.Herd)
	herd := b.registry.Herd

	switch spec.Type {
	case activities.KindRuminantFeed:
		var p feedParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		if err := b.requirePool(spec.Name, p.FeedStore); err != nil {
			return nil, err
		}
		feed, err := activities.NewRuminantFeed(spec.Name, deps, settings, activities.RuminantFeedConfig{
			Filter:          filter,
			FeedStore:       p.FeedStore,
			KgPerHeadPerDay: p.KgPerHeadPerDay,
			GainPerKgFed:    p.GainPerKgFed,
			DaysPerMonth:    p.DaysPerMonth,
		}, herd)
		if err != nil {
			return nil, err
		}
		b.feeds[spec.Name] = feed
		return feed, nil

	case activities.KindRuminantBuy:
		var p buyParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		ae, err := b.relationship(spec.Name, p.AERelationship)
		if err != nil {
			return nil, err
		}
		return activities.NewRuminantBuy(spec.Name, deps, settings, activities.RuminantBuyConfig{
			Herd:         p.Herd,
			Breed:        p.Breed,
			Sex:          parseSex(p.Sex),
			AgeMonths:    p.AgeMonths,
			Weight:       p.Weight,
			Location:     p.Location,
			TargetHead:   p.TargetHead,
			Account:      p.Account,
			PricePerHead: parseMoney(p.PricePerHead),
			AEByWeight:   ae,
		}, herd, b.registry, b.onMissing)

	case activities.KindRuminantSell:
		var p sellParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		ae, err := b.relationship(spec.Name, p.AERelationship)
		if err != nil {
			return nil, err
		}
		return activities.NewRuminantSell(spec.Name, deps, settings, activities.RuminantSellConfig{
			Filter:       filter,
			Account:      p.Account,
			PricePerHead: parseMoney(p.PricePerHead),
			PricePerKg:   parseMoney(p.PricePerKg),
			AEByWeight:   ae,
		}, herd, b.registry, b.onMissing)

	case activities.KindRuminantMove:
		var p moveParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		return activities.NewRuminantMove(spec.Name, deps, settings, activities.RuminantMoveConfig{
			Filter:      filter,
			ToLocation:  p.ToLocation,
			MarkForSale: p.MarkForSale,
		}, herd)

	case activities.KindCollectManure:
		var p manureParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		limiter, err := b.limiter(spec.Name, p.Limiter)
		if err != nil {
			return nil, err
		}
		return activities.NewCollectManure(spec.Name, deps, settings, activities.CollectManureConfig{
			Filter:              filter,
			Store:               p.Store,
			KgPerHeadPerDay:     p.KgPerHeadPerDay,
			ProportionCollected: p.ProportionCollected,
			DaysPerMonth:        p.DaysPerMonth,
			Limiter:             limiter,
		}, herd, b.registry, b.onMissing)

	case activities.KindCutAndCarry:
		var p cutAndCarryParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		limiter, err := b.limiter(spec.Name, p.Limiter)
		if err != nil {
			return nil, err
		}
		return activities.NewCutAndCarry(spec.Name, deps, settings, activities.CutAndCarryConfig{
			Pasture:             p.Pasture,
			ProportionHarvested: p.ProportionHarvested,
			FeedStore:           p.FeedStore,
			LabourPool:          p.LabourPool,
			LabourDaysPerHa:     p.LabourDaysPerHa,
			Limiter:             limiter,
		}, b.registry, b.registry, b.onMissing)

	case activities.KindPayExpense:
		var p expenseParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		if err := b.requirePool(spec.Name, p.Account); err != nil {
			return nil, err
		}
		return activities.NewPayExpense(spec.Name, deps, settings, activities.PayExpenseConfig{
			Account:  p.Account,
			Amount:   parseMoney(p.Amount),
			Category: p.Category,
		})

	case activities.KindCalculateInterest:
		var p interestParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		accounts := make([]activities.InterestAccount, 0, len(p.Accounts))
		for _, name := range p.Accounts {
			pool, err := b.registry.Resolve(name, entities.ReportErrorAndStopOnMissing)
			if err != nil {
				return nil, entities.NewConfigurationError(spec.Name, name, err.Error())
			}
			account, ok := pool.(activities.InterestAccount)
			if !ok {
				return nil, entities.NewConfigurationError(spec.Name, name, "resource is not a bank account")
			}
			accounts = append(accounts, account)
		}
		return activities.NewCalculateInterest(spec.Name, deps, settings, accounts...)

	case activities.KindEmitGreenhouseGas:
		var p emissionParams
		if err := decodeParams(spec, &p); err != nil {
			return nil, err
		}
		cfg := activities.EmitGreenhouseGasConfig{
			Filter:     filter,
			Store:      p.Store,
			KgPerHead:  p.KgPerHead,
			KgPerKgFed: p.KgPerKgFed,
			FixedKg:    p.FixedKg,
		}
		if p.Feed != "" {
			feed, ok := b.feeds[p.Feed]
			if !ok {
				return nil, entities.NewConfigurationError(spec.Name, p.Feed, "feed activity must be a RuminantFeed configured earlier")
			}
			cfg.Feed = feed
		}
		return activities.NewEmitGreenhouseGas(spec.Name, deps, settings, cfg, herd, b.registry, b.onMissing)
	}

	return nil, entities.NewConfigurationError(spec.Name, spec.Type, "unknown activity type")
}

func (b *builder) buildCompanion(spec CompanionSpec) (protocol.Companion, error) {
	unit := entities.NormaliseUnit(spec.Unit)
	switch spec.Type {
	case CompanionFee:
		return protocol.NewFeeCompanion(spec.Name, spec.Identifier, unit, spec.Account, parseMoney(spec.Amount))
	case CompanionLabour:
		return protocol.NewLabourCompanion(spec.Name, spec.Identifier, unit, spec.Pool, spec.DaysPerUnit, spec.MinimumDays)
	case CompanionEmission:
		store, err := b.registry.Resolve(spec.Store, b.onMissing)
		if err != nil {
			return nil, err
		}
		return protocol.NewEmissionCompanion(spec.Name, spec.Identifier, unit, store, spec.KgPerUnit)
	}
	return nil, fmt.Errorf("unknown companion type %q", spec.Type)
}

// timer builds fresh instances of the named timers for one activity
func (b *builder) timer(activity string, names []string) (timers.Timer, error) {
	if len(names) == 0 {
		return nil, nil
	}
	built := make([]timers.Timer, 0, len(names))
	for _, name := range names {
		spec, ok := b.timerSpecs[name]
		if !ok {
			return nil, entities.NewConfigurationError(activity, name, "unknown timer")
		}
		t, err := b.newTimer(spec)
		if err != nil {
			return nil, entities.NewConfigurationError(activity, name, err.Error())
		}
		built = append(built, t)
	}

	var t timers.Timer = built[0]
	if len(built) > 1 {
		t = timers.Combine(activity+" timers", built...)
	}
	if in, ok := t.(timers.Initialiser); ok {
		b.initialisers = append(b.initialisers, in)
	}
	return t, nil
}

func (b *builder) newTimer(spec TimerSpec) (timers.Timer, error) {
	switch spec.Type {
	case TimerDateRange:
		start, err := time.Parse(dateLayout, spec.Start)
		if err != nil {
			return nil, fmt.Errorf("start date is required")
		}
		end, err := time.Parse(dateLayout, spec.End)
		if err != nil {
			return nil, fmt.Errorf("end date is required")
		}
		return timers.NewDateRange(spec.Name, start, end, spec.Invert, b.clock, b.bus)
	case TimerMonthRange:
		return timers.NewMonthRange(spec.Name, time.Month(spec.StartMonth), time.Month(spec.EndMonth), b.clock, b.bus)
	case TimerInterval:
		var seq entities.Sequence
		if raw := b.sequence(spec.Sequence); raw != "" {
			s, err := entities.NewSequence(raw)
			if err != nil {
				return nil, err
			}
			seq = s
		}
		return timers.NewInterval(spec.Name, time.Month(spec.Month), spec.Day, spec.Interval, seq, b.clock, b.bus)
	case TimerSequence:
		return timers.NewSequenceTimer(spec.Name, b.sequence(spec.Sequence), b.clock, b.bus)
	case TimerPastureLevel:
		pasture, err := b.registry.Pasture(spec.Pasture)
		if err != nil {
			return nil, err
		}
		return timers.NewPastureLevel(spec.Name, pasture, spec.Minimum, spec.Maximum, b.clock, b.bus)
	case TimerCropHarvest:
		crop, err := b.registry.Crop(spec.Crop)
		if err != nil {
			return nil, err
		}
		return timers.NewCropHarvest(spec.Name, crop, spec.OffsetStart, spec.OffsetStop, b.clock, b.bus)
	}
	return nil, fmt.Errorf("unknown timer type %q", spec.Type)
}

// sequence resolves a sequence name, falling back to a literal sequence
func (b *builder) sequence(ref string) string {
	if raw, ok := b.tables.sequences[ref]; ok {
		return raw
	}
	return ref
}

// requirePool checks a pool that an activity only names in its requests,
// so a missing one fails at composition rather than mid-run
func (b *builder) requirePool(activity, name string) error {
	if _, err := b.registry.Resolve(name, b.onMissing); err != nil {
		return entities.NewConfigurationError(activity, name, err.Error())
	}
	return nil
}

func (b *builder) relationship(activity, name string) (*entities.Relationship, error) {
	if name == "" {
		return nil, nil
	}
	rel, ok := b.relationships[name]
	if !ok {
		return nil, entities.NewConfigurationError(activity, name, "unknown relationship")
	}
	return rel, nil
}

func (b *builder) limiter(activity, name string) (*entities.ActivityLimiter, error) {
	if name == "" {
		return nil, nil
	}
	limiter, ok := b.limiters[name]
	if !ok {
		return nil, entities.NewConfigurationError(activity, name, "unknown limiter")
	}
	return limiter, nil
}

func decodeParams(spec ActivitySpec, out any) error {
	if spec.Params.Kind != 0 {
		if err := spec.Params.Decode(out); err != nil {
			return entities.NewConfigurationError(spec.Name, "params", err.Error())
		}
	}
	if err := config.NewValidator().Validate(out); err != nil {
		return entities.NewConfigurationError(spec.Name, "params", err.Error())
	}
	return nil
}

func herdFilter(spec HerdFilterSpec) repositories.HerdFilter {
	filter := repositories.HerdFilter{
		Herd:     spec.Herd,
		MinAge:   spec.MinAge,
		MaxAge:   spec.MaxAge,
		Location: spec.Location,
		ForSale:  spec.ForSale,
	}
	if spec.Sex != "" {
		sex := parseSex(spec.Sex)
		filter.Sex = &sex
	}
	return filter
}

func parseSex(s string) entities.Sex {
	if s == "male" {
		return entities.Male
	}
	return entities.Female
}

// parseMoney parses a validated decimal string; empty is zero
func parseMoney(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
