package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/clem/pkg/application/dto"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/domain/timers"
)

// SimulationClock is the clock the Runner owns and advances
type SimulationClock interface {
	repositories.Clock
	Advance() bool
	Done() bool
}

// TransactionSource yields the transactions recorded since the last drain
type TransactionSource interface {
	Drain() []repositories.Transaction
}

// TransactionRepository persists transactions
type TransactionRepository interface {
	SaveTransactions(ctx context.Context, runID uuid.UUID, txs []repositories.Transaction) error
}

// RunnerConfig holds the Runner's collaborators. Only Clock and Arbitrator
// are required.
type RunnerConfig struct {
	Clock      SimulationClock
	Arbitrator Arbitrator
	Limiters   []*entities.ActivityLimiter
	Resetters  []repositories.Resetter
	// Initialisers are started once before the first timestep
	Initialisers []timers.Initialiser
	Outcomes     repositories.OutcomeRepository
	Transactions TransactionRepository
	Ledger       TransactionSource
	Recorder     Recorder
	Notifier     repositories.Notifier
	Logger       *slog.Logger
	// Argument supplies the per-activity metric passed to the request and
	// perform phases. Defaults to 1 for every activity.
	Argument func(a Activity) float64
}

// Runner drives activities through the protocol once per timestep in
// configuration order
type Runner struct {
	config     RunnerConfig
	activities []Activity
	runID      uuid.UUID
	result     *dto.RunResult
}

// NewRunner creates a runner for the activities in the given order
func NewRunner(config RunnerConfig, activities ...Activity) (*Runner, error) {
	if config.Clock == nil {
		return nil, errors.New("runner requires a clock")
	}
	if config.Arbitrator == nil {
		return nil, errors.New("runner requires an arbitrator")
	}
	if config.Notifier == nil {
		config.Notifier = repositories.NopNotifier{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Argument == nil {
		config.Argument = func(Activity) float64 { return 1 }
	}

	seen := make(map[string]bool, len(activities))
	for _, a := range activities {
		if seen[a.Name()] {
			return nil, entities.NewConfigurationError(a.Name(), "", "duplicate activity name")
		}
		seen[a.Name()] = true
	}

	runID := uuid.New()
	return &Runner{
		config:     config,
		activities: activities,
		runID:      runID,
		result: &dto.RunResult{
			RunID: runID,
			Start: config.Clock.StartDate(),
			End:   config.Clock.EndDate(),
		},
	}, nil
}

// RunID identifies this run in stored outcomes
func (r *Runner) RunID() uuid.UUID {
	return r.runID
}

// Activities returns the activities in execution order
func (r *Runner) Activities() []Activity {
	return r.activities
}

// Run executes every timestep from the clock's start to its end date. A
// configuration error or an escalated shortfall aborts the run.
func (r *Runner) Run(ctx context.Context) (*dto.RunResult, error) {
	for _, init := range r.config.Initialisers {
		if err := init.Initialise(r.config.Clock.StartDate()); err != nil {
			return r.result, err
		}
	}

	start := time.Now()
	for !r.config.Clock.Done() {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		if err := r.Step(ctx); err != nil {
			return r.result, err
		}
		r.config.Clock.Advance()
	}

	r.config.Logger.Info("simulation complete",
		"run_id", r.runID,
		"timesteps", r.result.Timesteps,
		"outcomes", len(r.result.Outcomes),
		"elapsed", time.Since(start))
	return r.result, nil
}

// Step runs a single timestep at the clock's current date
func (r *Runner) Step(ctx context.Context) error {
	today := r.config.Clock.Today()
	logger := r.config.Logger.With("date", today.Format("2006-01-02"))
	r.config.Notifier.Notify(repositories.TimestepStartedEvent, "runner", today)

	for _, l := range r.config.Limiters {
		l.Reset()
	}
	for _, p := range r.config.Resetters {
		p.ResetForTimestep(today)
	}

	for _, a := range r.activities {
		a.BeginTimestep()
		if err := a.PrepareForTimestep(ctx); err != nil {
			return fmt.Errorf("prepare %s: %w", a.Name(), err)
		}
	}

	var all entities.RequestList
	for _, a := range r.activities {
		requests, err := a.RequestResourcesForTimestep(ctx, r.config.Argument(a))
		if err != nil {
			return fmt.Errorf("request %s: %w", a.Name(), err)
		}
		for _, req := range requests {
			all = all.Add(req)
		}
	}

	if err := r.config.Arbitrator.Arbitrate(ctx, all); err != nil {
		return fmt.Errorf("arbitrate: %w", err)
	}

	var fatal error
	for _, a := range r.activities {
		if err := a.AdjustResourcesForTimestep(ctx, all.ForActivity(a.ID())); err != nil {
			if !entities.IsShortfallError(err) {
				return fmt.Errorf("adjust %s: %w", a.Name(), err)
			}
			logger.Error("shortfall escalated", "activity", a.Name(), "error", err)
			fatal = err
			break
		}
	}

	if fatal == nil {
		for _, a := range r.activities {
			if err := a.PerformTasksForTimestep(ctx, r.config.Argument(a)); err != nil {
				return fmt.Errorf("perform %s: %w", a.Name(), err)
			}
		}
	}

	if err := r.record(ctx, today, all); err != nil {
		return err
	}
	r.result.Timesteps++
	r.config.Notifier.Notify(repositories.TimestepCompletedEvent, "runner", today)
	return fatal
}

func (r *Runner) record(ctx context.Context, today time.Time, requests entities.RequestList) error {
	outcomes := make([]repositories.ActivityOutcome, 0, len(r.activities))
	for _, a := range r.activities {
		outcome := repositories.ActivityOutcome{
			RunID:        r.runID,
			Timestep:     today,
			ActivityID:   a.ID(),
			ActivityName: a.Name(),
			Status:       a.Status(),
			Message:      a.Message(),
		}
		for _, req := range requests.ForActivity(a.ID()) {
			if req.Satisfied() {
				continue
			}
			outcome.Shortfalls = append(outcome.Shortfalls, *req)
			if r.config.Recorder != nil {
				r.config.Recorder.RecordShortfall(a.Name(), req.ResourceTypeName, req.Shortfall())
			}
		}
		if r.config.Recorder != nil {
			r.config.Recorder.RecordOutcome(a.Name(), a.Status())
		}
		outcomes = append(outcomes, outcome)
	}
	r.result.Outcomes = append(r.result.Outcomes, outcomes...)

	short := NewShortfallMapFromRequests(requests)
	for _, resource := range short.Resources() {
		total := short.Total(resource)
		if total.Shortfall() <= 0 {
			continue
		}
		r.result.Coverage = append(r.result.Coverage, dto.ResourceCoverage{
			Timestep: today,
			Resource: resource,
			Required: total.Required,
			Provided: total.Provided,
			Requests: total.Requests,
		})
	}
	if len(short) > 0 && r.config.Logger.Enabled(ctx, slog.LevelDebug) {
		r.config.Logger.Debug("timestep requests", "date", today.Format("2006-01-02"), "requests", short.String())
	}

	if r.config.Outcomes != nil {
		if err := r.config.Outcomes.SaveOutcomes(ctx, outcomes); err != nil {
			return fmt.Errorf("save outcomes: %w", err)
		}
	}
	if r.config.Ledger != nil {
		txs := r.config.Ledger.Drain()
		r.result.Transactions = append(r.result.Transactions, txs...)
		if r.config.Transactions != nil && len(txs) > 0 {
			if err := r.config.Transactions.SaveTransactions(ctx, r.runID, txs); err != nil {
				return fmt.Errorf("save transactions: %w", err)
			}
		}
	}
	return nil
}
