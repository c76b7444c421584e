package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/infrastructure/clock"
)

func testClock(t *testing.T) *clock.MonthlyClock {
	t.Helper()
	c, err := clock.NewMonthlyClock(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return c
}

// feeder requests a fixed amount of feed, optionally drawing on a limiter
type feeder struct {
	Base
	feed    string
	amount  float64
	limiter *entities.ActivityLimiter
	plan    entities.Plan
}

func newFeeder(t *testing.T, name string, c repositories.Clock, settings Settings, amount float64) *feeder {
	t.Helper()
	f := &feeder{feed: "Hay", amount: amount}
	base, err := NewBase(name, Dependencies{Clock: c}, settings,
		entities.CompanionLabels{Units: []entities.Unit{entities.UnitFixed, entities.UnitPerKgFed}},
		entities.UnitTable{
			entities.UnitFixed:    func() float64 { return 1 },
			entities.UnitPerKgFed: func() float64 { return f.plan.Planned },
		})
	require.NoError(t, err)
	f.Base = base
	return f
}

func (f *feeder) PrepareForTimestep(context.Context) error {
	f.plan = entities.NewPlan(0)
	if !f.TimingOK() {
		return nil
	}
	f.plan = entities.NewPlan(f.amount)
	return nil
}

func (f *feeder) RequestResourcesForTimestep(_ context.Context, _ float64) (entities.RequestList, error) {
	if !f.TimingOK() {
		f.SetStatus(entities.Ignored, "")
		return nil, nil
	}
	if err := f.UpdateCompanionValues(); err != nil {
		return nil, err
	}
	var requests entities.RequestList
	req, err := f.NewRequest(f.feed, f.plan.Planned, "Feed")
	if err != nil {
		return nil, err
	}
	requests = requests.Add(req)
	extra, err := f.CompanionRequests()
	if err != nil {
		return nil, err
	}
	return append(requests, extra...), nil
}

func (f *feeder) AdjustResourcesForTimestep(_ context.Context, requests entities.RequestList) error {
	if _, err := f.EvaluateShortfall(requests); err != nil {
		return err
	}
	f.plan = f.ApplyShortfall(f.plan, false)
	return nil
}

func (f *feeder) PerformTasksForTimestep(context.Context, float64) error {
	if !f.TimingOK() || f.plan.Planned == 0 {
		return nil
	}
	if f.limiter != nil {
		limited := f.plan.Limit(f.limiter.GetAmountAvailable(int(f.Clock().Today().Month())))
		if limited.Adjusted < f.plan.Adjusted {
			f.SetStatus(entities.Warning, "limiter enforced")
		}
		f.plan = limited
		f.limiter.AddWeightCarried(f.plan.Adjusted)
	}
	f.SetStatusSuccessOrPartial(f.plan.Reduced())
	return nil
}

// fractionArbitrator provides a fixed fraction of each resource
type fractionArbitrator map[string]float64

func (a fractionArbitrator) Arbitrate(_ context.Context, requests entities.RequestList) error {
	for _, req := range requests {
		fraction, ok := a[req.ResourceTypeName]
		if !ok {
			fraction = 1
		}
		req.Provide(req.Required, req.Required*fraction)
	}
	return nil
}

// countingTimer records how often it is consulted
type countingTimer struct {
	due   bool
	calls int
}

func (c *countingTimer) Name() string         { return "counting" }
func (c *countingTimer) ActivityDue() bool    { c.calls++; return c.due }
func (c *countingTimer) Check(time.Time) bool { return c.due }

type recorder struct {
	outcomes   map[string][]entities.ActivityStatus
	shortfalls map[string]float64
}

func newRecorder() *recorder {
	return &recorder{outcomes: map[string][]entities.ActivityStatus{}, shortfalls: map[string]float64{}}
}

func (r *recorder) RecordOutcome(activity string, status entities.ActivityStatus) {
	r.outcomes[activity] = append(r.outcomes[activity], status)
}

func (r *recorder) RecordShortfall(_, resource string, shortfall float64) {
	r.shortfalls[resource] += shortfall
}
