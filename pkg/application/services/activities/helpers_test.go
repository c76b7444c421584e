package activities

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/application/services/arbitration"
	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/infrastructure/clock"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/memory"
)

// farm is a one-paddock test fixture
type farm struct {
	clock    *clock.MonthlyClock
	registry *memory.Registry
	herd     *memory.HerdRepository
	deps     protocol.Dependencies
	limiters []*entities.ActivityLimiter
}

func newFarm(t *testing.T) *farm {
	t.Helper()
	c, err := clock.NewMonthlyClock(
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.December, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	reg := memory.NewRegistry(c.Today, nil)
	return &farm{
		clock:    c,
		registry: reg,
		herd:     memory.NewHerdRepository(8),
		deps:     protocol.Dependencies{Clock: c},
	}
}

func (f *farm) store(t *testing.T, name string, amount float64) *memory.Store {
	t.Helper()
	s := memory.NewStore(name, amount, f.registry.Ledger)
	require.NoError(t, f.registry.AddPool(s))
	return s
}

func (f *farm) bank(t *testing.T, opening int64) *memory.BankAccount {
	t.Helper()
	b := memory.NewBankAccount("Bank", decimal.NewFromInt(opening), decimal.Zero, f.registry.Ledger)
	require.NoError(t, f.registry.AddPool(b))
	return b
}

func (f *farm) labour(t *testing.T, workers float64) *memory.LabourPool {
	t.Helper()
	p := memory.NewLabourPool("Labour", workers, f.registry.Ledger)
	p.DaysInMonth = 30
	require.NoError(t, f.registry.AddPool(p))
	return p
}

func (f *farm) cohort(t *testing.T, sex entities.Sex, age int, weight float64, number int) *entities.RuminantCohort {
	t.Helper()
	c, err := entities.NewRuminantCohort("Cattle", "Brahman", sex, age, weight, number, "Home")
	require.NoError(t, err)
	require.NoError(t, f.herd.AddCohort(c))
	return c
}

func (f *farm) runner(t *testing.T, activities ...protocol.Activity) *protocol.Runner {
	t.Helper()
	r, err := protocol.NewRunner(protocol.RunnerConfig{
		Clock:      f.clock,
		Arbitrator: arbitration.NewFirstCome(arbitration.Config{Registry: f.registry}),
		Resetters:  []repositories.Resetter{f.registry},
		Limiters:   f.limiters,
		Ledger:     f.registry.Ledger,
	}, activities...)
	require.NoError(t, err)
	return r
}

// step runs one timestep and advances the clock
func (f *farm) step(t *testing.T, r *protocol.Runner) {
	t.Helper()
	require.NoError(t, r.Step(context.Background()))
	f.clock.Advance()
}

var useAvailable = protocol.Settings{OnPartialResources: entities.UseAvailableResources}
