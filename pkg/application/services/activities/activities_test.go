package activities

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/domain/timers"
)

func TestRuminantFeed_ShortStoreReducesRation(t *testing.T) {
	// Arrange: 10 head eating 2 kg/day for 30 days need 600 kg
	f := newFarm(t)
	hay := f.store(t, "Hay", 480)
	f.cohort(t, entities.Female, 30, 400, 10)
	feed, err := NewRuminantFeed("Feed cows", f.deps, useAvailable, RuminantFeedConfig{
		FeedStore: "Hay", KgPerHeadPerDay: 2, DaysPerMonth: 30, GainPerKgFed: 0.01,
	}, f.herd)
	require.NoError(t, err)

	// Act
	f.step(t, f.runner(t, feed))

	// Assert
	assert.Equal(t, entities.Partial, feed.Status())
	assert.InDelta(t, 480.0, feed.FedThisTimestep(), 1e-9)
	assert.InDelta(t, 600.0, feed.Plan().Planned, 1e-9)
	assert.Equal(t, 0.0, hay.Amount())
	cows := f.herd.Find(repositories.HerdFilter{Herd: "Cattle"})
	require.Len(t, cows, 1)
	assert.InDelta(t, 400.48, cows[0].Weight, 1e-9)
}

func TestRuminantFeed_LabourCompanionGatesFeeding(t *testing.T) {
	f := newFarm(t)
	f.store(t, "Hay", 10000)
	f.labour(t, 0.1) // 3 days
	f.cohort(t, entities.Female, 30, 400, 10)
	feed, err := NewRuminantFeed("Feed cows", f.deps, useAvailable, RuminantFeedConfig{
		FeedStore: "Hay", KgPerHeadPerDay: 2, DaysPerMonth: 30,
	}, f.herd)
	require.NoError(t, err)
	labour, err := protocol.NewLabourCompanion("Feeding", "", entities.UnitPerHead, "Labour", 0.4, 0)
	require.NoError(t, err)
	require.NoError(t, feed.AttachCompanion(labour))

	f.step(t, f.runner(t, feed))

	// 4 days wanted, 3 provided: worst shortfall 25%
	assert.Equal(t, entities.Partial, feed.Status())
	assert.InDelta(t, 450.0, feed.FedThisTimestep(), 1e-9)
}

func TestRuminantBuy_BuysWholeAnimalsWithinFunds(t *testing.T) {
	tests := []struct {
		name        string
		funds       int64
		wantBought  int
		wantStatus  entities.ActivityStatus
		wantBalance int64
	}{
		{"enough money", 1000, 6, entities.Success, 400},
		{"money for four", 400, 4, entities.Partial, 0},
		{"money for two and a half", 250, 2, entities.Partial, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFarm(t)
			bank := f.bank(t, tt.funds)
			f.cohort(t, entities.Female, 30, 400, 4)
			buy, err := NewRuminantBuy("Restock", f.deps, useAvailable, RuminantBuyConfig{
				Herd: "Cattle", Breed: "Brahman", Sex: entities.Female, AgeMonths: 12, Weight: 250,
				Location: "Home", TargetHead: 10, Account: "Bank", PricePerHead: decimal.NewFromInt(100),
			}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
			require.NoError(t, err)

			f.step(t, f.runner(t, buy))

			assert.Equal(t, tt.wantBought, buy.Bought())
			assert.Equal(t, tt.wantStatus, buy.Status())
			assert.Equal(t, 4+tt.wantBought, f.herd.Count(repositories.HerdFilter{Herd: "Cattle"}))
			assert.True(t, bank.Balance().Equal(decimal.NewFromInt(tt.wantBalance)), "balance %s", bank.Balance())
		})
	}
}

func TestRuminantBuy_MissingAccountFollowsAction(t *testing.T) {
	f := newFarm(t)
	config := RuminantBuyConfig{Herd: "Cattle", Weight: 250, TargetHead: 1, Account: "Bank"}

	_, err := NewRuminantBuy("Restock", f.deps, useAvailable, config, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.Error(t, err)
	assert.True(t, entities.IsConfigurationError(err))

	buy, err := NewRuminantBuy("Restock", f.deps, useAvailable, config, f.herd, f.registry, entities.Ignore)
	require.NoError(t, err)
	f.step(t, f.runner(t, buy))
	assert.Equal(t, 1, buy.Bought())
}

func TestRuminantMoveThenSell(t *testing.T) {
	f := newFarm(t)
	bank := f.bank(t, 0)
	f.cohort(t, entities.Male, 30, 300, 5)
	f.cohort(t, entities.Male, 10, 150, 7)

	move, err := NewRuminantMove("Mark steers", f.deps, useAvailable, RuminantMoveConfig{
		Filter: repositories.HerdFilter{Herd: "Cattle", MinAge: 24}, ToLocation: "Yards", MarkForSale: true,
	}, f.herd)
	require.NoError(t, err)
	sell, err := NewRuminantSell("Sell steers", f.deps, useAvailable, RuminantSellConfig{
		Filter: repositories.HerdFilter{Herd: "Cattle"}, Account: "Bank", PricePerKg: decimal.NewFromInt(2),
	}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	r := f.runner(t, move, sell)

	// first month: animals are marked after the sale prepared
	f.step(t, r)
	assert.Equal(t, 5, move.Moved())
	assert.Equal(t, entities.Success, move.Status())
	assert.Equal(t, entities.NotNeeded, sell.Status())

	// second month: they are sold
	f.step(t, r)
	assert.Equal(t, entities.NotNeeded, move.Status())
	assert.Equal(t, entities.Success, sell.Status())
	assert.True(t, sell.Income().Equal(decimal.NewFromInt(3000)), "income %s", sell.Income())
	assert.True(t, bank.Balance().Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 7, f.herd.Count(repositories.HerdFilter{Herd: "Cattle"}))
}

func TestRuminantSell_FeeShortfallSellsFewer(t *testing.T) {
	f := newFarm(t)
	f.bank(t, 20)
	c := f.cohort(t, entities.Male, 30, 300, 4)
	c.ForSale = true
	sell, err := NewRuminantSell("Sell", f.deps, useAvailable, RuminantSellConfig{
		Filter: repositories.HerdFilter{Herd: "Cattle"}, Account: "Bank", PricePerHead: decimal.NewFromInt(500),
	}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	fee, err := protocol.NewFeeCompanion("Yard dues", "", entities.UnitPerHead, "Bank", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, sell.AttachCompanion(fee))

	f.step(t, f.runner(t, sell))

	// 40 of dues wanted, 20 paid: half the head sold
	assert.Equal(t, entities.Partial, sell.Status())
	assert.True(t, sell.Income().Equal(decimal.NewFromInt(1000)), "income %s", sell.Income())
}

func TestCollectManure_LimiterCapsCollection(t *testing.T) {
	f := newFarm(t)
	manure := f.store(t, "Manure", 0)
	f.cohort(t, entities.Female, 30, 400, 10)
	limiter, err := entities.NewActivityLimiter("Cart", []float64{5})
	require.NoError(t, err)
	limiter.DaysPerMonth = 30
	f.limiters = append(f.limiters, limiter)

	collect, err := NewCollectManure("Collect manure", f.deps, useAvailable, CollectManureConfig{
		Store: "Manure", KgPerHeadPerDay: 1, DaysPerMonth: 30, Limiter: limiter,
	}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	r := f.runner(t, collect)

	f.step(t, r)

	assert.Equal(t, entities.Warning, collect.Status())
	assert.Equal(t, 150.0, collect.Collected())
	assert.Equal(t, 150.0, manure.Amount())

	f.step(t, r)
	assert.Equal(t, 300.0, manure.Amount())
}

func newCutAndCarry(t *testing.T, f *farm, labourDaysPerHa float64) *CutAndCarry {
	t.Helper()
	f.registry.AddPasture(&entities.Pasture{Name: "River flat", Area: 10, Biomass: 10000})
	a, err := NewCutAndCarry("Cut river flat", f.deps, useAvailable, CutAndCarryConfig{
		Pasture: "River flat", ProportionHarvested: 0.5, FeedStore: "Hay",
		LabourPool: "Labour", LabourDaysPerHa: labourDaysPerHa,
	}, f.registry, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	return a
}

func TestCutAndCarry_UntaggedLabourGatesHarvest(t *testing.T) {
	f := newFarm(t)
	hay := f.store(t, "Hay", 0)
	f.labour(t, 0.25) // 7.5 of 10 days
	cut := newCutAndCarry(t, f, 1)

	f.step(t, f.runner(t, cut))

	assert.Equal(t, entities.Partial, cut.Status())
	assert.InDelta(t, 3750.0, cut.Harvested(), 1e-9)
	assert.InDelta(t, 3750.0, hay.Amount(), 1e-9)
	pasture, err := f.registry.Pasture("River flat")
	require.NoError(t, err)
	assert.InDelta(t, 6250.0, pasture.Biomass, 1e-9)
}

func TestCutAndCarry_TaggedShortfallDoesNotReduceHarvest(t *testing.T) {
	f := newFarm(t)
	f.store(t, "Hay", 0)
	f.bank(t, 50)
	cut := newCutAndCarry(t, f, 0)
	fee, err := protocol.NewFeeCompanion("Contractor", "carting", entities.UnitFixed, "Bank", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, cut.AttachCompanion(fee))

	f.step(t, f.runner(t, cut))

	assert.InDelta(t, 5000.0, cut.Harvested(), 1e-9)
	assert.Equal(t, entities.Success, cut.Status())
}

func TestCutAndCarry_RejectsUnsupportedUnit(t *testing.T) {
	f := newFarm(t)
	f.store(t, "Hay", 0)
	cut := newCutAndCarry(t, f, 0)
	fee, err := protocol.NewFeeCompanion("Contractor", "", "per head", "Bank", decimal.NewFromInt(1))
	require.NoError(t, err)

	err = cut.AttachCompanion(fee)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cut river flat")
	assert.Contains(t, err.Error(), "per head")
}

func TestPayExpense(t *testing.T) {
	tests := []struct {
		name       string
		funds      int64
		wantStatus entities.ActivityStatus
		wantPaid   float64
	}{
		{"paid in full", 200, entities.Success, 150},
		{"partly paid", 100, entities.Partial, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFarm(t)
			f.bank(t, tt.funds)
			pay, err := NewPayExpense("Rates", f.deps, useAvailable, PayExpenseConfig{
				Account: "Bank", Amount: decimal.NewFromInt(150),
			})
			require.NoError(t, err)

			f.step(t, f.runner(t, pay))

			assert.Equal(t, tt.wantStatus, pay.Status())
			assert.Equal(t, tt.wantPaid, pay.Paid())
		})
	}
}

func TestPayExpense_TimerGate(t *testing.T) {
	f := newFarm(t)
	bank := f.bank(t, 1000)
	timer, err := timers.NewMonthRange("Quarterly", time.March, time.March, f.clock, nil)
	require.NoError(t, err)
	pay, err := NewPayExpense("Rates", f.deps, protocol.Settings{Timer: timer}, PayExpenseConfig{
		Account: "Bank", Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	r := f.runner(t, pay)

	f.step(t, r) // Jan
	assert.Equal(t, entities.Ignored, pay.Status())
	f.step(t, r) // Feb
	f.step(t, r) // Mar
	assert.Equal(t, entities.Success, pay.Status())
	assert.True(t, bank.Balance().Equal(decimal.NewFromInt(900)))
}

func TestCalculateInterest(t *testing.T) {
	f := newFarm(t)
	bank := f.bank(t, 1200)
	bank.InterestRateEarned = decimal.NewFromInt(12)
	interest, err := NewCalculateInterest("Interest", f.deps, protocol.Settings{}, bank)
	require.NoError(t, err)

	f.step(t, f.runner(t, interest))

	assert.Equal(t, entities.Calculation, interest.Status())
	assert.True(t, interest.Earned().Equal(decimal.NewFromInt(12)), "earned %s", interest.Earned())
	assert.True(t, bank.Balance().Equal(decimal.NewFromInt(1212)))
}

func TestCalculateInterest_ChargesOverdraft(t *testing.T) {
	f := newFarm(t)
	bank := f.bank(t, 0)
	bank.Withdraw(decimal.NewFromInt(1200), "setup", "")
	bank.InterestRatePaid = decimal.NewFromInt(24)
	interest, err := NewCalculateInterest("Interest", f.deps, protocol.Settings{}, bank)
	require.NoError(t, err)

	f.step(t, f.runner(t, interest))

	assert.True(t, interest.Charged().Equal(decimal.NewFromInt(24)))
	assert.True(t, bank.Balance().Equal(decimal.NewFromInt(-1224)))
}

func TestEmitGreenhouseGas_AfterFeeding(t *testing.T) {
	f := newFarm(t)
	f.store(t, "Hay", 10000)
	ghg := f.store(t, "Methane", 0)
	n2o := f.store(t, "N2O", 0)
	f.cohort(t, entities.Female, 30, 400, 10)
	feed, err := NewRuminantFeed("Feed cows", f.deps, useAvailable, RuminantFeedConfig{
		FeedStore: "Hay", KgPerHeadPerDay: 2, DaysPerMonth: 30,
	}, f.herd)
	require.NoError(t, err)
	emission, err := protocol.NewEmissionCompanion("Feed N2O", "", entities.UnitPerKgFed, n2o, 0.01)
	require.NoError(t, err)
	require.NoError(t, feed.AttachCompanion(emission))

	emit, err := NewEmitGreenhouseGas("Enteric methane", f.deps, protocol.Settings{}, EmitGreenhouseGasConfig{
		Store: "Methane", KgPerHead: 5, KgPerKgFed: 0.1, Feed: feed,
	}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)

	f.step(t, f.runner(t, feed, emit))

	assert.InDelta(t, 110.0, emit.Emitted(), 1e-9)
	assert.InDelta(t, 110.0, ghg.Amount(), 1e-9)
	assert.InDelta(t, 6.0, n2o.Amount(), 1e-9)
	assert.Equal(t, entities.Calculation, emit.Status())
}

func TestEmitGreenhouseGas_ChargesCompanionFee(t *testing.T) {
	f := newFarm(t)
	f.store(t, "Methane", 0)
	bank := f.bank(t, 1000)
	f.cohort(t, entities.Female, 30, 400, 10)
	emit, err := NewEmitGreenhouseGas("Enteric methane", f.deps, protocol.Settings{}, EmitGreenhouseGasConfig{
		Store: "Methane", KgPerHead: 5,
	}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	levy, err := protocol.NewFeeCompanion("Carbon levy", "", entities.UnitPerHead, "Bank", decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, emit.AttachCompanion(levy))

	f.step(t, f.runner(t, emit))

	assert.True(t, bank.Balance().Equal(decimal.NewFromInt(980)), "balance %s", bank.Balance())
	assert.InDelta(t, 50.0, emit.Emitted(), 1e-9)
	assert.Equal(t, entities.Calculation, emit.Status())
}

func TestEmitGreenhouseGas_StopsWhenLevyUnpaid(t *testing.T) {
	f := newFarm(t)
	f.store(t, "Methane", 0)
	f.bank(t, 5)
	f.cohort(t, entities.Female, 30, 400, 10)
	emit, err := NewEmitGreenhouseGas("Enteric methane", f.deps, protocol.Settings{}, EmitGreenhouseGasConfig{
		Store: "Methane", KgPerHead: 5,
	}, f.herd, f.registry, entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	levy, err := protocol.NewFeeCompanion("Carbon levy", "", entities.UnitPerHead, "Bank", decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, emit.AttachCompanion(levy))

	err = f.runner(t, emit).Step(context.Background())

	assert.True(t, entities.IsShortfallError(err), "got %v", err)
}

func TestActivities_RejectBadConfiguration(t *testing.T) {
	f := newFarm(t)
	_, err := NewRuminantFeed("Feed", f.deps, useAvailable, RuminantFeedConfig{FeedStore: "Hay"}, f.herd)
	assert.True(t, entities.IsConfigurationError(err))

	_, err = NewRuminantMove("Move", f.deps, useAvailable, RuminantMoveConfig{}, f.herd)
	assert.True(t, entities.IsConfigurationError(err))

	_, err = NewCalculateInterest("Interest", f.deps, protocol.Settings{})
	assert.True(t, entities.IsConfigurationError(err))

	_, err = NewCutAndCarry("Cut", f.deps, useAvailable, CutAndCarryConfig{Pasture: "Nowhere", ProportionHarvested: 1},
		f.registry, f.registry, entities.Ignore)
	assert.True(t, entities.IsConfigurationError(err))
}
