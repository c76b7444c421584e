package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/application/services/activities"
	"github.com/vsinha/clem/pkg/application/services/arbitration"
	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/domain/timers"
	"github.com/vsinha/clem/pkg/infrastructure/clock"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/memory"
)

// Composes a small farm in code, without a scenario file: one herd eating
// from a hay store that runs short before the year is out, and an annual
// rates bill paid in July.
func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	c, err := clock.NewMonthlyClock(
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		fail(err)
	}

	registry := memory.NewRegistry(c.Today, logger)
	herd := memory.NewHerdRepository(4)
	setupFarm(registry, herd)

	deps := protocol.Dependencies{Clock: c, Logger: logger}

	feed, err := activities.NewRuminantFeed("Feed breeders", deps,
		protocol.Settings{OnPartialResources: entities.UseAvailableResources},
		activities.RuminantFeedConfig{
			Filter:          repositories.HerdFilter{Herd: "Cattle"},
			FeedStore:       "Hay",
			KgPerHeadPerDay: 8,
			GainPerKgFed:    0.01,
			DaysPerMonth:    30.4,
		}, herd)
	if err != nil {
		fail(err)
	}

	july, err := timers.NewMonthRange("July", time.July, time.July, c, nil)
	if err != nil {
		fail(err)
	}
	rates, err := activities.NewPayExpense("Council rates", deps,
		protocol.Settings{Timer: july, OnPartialResources: entities.UseAvailableWithImplications},
		activities.PayExpenseConfig{Account: "Bank", Amount: decimal.NewFromInt(3200), Category: "Overheads"})
	if err != nil {
		fail(err)
	}

	runner, err := protocol.NewRunner(protocol.RunnerConfig{
		Clock:      c,
		Arbitrator: arbitration.NewFirstCome(arbitration.Config{Registry: registry, Logger: logger}),
		Resetters:  []repositories.Resetter{registry, herd},
		Ledger:     registry.Ledger,
		Logger:     logger,
	}, feed, rates)
	if err != nil {
		fail(err)
	}

	fmt.Println("Running 2024 on the home paddock...")
	result, err := runner.Run(ctx)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Timesteps: %d  Outcomes: %d  Shortfalls: %d\n",
		result.Timesteps, len(result.Outcomes), len(result.Shortfalls()))
	fmt.Println()

	fmt.Println("Month    Success Partial Other")
	for _, s := range result.Summaries() {
		fmt.Printf("%s  %7d %7d %5d\n", s.Date.Format("2006-01"), s.Success, s.Partial, s.Warning+s.Critical+s.Skipped)
	}
	fmt.Println()

	for _, name := range registry.Names() {
		pool, err := registry.Resolve(name, entities.Ignore)
		if err != nil || pool == nil {
			continue
		}
		fmt.Printf("%-6s %10.1f\n", name, pool.Amount())
	}
	for _, cohort := range herd.Find(repositories.HerdFilter{Herd: "Cattle"}) {
		fmt.Printf("Cattle %d x %.1f kg\n", cohort.Number, cohort.Weight)
	}
}

func setupFarm(registry *memory.Registry, herd *memory.HerdRepository) {
	pools := []repositories.ResourceType{
		memory.NewStore("Hay", 20000, registry.Ledger),
		memory.NewBankAccount("Bank", decimal.NewFromInt(5000), decimal.Zero, registry.Ledger),
	}
	for _, pool := range pools {
		if err := registry.AddPool(pool); err != nil {
			fail(err)
		}
	}

	cohort, err := entities.NewRuminantCohort("Cattle", "Angus", entities.Female, 36, 480, 12, "Home")
	if err != nil {
		fail(err)
	}
	if err := herd.AddCohort(cohort); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "example failed: %v\n", err)
	os.Exit(1)
}
