package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
	"github.com/vsinha/clem/pkg/infrastructure/clock"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/memory"
)

// Farm bundles the in-memory repositories a simulation runs against
type Farm struct {
	Clock    *clock.MonthlyClock
	Registry *memory.Registry
	Herd     *memory.HerdRepository
}

// BuildFarmTestData builds a mixed breeding and cropping farm over 2020:
// feed stores, a bank account with an overdraft, a labour pool, a pasture
// and a breeding herd with weaners marked for sale
func BuildFarmTestData() *Farm {
	farm := newFarm(
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC))
	reg := farm.Registry

	mustAdd(reg, memory.NewStore("Hay", 50000, reg.Ledger))
	mustAdd(reg, memory.NewStore("Grain", 8000, reg.Ledger))
	mustAdd(reg, memory.NewStore("Manure", 0, reg.Ledger))
	mustAdd(reg, memory.NewStore("GHG", 0, reg.Ledger))
	mustAdd(reg, memory.NewBankAccount("Bank", decimal.NewFromInt(25000), decimal.NewFromInt(5000), reg.Ledger))

	labour := memory.NewLabourPool("Labour", 2, reg.Ledger)
	labour.DaysInMonth = 30
	mustAdd(reg, labour)

	reg.AddPasture(&entities.Pasture{Name: "River flat", Area: 40, Biomass: 2000})

	cohorts := []struct {
		sex     entities.Sex
		age     int
		weight  float64
		number  int
		forSale bool
	}{
		{entities.Female, 48, 450, 40, false},
		{entities.Male, 60, 700, 2, false},
		{entities.Female, 8, 220, 18, true},
		{entities.Male, 8, 240, 16, true},
	}
	for _, c := range cohorts {
		cohort := mustCohort("Cattle", "Brahman", c.sex, c.age, c.weight, c.number, "Home")
		cohort.ForSale = c.forSale
		if err := farm.Herd.AddCohort(cohort); err != nil {
			panic(err)
		}
	}

	return farm
}

// BuildSimpleTestData creates a three month farm with one hay store and a
// small herd for basic tests
func BuildSimpleTestData() *Farm {
	farm := newFarm(
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.March, 31, 0, 0, 0, 0, time.UTC))

	mustAdd(farm.Registry, memory.NewStore("Hay", 1000, farm.Registry.Ledger))
	if err := farm.Herd.AddCohort(mustCohort("Cattle", "Brahman", entities.Female, 24, 400, 10, "Home")); err != nil {
		panic(err)
	}

	return farm
}

func newFarm(start, end time.Time) *Farm {
	c, err := clock.NewMonthlyClock(start, end)
	if err != nil {
		panic(err)
	}
	return &Farm{
		Clock:    c,
		Registry: memory.NewRegistry(c.Today, nil),
		Herd:     memory.NewHerdRepository(8),
	}
}

func mustAdd(reg *memory.Registry, pool repositories.ResourceType) {
	if err := reg.AddPool(pool); err != nil {
		panic(err)
	}
}

func mustCohort(herd, breed string, sex entities.Sex, age int, weight float64, number int, location string) *entities.RuminantCohort {
	c, err := entities.NewRuminantCohort(herd, breed, sex, age, weight, number, location)
	if err != nil {
		panic(err)
	}
	return c
}
