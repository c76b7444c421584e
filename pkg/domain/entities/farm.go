package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Sex of a ruminant cohort
type Sex int

const (
	Female Sex = iota
	Male
)

// String method for Sex enum
func (s Sex) String() string {
	switch s {
	case Female:
		return "Female"
	case Male:
		return "Male"
	default:
		return "Unknown"
	}
}

// RuminantCohort is a group of like animals tracked by count
type RuminantCohort struct {
	ID        uuid.UUID
	Herd      string
	Breed     string
	Sex       Sex
	AgeMonths int
	Weight    float64 // live weight per head, kg
	Number    int
	Location  string
	ForSale   bool
}

// NewRuminantCohort creates a validated RuminantCohort
func NewRuminantCohort(herd, breed string, sex Sex, ageMonths int, weight float64, number int, location string) (*RuminantCohort, error) {
	if herd == "" {
		return nil, fmt.Errorf("herd name cannot be empty")
	}
	if ageMonths < 0 {
		return nil, fmt.Errorf("age cannot be negative, got %d", ageMonths)
	}
	if weight <= 0 {
		return nil, fmt.Errorf("weight must be positive, got %g", weight)
	}
	if number < 0 {
		return nil, fmt.Errorf("number cannot be negative, got %d", number)
	}
	return &RuminantCohort{
		ID:        uuid.New(),
		Herd:      herd,
		Breed:     breed,
		Sex:       sex,
		AgeMonths: ageMonths,
		Weight:    weight,
		Number:    number,
		Location:  location,
	}, nil
}

// AdultEquivalents returns the cohort's adult equivalents using a live
// weight to AE relationship
func (c *RuminantCohort) AdultEquivalents(aeByWeight *Relationship) float64 {
	if aeByWeight == nil {
		return float64(c.Number)
	}
	return aeByWeight.SolveY(c.Weight, true) * float64(c.Number)
}

// Pasture is a grazed paddock with standing biomass
type Pasture struct {
	Name    string
	Area    float64 // ha
	Biomass float64 // kg
}

// BiomassDensity returns kg per hectare, 0 for an area-less pasture
func (p *Pasture) BiomassDensity() float64 {
	if p.Area <= 0 {
		return 0
	}
	return p.Biomass / p.Area
}

// CropHarvestSchedule lists the known harvest dates of a managed crop
type CropHarvestSchedule struct {
	Crop     string
	Harvests []time.Time
}

// NewCropHarvestSchedule creates a schedule with harvests sorted by date
func NewCropHarvestSchedule(crop string, harvests []time.Time) *CropHarvestSchedule {
	sorted := append([]time.Time(nil), harvests...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return &CropHarvestSchedule{Crop: crop, Harvests: sorted}
}

// Next returns the first harvest in or after today's month
func (s *CropHarvestSchedule) Next(today time.Time) (time.Time, bool) {
	for _, h := range s.Harvests {
		if MonthIndex(h) >= MonthIndex(today) {
			return h, true
		}
	}
	return time.Time{}, false
}

// Previous returns the last harvest before today's month
func (s *CropHarvestSchedule) Previous(today time.Time) (time.Time, bool) {
	for i := len(s.Harvests) - 1; i >= 0; i-- {
		if MonthIndex(s.Harvests[i]) < MonthIndex(today) {
			return s.Harvests[i], true
		}
	}
	return time.Time{}, false
}

// MonthIndex converts a date into a continuous month count
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
