// Package scenario reads farm scenario files and composes the simulation
// object graph from them.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/clem/pkg/infrastructure/config"
)

// Scenario is the YAML description of one farm simulation
type Scenario struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"omitempty,datetime=2006-01-02"`

	// Arbitration overrides the configured policy when set
	Arbitration       string `yaml:"arbitration" validate:"omitempty,oneof=first-come proportional"`
	OnMissingResource string `yaml:"on_missing_resource" validate:"omitempty,oneof=Ignore ReportErrorAndStop ReportAndUsePartial"`

	Resources     Resources          `yaml:"resources"`
	Herd          []CohortSpec       `yaml:"herd" validate:"dive"`
	Transmutation *TransmutationSpec `yaml:"transmutation"`
	Relationships []RelationshipSpec `yaml:"relationships" validate:"dive"`
	Sequences     map[string]string  `yaml:"sequences"`
	SequencesCSV  string             `yaml:"sequences_csv"`
	Limiters      []LimiterSpec      `yaml:"limiters" validate:"dive"`
	Timers        []TimerSpec        `yaml:"timers" validate:"dive"`
	Activities    []ActivitySpec     `yaml:"activities" validate:"required,dive"`

	// dir resolves relative CSV paths
	dir string
}

// Resources lists every pool, pasture and crop on the farm
type Resources struct {
	Stores      []StoreSpec   `yaml:"stores" validate:"dive"`
	Banks       []BankSpec    `yaml:"banks" validate:"dive"`
	Labour      []LabourSpec  `yaml:"labour" validate:"dive"`
	Pastures    []PastureSpec `yaml:"pastures" validate:"dive"`
	Crops       []CropSpec    `yaml:"crops" validate:"dive"`
	HarvestsCSV string        `yaml:"harvests_csv"`
}

// StoreSpec is a quantity store such as feed, manure or greenhouse gas
type StoreSpec struct {
	Name    string  `yaml:"name" validate:"required"`
	Initial float64 `yaml:"initial" validate:"gte=0"`
}

// BankSpec is a money account. Amounts are decimal strings.
type BankSpec struct {
	Name           string `yaml:"name" validate:"required"`
	Opening        string `yaml:"opening" validate:"omitempty,numeric"`
	Overdraft      string `yaml:"overdraft" validate:"omitempty,numeric"`
	InterestEarned string `yaml:"interest_earned" validate:"omitempty,numeric"`
	InterestPaid   string `yaml:"interest_paid" validate:"omitempty,numeric"`
}

// LabourSpec is a pool of workers
type LabourSpec struct {
	Name        string  `yaml:"name" validate:"required"`
	Workers     float64 `yaml:"workers" validate:"gte=0"`
	DaysInMonth float64 `yaml:"days_in_month" validate:"gte=0"`
}

// PastureSpec is a paddock with standing biomass
type PastureSpec struct {
	Name    string  `yaml:"name" validate:"required"`
	Area    float64 `yaml:"area" validate:"gt=0"`
	Biomass float64 `yaml:"biomass" validate:"gte=0"`
}

// CropSpec is a managed crop with known harvest dates
type CropSpec struct {
	Name     string   `yaml:"name" validate:"required"`
	Harvests []string `yaml:"harvests" validate:"dive,datetime=2006-01-02"`
}

// CohortSpec is a group of animals present at the start
type CohortSpec struct {
	Herd      string  `yaml:"herd" validate:"required"`
	Breed     string  `yaml:"breed"`
	Sex       string  `yaml:"sex" validate:"omitempty,oneof=female male"`
	AgeMonths int     `yaml:"age_months" validate:"gte=0"`
	Weight    float64 `yaml:"weight" validate:"gt=0"`
	Number    int     `yaml:"number" validate:"gte=0"`
	Location  string  `yaml:"location"`
	ForSale   bool    `yaml:"for_sale"`
}

// TransmutationSpec buys short resources from a bank account
type TransmutationSpec struct {
	Account string            `yaml:"account" validate:"required"`
	Prices  map[string]string `yaml:"prices"`
}

// RelationshipSpec is a piecewise function given inline or as a CSV file
type RelationshipSpec struct {
	Name    string    `yaml:"name" validate:"required"`
	X       []float64 `yaml:"x"`
	Y       []float64 `yaml:"y"`
	CSV     string    `yaml:"csv"`
	Minimum float64   `yaml:"minimum"`
	Maximum float64   `yaml:"maximum"`
	Start   float64   `yaml:"start"`
}

// LimiterSpec is a shared monthly capacity: one daily limit, or twelve
type LimiterSpec struct {
	Name        string    `yaml:"name" validate:"required"`
	LimitPerDay []float64 `yaml:"limit_per_day" validate:"required"`
}

// Timer types
const (
	TimerDateRange    = "date_range"
	TimerMonthRange   = "month_range"
	TimerInterval     = "interval"
	TimerSequence     = "sequence"
	TimerPastureLevel = "pasture_level"
	TimerCropHarvest  = "crop_harvest"
)

// TimerSpec is a named timer. Each activity referencing it gets its own
// instance.
type TimerSpec struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=date_range month_range interval sequence pasture_level crop_harvest"`

	Start  string `yaml:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `yaml:"end" validate:"omitempty,datetime=2006-01-02"`
	Invert bool   `yaml:"invert"`

	StartMonth int `yaml:"start_month" validate:"gte=0,lte=12"`
	EndMonth   int `yaml:"end_month" validate:"gte=0,lte=12"`

	Month    int `yaml:"month" validate:"gte=0,lte=12"`
	Day      int `yaml:"day" validate:"gte=0,lte=31"`
	Interval int `yaml:"interval" validate:"gte=0"`
	// Sequence is a name from the sequences section or a literal sequence
	Sequence string `yaml:"sequence"`

	Pasture string  `yaml:"pasture"`
	Minimum float64 `yaml:"minimum"`
	Maximum float64 `yaml:"maximum"`

	Crop        string `yaml:"crop"`
	OffsetStart int    `yaml:"offset_start"`
	OffsetStop  int    `yaml:"offset_stop"`
}

// KindFolder groups activities without taking part in the simulation
const KindFolder = "ActivityFolder"

// ActivitySpec is one node of the activity tree. Params are decoded
// according to Type.
type ActivitySpec struct {
	Name               string          `yaml:"name" validate:"required"`
	Type               string          `yaml:"type" validate:"required"`
	Parent             string          `yaml:"parent"`
	Timers             []string        `yaml:"timers"`
	OnPartialResources string          `yaml:"on_partial_resources" validate:"omitempty,oneof=ReportErrorAndStop SkipActivity UseAvailableWithImplications UseAvailableResources"`
	Category           string          `yaml:"category"`
	AllowTransmutation bool            `yaml:"allow_transmutation"`
	Herd               HerdFilterSpec  `yaml:"herd"`
	Companions         []CompanionSpec `yaml:"companions" validate:"dive"`
	Params             yaml.Node       `yaml:"params" validate:"-"`
}

// HerdFilterSpec selects cohorts
type HerdFilterSpec struct {
	Herd     string `yaml:"herd"`
	Sex      string `yaml:"sex" validate:"omitempty,oneof=female male"`
	MinAge   int    `yaml:"min_age" validate:"gte=0"`
	MaxAge   int    `yaml:"max_age" validate:"gte=0"`
	Location string `yaml:"location"`
	ForSale  *bool  `yaml:"for_sale"`
}

// Companion types
const (
	CompanionFee      = "fee"
	CompanionLabour   = "labour"
	CompanionEmission = "emission"
)

// CompanionSpec attaches a fee, labour requirement or emission to an
// activity
type CompanionSpec struct {
	Type       string `yaml:"type" validate:"required,oneof=fee labour emission"`
	Name       string `yaml:"name" validate:"required"`
	Identifier string `yaml:"identifier"`
	Unit       string `yaml:"unit" validate:"required"`

	Account string `yaml:"account"`
	Amount  string `yaml:"amount" validate:"omitempty,numeric"`

	Pool        string  `yaml:"pool"`
	DaysPerUnit float64 `yaml:"days_per_unit" validate:"gte=0"`
	MinimumDays float64 `yaml:"minimum_days" validate:"gte=0"`

	Store     string  `yaml:"store"`
	KgPerUnit float64 `yaml:"kg_per_unit" validate:"gte=0"`
}

// Load reads and checks a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// Parse decodes a scenario document and checks field-level rules
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := config.NewValidator().Validate(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// path resolves a file referenced by the scenario
func (s *Scenario) path(name string) string {
	if filepath.IsAbs(name) || s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}
