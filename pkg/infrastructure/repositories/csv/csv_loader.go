package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/services"
)

// Loader handles loading lookup tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadRelationship loads x,y sample points for the named relationship
func (l *Loader) LoadRelationship(name, filename string) (services.RelationshipTable, error) {
	records, err := readTable(filename, "relationship", []string{"x", "y"})
	if err != nil {
		return services.RelationshipTable{}, err
	}

	table := services.RelationshipTable{Name: name}
	for i, record := range records {
		x, y, err := parsePoint(record)
		if err != nil {
			return services.RelationshipTable{}, fmt.Errorf("relationship CSV row %d: %w", i+2, err)
		}
		table.X = append(table.X, x)
		table.Y = append(table.Y, y)
	}

	return table, nil
}

// LoadSequences loads named on/off sequences
func (l *Loader) LoadSequences(filename string) (map[string]string, error) {
	records, err := readTable(filename, "sequences", []string{"name", "sequence"})
	if err != nil {
		return nil, err
	}

	sequences := make(map[string]string, len(records))
	for i, record := range records {
		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, fmt.Errorf("sequences CSV row %d: name cannot be empty", i+2)
		}
		if _, exists := sequences[name]; exists {
			return nil, fmt.Errorf("sequences CSV row %d: duplicate sequence %s", i+2, name)
		}
		sequences[name] = record[1]
	}

	return sequences, nil
}

// LoadHarvests loads crop harvest dates grouped into one schedule per crop
func (l *Loader) LoadHarvests(filename string) ([]*entities.CropHarvestSchedule, error) {
	records, err := readTable(filename, "harvests", []string{"crop", "harvest_date"})
	if err != nil {
		return nil, err
	}

	byCrop := make(map[string][]time.Time)
	for i, record := range records {
		crop := strings.TrimSpace(record[0])
		if crop == "" {
			return nil, fmt.Errorf("harvests CSV row %d: crop cannot be empty", i+2)
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("harvests CSV row %d: invalid harvest_date format: %s (expected YYYY-MM-DD)", i+2, record[1])
		}
		byCrop[crop] = append(byCrop[crop], date)
	}

	crops := make([]string, 0, len(byCrop))
	for crop := range byCrop {
		crops = append(crops, crop)
	}
	sort.Strings(crops)

	schedules := make([]*entities.CropHarvestSchedule, 0, len(crops))
	for _, crop := range crops {
		schedules = append(schedules, entities.NewCropHarvestSchedule(crop, byCrop[crop]))
	}
	return schedules, nil
}

// readTable reads a CSV file, checks its header and returns the data rows
func readTable(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range actual {
		if strings.TrimSpace(strings.ToLower(col)) != expected[i] {
			return false
		}
	}
	return true
}

func parsePoint(record []string) (float64, float64, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x: %s", record[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y: %s", record[1])
	}
	return x, y, nil
}
