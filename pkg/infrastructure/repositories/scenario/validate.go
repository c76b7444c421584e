package scenario

import (
	"fmt"

	"github.com/vsinha/clem/pkg/application/services/activities"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/services"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/csv"
)

// companionModelTypes maps scenario companion types to model type names
var companionModelTypes = map[string]string{
	CompanionFee:      "Fee",
	CompanionLabour:   "LabourRequirement",
	CompanionEmission: "GreenhouseGasEmission",
}

var activityKinds = []string{
	activities.KindRuminantFeed,
	activities.KindRuminantBuy,
	activities.KindRuminantSell,
	activities.KindRuminantMove,
	activities.KindCollectManure,
	activities.KindCutAndCarry,
	activities.KindPayExpense,
	activities.KindCalculateInterest,
	activities.KindEmitGreenhouseGas,
}

// tables holds lookup tables gathered from inline values and CSV files
type tables struct {
	relationships []services.RelationshipTable
	sequences     map[string]string
	harvests      []*entities.CropHarvestSchedule
}

func (s *Scenario) loadTables() (*tables, error) {
	loader := csv.NewLoader()
	t := &tables{sequences: make(map[string]string)}

	for _, spec := range s.Relationships {
		if spec.CSV == "" {
			t.relationships = append(t.relationships, services.RelationshipTable{Name: spec.Name, X: spec.X, Y: spec.Y})
			continue
		}
		table, err := loader.LoadRelationship(spec.Name, s.path(spec.CSV))
		if err != nil {
			return nil, err
		}
		t.relationships = append(t.relationships, table)
	}

	for name, raw := range s.Sequences {
		t.sequences[name] = raw
	}
	if s.SequencesCSV != "" {
		loaded, err := loader.LoadSequences(s.path(s.SequencesCSV))
		if err != nil {
			return nil, err
		}
		for name, raw := range loaded {
			if _, exists := t.sequences[name]; exists {
				return nil, fmt.Errorf("sequence %s is defined inline and in %s", name, s.SequencesCSV)
			}
			t.sequences[name] = raw
		}
	}

	if s.Resources.HarvestsCSV != "" {
		harvests, err := loader.LoadHarvests(s.path(s.Resources.HarvestsCSV))
		if err != nil {
			return nil, err
		}
		t.harvests = harvests
	}
	return t, nil
}

// Validate runs the structural checks over a parsed scenario without
// building it. The error is for unreadable tables; structural problems are
// in the result.
func Validate(sc *Scenario) (*services.ValidationResult, error) {
	_, result, err := validate(sc)
	return result, err
}

func validate(sc *Scenario) (*tables, *services.ValidationResult, error) {
	tbl, err := sc.loadTables()
	if err != nil {
		return nil, nil, err
	}

	allowed := make(map[string][]string, len(activityKinds))
	for _, kind := range activityKinds {
		allowed[kind] = []string{services.RootParent, KindFolder}
	}
	validator := services.NewConfigurationValidator(allowed)

	tree := services.ConfigurationTree{
		Relationships: tbl.relationships,
		Sequences:     make(map[string]string),
	}
	timerNames := make(map[string]bool, len(sc.Timers))
	for _, spec := range sc.Timers {
		timerNames[spec.Name] = true
		if spec.Sequence != "" {
			name := spec.Sequence
			raw, ok := tbl.sequences[name]
			if !ok {
				name, raw = "timer "+spec.Name, spec.Sequence
			}
			tree.Sequences[name] = raw
		}
	}

	var extra []string
	for _, spec := range sc.Activities {
		labels, known := activities.LabelsFor(spec.Type)
		if !known && spec.Type != KindFolder {
			extra = append(extra, fmt.Sprintf("activity [%s] has unknown type [%s]", spec.Name, spec.Type))
		}
		for _, name := range spec.Timers {
			if !timerNames[name] {
				extra = append(extra, fmt.Sprintf("activity [%s] uses unknown timer [%s]", spec.Name, name))
			}
		}
		node := services.ActivityNode{
			Name:   spec.Name,
			Kind:   spec.Type,
			Parent: spec.Parent,
			Labels: labels,
		}
		for _, c := range spec.Companions {
			node.Companions = append(node.Companions, entities.CompanionKey{
				ModelType:  companionModelTypes[c.Type],
				Identifier: c.Identifier,
				Unit:       entities.NormaliseUnit(c.Unit),
			})
		}
		tree.Activities = append(tree.Activities, node)
	}

	result := validator.Validate(tree)
	result.Errors = append(result.Errors, extra...)
	return tbl, result, nil
}
