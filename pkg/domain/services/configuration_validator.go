package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// RootParent is the parent name of top-level activities
const RootParent = ""

// ActivityNode is one configured activity in the setup tree
type ActivityNode struct {
	Name       string
	Kind       string
	Parent     string
	Labels     entities.CompanionLabels
	Companions []entities.CompanionKey
}

// RelationshipTable is a configured relationship before construction
type RelationshipTable struct {
	Name string
	X    []float64
	Y    []float64
}

// ConfigurationTree is the setup-time view of a scenario
type ConfigurationTree struct {
	Activities    []ActivityNode
	Relationships []RelationshipTable
	Sequences     map[string]string
}

// ConfigurationValidator checks a scenario's structure before any
// simulation objects are built
type ConfigurationValidator struct {
	// AllowedParents maps an activity kind to the kinds it may be placed
	// under. RootParent in the list allows top-level placement. Kinds
	// without an entry may go anywhere.
	AllowedParents map[string][]string
}

// NewConfigurationValidator creates a validator with the given placement rules
func NewConfigurationValidator(allowedParents map[string][]string) *ConfigurationValidator {
	if allowedParents == nil {
		allowedParents = make(map[string][]string)
	}
	return &ConfigurationValidator{AllowedParents: allowedParents}
}

// ValidationResult contains the results of configuration validation
type ValidationResult struct {
	HasCycles  bool
	CyclePaths [][]string
	Duplicates []string
	Errors     []string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the collected errors as a single ConfigurationError, or nil
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return entities.NewConfigurationError("scenario", "",
		fmt.Sprintf("%d problem(s): %s", len(r.Errors), strings.Join(r.Errors, "; ")))
}

func (r *ValidationResult) addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate performs every structural check on tree
func (v *ConfigurationValidator) Validate(tree ConfigurationTree) *ValidationResult {
	result := &ValidationResult{
		CyclePaths: make([][]string, 0),
		Duplicates: make([]string, 0),
		Errors:     make([]string, 0),
	}

	nodes := v.indexNodes(tree.Activities, result)
	v.validatePlacement(tree.Activities, nodes, result)

	cycles := v.detectCycles(v.buildAdjacencyMap(tree.Activities))
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles
	for _, cycle := range cycles {
		result.addf("activity cycle detected: %s", strings.Join(cycle, " -> "))
	}

	for _, node := range tree.Activities {
		for _, key := range node.Companions {
			if !node.Labels.Allows(key) {
				result.addf("activity [%s] does not offer %s to companion models (identifiers %v, units %v)",
					node.Name, key, node.Labels.Identifiers, node.Labels.Units)
			}
		}
	}

	for _, table := range tree.Relationships {
		if _, err := entities.NewRelationship(table.Name, table.X, table.Y, 0, 0, 0); err != nil {
			result.addf("%v", err)
		}
	}

	names := make([]string, 0, len(tree.Sequences))
	for name := range tree.Sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := entities.NewSequence(tree.Sequences[name]); err != nil {
			result.addf("sequence [%s]: %v", name, err)
		}
	}

	return result
}

// indexNodes maps names to nodes and records duplicate names
func (v *ConfigurationValidator) indexNodes(activities []ActivityNode, result *ValidationResult) map[string]ActivityNode {
	nodes := make(map[string]ActivityNode, len(activities))
	for _, node := range activities {
		if node.Name == "" {
			result.addf("activity of kind [%s] has no name", node.Kind)
			continue
		}
		if _, exists := nodes[node.Name]; exists {
			result.Duplicates = append(result.Duplicates, node.Name)
			result.addf("duplicate activity name [%s]", node.Name)
			continue
		}
		nodes[node.Name] = node
	}
	return nodes
}

// validatePlacement checks parents exist and are of an allowed kind
func (v *ConfigurationValidator) validatePlacement(activities []ActivityNode, nodes map[string]ActivityNode, result *ValidationResult) {
	for _, node := range activities {
		parentKind := RootParent
		if node.Parent != RootParent {
			parent, ok := nodes[node.Parent]
			if !ok {
				result.addf("activity [%s] is placed under unknown parent [%s]", node.Name, node.Parent)
				continue
			}
			parentKind = parent.Kind
		}

		allowed, restricted := v.AllowedParents[node.Kind]
		if !restricted {
			continue
		}
		ok := false
		for _, kind := range allowed {
			if kind == parentKind {
				ok = true
				break
			}
		}
		if !ok {
			where := "the top level"
			if parentKind != RootParent {
				where = fmt.Sprintf("[%s] of kind [%s]", node.Parent, parentKind)
			}
			result.addf("activity [%s] of kind [%s] cannot be placed under %s", node.Name, node.Kind, where)
		}
	}
}

// buildAdjacencyMap creates a map of parent -> children names
func (v *ConfigurationValidator) buildAdjacencyMap(activities []ActivityNode) map[string][]string {
	adjacencyMap := make(map[string][]string)
	for _, node := range activities {
		if node.Parent == RootParent {
			continue
		}
		children := adjacencyMap[node.Parent]
		found := false
		for _, child := range children {
			if child == node.Name {
				found = true
				break
			}
		}
		if !found {
			adjacencyMap[node.Parent] = append(children, node.Name)
		}
	}
	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the parent links
func (v *ConfigurationValidator) detectCycles(adjacencyMap map[string][]string) [][]string {
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)
	cycles := make([][]string, 0)

	parents := make([]string, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	for _, parent := range parents {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}
	return cycles
}

func (v *ConfigurationValidator) dfsDetectCycle(
	current string,
	adjacencyMap map[string][]string,
	visited map[string]bool,
	recursionStack map[string]bool,
	path []string,
	cycles *[][]string,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, name := range path {
				if name == child {
					cycle := append(append([]string(nil), path[i:]...), child)
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}
