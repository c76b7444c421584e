package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Unit names the quantity a companion model is scaled by
type Unit string

const (
	UnitFixed        Unit = "fixed"
	UnitPerHead      Unit = "per head"
	UnitPerAE        Unit = "per AE"
	UnitPerKgFed     Unit = "per kg fed"
	UnitPerKgHarvest Unit = "per kg harvested"
	UnitPerKgCollect Unit = "per kg collected"
	UnitPerHectare   Unit = "per ha"
	UnitPerDollar    Unit = "per $"
)

// NormaliseUnit trims and lower-cases a configured unit, keeping "AE" upper
func NormaliseUnit(s string) Unit {
	u := strings.ToLower(strings.TrimSpace(s))
	u = strings.Join(strings.Fields(u), " ")
	u = strings.ReplaceAll(u, "per ae", "per AE")
	return Unit(u)
}

// CompanionKey identifies one companion model value
type CompanionKey struct {
	ModelType  string
	Identifier string
	Unit       Unit
}

func (k CompanionKey) String() string {
	if k.Identifier == "" {
		return fmt.Sprintf("%s(%s)", k.ModelType, k.Unit)
	}
	return fmt.Sprintf("%s:%s(%s)", k.ModelType, k.Identifier, k.Unit)
}

// UnitTable maps each unit an activity supports to the function computing
// its current value. Built once when the activity is constructed.
type UnitTable map[Unit]func() float64

// Units returns the supported units in sorted order
func (t UnitTable) Units() []Unit {
	units := make([]Unit, 0, len(t))
	for u := range t {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

// Supports reports whether the unit is in the table
func (t UnitTable) Supports(u Unit) bool {
	_, ok := t[u]
	return ok
}

// Resolve evaluates the unit for key, failing loudly on an unknown unit
func (t UnitTable) Resolve(activity string, key CompanionKey) (float64, error) {
	fn, ok := t[key.Unit]
	if !ok {
		return 0, NewConfigurationError(activity, key.String(),
			fmt.Sprintf("unit [%s] is not supported, expected one of %v", key.Unit, t.Units()))
	}
	return fn(), nil
}

// CompanionLabels declares which identifiers and units an activity offers
// to its companion models
type CompanionLabels struct {
	Identifiers []string
	Units       []Unit
}

// Allows reports whether key is within the declared labels
func (l CompanionLabels) Allows(key CompanionKey) bool {
	idOK := len(l.Identifiers) == 0 && key.Identifier == ""
	for _, id := range l.Identifiers {
		if id == key.Identifier {
			idOK = true
			break
		}
	}
	if !idOK {
		return false
	}
	for _, u := range l.Units {
		if u == key.Unit {
			return true
		}
	}
	return false
}

// CompanionValues holds the value computed this timestep for each key
type CompanionValues map[CompanionKey]float64

// NewCompanionValues creates an empty registry
func NewCompanionValues() CompanionValues {
	return make(CompanionValues)
}

// Set stores a value for key
func (v CompanionValues) Set(key CompanionKey, value float64) {
	v[key] = value
}

// Get returns the value for key, or an error when it was never assigned
func (v CompanionValues) Get(activity string, key CompanionKey) (float64, error) {
	value, ok := v[key]
	if !ok {
		return 0, NewConfigurationError(activity, key.String(), "companion value was not assigned before requesting resources")
	}
	return value, nil
}

// Require checks that every key has been assigned
func (v CompanionValues) Require(activity string, keys []CompanionKey) error {
	for _, key := range keys {
		if _, err := v.Get(activity, key); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes all values
func (v CompanionValues) Reset() {
	for key := range v {
		delete(v, key)
	}
}

// Keys returns the stored keys in a stable order
func (v CompanionValues) Keys() []CompanionKey {
	keys := make([]CompanionKey, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
