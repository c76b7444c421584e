package entities

// ActivityStatus is the outcome recorded for an activity in a timestep
type ActivityStatus int

const (
	NotNeeded ActivityStatus = iota
	Ignored
	Success
	Partial
	Warning
	Critical
	Calculation
	Timer
)

// String method for ActivityStatus enum
func (s ActivityStatus) String() string {
	switch s {
	case NotNeeded:
		return "NotNeeded"
	case Ignored:
		return "Ignored"
	case Success:
		return "Success"
	case Partial:
		return "Partial"
	case Warning:
		return "Warning"
	case Critical:
		return "Critical"
	case Calculation:
		return "Calculation"
	case Timer:
		return "Timer"
	default:
		return "Unknown"
	}
}

// IsNominal reports whether the status carries no constraint or failure.
// Partial, Warning and Critical are the non-nominal outcomes.
func (s ActivityStatus) IsNominal() bool {
	switch s {
	case Partial, Warning, Critical:
		return false
	default:
		return true
	}
}

// ParseActivityStatus converts a status name back to its enum value
func ParseActivityStatus(name string) (ActivityStatus, bool) {
	for s := NotNeeded; s <= Timer; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return NotNeeded, false
}

// PartialResourcesAction decides what an activity does when the
// arbitrator provides less than it asked for
type PartialResourcesAction int

const (
	ReportErrorAndStop PartialResourcesAction = iota
	SkipActivity
	UseAvailableWithImplications
	UseAvailableResources
)

// String method for PartialResourcesAction enum
func (a PartialResourcesAction) String() string {
	switch a {
	case ReportErrorAndStop:
		return "ReportErrorAndStop"
	case SkipActivity:
		return "SkipActivity"
	case UseAvailableWithImplications:
		return "UseAvailableWithImplications"
	case UseAvailableResources:
		return "UseAvailableResources"
	default:
		return "Unknown"
	}
}

// ParsePartialResourcesAction converts a configured name to its enum value
func ParsePartialResourcesAction(name string) (PartialResourcesAction, bool) {
	for a := ReportErrorAndStop; a <= UseAvailableResources; a++ {
		if a.String() == name {
			return a, true
		}
	}
	return UseAvailableResources, false
}

// MissingResourceAction decides what happens when a named resource
// cannot be found in the registry
type MissingResourceAction int

const (
	Ignore MissingResourceAction = iota
	ReportErrorAndStopOnMissing
	ReportAndUsePartial
)

// String method for MissingResourceAction enum
func (a MissingResourceAction) String() string {
	switch a {
	case Ignore:
		return "Ignore"
	case ReportErrorAndStopOnMissing:
		return "ReportErrorAndStop"
	case ReportAndUsePartial:
		return "ReportAndUsePartial"
	default:
		return "Unknown"
	}
}

// ParseMissingResourceAction converts a configured name to its enum value
func ParseMissingResourceAction(name string) (MissingResourceAction, bool) {
	for a := Ignore; a <= ReportAndUsePartial; a++ {
		if a.String() == name {
			return a, true
		}
	}
	return ReportErrorAndStopOnMissing, false
}
