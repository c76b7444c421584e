package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// RunResult contains the complete output of a simulation run
type RunResult struct {
	RunID        uuid.UUID
	Start        time.Time
	End          time.Time
	Timesteps    int
	Outcomes     []repositories.ActivityOutcome
	Transactions []repositories.Transaction
	Balances     map[string]float64
	// Coverage lists, per timestep, each resource that was not fully provided
	Coverage []ResourceCoverage
	// Events counts notifications by event name
	Events map[string]int
}

// ResourceCoverage totals one resource's requests over all activities in a
// timestep
type ResourceCoverage struct {
	Timestep time.Time
	Resource string
	Required float64
	Provided float64
	Requests int
}

// Ratio returns provided/required, 1 when nothing was required
func (c ResourceCoverage) Ratio() float64 {
	if c.Required <= 0 {
		return 1
	}
	return c.Provided / c.Required
}

// StatusCounts tallies outcomes per activity and status
func (r *RunResult) StatusCounts() map[string]map[entities.ActivityStatus]int {
	counts := make(map[string]map[entities.ActivityStatus]int)
	for _, o := range r.Outcomes {
		byStatus, ok := counts[o.ActivityName]
		if !ok {
			byStatus = make(map[entities.ActivityStatus]int)
			counts[o.ActivityName] = byStatus
		}
		byStatus[o.Status]++
	}
	return counts
}

// Shortfalls returns every short request recorded during the run
func (r *RunResult) Shortfalls() []entities.ResourceRequest {
	var out []entities.ResourceRequest
	for _, o := range r.Outcomes {
		out = append(out, o.Shortfalls...)
	}
	return out
}

// TimestepSummary aggregates one timestep for reporting
type TimestepSummary struct {
	Date     time.Time
	Success  int
	Partial  int
	Warning  int
	Critical int
	Skipped  int
}

// Summaries groups outcomes by timestep in date order
func (r *RunResult) Summaries() []TimestepSummary {
	var out []TimestepSummary
	index := make(map[time.Time]int)
	for _, o := range r.Outcomes {
		i, ok := index[o.Timestep]
		if !ok {
			i = len(out)
			index[o.Timestep] = i
			out = append(out, TimestepSummary{Date: o.Timestep})
		}
		s := &out[i]
		switch o.Status {
		case entities.Success:
			s.Success++
		case entities.Partial:
			s.Partial++
		case entities.Warning:
			s.Warning++
		case entities.Critical:
			s.Critical++
		default:
			s.Skipped++
		}
	}
	return out
}
