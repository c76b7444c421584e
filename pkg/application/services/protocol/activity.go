// Package protocol implements the per-timestep resource request, adjust and
// perform cycle every farm activity follows.
//
// Each timestep the Runner walks activities in configuration order:
//
//	BeginTimestep             status reset, timer cache cleared
//	PrepareForTimestep        cached aggregates recomputed
//	RequestResourcesForTimestep  requests built (all activities)
//	Arbitrator.Arbitrate      Available/Provided filled (once, all requests)
//	AdjustResourcesForTimestep   plan scaled by shortfall
//	PerformTasksForTimestep   domain effect carried out, final status set
//
// Execution is single threaded; activities sharing an ActivityLimiter see
// each other's consumption in configuration order.
package protocol

import (
	"context"

	"github.com/google/uuid"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// Activity is one farm management action run once per timestep
type Activity interface {
	ID() uuid.UUID
	Name() string
	Status() entities.ActivityStatus
	Message() string

	BeginTimestep()
	PrepareForTimestep(ctx context.Context) error
	RequestResourcesForTimestep(ctx context.Context, argument float64) (entities.RequestList, error)
	AdjustResourcesForTimestep(ctx context.Context, requests entities.RequestList) error
	PerformTasksForTimestep(ctx context.Context, argument float64) error
}

// Arbitrator fills Available and Provided on every request of a timestep.
// It is invoked once, after all activities have requested and before any
// activity adjusts.
type Arbitrator interface {
	Arbitrate(ctx context.Context, requests entities.RequestList) error
}

// Recorder receives outcome metrics
type Recorder interface {
	RecordOutcome(activity string, status entities.ActivityStatus)
	RecordShortfall(activity, resource string, shortfall float64)
}
