package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/clem/pkg/domain/entities"
)

// ActivityOutcome is the recorded result of one activity in one timestep
type ActivityOutcome struct {
	RunID        uuid.UUID
	Timestep     time.Time
	ActivityID   uuid.UUID
	ActivityName string
	Status       entities.ActivityStatus
	Message      string
	Shortfalls   []entities.ResourceRequest
}

// OutcomeRepository stores per-timestep activity outcomes
type OutcomeRepository interface {
	SaveOutcomes(ctx context.Context, outcomes []ActivityOutcome) error
	GetOutcomes(ctx context.Context, runID uuid.UUID) ([]ActivityOutcome, error)
}
