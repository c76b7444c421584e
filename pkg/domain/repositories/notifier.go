package repositories

import (
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// Event names published through a Notifier
const (
	ActivityPerformedEvent = "activity.performed"
	ResourceShortfallEvent = "resource.shortfall"
	TimestepStartedEvent   = "timestep.started"
	TimestepCompletedEvent = "timestep.completed"
)

// Notifier publishes named simulation events such as ActivityPerformed
type Notifier interface {
	Notify(eventType, source string, payload any)
}

// NopNotifier discards every notification
type NopNotifier struct{}

func (NopNotifier) Notify(string, string, any) {}

// ActivityPerformed is the payload of ActivityPerformedEvent
type ActivityPerformed struct {
	Name   string
	Status entities.ActivityStatus
	Date   time.Time
}

// ResourceShortfall is the payload of ResourceShortfallEvent
type ResourceShortfall struct {
	Activity string
	Request  entities.ResourceRequest
	Date     time.Time
}
