// Package events is the synchronous named-event bus the simulation uses to
// trigger activity phases and to publish notifications such as
// ActivityPerformed.
package events

import (
	"time"
)

type Event interface {
	Type() string
	Source() string
	Data() any
	Timestamp() time.Time
	Sequence() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// HandlerFunc adapts a function to EventHandler for every event type it is
// subscribed to
type HandlerFunc func(event Event) error

func (f HandlerFunc) Handle(event Event) error        { return f(event) }
func (f HandlerFunc) CanHandle(eventType string) bool { return true }

type BaseEvent struct {
	EventType     string
	EventSource   string
	EventData     any
	EventTime     time.Time
	EventSequence int
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) Source() string {
	return e.EventSource
}

func (e BaseEvent) Data() any {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Sequence() int {
	return e.EventSequence
}

func NewEvent(eventType, source string, data any, at time.Time) Event {
	return BaseEvent{
		EventType:   eventType,
		EventSource: source,
		EventData:   data,
		EventTime:   at,
	}
}
