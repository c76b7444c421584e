package events

import (
	"errors"
	"log/slog"
	"time"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Bus delivers events to subscribers synchronously, in subscription order.
// The simulation is single threaded so no locking is done.
type Bus struct {
	subscribers map[string][]EventHandler
	history     []Event
	keep        int
	sequence    int
	now         func() time.Time
	logger      *slog.Logger
	errs        []error
}

var _ repositories.Notifier = (*Bus)(nil)

// NewBus creates a bus. keep bounds the retained history (0 keeps none).
// now stamps events, normally the simulation clock's Today.
func NewBus(keep int, now func() time.Time, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Bus{
		subscribers: make(map[string][]EventHandler),
		keep:        keep,
		now:         now,
		logger:      logger,
	}
}

// Subscribe registers handler for each event type
func (b *Bus) Subscribe(eventTypes []string, handler EventHandler) {
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
}

// Unsubscribe removes handler from every event type. The handler must be a
// comparable value such as a struct pointer; HandlerFunc values cannot be
// unsubscribed.
func (b *Bus) Unsubscribe(handler EventHandler) {
	for eventType, handlers := range b.subscribers {
		kept := handlers[:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		b.subscribers[eventType] = kept
	}
}

// Publish numbers the event, records it and delivers it to subscribers.
// Handler errors are logged and collected; see Errors.
func (b *Bus) Publish(event Event) {
	b.sequence++
	stamped := BaseEvent{
		EventType:     event.Type(),
		EventSource:   event.Source(),
		EventData:     event.Data(),
		EventTime:     event.Timestamp(),
		EventSequence: b.sequence,
	}

	if b.keep > 0 {
		b.history = append(b.history, stamped)
		if len(b.history) > b.keep {
			b.history = b.history[len(b.history)-b.keep:]
		}
	}

	for _, handler := range b.subscribers[stamped.EventType] {
		if !handler.CanHandle(stamped.EventType) {
			continue
		}
		if err := handler.Handle(stamped); err != nil {
			b.logger.Error("event handler failed", "event", stamped.EventType, "source", stamped.EventSource, "error", err)
			b.errs = append(b.errs, err)
		}
	}
}

// Notify implements repositories.Notifier
func (b *Bus) Notify(eventType, source string, payload any) {
	b.Publish(NewEvent(eventType, source, payload, b.now()))
}

// History returns retained events, optionally filtered by type
func (b *Bus) History(eventType string) []Event {
	if eventType == "" {
		return append([]Event(nil), b.history...)
	}
	var out []Event
	for _, e := range b.history {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Errors returns handler failures since the last call and clears them
func (b *Bus) Errors() error {
	err := errors.Join(b.errs...)
	b.errs = nil
	return err
}
