package events

import (
	"log/slog"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// SimulationEvents lists every event the simulation publishes
var SimulationEvents = []string{
	repositories.TimestepStartedEvent,
	repositories.ActivityPerformedEvent,
	repositories.ResourceShortfallEvent,
	repositories.TimestepCompletedEvent,
}

// Tally counts delivered events by type
type Tally struct {
	counts map[string]int
}

func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

func (t *Tally) Handle(event Event) error {
	t.counts[event.Type()]++
	return nil
}

func (t *Tally) CanHandle(string) bool { return true }

// Counts returns a copy of the counts so far
func (t *Tally) Counts() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// LogHandler writes activity and shortfall notifications to a logger at
// debug level
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger}
}

func (h *LogHandler) CanHandle(eventType string) bool {
	return eventType == repositories.ActivityPerformedEvent || eventType == repositories.ResourceShortfallEvent
}

func (h *LogHandler) Handle(event Event) error {
	attrs := []any{
		"source", event.Source(),
		"sequence", event.Sequence(),
		"date", event.Timestamp().Format("2006-01-02"),
	}
	switch data := event.Data().(type) {
	case repositories.ActivityPerformed:
		attrs = append(attrs, "status", data.Status.String())
	case repositories.ResourceShortfall:
		attrs = append(attrs,
			"resource", data.Request.ResourceTypeName,
			"required", data.Request.Required,
			"provided", data.Request.Provided)
	}
	h.logger.Debug(event.Type(), attrs...)
	return nil
}
