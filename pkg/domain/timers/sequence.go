package timers

import (
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// SequenceTimer is due in the months its sequence enables, counting months
// from the simulation start. It notifies only when due.
type SequenceTimer struct {
	base
	Sequence entities.Sequence
}

// NewSequenceTimer creates a SequenceTimer from a raw sequence string
func NewSequenceTimer(name, sequence string, clock repositories.Clock, notifier repositories.Notifier) (*SequenceTimer, error) {
	seq, err := entities.NewSequence(sequence)
	if err != nil {
		return nil, entities.NewConfigurationError(name, "sequence", err.Error())
	}
	return &SequenceTimer{base: newBase(name, clock, notifier), Sequence: seq}, nil
}

func (t *SequenceTimer) ActivityDue() bool {
	due := t.Check(t.clock.Today())
	if due {
		t.performed()
	}
	return due
}

func (t *SequenceTimer) Check(date time.Time) bool {
	offset := entities.MonthIndex(date) - entities.MonthIndex(t.clock.StartDate())
	return t.Sequence.IsEnabled(offset)
}
