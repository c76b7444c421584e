package timers

import (
	"fmt"
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Interval is due every Interval months, anchored on MonthDue/DayDue of the
// simulation's first year. An optional Sequence switches individual
// occurrences on or off. It notifies only when due.
type Interval struct {
	base
	MonthDue time.Month
	DayDue   int // 0 uses the start date's day
	Interval int
	Sequence entities.Sequence

	anchor      time.Time
	first       int // first occurrence on or after the start date
	occurrence  int
	nextDueDate time.Time
}

// NewInterval creates a validated Interval timer
func NewInterval(name string, monthDue time.Month, dayDue, interval int, sequence entities.Sequence, clock repositories.Clock, notifier repositories.Notifier) (*Interval, error) {
	if monthDue < time.January || monthDue > time.December {
		return nil, fmt.Errorf("timer [%s] month due must be 1-12, got %d", name, monthDue)
	}
	if dayDue < 0 || dayDue > 31 {
		return nil, fmt.Errorf("timer [%s] day due must be 0-31, got %d", name, dayDue)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("timer [%s] interval must be positive, got %d", name, interval)
	}
	return &Interval{
		base:     newBase(name, clock, notifier),
		MonthDue: monthDue,
		DayDue:   dayDue,
		Interval: interval,
		Sequence: sequence,
	}, nil
}

// Initialise anchors the timer and steps forward by whole intervals until
// the next due date is on or after start. Stepping from the anchor each time
// keeps the configured day of month.
func (t *Interval) Initialise(start time.Time) error {
	day := t.DayDue
	if day == 0 {
		day = start.Day()
	}
	t.anchor = clampDay(time.Date(start.Year(), t.MonthDue, 1, 0, 0, 0, 0, start.Location()), day)
	t.occurrence = 0
	t.nextDueDate = t.anchor
	for t.nextDueDate.Before(start) {
		t.occurrence++
		t.nextDueDate = addMonths(t.anchor, t.occurrence*t.Interval)
	}
	t.first = t.occurrence
	return nil
}

// NextDueDate returns the date the timer is next due
func (t *Interval) NextDueDate() time.Time {
	return t.nextDueDate
}

func (t *Interval) ActivityDue() bool {
	if t.nextDueDate.IsZero() {
		_ = t.Initialise(t.clock.StartDate())
	}
	today := entities.MonthIndex(t.clock.Today())
	for entities.MonthIndex(t.nextDueDate) < today {
		t.advance()
	}
	if entities.MonthIndex(t.nextDueDate) != today {
		return false
	}
	enabled := t.Sequence.IsEnabled(t.occurrence)
	t.advance()
	if enabled {
		t.performed()
	}
	return enabled
}

// Check reports whether date falls on an enabled occurrence. Once
// initialised, occurrences before the first due date never match.
func (t *Interval) Check(date time.Time) bool {
	anchor := t.anchor
	if anchor.IsZero() {
		anchor = clampDay(time.Date(date.Year(), t.MonthDue, 1, 0, 0, 0, 0, date.Location()), 1)
	}
	diff := entities.MonthIndex(date) - entities.MonthIndex(anchor)
	if diff < 0 || diff%t.Interval != 0 {
		return false
	}
	occurrence := diff / t.Interval
	if !t.anchor.IsZero() && occurrence < t.first {
		return false
	}
	return t.Sequence.IsEnabled(occurrence)
}

func (t *Interval) advance() {
	t.occurrence++
	t.nextDueDate = addMonths(t.anchor, t.occurrence*t.Interval)
}

// clampDay moves first-of-month to day, limited to the month length
func clampDay(first time.Time, day int) time.Time {
	if last := endOfMonth(first).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}
