// Package timers decides whether an activity is due in the current timestep.
//
// Every timer answers two questions: ActivityDue, evaluated once per
// timestep against the simulation clock, which may publish an
// ActivityPerformed notification; and Check, a pure preview for any date.
// Which evaluations notify differs between timer kinds and is documented on
// each type.
package timers

import (
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Timer gates an activity
type Timer interface {
	Name() string
	ActivityDue() bool
	Check(date time.Time) bool
}

// Initialiser is implemented by timers that anchor themselves to the
// simulation start date
type Initialiser interface {
	Initialise(start time.Time) error
}

type base struct {
	name     string
	clock    repositories.Clock
	notifier repositories.Notifier
}

func newBase(name string, clock repositories.Clock, notifier repositories.Notifier) base {
	if notifier == nil {
		notifier = repositories.NopNotifier{}
	}
	return base{name: name, clock: clock, notifier: notifier}
}

func (b base) Name() string {
	return b.name
}

func (b base) performed() {
	b.notifier.Notify(repositories.ActivityPerformedEvent, b.name, repositories.ActivityPerformed{
		Name:   b.name,
		Status: entities.Timer,
		Date:   b.clock.Today(),
	})
}

// firstOfMonth returns midnight on the first day of t's month
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// endOfMonth returns the last instant of t's month
func endOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// addMonths adds n calendar months keeping day, clamped to the month length
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := t.Day()
	if last := endOfMonth(target).Day(); day > last {
		day = last
	}
	return target.AddDate(0, 0, day-1)
}

// Combined is due only when every child timer is due. Each child is
// consulted so that each raises its own notification.
type Combined struct {
	name   string
	timers []Timer
}

// Combine joins timers with a logical AND
func Combine(name string, timers ...Timer) *Combined {
	return &Combined{name: name, timers: timers}
}

func (c *Combined) Name() string { return c.name }

func (c *Combined) ActivityDue() bool {
	due := true
	for _, t := range c.timers {
		if !t.ActivityDue() {
			due = false
		}
	}
	return due
}

func (c *Combined) Check(date time.Time) bool {
	for _, t := range c.timers {
		if !t.Check(date) {
			return false
		}
	}
	return true
}

// Initialise anchors any child timers that need it
func (c *Combined) Initialise(start time.Time) error {
	for _, t := range c.timers {
		if in, ok := t.(Initialiser); ok {
			if err := in.Initialise(start); err != nil {
				return err
			}
		}
	}
	return nil
}
