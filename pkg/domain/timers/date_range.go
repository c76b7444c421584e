package timers

import (
	"fmt"
	"time"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// DateRange is due from the first day of Start's month to the last day of
// End's month, or outside that window when Invert is set.
//
// It notifies whenever the date lies inside the window, before inversion is
// applied, so an inverted timer notifies in the months it is not due.
type DateRange struct {
	base
	Start  time.Time
	End    time.Time
	Invert bool
}

// NewDateRange creates a validated DateRange timer
func NewDateRange(name string, start, end time.Time, invert bool, clock repositories.Clock, notifier repositories.Notifier) (*DateRange, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("timer [%s] end date %s is before start date %s",
			name, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return &DateRange{
		base:   newBase(name, clock, notifier),
		Start:  start,
		End:    end,
		Invert: invert,
	}, nil
}

func (t *DateRange) ActivityDue() bool {
	inRange := t.inRange(t.clock.Today())
	if inRange {
		t.performed()
	}
	return inRange != t.Invert
}

func (t *DateRange) Check(date time.Time) bool {
	return t.inRange(date) != t.Invert
}

func (t *DateRange) inRange(date time.Time) bool {
	return !date.Before(firstOfMonth(t.Start)) && !date.After(endOfMonth(t.End))
}
