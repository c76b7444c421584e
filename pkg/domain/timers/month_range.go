package timers

import (
	"fmt"
	"time"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// MonthRange is due in the months from StartMonth to EndMonth inclusive,
// wrapping over the year end when StartMonth is after EndMonth.
// It notifies only when due.
type MonthRange struct {
	base
	StartMonth time.Month
	EndMonth   time.Month
}

// NewMonthRange creates a validated MonthRange timer
func NewMonthRange(name string, startMonth, endMonth time.Month, clock repositories.Clock, notifier repositories.Notifier) (*MonthRange, error) {
	if startMonth < time.January || startMonth > time.December {
		return nil, fmt.Errorf("timer [%s] start month must be 1-12, got %d", name, startMonth)
	}
	if endMonth < time.January || endMonth > time.December {
		return nil, fmt.Errorf("timer [%s] end month must be 1-12, got %d", name, endMonth)
	}
	return &MonthRange{
		base:       newBase(name, clock, notifier),
		StartMonth: startMonth,
		EndMonth:   endMonth,
	}, nil
}

func (t *MonthRange) ActivityDue() bool {
	due := t.Check(t.clock.Today())
	if due {
		t.performed()
	}
	return due
}

func (t *MonthRange) Check(date time.Time) bool {
	m := date.Month()
	if t.StartMonth <= t.EndMonth {
		return m >= t.StartMonth && m <= t.EndMonth
	}
	return m >= t.StartMonth || m <= t.EndMonth
}
