// Package clock provides the monthly simulation clock.
package clock

import (
	"fmt"
	"time"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// MonthlyClock advances one calendar month per timestep, keeping the start
// date's day of month where the month is long enough
type MonthlyClock struct {
	start time.Time
	end   time.Time
	step  int
	today time.Time
}

var _ repositories.Clock = (*MonthlyClock)(nil)

// NewMonthlyClock creates a clock running from start to end inclusive
func NewMonthlyClock(start, end time.Time) (*MonthlyClock, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return &MonthlyClock{start: start, end: end, today: start}, nil
}

func (c *MonthlyClock) Today() time.Time     { return c.today }
func (c *MonthlyClock) StartDate() time.Time { return c.start }
func (c *MonthlyClock) EndDate() time.Time   { return c.end }

// Step returns the number of completed timesteps
func (c *MonthlyClock) Step() int {
	return c.step
}

// Advance moves to the next month and reports whether it is still within
// the simulation
func (c *MonthlyClock) Advance() bool {
	c.step++
	first := time.Date(c.start.Year(), c.start.Month(), 1, 0, 0, 0, 0, c.start.Location()).AddDate(0, c.step, 0)
	day := c.start.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	c.today = first.AddDate(0, 0, day-1)
	return !c.today.After(c.end)
}

// Done reports whether the clock has passed the end date
func (c *MonthlyClock) Done() bool {
	return c.today.After(c.end)
}

// SetToday moves the clock to an arbitrary date. Used by tests and by
// previewing tools.
func (c *MonthlyClock) SetToday(t time.Time) {
	c.today = t
}
