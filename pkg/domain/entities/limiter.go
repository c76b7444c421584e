package entities

import "fmt"

// AverageDaysPerMonth is the month length used to convert daily limits
const AverageDaysPerMonth = 30.4

// ActivityLimiter is a monthly capacity shared by several activities.
// The simulation resets usage at the start of each timestep. Consumers run
// in configuration order, so earlier activities reduce what later ones see.
type ActivityLimiter struct {
	Name         string
	LimitPerDay  [12]float64
	DaysPerMonth float64
	used         float64
}

// NewActivityLimiter creates a validated ActivityLimiter
func NewActivityLimiter(name string, limitPerDay []float64) (*ActivityLimiter, error) {
	if name == "" {
		return nil, fmt.Errorf("limiter name cannot be empty")
	}
	limiter := &ActivityLimiter{Name: name, DaysPerMonth: AverageDaysPerMonth}
	switch len(limitPerDay) {
	case 1:
		for i := range limiter.LimitPerDay {
			limiter.LimitPerDay[i] = limitPerDay[0]
		}
	case 12:
		copy(limiter.LimitPerDay[:], limitPerDay)
	default:
		return nil, fmt.Errorf("limiter [%s] requires 1 or 12 daily limits, got %d", name, len(limitPerDay))
	}
	for i, v := range limiter.LimitPerDay {
		if v < 0 {
			return nil, fmt.Errorf("limiter [%s] daily limit for month %d cannot be negative, got %g", name, i+1, v)
		}
	}
	return limiter, nil
}

// GetAmountAvailable returns capacity left this month; negative when overshot
func (l *ActivityLimiter) GetAmountAvailable(month int) float64 {
	if month < 1 || month > 12 {
		return 0
	}
	return l.LimitPerDay[month-1]*l.DaysPerMonth - l.used
}

// AddWeightCarried records consumption against the limit
func (l *ActivityLimiter) AddWeightCarried(amount float64) {
	l.used += amount
}

// Used returns the amount consumed since the last reset
func (l *ActivityLimiter) Used() float64 {
	return l.used
}

// Reset clears usage at the start of a timestep
func (l *ActivityLimiter) Reset() {
	l.used = 0
}
