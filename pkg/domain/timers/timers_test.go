package timers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

type stubClock struct {
	today, start time.Time
}

func (c *stubClock) Today() time.Time     { return c.today }
func (c *stubClock) StartDate() time.Time { return c.start }
func (c *stubClock) EndDate() time.Time   { return c.start.AddDate(10, 0, 0) }

type countingNotifier struct {
	events []repositories.ActivityPerformed
}

func (n *countingNotifier) Notify(eventType, _ string, payload any) {
	if eventType == repositories.ActivityPerformedEvent {
		n.events = append(n.events, payload.(repositories.ActivityPerformed))
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1)}
	notifier := &countingNotifier{}
	timer, err := NewDateRange("Wet season", date(2020, 3, 15), date(2020, 5, 10), false, clock, notifier)
	require.NoError(t, err)
	inverted, err := NewDateRange("Dry season", date(2020, 3, 15), date(2020, 5, 10), true, clock, notifier)
	require.NoError(t, err)

	tests := []struct {
		day  time.Time
		want bool
	}{
		{date(2020, 2, 29), false},
		{date(2020, 3, 1), true},
		{date(2020, 5, 31), true},
		{date(2020, 6, 1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timer.Check(tt.day), tt.day)
		assert.Equal(t, !tt.want, inverted.Check(tt.day), tt.day)
	}

	_, err = NewDateRange("Bad", date(2020, 5, 1), date(2020, 3, 1), false, clock, notifier)
	assert.Error(t, err)
}

func TestDateRange_NotifiesBeforeInversion(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1), today: date(2020, 4, 1)}
	notifier := &countingNotifier{}
	inverted, err := NewDateRange("Dry season", date(2020, 3, 1), date(2020, 5, 1), true, clock, notifier)
	require.NoError(t, err)

	assert.False(t, inverted.ActivityDue())
	assert.Len(t, notifier.events, 1, "in range notifies even though inverted")

	clock.today = date(2020, 8, 1)
	assert.True(t, inverted.ActivityDue())
	assert.Len(t, notifier.events, 1)
}

func TestMonthRange_WrapsYearEnd(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1)}
	notifier := &countingNotifier{}
	timer, err := NewMonthRange("Summer", time.November, time.February, clock, notifier)
	require.NoError(t, err)

	for m := time.January; m <= time.December; m++ {
		want := m >= time.November || m <= time.February
		clock.today = date(2020, m, 1)
		assert.Equal(t, want, timer.ActivityDue(), m.String())
	}
	assert.Len(t, notifier.events, 4, "notifies only when due")
	assert.Equal(t, entities.Timer, notifier.events[0].Status)

	_, err = NewMonthRange("Bad", 0, time.March, clock, notifier)
	assert.Error(t, err)
}

func TestInterval_Initialise(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{"lands on first step", date(2020, 7, 1), date(2020, 7, 3)},
		{"steps past start day", date(2020, 7, 5), date(2020, 11, 3)},
		{"anchor after start", date(2020, 1, 1), date(2020, 3, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer, err := NewInterval("Shear", time.March, 3, 4, "", &stubClock{start: tt.start}, nil)
			require.NoError(t, err)

			require.NoError(t, timer.Initialise(tt.start))

			assert.Equal(t, tt.want, timer.NextDueDate())
		})
	}
}

func TestInterval_ClampsDayAndKeepsAlignment(t *testing.T) {
	timer, err := NewInterval("Month end", time.January, 31, 1, "", &stubClock{}, nil)
	require.NoError(t, err)
	require.NoError(t, timer.Initialise(date(2021, 2, 1)))

	assert.Equal(t, date(2021, 2, 28), timer.NextDueDate())
	timer.advance()
	assert.Equal(t, date(2021, 3, 31), timer.NextDueDate(), "stepping from the anchor keeps day 31")
}

func TestInterval_ActivityDue(t *testing.T) {
	clock := &stubClock{start: date(2020, 7, 1)}
	notifier := &countingNotifier{}
	timer, err := NewInterval("Shear", time.March, 3, 4, "", clock, notifier)
	require.NoError(t, err)
	require.NoError(t, timer.Initialise(clock.start))

	var due []time.Month
	for d := clock.start; d.Before(date(2021, 7, 2)); d = d.AddDate(0, 1, 0) {
		clock.today = d
		if timer.ActivityDue() {
			due = append(due, d.Month())
		}
	}

	assert.Equal(t, []time.Month{time.July, time.November, time.March, time.July}, due)
	assert.Len(t, notifier.events, 4)
}

func TestInterval_CheckAgreesWithInitialisedStart(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		check time.Time
		want  bool
	}{
		{"month of a passed occurrence", date(2020, 7, 5), date(2020, 7, 1), false},
		{"anchor month before start", date(2020, 7, 5), date(2020, 3, 1), false},
		{"first due occurrence", date(2020, 7, 5), date(2020, 11, 1), true},
		{"later occurrence", date(2020, 7, 5), date(2021, 3, 1), true},
		{"between occurrences", date(2020, 7, 5), date(2020, 12, 1), false},
		{"start on the due day", date(2020, 7, 1), date(2020, 7, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer, err := NewInterval("Shear", time.March, 3, 4, "", &stubClock{start: tt.start}, nil)
			require.NoError(t, err)
			require.NoError(t, timer.Initialise(tt.start))

			assert.Equal(t, tt.want, timer.Check(tt.check))
		})
	}
}

func TestInterval_SequenceSkipsOccurrences(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1)}
	seq, err := entities.NewSequence("YN")
	require.NoError(t, err)
	timer, err := NewInterval("Biennial", time.January, 1, 12, seq, clock, nil)
	require.NoError(t, err)
	require.NoError(t, timer.Initialise(clock.start))

	var years []int
	for y := 2020; y <= 2024; y++ {
		clock.today = date(y, 1, 1)
		if timer.ActivityDue() {
			years = append(years, y)
		}
	}

	assert.Equal(t, []int{2020, 2022, 2024}, years)
}

func TestSequenceTimer(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1)}
	notifier := &countingNotifier{}
	timer, err := NewSequenceTimer("Alternate months", "1,0", clock, notifier)
	require.NoError(t, err)

	clock.today = date(2020, 1, 1)
	assert.True(t, timer.ActivityDue())
	clock.today = date(2020, 2, 1)
	assert.False(t, timer.ActivityDue())
	assert.True(t, timer.Check(date(2020, 3, 1)))
	assert.True(t, timer.Check(date(2019, 11, 1)), "negative offsets wrap")
	assert.Len(t, notifier.events, 1)

	_, err = NewSequenceTimer("Bad", "1x", clock, notifier)
	assert.True(t, entities.IsConfigurationError(err))
}

func TestPastureLevel_NotifiesEveryEvaluation(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1), today: date(2020, 1, 1)}
	notifier := &countingNotifier{}
	pasture := &entities.Pasture{Name: "Paddock", Area: 10, Biomass: 5000}
	timer, err := NewPastureLevel("Graze", pasture, 400, 1000, clock, notifier)
	require.NoError(t, err)

	assert.True(t, timer.ActivityDue())
	pasture.Biomass = 10000 // 1000 kg/ha, the maximum is excluded
	assert.False(t, timer.ActivityDue())
	pasture.Biomass = 3999
	assert.False(t, timer.ActivityDue())

	assert.Len(t, notifier.events, 3)

	_, err = NewPastureLevel("Bad", pasture, 5, 5, clock, notifier)
	assert.Error(t, err)
}

func TestCropHarvest(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1)}
	notifier := &countingNotifier{}
	schedule := entities.NewCropHarvestSchedule("Sorghum", []time.Time{date(2020, 6, 15), date(2021, 6, 15)})
	timer, err := NewCropHarvest("Around harvest", schedule, -1, 1, clock, notifier)
	require.NoError(t, err)

	tests := []struct {
		day  time.Time
		want bool
	}{
		{date(2020, 4, 1), false},
		{date(2020, 5, 1), true},
		{date(2020, 6, 1), true},
		{date(2020, 7, 1), true},
		{date(2020, 8, 1), false},
		{date(2021, 5, 1), true},
	}
	for _, tt := range tests {
		clock.today = tt.day
		assert.Equal(t, tt.want, timer.ActivityDue(), tt.day)
	}
	assert.Len(t, notifier.events, 4)
}

func TestCropHarvest_UnknownHarvestIsNotDue(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1), today: date(2020, 3, 1)}
	timer, err := NewCropHarvest("Around harvest", entities.NewCropHarvestSchedule("Sorghum", nil), -12, 12, clock, nil)
	require.NoError(t, err)

	assert.False(t, timer.ActivityDue())
}

func TestCombine(t *testing.T) {
	clock := &stubClock{start: date(2020, 1, 1), today: date(2020, 12, 1)}
	notifier := &countingNotifier{}
	summer, err := NewMonthRange("Summer", time.November, time.February, clock, notifier)
	require.NoError(t, err)
	pasture := &entities.Pasture{Area: 1, Biomass: 100}
	low, err := NewPastureLevel("Low", pasture, 0, 50, clock, notifier)
	require.NoError(t, err)
	combined := Combine("Summer and low", summer, low)

	assert.False(t, combined.ActivityDue())
	assert.Len(t, notifier.events, 2, "every child is consulted")

	pasture.Biomass = 10
	assert.True(t, combined.ActivityDue())
	assert.True(t, combined.Check(date(2020, 1, 1)))
	assert.False(t, combined.Check(date(2020, 6, 1)))
}
