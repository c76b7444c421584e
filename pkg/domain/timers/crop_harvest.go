package timers

import (
	"fmt"
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// HarvestSource supplies the next and previous harvest dates of a crop.
// A false second value means the date is not known yet.
type HarvestSource interface {
	Next(today time.Time) (time.Time, bool)
	Previous(today time.Time) (time.Time, bool)
}

// CropHarvest is due in a window of months around a harvest: OffsetStart to
// OffsetStop months relative to the next harvest, or failing that the
// previous one. Negative offsets fall before the harvest. When no harvest
// date is known yet the timer is simply not due. It notifies only when due.
type CropHarvest struct {
	base
	Harvests    HarvestSource
	OffsetStart int
	OffsetStop  int
}

// NewCropHarvest creates a validated CropHarvest timer
func NewCropHarvest(name string, harvests HarvestSource, offsetStart, offsetStop int, clock repositories.Clock, notifier repositories.Notifier) (*CropHarvest, error) {
	if harvests == nil {
		return nil, fmt.Errorf("timer [%s] requires a managed crop", name)
	}
	if offsetStart > offsetStop {
		return nil, fmt.Errorf("timer [%s] offset start %d is after offset stop %d", name, offsetStart, offsetStop)
	}
	return &CropHarvest{
		base:        newBase(name, clock, notifier),
		Harvests:    harvests,
		OffsetStart: offsetStart,
		OffsetStop:  offsetStop,
	}, nil
}

func (t *CropHarvest) ActivityDue() bool {
	due := t.Check(t.clock.Today())
	if due {
		t.performed()
	}
	return due
}

func (t *CropHarvest) Check(date time.Time) bool {
	month := entities.MonthIndex(date)
	if next, ok := t.Harvests.Next(date); ok && t.inWindow(month-entities.MonthIndex(next)) {
		return true
	}
	if prev, ok := t.Harvests.Previous(date); ok && t.inWindow(month-entities.MonthIndex(prev)) {
		return true
	}
	return false
}

func (t *CropHarvest) inWindow(offset int) bool {
	return offset >= t.OffsetStart && offset <= t.OffsetStop
}
