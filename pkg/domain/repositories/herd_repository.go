package repositories

import (
	"github.com/google/uuid"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// HerdFilter selects cohorts; zero fields match everything
type HerdFilter struct {
	Herd     string
	Sex      *entities.Sex
	MinAge   int
	MaxAge   int // 0 = no upper bound
	Location string
	ForSale  *bool
}

// Matches reports whether c passes the filter
func (f HerdFilter) Matches(c *entities.RuminantCohort) bool {
	if f.Herd != "" && c.Herd != f.Herd {
		return false
	}
	if f.Sex != nil && c.Sex != *f.Sex {
		return false
	}
	if c.AgeMonths < f.MinAge {
		return false
	}
	if f.MaxAge > 0 && c.AgeMonths > f.MaxAge {
		return false
	}
	if f.Location != "" && c.Location != f.Location {
		return false
	}
	if f.ForSale != nil && c.ForSale != *f.ForSale {
		return false
	}
	return true
}

// HerdRepository defines the interface for ruminant cohort storage
type HerdRepository interface {
	AddCohort(c *entities.RuminantCohort) error
	GetCohort(id uuid.UUID) (*entities.RuminantCohort, error)
	Find(filter HerdFilter) []*entities.RuminantCohort
	Count(filter HerdFilter) int
	Remove(id uuid.UUID, n int) (int, error)
	Split(id uuid.UUID, n int, apply func(*entities.RuminantCohort)) (*entities.RuminantCohort, error)
}
