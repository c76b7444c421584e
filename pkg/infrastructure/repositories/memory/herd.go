package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// HerdRepository provides in-memory storage of ruminant cohorts
type HerdRepository struct {
	cohorts []*entities.RuminantCohort
	index   map[uuid.UUID]int
}

var (
	_ repositories.HerdRepository = (*HerdRepository)(nil)
	_ repositories.Resetter       = (*HerdRepository)(nil)
)

// NewHerdRepository creates an empty herd repository
func NewHerdRepository(expectedCohorts int) *HerdRepository {
	return &HerdRepository{
		cohorts: make([]*entities.RuminantCohort, 0, expectedCohorts),
		index:   make(map[uuid.UUID]int, expectedCohorts),
	}
}

// LoadCohorts adds cohorts to the repository
func (r *HerdRepository) LoadCohorts(cohorts []*entities.RuminantCohort) error {
	for _, c := range cohorts {
		if err := r.AddCohort(c); err != nil {
			return err
		}
	}
	return nil
}

// AddCohort adds a cohort, merging into an identical existing cohort
func (r *HerdRepository) AddCohort(c *entities.RuminantCohort) error {
	_, err := r.addOrMerge(c)
	return err
}

func (r *HerdRepository) addOrMerge(c *entities.RuminantCohort) (*entities.RuminantCohort, error) {
	if c == nil {
		return nil, fmt.Errorf("cohort cannot be nil")
	}
	for _, existing := range r.cohorts {
		if existing.Herd == c.Herd && existing.Breed == c.Breed && existing.Sex == c.Sex &&
			existing.AgeMonths == c.AgeMonths && existing.Location == c.Location &&
			existing.ForSale == c.ForSale && existing.Weight == c.Weight {
			existing.Number += c.Number
			return existing, nil
		}
	}
	if _, exists := r.index[c.ID]; exists {
		return nil, fmt.Errorf("cohort %s already exists", c.ID)
	}
	r.index[c.ID] = len(r.cohorts)
	r.cohorts = append(r.cohorts, c)
	return c, nil
}

// GetCohort returns a cohort by id
func (r *HerdRepository) GetCohort(id uuid.UUID) (*entities.RuminantCohort, error) {
	i, exists := r.index[id]
	if !exists {
		return nil, fmt.Errorf("cohort not found: %s", id)
	}
	return r.cohorts[i], nil
}

// Find returns matching cohorts with animals in them, oldest first
func (r *HerdRepository) Find(filter repositories.HerdFilter) []*entities.RuminantCohort {
	var out []*entities.RuminantCohort
	for _, c := range r.cohorts {
		if c.Number > 0 && filter.Matches(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AgeMonths > out[j].AgeMonths })
	return out
}

// Count returns the number of head matching filter
func (r *HerdRepository) Count(filter repositories.HerdFilter) int {
	total := 0
	for _, c := range r.Find(filter) {
		total += c.Number
	}
	return total
}

// Remove takes up to n head from cohort and returns how many were removed
func (r *HerdRepository) Remove(id uuid.UUID, n int) (int, error) {
	c, err := r.GetCohort(id)
	if err != nil {
		return 0, err
	}
	if n > c.Number {
		n = c.Number
	}
	if n < 0 {
		n = 0
	}
	c.Number -= n
	return n, nil
}

// Split moves n head of cohort into a cohort changed by apply, used to mark
// animals for sale or move them without touching the rest. The returned
// cohort may be an existing one the animals merged into.
func (r *HerdRepository) Split(id uuid.UUID, n int, apply func(*entities.RuminantCohort)) (*entities.RuminantCohort, error) {
	c, err := r.GetCohort(id)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > c.Number {
		return nil, fmt.Errorf("cannot split %d head from cohort of %d", n, c.Number)
	}
	moved := *c
	moved.ID = uuid.New()
	moved.Number = n
	apply(&moved)
	c.Number -= n
	return r.addOrMerge(&moved)
}

// All returns every cohort, including empty ones
func (r *HerdRepository) All() []*entities.RuminantCohort {
	return append([]*entities.RuminantCohort(nil), r.cohorts...)
}

// ResetForTimestep drops cohorts emptied during the previous timestep
func (r *HerdRepository) ResetForTimestep(time.Time) {
	r.Prune()
}

// Prune drops empty cohorts
func (r *HerdRepository) Prune() {
	kept := r.cohorts[:0]
	r.index = make(map[uuid.UUID]int, len(r.cohorts))
	for _, c := range r.cohorts {
		if c.Number > 0 {
			r.index[c.ID] = len(kept)
			kept = append(kept, c)
		}
	}
	r.cohorts = kept
}
