package memory

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Registry provides in-memory storage of all farm resources
type Registry struct {
	pools    map[string]repositories.ResourceType
	pastures map[string]*entities.Pasture
	crops    map[string]*entities.CropHarvestSchedule
	Herd     *HerdRepository
	Ledger   *Ledger
	logger   *slog.Logger
}

// NewRegistry creates an empty registry whose ledger stamps transactions
// using now
func NewRegistry(now func() time.Time, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		pools:    make(map[string]repositories.ResourceType),
		pastures: make(map[string]*entities.Pasture),
		crops:    make(map[string]*entities.CropHarvestSchedule),
		Herd:     NewHerdRepository(16),
		Ledger:   NewLedger(now),
		logger:   logger,
	}
}

// Verify interface compliance
var _ repositories.ResourceRegistry = (*Registry)(nil)

// AddPool registers a pool under its name
func (r *Registry) AddPool(pool repositories.ResourceType) error {
	if pool == nil {
		return fmt.Errorf("pool cannot be nil")
	}
	if _, exists := r.pools[pool.Name()]; exists {
		return fmt.Errorf("resource %s already registered", pool.Name())
	}
	r.pools[pool.Name()] = pool
	return nil
}

// Resolve returns a pool by name following the missing-resource action
func (r *Registry) Resolve(name string, onMissing entities.MissingResourceAction) (repositories.ResourceType, error) {
	pool, exists := r.pools[name]
	if exists {
		return pool, nil
	}
	switch onMissing {
	case entities.Ignore:
		return nil, nil
	case entities.ReportAndUsePartial:
		r.logger.Warn("resource not found, continuing without it", "resource", name)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", entities.ErrResourceNotFound, name)
	}
}

// Names returns registered pool names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetForTimestep renews every pool with a monthly supply
func (r *Registry) ResetForTimestep(today time.Time) {
	for _, name := range r.Names() {
		if resetter, ok := r.pools[name].(repositories.Resetter); ok {
			resetter.ResetForTimestep(today)
		}
	}
}

// AddPasture registers a pasture
func (r *Registry) AddPasture(p *entities.Pasture) {
	r.pastures[p.Name] = p
}

// Pasture returns a pasture by name
func (r *Registry) Pasture(name string) (*entities.Pasture, error) {
	p, exists := r.pastures[name]
	if !exists {
		return nil, fmt.Errorf("pasture not found: %s", name)
	}
	return p, nil
}

// AddCrop registers a managed crop's harvest schedule
func (r *Registry) AddCrop(c *entities.CropHarvestSchedule) {
	r.crops[c.Crop] = c
}

// Crop returns a crop's harvest schedule by name
func (r *Registry) Crop(name string) (*entities.CropHarvestSchedule, error) {
	c, exists := r.crops[name]
	if !exists {
		return nil, fmt.Errorf("crop not found: %s", name)
	}
	return c, nil
}
