package memory

import (
	"math"
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// LabourPool is the person-days available in the current month. Supply
// renews every timestep and unused days are lost.
type LabourPool struct {
	name        string
	daysPerDay  float64 // workers available each day
	DaysInMonth float64
	available   float64
	ledger      *Ledger
}

var (
	_ repositories.ResourceType = (*LabourPool)(nil)
	_ repositories.Resetter     = (*LabourPool)(nil)
)

// NewLabourPool creates a pool with a number of full-time workers
func NewLabourPool(name string, workers float64, ledger *Ledger) *LabourPool {
	p := &LabourPool{
		name:        name,
		daysPerDay:  math.Max(workers, 0),
		DaysInMonth: entities.AverageDaysPerMonth,
		ledger:      ledger,
	}
	p.available = p.daysPerDay * p.DaysInMonth
	return p
}

func (p *LabourPool) Name() string    { return p.name }
func (p *LabourPool) Amount() float64 { return p.available }

// ResetForTimestep restores the month's supply
func (p *LabourPool) ResetForTimestep(time.Time) {
	p.available = p.daysPerDay * p.DaysInMonth
}

// Add hires extra days for this month only
func (p *LabourPool) Add(amount float64, source, tag, category string) {
	if amount <= 0 {
		return
	}
	p.available += amount
	if p.ledger != nil {
		p.ledger.record(repositories.Transaction{
			Resource: p.name, Activity: source, Category: category, Tag: tag, Gain: amount,
		})
	}
}

func (p *LabourPool) Remove(req *entities.ResourceRequest, amount float64) float64 {
	take := math.Max(math.Min(math.Min(amount, req.Required), p.available), 0)
	req.Provide(p.available, take)
	p.available -= req.Provided
	if req.Provided > 0 && p.ledger != nil {
		p.ledger.record(repositories.Transaction{
			Resource: p.name, Activity: req.ActivityName, Category: req.Category, Tag: req.RelatesTo, Loss: req.Provided,
		})
	}
	return req.Provided
}
