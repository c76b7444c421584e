package memory

import (
	"math"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Store is a quantity pool such as animal feed, manure or greenhouse gas
type Store struct {
	name   string
	amount float64
	ledger *Ledger
}

// Verify interface compliance
var _ repositories.ResourceType = (*Store)(nil)

// NewStore creates a store holding an initial amount
func NewStore(name string, initial float64, ledger *Ledger) *Store {
	return &Store{name: name, amount: math.Max(initial, 0), ledger: ledger}
}

func (s *Store) Name() string    { return s.name }
func (s *Store) Amount() float64 { return s.amount }

// Add credits the store; non-positive amounts are ignored
func (s *Store) Add(amount float64, source, tag, category string) {
	if amount <= 0 {
		return
	}
	s.amount += amount
	if s.ledger != nil {
		s.ledger.record(repositories.Transaction{
			Resource: s.name, Activity: source, Category: category, Tag: tag, Gain: amount,
		})
	}
}

// Remove debits the store for a request
func (s *Store) Remove(req *entities.ResourceRequest, amount float64) float64 {
	take := math.Max(math.Min(math.Min(amount, req.Required), s.amount), 0)
	req.Provide(s.amount, take)
	provided := req.Provided
	s.amount -= provided
	if provided > 0 && s.ledger != nil {
		s.ledger.record(repositories.Transaction{
			Resource: s.name, Activity: req.ActivityName, Category: req.Category, Tag: req.RelatesTo, Loss: provided,
		})
	}
	return provided
}
