package repositories

import (
	"time"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// ResourceType is a pool activities draw from or add to
type ResourceType interface {
	Name() string
	Amount() float64
	// Add credits the pool; tag identifies the cohort or source detail
	Add(amount float64, source, tag, category string)
	// Remove debits up to amount (never more than req.Required or the pool
	// holds), records Available and Provided on the request and returns the
	// amount provided
	Remove(req *entities.ResourceRequest, amount float64) float64
}

// ResourceRegistry resolves resource type names to pools
type ResourceRegistry interface {
	// Resolve returns the named pool. When it is missing the action decides
	// between returning (nil, nil) and an error wrapping ErrResourceNotFound.
	Resolve(name string, onMissing entities.MissingResourceAction) (ResourceType, error)
	Names() []string
}

// Resetter is implemented by pools whose supply renews every timestep,
// such as monthly labour availability
type Resetter interface {
	ResetForTimestep(today time.Time)
}

// Transaction is one movement of a resource recorded by a pool
type Transaction struct {
	Date     time.Time
	Resource string
	Activity string
	Category string
	Tag      string
	Gain     float64
	Loss     float64
}
