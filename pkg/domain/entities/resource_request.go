package entities

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ResourceRequest is one demand for a quantity of a named resource in a timestep
type ResourceRequest struct {
	ID                 uuid.UUID
	ResourceTypeName   string
	ActivityID         uuid.UUID
	ActivityName       string
	Required           float64
	Available          float64
	Provided           float64
	Category           string
	RelatesTo          string // tag used by first-matching shortfall policy
	FilterDetails      []string
	AllowTransmutation bool
}

// NewResourceRequest creates a validated ResourceRequest
func NewResourceRequest(resourceTypeName string, required float64, activityID uuid.UUID, activityName, category string) (*ResourceRequest, error) {
	if resourceTypeName == "" {
		return nil, fmt.Errorf("resource type name cannot be empty")
	}
	if math.IsNaN(required) || math.IsInf(required, 0) {
		return nil, fmt.Errorf("required amount must be finite, got %v", required)
	}
	if required < 0 {
		return nil, fmt.Errorf("required amount cannot be negative, got %g", required)
	}

	return &ResourceRequest{
		ID:               uuid.New(),
		ResourceTypeName: resourceTypeName,
		ActivityID:       activityID,
		ActivityName:     activityName,
		Required:         required,
		Category:         category,
	}, nil
}

// Provide records the arbitrator's decision. Provided is clamped so that it
// never exceeds Required or Available.
func (r *ResourceRequest) Provide(available, provided float64) {
	if available < 0 {
		available = 0
	}
	if provided < 0 {
		provided = 0
	}
	provided = math.Min(provided, r.Required)
	provided = math.Min(provided, available)

	r.Available = available
	r.Provided = provided
}

// Shortfall returns the amount requested but not provided
func (r *ResourceRequest) Shortfall() float64 {
	return r.Required - r.Provided
}

// ShortfallProportion returns 1 - provided/required, or 0 for an empty request
func (r *ResourceRequest) ShortfallProportion() float64 {
	if r.Required <= 0 {
		return 0
	}
	return 1 - r.Provided/r.Required
}

// Satisfied reports whether the full requirement was provided
func (r *ResourceRequest) Satisfied() bool {
	return r.Provided >= r.Required
}

// String returns a compact description for logging
func (r *ResourceRequest) String() string {
	return fmt.Sprintf("%s[%s] required=%g provided=%g", r.ResourceTypeName, r.RelatesTo, r.Required, r.Provided)
}

// RequestList collects the requests an activity builds in one timestep
type RequestList []*ResourceRequest

// Add appends req, silently dropping nil or zero-requirement requests
func (l RequestList) Add(req *ResourceRequest) RequestList {
	if req == nil || req.Required == 0 {
		return l
	}
	return append(l, req)
}

// AnyShortfall reports whether any request was provided below requirement
func (l RequestList) AnyShortfall() bool {
	for _, req := range l {
		if !req.Satisfied() {
			return true
		}
	}
	return false
}

// ForActivity filters requests made by the given activity
func (l RequestList) ForActivity(id uuid.UUID) RequestList {
	var out RequestList
	for _, req := range l {
		if req.ActivityID == id {
			out = append(out, req)
		}
	}
	return out
}
