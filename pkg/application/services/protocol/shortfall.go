package protocol

import (
	"github.com/vsinha/clem/pkg/domain/entities"
)

// ShortfallPolicy selects which short request gates an activity's task.
// Activity families use different conventions, so the choice is explicit.
type ShortfallPolicy int

const (
	// WorstProportion uses the request with the largest 1 - provided/required:
	// the scarcest resource gates the whole task
	WorstProportion ShortfallPolicy = iota
	// FirstMatchingTag uses the first short request, in enumeration order,
	// whose RelatesTo equals the tag
	FirstMatchingTag
)

// String method for ShortfallPolicy enum
func (p ShortfallPolicy) String() string {
	switch p {
	case WorstProportion:
		return "WorstProportion"
	case FirstMatchingTag:
		return "FirstMatchingTag"
	default:
		return "Unknown"
	}
}

// Evaluate returns the shortfall proportion and the request it came from,
// or (0, nil) when nothing relevant is short
func (p ShortfallPolicy) Evaluate(requests entities.RequestList, tag string) (float64, *entities.ResourceRequest) {
	switch p {
	case FirstMatchingTag:
		for _, req := range requests {
			if req.RelatesTo == tag && !req.Satisfied() {
				return req.ShortfallProportion(), req
			}
		}
		return 0, nil
	default:
		var worst *entities.ResourceRequest
		proportion := 0.0
		for _, req := range requests {
			if req.Satisfied() {
				continue
			}
			if sp := req.ShortfallProportion(); worst == nil || sp > proportion {
				worst, proportion = req, sp
			}
		}
		return proportion, worst
	}
}
