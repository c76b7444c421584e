package protocol

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// ShortfallContext holds what was asked for and received for one resource
// and tag across all activities in a timestep
type ShortfallContext struct {
	Required float64
	Provided float64
	Requests int
}

// Shortfall returns the unmet amount
func (c *ShortfallContext) Shortfall() float64 {
	return c.Required - c.Provided
}

// ShortfallMap aggregates a timestep's arbitrated requests by resource and tag
type ShortfallMap map[string]*ShortfallContext

// NewShortfallMapFromRequests aggregates arbitrated requests
func NewShortfallMapFromRequests(requests entities.RequestList) ShortfallMap {
	m := make(ShortfallMap)
	for _, req := range requests {
		key := makeShortfallKey(req.ResourceTypeName, req.RelatesTo)
		ctx, exists := m[key]
		if !exists {
			ctx = &ShortfallContext{}
			m[key] = ctx
		}
		ctx.Required += req.Required
		ctx.Provided += req.Provided
		ctx.Requests++
	}
	return m
}

// Get retrieves context for a resource and tag
func (m ShortfallMap) Get(resource, tag string) *ShortfallContext {
	return m[makeShortfallKey(resource, tag)]
}

// Resources returns the distinct resource names, sorted
func (m ShortfallMap) Resources() []string {
	set := make(map[string]bool)
	for key := range m {
		resource, _ := parseShortfallKey(key)
		set[resource] = true
	}
	resources := make([]string, 0, len(set))
	for r := range set {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	return resources
}

// Total sums every tag of a resource
func (m ShortfallMap) Total(resource string) ShortfallContext {
	var total ShortfallContext
	for key, ctx := range m {
		if r, _ := parseShortfallKey(key); r == resource {
			total.Required += ctx.Required
			total.Provided += ctx.Provided
			total.Requests += ctx.Requests
		}
	}
	return total
}

// CoverageRatio returns provided/required for a resource, 1 when nothing
// was required
func (m ShortfallMap) CoverageRatio(resource string) float64 {
	total := m.Total(resource)
	if total.Required <= 0 {
		return 1
	}
	return total.Provided / total.Required
}

// String lists every entry in key order
func (m ShortfallMap) String() string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		resource, tag := parseShortfallKey(key)
		ctx := m[key]
		fmt.Fprintf(&b, "%s[%s] %g/%g", resource, tag, ctx.Provided, ctx.Required)
	}
	return b.String()
}

func makeShortfallKey(resource, tag string) string {
	return resource + "|" + tag
}

func parseShortfallKey(key string) (string, string) {
	resource, tag, _ := strings.Cut(key, "|")
	return resource, tag
}
