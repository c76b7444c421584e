// Package arbitration distributes resource pools among the requests made in
// one timestep.
package arbitration

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/vsinha/clem/pkg/application/services/protocol"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Policy names an allocation policy
type Policy string

const (
	PolicyFirstCome    Policy = "first-come"
	PolicyProportional Policy = "proportional"
)

// fundsHolder is implemented by pools whose spendable amount differs from
// their balance, such as accounts with an overdraft
type fundsHolder interface {
	Funds() entities.Money
}

// supply returns what a pool can give this timestep
func supply(pool repositories.ResourceType) float64 {
	if f, ok := pool.(fundsHolder); ok {
		return entities.MoneyToFloat(f.Funds())
	}
	return math.Max(pool.Amount(), 0)
}

// Config is shared by the arbitrators
type Config struct {
	Registry  repositories.ResourceRegistry
	OnMissing entities.MissingResourceAction
	// Transmutation, when set, buys shortfalls of requests that allow it
	Transmutation *Transmutation
	Logger        *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// resolve looks up the pool for a request; a nil pool means the resource
// is missing and the request is provided nothing
func (c Config) resolve(req *entities.ResourceRequest) (repositories.ResourceType, error) {
	pool, err := c.Registry.Resolve(req.ResourceTypeName, c.OnMissing)
	if err != nil {
		return nil, entities.NewConfigurationError(req.ActivityName, req.ResourceTypeName, err.Error())
	}
	if pool == nil {
		req.Provide(0, 0)
	}
	return pool, nil
}

// New creates the arbitrator for a policy
func New(policy Policy, config Config) (protocol.Arbitrator, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("arbitrator requires a resource registry")
	}
	switch policy {
	case PolicyFirstCome, "":
		return &FirstCome{config: config}, nil
	case PolicyProportional:
		return &Proportional{config: config}, nil
	default:
		return nil, fmt.Errorf("unknown arbitration policy %q", policy)
	}
}

// FirstCome serves requests in the order they were made. Earlier
// activities in configuration order are served in full before later ones
// see any of the pool.
type FirstCome struct {
	config Config
}

var _ protocol.Arbitrator = (*FirstCome)(nil)

// NewFirstCome creates a FirstCome arbitrator
func NewFirstCome(config Config) *FirstCome {
	return &FirstCome{config: config}
}

func (a *FirstCome) Arbitrate(ctx context.Context, requests entities.RequestList) error {
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return err
		}
		pool, err := a.config.resolve(req)
		if err != nil {
			return err
		}
		if pool == nil {
			continue
		}
		pool.Remove(req, req.Required)
		if err := a.config.transmute(req); err != nil {
			return err
		}
	}
	return nil
}

// Proportional shares a scarce pool among all of its requests in
// proportion to what each required
type Proportional struct {
	config Config
}

var _ protocol.Arbitrator = (*Proportional)(nil)

// NewProportional creates a Proportional arbitrator
func NewProportional(config Config) *Proportional {
	return &Proportional{config: config}
}

func (a *Proportional) Arbitrate(ctx context.Context, requests entities.RequestList) error {
	var order []string
	byPool := make(map[string]entities.RequestList)
	for _, req := range requests {
		if _, ok := byPool[req.ResourceTypeName]; !ok {
			order = append(order, req.ResourceTypeName)
		}
		byPool[req.ResourceTypeName] = append(byPool[req.ResourceTypeName], req)
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		group := byPool[name]
		pool, err := a.config.resolve(group[0])
		if err != nil {
			return err
		}
		if pool == nil {
			for _, req := range group[1:] {
				req.Provide(0, 0)
			}
			continue
		}

		total := 0.0
		for _, req := range group {
			total += req.Required
		}
		available := supply(pool)
		share := 1.0
		if total > available && total > 0 {
			share = available / total
		}
		for _, req := range group {
			pool.Remove(req, req.Required*share)
			// every request in the group saw the same pool
			req.Available = available
		}
		for _, req := range group {
			if err := a.config.transmute(req); err != nil {
				return err
			}
		}
	}
	return nil
}
