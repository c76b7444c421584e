// Package metrics exposes simulation outcomes as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/clem/pkg/application/dto"
	"github.com/vsinha/clem/pkg/domain/entities"
)

const subsystem = "simulation"

// Collector records activity outcomes and shortfalls. It implements the
// runner's Recorder.
type Collector struct {
	outcomes        *prometheus.CounterVec
	shortfalls      *prometheus.CounterVec
	shortfallAmount *prometheus.CounterVec
	timesteps       prometheus.Counter
	balances        *prometheus.GaugeVec
}

// NewCollector creates a collector and registers it with registry
func NewCollector(namespace string, registry prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "activity_outcomes_total",
				Help:      "Activity outcomes by activity and status",
			},
			[]string{"activity", "status"},
		),
		shortfalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resource_shortfalls_total",
				Help:      "Requests that received less than required",
			},
			[]string{"activity", "resource"},
		),
		shortfallAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resource_shortfall_amount_total",
				Help:      "Amount requested but not provided",
			},
			[]string{"activity", "resource"},
		),
		timesteps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "timesteps_total",
				Help:      "Completed timesteps",
			},
		),
		balances: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resource_balance",
				Help:      "Resource amount at the end of the run",
			},
			[]string{"resource"},
		),
	}

	if registry != nil {
		for _, collector := range []prometheus.Collector{
			c.outcomes, c.shortfalls, c.shortfallAmount, c.timesteps, c.balances,
		} {
			if err := registry.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// RecordOutcome counts one activity outcome
func (c *Collector) RecordOutcome(activity string, status entities.ActivityStatus) {
	c.outcomes.WithLabelValues(activity, status.String()).Inc()
}

// RecordShortfall counts one short request and its missing amount
func (c *Collector) RecordShortfall(activity, resource string, shortfall float64) {
	c.shortfalls.WithLabelValues(activity, resource).Inc()
	if shortfall > 0 {
		c.shortfallAmount.WithLabelValues(activity, resource).Add(shortfall)
	}
}

// ObserveRun records run-level totals once a run has finished
func (c *Collector) ObserveRun(result *dto.RunResult) {
	if result == nil {
		return
	}
	c.timesteps.Add(float64(result.Timesteps))
	for resource, amount := range result.Balances {
		c.balances.WithLabelValues(resource).Set(amount)
	}
}
