// Package metrics exports feed activity to Prometheus.
package metrics

import (
	"errors"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/imagefeed/types"
)

// Namespace prefixes every collector.
const Namespace = "imagefeed"

// Prometheus implements types.Metrics with counters.
type Prometheus struct {
	events     *promclient.CounterVec
	dispatches *promclient.CounterVec
	failures   *promclient.CounterVec
	malformed  *promclient.CounterVec
}

var _ types.Metrics = (*Prometheus)(nil)

// New registers the collectors on reg (the default registerer when nil).
// Collectors that are already registered are reused, so several feeds in
// one process share them.
func New(reg promclient.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	p := &Prometheus{
		events: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and lifecycle events by type.",
		}, []string{"event"}),
		dispatches: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: Namespace,
			Name:      "query_attempts_total",
			Help:      "Query attempts dispatched to a source.",
		}, []string{"source"}),
		failures: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: Namespace,
			Name:      "query_failures_total",
			Help:      "Loads that ended in the failed state, by error kind.",
		}, []string{"kind"}),
		malformed: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: Namespace,
			Name:      "malformed_records_total",
			Help:      "Source items dropped by the normalizer.",
		}, []string{"source"}),
	}

	var err error
	if p.events, err = register(reg, p.events); err != nil {
		return nil, err
	}
	if p.dispatches, err = register(reg, p.dispatches); err != nil {
		return nil, err
	}
	if p.failures, err = register(reg, p.failures); err != nil {
		return nil, err
	}
	if p.malformed, err = register(reg, p.malformed); err != nil {
		return nil, err
	}
	return p, nil
}

// MustNew is New that panics on a registration conflict.
func MustNew(reg promclient.Registerer) *Prometheus {
	p, err := New(reg)
	if err != nil {
		panic(err)
	}
	return p
}

func register[C promclient.Collector](reg promclient.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are promclient.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

func (p *Prometheus) Hit()      { p.events.WithLabelValues("hit").Inc() }
func (p *Prometheus) Miss()     { p.events.WithLabelValues("miss").Inc() }
func (p *Prometheus) Stale()    { p.events.WithLabelValues("stale").Inc() }
func (p *Prometheus) Eviction() { p.events.WithLabelValues("eviction").Inc() }
func (p *Prometheus) Expire()   { p.events.WithLabelValues("expire").Inc() }
func (p *Prometheus) Refresh()  { p.events.WithLabelValues("refresh").Inc() }

func (p *Prometheus) Dispatch(source string) {
	p.dispatches.WithLabelValues(source).Inc()
}

func (p *Prometheus) Failure(kind types.ErrorKind) {
	p.failures.WithLabelValues(kind.String()).Inc()
}

func (p *Prometheus) Malformed(source string, n int) {
	if n <= 0 {
		return
	}
	p.malformed.WithLabelValues(source).Add(float64(n))
}
