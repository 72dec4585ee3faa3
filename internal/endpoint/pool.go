// Package endpoint provides the registry of capacity-limited compute
// endpoints that tasks execute against. The Pool owns all mutable endpoint
// state: acquire, release, and bounded waiting all run under a single lock
// with a condition variable for wait/notify.
package endpoint

import (
	"context"
	"sync"
	"time"

	"github.com/hollis-m/relay/internal/errors"
	"github.com/hollis-m/relay/internal/event"
	"github.com/hollis-m/relay/internal/logging"
)

// Config describes one endpoint supplied at startup.
type Config struct {
	Address  string `json:"address" yaml:"address" mapstructure:"address"`
	Capacity int    `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}

// Endpoint is a capacity-limited compute resource. Address and Capacity are
// immutable; load and the cumulative counters are owned by the Pool and
// mutated only under its lock.
type Endpoint struct {
	Address  string
	Capacity int

	load          int
	tasksExecuted int
	failures      int
}

// EndpointStatus is a read-only snapshot of one endpoint's state.
type EndpointStatus struct {
	Address       string `json:"address"`
	Capacity      int    `json:"capacity"`
	Load          int    `json:"load"`
	TasksExecuted int    `json:"tasks_executed"`
	Failures      int    `json:"failures"`
}

// Snapshot is a read-only view of the whole pool for observability
// consumers.
type Snapshot struct {
	Total         int              `json:"total"`
	Available     int              `json:"available"` // endpoints with spare capacity
	TotalLoad     int              `json:"total_load"`
	TotalCapacity int              `json:"total_capacity"`
	Endpoints     []EndpointStatus `json:"endpoints"`
}

// Pool is the endpoint registry. All methods are safe for concurrent use;
// a single mutex guards every endpoint mutation.
type Pool struct {
	mu        sync.Mutex
	cond      *sync.Cond
	endpoints []*Endpoint // registration order, used for tie-breaks

	bus    *event.Bus
	logger *logging.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithBus wires an event bus; the pool publishes acquire/release events.
func WithBus(bus *event.Bus) Option {
	return func(p *Pool) { p.bus = bus }
}

// WithLogger wires a structured logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// NewPool creates a Pool from endpoint configurations. Entries with a
// non-positive capacity default to 1. A pool may be constructed empty;
// acquiring from it fails with ErrEmptyPool.
func NewPool(configs []Config, opts ...Option) *Pool {
	p := &Pool{
		endpoints: make([]*Endpoint, 0, len(configs)),
	}
	p.cond = sync.NewCond(&p.mu)

	for _, cfg := range configs {
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = 1
		}
		p.endpoints = append(p.endpoints, &Endpoint{
			Address:  cfg.Address,
			Capacity: capacity,
		})
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.NopLogger()
	}
	return p
}

// Size returns the number of configured endpoints.
func (p *Pool) Size() int {
	return len(p.endpoints)
}

// Acquire returns the endpoint with the lowest current load among those
// with spare capacity, incrementing its load. Ties break by registration
// order. Returns nil if every endpoint is at capacity (or the pool is
// empty); it never blocks.
func (p *Pool) Acquire() *Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquireLocked()
}

// acquireLocked selects and loads the least-loaded endpoint.
// Caller must hold p.mu.
func (p *Pool) acquireLocked() *Endpoint {
	var best *Endpoint
	for _, ep := range p.endpoints {
		if ep.load >= ep.Capacity {
			continue
		}
		// Strict < keeps the first-registered endpoint on ties.
		if best == nil || ep.load < best.load {
			best = ep
		}
	}
	if best == nil {
		return nil
	}

	best.load++
	if p.bus != nil {
		p.bus.Publish(event.NewEndpointAcquiredEvent(best.Address, best.load, best.Capacity))
	}
	p.logger.Debug("endpoint acquired",
		"endpoint", best.Address, "load", best.load, "capacity", best.Capacity)
	return best
}

// Release returns an endpoint slot to the pool, records the execution in
// the endpoint's cumulative counters, and wakes one waiter.
func (p *Pool) Release(ep *Endpoint, success bool) {
	if ep == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ep.load > 0 {
		ep.load--
	}
	ep.tasksExecuted++
	if !success {
		ep.failures++
	}

	if p.bus != nil {
		p.bus.Publish(event.NewEndpointReleasedEvent(ep.Address, ep.load, success))
	}
	p.logger.Debug("endpoint released",
		"endpoint", ep.Address, "load", ep.load, "success", success)

	p.cond.Signal()
}

// WaitForAvailable blocks until an endpoint has spare capacity, the timeout
// elapses, or the context is cancelled. On an empty pool it fails
// immediately with ErrEmptyPool rather than waiting for a release that can
// never come.
func (p *Pool) WaitForAvailable(ctx context.Context, timeout time.Duration) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.endpoints) == 0 {
		return nil, errors.NewPoolError("pool has no endpoints", errors.ErrEmptyPool).
			WithEndpointCount(0)
	}

	deadline := time.Now().Add(timeout)

	// Wake blocked waiters when the deadline passes or the context is
	// cancelled, so they can re-evaluate instead of sleeping forever.
	// The wakers take the mutex first: an unlocked Broadcast could fire
	// between a waiter's deadline check and cond.Wait and be lost.
	wake := func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	}
	timer := time.AfterFunc(timeout, wake)
	defer timer.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			wake()
		case <-done:
		}
	}()

	for {
		if ep := p.acquireLocked(); ep != nil {
			return ep, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, errors.NewPoolError("no endpoint became available", errors.ErrEndpointTimeout).
				WithEndpointCount(len(p.endpoints)).
				WithDeadline(timeout)
		}
		p.cond.Wait()
	}
}

// Status returns a read-only snapshot of the pool.
func (p *Pool) Status() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Total:     len(p.endpoints),
		Endpoints: make([]EndpointStatus, 0, len(p.endpoints)),
	}
	for _, ep := range p.endpoints {
		if ep.load < ep.Capacity {
			snap.Available++
		}
		snap.TotalLoad += ep.load
		snap.TotalCapacity += ep.Capacity
		snap.Endpoints = append(snap.Endpoints, EndpointStatus{
			Address:       ep.Address,
			Capacity:      ep.Capacity,
			Load:          ep.load,
			TasksExecuted: ep.tasksExecuted,
			Failures:      ep.failures,
		})
	}
	return snap
}
