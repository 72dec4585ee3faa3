package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hollis-m/relay/internal/endpoint"
	"github.com/hollis-m/relay/internal/event"
	"github.com/hollis-m/relay/internal/executor"
	"github.com/hollis-m/relay/internal/logging"
	"github.com/hollis-m/relay/internal/task"
)

// DefaultMaxConcurrent is the default plan-global bound on simultaneous
// executor invocations.
const DefaultMaxConcurrent = 3

// DefaultAcquireTimeout is the default bound on waiting for an endpoint.
const DefaultAcquireTimeout = 30 * time.Second

// Dispatcher executes waves of ready tasks. One Dispatcher serves an
// entire plan run, so its concurrency gate spans all waves.
type Dispatcher struct {
	pool           *endpoint.Pool
	registry       *executor.Registry
	gate           *gate
	acquireTimeout time.Duration
	bus            *event.Bus
	logger         *logging.Logger
}

// DispatcherConfig holds required dependencies for a Dispatcher.
type DispatcherConfig struct {
	Pool     *endpoint.Pool
	Registry *executor.Registry

	// MaxConcurrent bounds simultaneous executor invocations across the
	// whole plan. Zero uses DefaultMaxConcurrent; negative means unlimited.
	MaxConcurrent int

	// AcquireTimeout bounds how long a dispatched task waits for an
	// endpoint. Zero uses DefaultAcquireTimeout.
	AcquireTimeout time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherBus wires an event bus for task lifecycle events.
func WithDispatcherBus(bus *event.Bus) DispatcherOption {
	return func(d *Dispatcher) { d.bus = bus }
}

// WithDispatcherLogger wires a structured logger.
func WithDispatcherLogger(logger *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig, opts ...DispatcherOption) (*Dispatcher, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("dispatcher: Pool is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("dispatcher: Registry is required")
	}

	maxConcurrent := cfg.MaxConcurrent
	switch {
	case maxConcurrent == 0:
		maxConcurrent = DefaultMaxConcurrent
	case maxConcurrent < 0:
		maxConcurrent = 0 // unlimited
	}

	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout == 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	d := &Dispatcher{
		pool:           cfg.Pool,
		registry:       cfg.Registry,
		gate:           newGate(maxConcurrent),
		acquireTimeout: acquireTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NopLogger()
	}
	return d, nil
}

// RunWave dispatches every task in the wave concurrently and waits for all
// of them to reach a terminal state before returning. Each task's failure
// is isolated: an executor error, endpoint timeout, or panic fails that
// task alone and never aborts its siblings.
//
// completed maps already-completed task IDs to their results; each task
// receives its own dependencies' results as executor context.
func (d *Dispatcher) RunWave(ctx context.Context, wave []*task.Task, completed map[string]string) []WaveResult {
	results := make([]WaveResult, len(wave))

	var wg sync.WaitGroup
	for i, t := range wave {
		wg.Add(1)
		go func(i int, t *task.Task) {
			defer wg.Done()
			results[i] = WaveResult{Task: t, Success: d.runTask(ctx, t, completed)}
		}(i, t)
	}
	wg.Wait()

	return results
}

// runTask executes a single task: gate slot, endpoint, executor
// invocation, cleanup. Returns true if the task completed.
func (d *Dispatcher) runTask(ctx context.Context, t *task.Task, completed map[string]string) (success bool) {
	logger := d.logger.WithTask(t.ID)

	// A panicking executor fails its own task, nothing else.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r)
			d.failTask(t, fmt.Sprintf("panic: %v", r))
			success = false
		}
	}()

	if err := d.gate.Acquire(ctx); err != nil {
		d.failTask(t, fmt.Sprintf("waiting for concurrency slot: %v", err))
		return false
	}
	defer d.gate.Release()

	ep, err := d.pool.WaitForAvailable(ctx, d.acquireTimeout)
	if err != nil {
		logger.Warn("endpoint acquire failed", "error", err)
		d.failTask(t, err.Error())
		return false
	}

	// Release runs on every path out of the invocation, with the final
	// success flag for the pool's counters.
	defer func() {
		d.pool.Release(ep, success)
	}()

	if err := t.Start(ep.Address); err != nil {
		logger.Error("task start rejected", "error", err)
		d.failTask(t, err.Error())
		return false
	}
	logger.Info("task started", "executor", t.ExecutorType, "endpoint", ep.Address)
	if d.bus != nil {
		d.bus.Publish(event.NewTaskStartedEvent(t.ID, t.ExecutorType, ep.Address))
	}

	exec, err := d.registry.Resolve(t.ExecutorType)
	if err != nil {
		d.failTask(t, err.Error())
		return false
	}

	result, err := exec.Execute(ctx, executor.Request{
		TaskID:      t.ID,
		Description: t.Description,
		Context:     dependencyContext(t, completed),
	})
	if err != nil {
		logger.Warn("task failed", "error", err)
		d.failTask(t, err.Error())
		return false
	}

	if err := t.Complete(result); err != nil {
		logger.Error("task completion rejected", "error", err)
		return false
	}
	logger.Info("task completed", "duration", t.Duration())
	if d.bus != nil {
		d.bus.Publish(event.NewTaskCompletedEvent(t.ID, t.Duration()))
	}
	return true
}

// failTask moves a task to Failed and publishes the failure. A task that
// is already terminal is left untouched.
func (d *Dispatcher) failTask(t *task.Task, errMsg string) {
	if t.Status.IsTerminal() {
		return
	}
	if err := t.Fail(errMsg); err != nil {
		d.logger.Error("failed to mark task failed", "task", t.ID, "error", err)
		return
	}
	if d.bus != nil {
		d.bus.Publish(event.NewTaskFailedEvent(t.ID, errMsg))
	}
}

// dependencyContext collects the results of t's completed dependencies.
func dependencyContext(t *task.Task, completed map[string]string) map[string]string {
	if len(t.DependsOn) == 0 {
		return nil
	}
	deps := make(map[string]string, len(t.DependsOn))
	for _, dep := range t.DependsOn {
		if result, ok := completed[dep]; ok {
			deps[dep] = result
		}
	}
	return deps
}
