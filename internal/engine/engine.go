// Package engine wraps the full delegation pipeline: planning, validation
// with bounded retry-and-feedback, wave scheduling, and dispatch. Any
// failure the pipeline cannot classify falls back to a single-shot direct
// execution of the original request.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hollis-m/relay/internal/endpoint"
	"github.com/hollis-m/relay/internal/errors"
	"github.com/hollis-m/relay/internal/event"
	"github.com/hollis-m/relay/internal/executor"
	"github.com/hollis-m/relay/internal/logging"
	"github.com/hollis-m/relay/internal/plan"
	"github.com/hollis-m/relay/internal/scheduler"
	"github.com/hollis-m/relay/internal/task"
)

// DefaultPlanRetries is the number of additional planning attempts after a
// validator rejection.
const DefaultPlanRetries = 2

// Planner is the external collaborator that decomposes a request into a
// plan. feedback is empty on the first attempt; on retries it carries the
// validator's rejection reason from the previous attempt.
type Planner interface {
	Plan(ctx context.Context, request, feedback string) (*plan.Plan, error)
}

// PlannerFunc adapts a plain function to the Planner interface.
type PlannerFunc func(ctx context.Context, request, feedback string) (*plan.Plan, error)

// Plan implements Planner.
func (f PlannerFunc) Plan(ctx context.Context, request, feedback string) (*plan.Plan, error) {
	return f(ctx, request, feedback)
}

// DirectExecutor is the single-shot fallback capability: it answers the
// original request without any task decomposition.
type DirectExecutor interface {
	ExecuteDirect(ctx context.Context, request string) (string, error)
}

// DirectFunc adapts a plain function to the DirectExecutor interface.
type DirectFunc func(ctx context.Context, request string) (string, error)

// ExecuteDirect implements DirectExecutor.
func (f DirectFunc) ExecuteDirect(ctx context.Context, request string) (string, error) {
	return f(ctx, request)
}

// Result is the aggregate outcome of one request.
type Result struct {
	Request   string       `json:"request"`
	PlanID    string       `json:"plan_id,omitempty"`
	Tasks     []*task.Task `json:"tasks,omitempty"`
	Completed int          `json:"completed"`
	Failed    int          `json:"failed"`
	Blocked   int          `json:"blocked"`

	// Fallback reports that delegated execution was abandoned and Answer
	// came from the direct-execution capability instead.
	Fallback bool   `json:"fallback"`
	Answer   string `json:"answer,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Config holds required dependencies and settings for an Engine.
type Config struct {
	Planner  Planner
	Direct   DirectExecutor
	Registry *executor.Registry
	Pool     *endpoint.Pool

	// PlanRetries is the number of extra planning attempts after a
	// rejection. Zero uses DefaultPlanRetries; negative means none.
	PlanRetries int

	// MaxConcurrent bounds simultaneous executor invocations for the
	// whole plan. Zero uses the dispatcher default.
	MaxConcurrent int

	// AcquireTimeout bounds each task's wait for an endpoint.
	// Zero uses the dispatcher default.
	AcquireTimeout time.Duration

	// MinTasks and MaxTasks bound the plan's task count.
	// Values below 1 use the validator defaults.
	MinTasks int
	MaxTasks int
}

// Engine runs requests through the delegation pipeline.
type Engine struct {
	cfg       Config
	validator *plan.Validator
	bus       *event.Bus
	logger    *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus wires an event bus for pipeline events.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithLogger wires a structured logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine. The executor registry's type tags become the plan
// validator's whitelist.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Planner == nil {
		return nil, fmt.Errorf("engine: Planner is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine: Registry is required")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("engine: Pool is required")
	}

	if cfg.PlanRetries == 0 {
		cfg.PlanRetries = DefaultPlanRetries
	} else if cfg.PlanRetries < 0 {
		cfg.PlanRetries = 0
	}

	e := &Engine{
		cfg:       cfg,
		validator: plan.NewValidator(cfg.Registry.Types()).WithTaskBounds(cfg.MinTasks, cfg.MaxTasks),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NopLogger()
	}
	return e, nil
}

// Run executes one request end to end. An empty endpoint pool is a
// configuration defect and fails immediately. Exhausting planning retries
// is fatal and surfaces to the caller. Every other pipeline failure,
// including recovered panics, triggers the direct-execution fallback;
// partial task results from the failed attempt are discarded.
func (e *Engine) Run(ctx context.Context, request string) (*Result, error) {
	start := time.Now()

	if e.cfg.Pool.Size() == 0 {
		return nil, errors.NewPoolError("cannot run with an empty endpoint pool", errors.ErrEmptyPool).
			WithEndpointCount(0)
	}

	result, err := e.runDelegated(ctx, request)
	if err == nil {
		result.Duration = time.Since(start)
		return result, nil
	}
	if errors.Is(err, errors.ErrPlanRetriesExhausted) {
		return nil, err
	}

	e.logger.Warn("delegated execution failed, falling back to direct execution", "error", err)
	if e.bus != nil {
		e.bus.Publish(event.NewFallbackTriggeredEvent(request, err.Error()))
	}

	if e.cfg.Direct == nil {
		return nil, fmt.Errorf("pipeline failed with no fallback executor: %w", err)
	}
	answer, directErr := e.cfg.Direct.ExecuteDirect(ctx, request)
	if directErr != nil {
		return nil, fmt.Errorf("fallback execution failed: %w", directErr)
	}

	return &Result{
		Request:  request,
		Fallback: true,
		Answer:   answer,
		Duration: time.Since(start),
	}, nil
}

// runDelegated runs the plan/validate/schedule/dispatch path. Panics from
// any stage are recovered into an error so the caller can fall back.
func (e *Engine) runDelegated(ctx context.Context, request string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	p, err := e.planWithRetry(ctx, request)
	if err != nil {
		return nil, err
	}

	e.logger.Info("plan accepted",
		"plan", p.ID, "tasks", len(p.Tasks), "order", scheduler.TopologicalOrder(p))

	dispatcher, err := scheduler.NewDispatcher(scheduler.DispatcherConfig{
		Pool:           e.cfg.Pool,
		Registry:       e.cfg.Registry,
		MaxConcurrent:  e.cfg.MaxConcurrent,
		AcquireTimeout: e.cfg.AcquireTimeout,
	}, scheduler.WithDispatcherBus(e.bus), scheduler.WithDispatcherLogger(e.logger))
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(p, dispatcher,
		scheduler.WithBus(e.bus), scheduler.WithLogger(e.logger.WithPlan(p.ID)))
	tasks := sched.Run(ctx)

	result = &Result{
		Request: request,
		PlanID:  p.ID,
		Tasks:   tasks,
	}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusCompleted:
			result.Completed++
		case task.StatusFailed:
			result.Failed++
		case task.StatusBlocked:
			result.Blocked++
		}
	}
	return result, nil
}

// planWithRetry invokes the planner until a plan passes validation or the
// retry bound is exhausted. Each rejection's reason is appended as feedback
// to the next planning request.
func (e *Engine) planWithRetry(ctx context.Context, request string) (*plan.Plan, error) {
	maxAttempts := 1 + e.cfg.PlanRetries

	feedback := ""
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := e.cfg.Planner.Plan(ctx, request, feedback)
		if err != nil {
			return nil, fmt.Errorf("planner failed on attempt %d: %w", attempt, err)
		}

		verr := e.validator.Validate(p)
		if verr == nil {
			e.logger.Info("plan validated", "plan", p.ID, "attempt", attempt)
			if e.bus != nil {
				e.bus.Publish(event.NewPlanValidatedEvent(p.ID, len(p.Tasks), attempt))
			}
			return p, nil
		}

		reason := verr.Error()
		var planErr *errors.PlanError
		if errors.As(verr, &planErr) {
			reason = planErr.Reason()
		}
		e.logger.Warn("plan rejected", "attempt", attempt, "reason", reason)
		if e.bus != nil {
			e.bus.Publish(event.NewPlanRejectedEvent(planID(p), reason, attempt))
		}

		feedback = reason
		lastErr = verr
	}

	return nil, fmt.Errorf("%w after %d attempts: %v",
		errors.ErrPlanRetriesExhausted, maxAttempts, lastErr)
}

func planID(p *plan.Plan) string {
	if p == nil {
		return ""
	}
	return p.ID
}
