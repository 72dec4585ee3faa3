// Package scheduler orders a validated plan's tasks and runs them to
// completion in dependency waves. A wave is the maximal set of pending
// tasks whose dependencies have all completed; waves execute concurrently
// under a plan-global concurrency gate with a hard barrier between waves.
package scheduler

import (
	"context"

	"github.com/hollis-m/relay/internal/event"
	"github.com/hollis-m/relay/internal/logging"
	"github.com/hollis-m/relay/internal/plan"
	"github.com/hollis-m/relay/internal/task"
)

// TopologicalOrder returns a deterministic total order of the plan's task
// IDs via Kahn's algorithm: repeatedly emit a zero-in-degree task,
// decrementing the in-degree of its dependents. Ties break by plan order.
// Used for display and logging only; execution follows waves.
//
// If the plan contains a cycle the returned order is partial. Validation
// rejects cyclic plans before scheduling ever sees them.
func TopologicalOrder(p *plan.Plan) []string {
	inDegree := make(map[string]int, len(p.Tasks))
	known := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		known[t.ID] = true
	}
	for _, t := range p.Tasks {
		for _, dep := range t.DependsOn {
			if known[dep] {
				inDegree[t.ID]++
			}
		}
	}

	emitted := make(map[string]bool, len(p.Tasks))
	order := make([]string, 0, len(p.Tasks))
	for len(order) < len(p.Tasks) {
		progressed := false
		// Scanning plan order each round keeps ties in plan order.
		for _, t := range p.Tasks {
			if emitted[t.ID] || inDegree[t.ID] > 0 {
				continue
			}
			emitted[t.ID] = true
			order = append(order, t.ID)
			progressed = true
			for _, u := range p.Tasks {
				if emitted[u.ID] {
					continue
				}
				// Decrement once per edge to mirror the counting loop above.
				for _, dep := range u.DependsOn {
					if dep == t.ID {
						inDegree[u.ID]--
					}
				}
			}
			break
		}
		if !progressed {
			break
		}
	}
	return order
}

// WaveRunner executes one wave of ready tasks and reports per-task success.
// The production implementation is the Dispatcher.
type WaveRunner interface {
	RunWave(ctx context.Context, wave []*task.Task, completed map[string]string) []WaveResult
}

// WaveResult is one task's outcome from a wave.
type WaveResult struct {
	Task    *task.Task
	Success bool
}

// Scheduler runs a plan's task graph to completion. It owns the task
// entities for the duration of the run; callers receive clones.
type Scheduler struct {
	tasks  map[string]*task.Task
	order  []string // plan order
	runner WaveRunner
	bus    *event.Bus
	logger *logging.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBus wires an event bus for wave and blocked-task events.
func WithBus(bus *event.Bus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// WithLogger wires a structured logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New creates a Scheduler for a validated plan. Task entities are created
// here; a rejected plan never reaches this point.
func New(p *plan.Plan, runner WaveRunner, opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:  make(map[string]*task.Task, len(p.Tasks)),
		order:  p.TaskIDs(),
		runner: runner,
	}
	for _, spec := range p.Tasks {
		s.tasks[spec.ID] = task.New(spec.ID, spec.Description, spec.ExecutorType, spec.DependsOn)
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	return s
}

// Run executes the task graph wave by wave and returns every task in plan
// order, each in a terminal state. The wave barrier is hard: no task of
// wave N+1 starts before every task of wave N is terminal.
//
// Failure propagates only through dependency edges: a task whose direct or
// indirect dependency failed never becomes ready and is swept to Blocked
// once no further progress is possible.
func (s *Scheduler) Run(ctx context.Context) []*task.Task {
	completed := make(map[string]string) // task ID -> result
	pending := make(map[string]bool, len(s.tasks))
	for id := range s.tasks {
		pending[id] = true
	}

	waveIndex := 0
	for len(pending) > 0 {
		wave := s.readyTasks(pending, completed)

		if len(wave) == 0 {
			// No pending task can ever become ready: every remaining
			// task depends, directly or transitively, on a failure.
			s.blockPending(pending)
			break
		}

		waveIDs := make([]string, len(wave))
		for i, t := range wave {
			waveIDs[i] = t.ID
		}
		s.logger.Info("wave started", "wave", waveIndex, "tasks", waveIDs)
		if s.bus != nil {
			s.bus.Publish(event.NewWaveStartedEvent(waveIndex, waveIDs))
		}

		results := s.runner.RunWave(ctx, wave, cloneResults(completed))

		var succeeded, waveFailed []string
		for _, res := range results {
			delete(pending, res.Task.ID)
			if res.Success {
				completed[res.Task.ID] = res.Task.Result
				succeeded = append(succeeded, res.Task.ID)
			} else {
				waveFailed = append(waveFailed, res.Task.ID)
			}
		}

		s.logger.Info("wave completed",
			"wave", waveIndex, "succeeded", len(succeeded), "failed", len(waveFailed))
		if s.bus != nil {
			s.bus.Publish(event.NewWaveCompletedEvent(waveIndex, succeeded, waveFailed))
		}
		waveIndex++
	}

	return s.Tasks()
}

// readyTasks returns the pending tasks whose dependencies have all
// completed, in plan order.
func (s *Scheduler) readyTasks(pending map[string]bool, completed map[string]string) []*task.Task {
	var ready []*task.Task
	for _, id := range s.order {
		if !pending[id] {
			continue
		}
		t := s.tasks[id]
		allDone := true
		for _, dep := range t.DependsOn {
			if _, ok := completed[dep]; !ok {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, t)
		}
	}
	return ready
}

// blockPending marks every remaining pending task Blocked.
func (s *Scheduler) blockPending(pending map[string]bool) {
	for _, id := range s.order {
		if !pending[id] {
			continue
		}
		t := s.tasks[id]
		if err := t.Block(); err != nil {
			s.logger.Warn("failed to block task", "task", id, "error", err)
			continue
		}
		delete(pending, id)
		s.logger.Info("task blocked by failed dependency", "task", id)
		if s.bus != nil {
			s.bus.Publish(event.NewTaskBlockedEvent(id))
		}
	}
}

// Tasks returns clones of all task entities in plan order.
func (s *Scheduler) Tasks() []*task.Task {
	tasks := make([]*task.Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id].Clone())
	}
	return tasks
}

func cloneResults(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
