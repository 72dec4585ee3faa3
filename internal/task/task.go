// Package task defines the unit of work executed by the scheduler and its
// status machine. Tasks are created from a validated plan, mutated only by
// the scheduler and dispatcher during a run, and read-only once terminal.
package task

import (
	"fmt"
	"time"

	"github.com/hollis-m/relay/internal/errors"
)

// Status represents the current state of a task.
type Status string

const (
	// StatusPending indicates the task has not started yet.
	StatusPending Status = "pending"

	// StatusRunning indicates the task is executing on an endpoint.
	StatusRunning Status = "running"

	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the task's executor invocation failed.
	StatusFailed Status = "failed"

	// StatusBlocked indicates the task can never run because a direct or
	// indirect dependency failed.
	StatusBlocked Status = "blocked"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusBlocked
}

// Task is a single unit of work in a plan run. Status transitions are
// Pending→Running→{Completed,Failed} or Pending→Blocked; all other
// transitions are rejected. A task never re-enters Pending.
type Task struct {
	// ID is unique within a plan.
	ID string `json:"id"`

	// Description is the prompt handed to the executor capability.
	Description string `json:"description"`

	// ExecutorType selects the executor capability for this task.
	ExecutorType string `json:"executor_type"`

	// Status is the current execution state.
	Status Status `json:"status"`

	// DependsOn lists the IDs of tasks that must complete first.
	DependsOn []string `json:"depends_on"`

	// Result holds the executor's output. Present iff Completed.
	Result string `json:"result,omitempty"`

	// Error holds the failure message. Present iff Failed.
	Error string `json:"error,omitempty"`

	// Endpoint is the address of the endpoint assigned on start.
	Endpoint string `json:"endpoint,omitempty"`

	// CreatedAt is when the task entity was created from the plan.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the task began running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the task reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// New creates a pending task.
func New(id, description, executorType string, dependsOn []string) *Task {
	if dependsOn == nil {
		dependsOn = []string{}
	}
	return &Task{
		ID:           id,
		Description:  description,
		ExecutorType: executorType,
		Status:       StatusPending,
		DependsOn:    dependsOn,
		CreatedAt:    time.Now(),
	}
}

// Start transitions the task from Pending to Running, recording the
// assigned endpoint address.
func (t *Task) Start(endpoint string) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot start task %s from %s",
			errors.ErrInvalidTransition, t.ID, t.Status)
	}
	now := time.Now()
	t.Status = StatusRunning
	t.Endpoint = endpoint
	t.StartedAt = &now
	return nil
}

// Complete transitions the task from Running to Completed with its result.
func (t *Task) Complete(result string) error {
	if t.Status != StatusRunning {
		return fmt.Errorf("%w: cannot complete task %s from %s",
			errors.ErrInvalidTransition, t.ID, t.Status)
	}
	now := time.Now()
	t.Status = StatusCompleted
	t.Result = result
	t.CompletedAt = &now
	return nil
}

// Fail transitions the task to Failed with an error payload. A task may
// fail from Pending (endpoint acquire timed out before it started) or
// from Running (the executor invocation failed).
func (t *Task) Fail(errMsg string) error {
	if t.Status != StatusRunning && t.Status != StatusPending {
		return fmt.Errorf("%w: cannot fail task %s from %s",
			errors.ErrInvalidTransition, t.ID, t.Status)
	}
	now := time.Now()
	t.Status = StatusFailed
	t.Error = errMsg
	t.CompletedAt = &now
	return nil
}

// Block transitions the task from Pending to Blocked. Blocked tasks never
// ran; they carry no result, error, or endpoint.
func (t *Task) Block() error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot block task %s from %s",
			errors.ErrInvalidTransition, t.ID, t.Status)
	}
	now := time.Now()
	t.Status = StatusBlocked
	t.CompletedAt = &now
	return nil
}

// Duration returns the wall time from start to terminal state, or zero if
// the task never ran or is still running.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}

// DependsOnTask reports whether the task directly depends on the given ID.
func (t *Task) DependsOnTask(id string) bool {
	for _, dep := range t.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the task. The dispatcher hands clones to
// aggregation consumers so they can never mutate scheduler-owned state.
func (t *Task) Clone() *Task {
	cp := *t
	cp.DependsOn = make([]string, len(t.DependsOn))
	copy(cp.DependsOn, t.DependsOn)
	if t.StartedAt != nil {
		started := *t.StartedAt
		cp.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		cp.CompletedAt = &completed
	}
	return &cp
}
