// Package errors provides centralized error definitions and error handling
// utilities for the relay codebase. It defines domain-specific errors for
// plan validation, the endpoint pool, and task execution, along with
// classification helpers used by the retry and fallback layers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - PlanError: errors from plan validation and planning retries
//   - PoolError: errors from the endpoint pool (timeouts, misconfiguration)
//   - TaskError: errors from a single task's execution
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewPlanError("dependency cycle detected", errors.ErrCyclicDependency)
//	err = err.WithTaskID("task-3")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrCyclicDependency) { ... }
//
//	var planErr *errors.PlanError
//	if errors.As(err, &planErr) { ... }
//
//	if errors.IsPlanRejection(err) { ... } // retryable with planner feedback
//	if errors.IsFatal(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Plan validation sentinel errors
var (
	// ErrPlanStructure indicates the plan is structurally invalid
	// (empty, too many tasks, or missing required task fields).
	ErrPlanStructure = New("invalid plan structure")
	// ErrInvalidExecutorType indicates a task names an executor type that
	// is not in the configured whitelist.
	ErrInvalidExecutorType = New("invalid executor type")
	// ErrCyclicDependency indicates the plan's dependency graph has a cycle.
	ErrCyclicDependency = New("dependency cycle detected")
	// ErrUnknownDependency indicates a task depends on an ID not in the plan.
	ErrUnknownDependency = New("unknown dependency")
	// ErrPlanRetriesExhausted indicates planning failed validation on every
	// allowed attempt. This is fatal to the pipeline.
	ErrPlanRetriesExhausted = New("plan validation retries exhausted")
)

// Endpoint pool sentinel errors
var (
	// ErrEndpointTimeout indicates no endpoint became available within the
	// acquire deadline.
	ErrEndpointTimeout = New("timed out waiting for endpoint")
	// ErrEmptyPool indicates the pool was configured with zero endpoints.
	ErrEmptyPool = New("no endpoints configured")
)

// Task sentinel errors
var (
	// ErrTaskExecution indicates an executor invocation failed.
	ErrTaskExecution = New("task execution failed")
	// ErrTaskNotFound indicates a referenced task does not exist.
	ErrTaskNotFound = New("task not found")
	// ErrInvalidTransition indicates an illegal task status transition.
	ErrInvalidTransition = New("invalid status transition")
	// ErrExecutorNotRegistered indicates no executor capability is
	// registered for a task's executor type.
	ErrExecutorNotRegistered = New("executor not registered")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// baseError provides common behavior for the domain error types.
type baseError struct {
	message string
	cause   error
}

// Unwrap returns the underlying cause.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is reports whether the cause chain matches target.
func (e *baseError) Is(target error) bool {
	return errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// PlanError represents a plan validation failure. Its message is the
// human-readable rejection reason fed back to the planner on retry.
//
// Example:
//
//	err := errors.NewPlanError("task t2 depends on unknown task t9", errors.ErrUnknownDependency)
//	err = err.WithTaskID("t2")
type PlanError struct {
	baseError
	TaskID  string
	Attempt int
}

// NewPlanError creates a new PlanError.
func NewPlanError(message string, cause error) *PlanError {
	return &PlanError{
		baseError: baseError{message: message, cause: cause},
		Attempt:   -1, // -1 indicates not set
	}
}

// WithTaskID adds the offending task ID to the error context.
func (e *PlanError) WithTaskID(id string) *PlanError {
	e.TaskID = id
	return e
}

// WithAttempt adds the planning attempt number to the error context.
func (e *PlanError) WithAttempt(n int) *PlanError {
	e.Attempt = n
	return e
}

// Reason returns the bare rejection reason without the error prefix.
// This is the string appended to the planner's retry feedback.
func (e *PlanError) Reason() string {
	return e.message
}

// Error returns the formatted error message.
func (e *PlanError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.Attempt >= 0 {
		parts = append(parts, fmt.Sprintf("attempt=%d", e.Attempt))
	}

	prefix := "plan error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("plan error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PlanError) Is(target error) bool {
	if _, ok := target.(*PlanError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PoolError represents errors from the endpoint pool.
//
// Example:
//
//	err := errors.NewPoolError("acquire timed out", errors.ErrEndpointTimeout).
//		WithEndpointCount(3).
//		WithDeadline(30 * time.Second)
type PoolError struct {
	baseError
	EndpointCount int
	Deadline      time.Duration
}

// NewPoolError creates a new PoolError.
func NewPoolError(message string, cause error) *PoolError {
	return &PoolError{
		baseError:     baseError{message: message, cause: cause},
		EndpointCount: -1, // -1 indicates not set
	}
}

// WithEndpointCount adds the configured endpoint count to the error context.
func (e *PoolError) WithEndpointCount(n int) *PoolError {
	e.EndpointCount = n
	return e
}

// WithDeadline adds the acquire deadline to the error context.
func (e *PoolError) WithDeadline(d time.Duration) *PoolError {
	e.Deadline = d
	return e
}

// Error returns the formatted error message.
func (e *PoolError) Error() string {
	var parts []string
	if e.EndpointCount >= 0 {
		parts = append(parts, fmt.Sprintf("endpoints=%d", e.EndpointCount))
	}
	if e.Deadline > 0 {
		parts = append(parts, fmt.Sprintf("deadline=%s", e.Deadline))
	}

	prefix := "pool error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("pool error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PoolError) Is(target error) bool {
	if _, ok := target.(*PoolError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TaskError represents a single task's execution failure. It is recorded on
// the task entity and never aborts sibling tasks.
//
// Example:
//
//	err := errors.NewTaskError("shell command exited 1", errors.ErrTaskExecution)
//	err = err.WithTaskID("t4").WithExecutorType("shell").WithEndpoint("10.0.0.2:9090")
type TaskError struct {
	baseError
	TaskID       string
	ExecutorType string
	Endpoint     string
}

// NewTaskError creates a new TaskError.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithTaskID adds a task ID to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// WithExecutorType adds the executor type tag to the error context.
func (e *TaskError) WithExecutorType(t string) *TaskError {
	e.ExecutorType = t
	return e
}

// WithEndpoint adds the assigned endpoint address to the error context.
func (e *TaskError) WithEndpoint(addr string) *TaskError {
	e.Endpoint = addr
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.ExecutorType != "" {
		parts = append(parts, fmt.Sprintf("executor=%s", e.ExecutorType))
	}
	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", e.Endpoint))
	}

	prefix := "task error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("task error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TaskError) Is(target error) bool {
	if _, ok := target.(*TaskError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsPlanRejection reports whether err is a validator rejection that should be
// retried by re-invoking the planner with feedback. Exhausted retries are not
// rejections: they are fatal.
func IsPlanRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPlanRetriesExhausted) {
		return false
	}
	return errors.Is(err, ErrPlanStructure) ||
		errors.Is(err, ErrInvalidExecutorType) ||
		errors.Is(err, ErrCyclicDependency) ||
		errors.Is(err, ErrUnknownDependency)
}

// IsFatal reports whether err should abort the pipeline rather than be
// absorbed into a single task's failure.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrPlanRetriesExhausted) || errors.Is(err, ErrEmptyPool)
}

// IsTaskScoped reports whether err is confined to one task (execution
// failure or an endpoint acquire timeout for that task).
func IsTaskScoped(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTaskExecution) ||
		errors.Is(err, ErrEndpointTimeout) ||
		errors.Is(err, ErrExecutorNotRegistered)
}
