package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestPlanError_Format(t *testing.T) {
	err := NewPlanError("task t2 depends on unknown task t9", ErrUnknownDependency).
		WithTaskID("t2").
		WithAttempt(1)

	want := "plan error [task=t2, attempt=1]: task t2 depends on unknown task t9: unknown dependency"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Reason() != "task t2 depends on unknown task t9" {
		t.Errorf("Reason() = %q", err.Reason())
	}
}

func TestPlanError_IsMatchesSentinel(t *testing.T) {
	err := NewPlanError("cycle through t1", ErrCyclicDependency)

	if !Is(err, ErrCyclicDependency) {
		t.Error("expected Is(err, ErrCyclicDependency) to be true")
	}
	if Is(err, ErrUnknownDependency) {
		t.Error("expected Is(err, ErrUnknownDependency) to be false")
	}

	var planErr *PlanError
	if !As(err, &planErr) {
		t.Error("expected As to match *PlanError")
	}
}

func TestPlanError_IsMatchesWrapped(t *testing.T) {
	inner := NewPlanError("empty plan", ErrPlanStructure)
	wrapped := fmt.Errorf("validation failed: %w", inner)

	if !Is(wrapped, ErrPlanStructure) {
		t.Error("expected wrapped error to match ErrPlanStructure")
	}
	var planErr *PlanError
	if !As(wrapped, &planErr) {
		t.Error("expected As to find *PlanError through wrapping")
	}
}

func TestPoolError_Format(t *testing.T) {
	err := NewPoolError("acquire timed out", ErrEndpointTimeout).
		WithEndpointCount(3).
		WithDeadline(30 * time.Second)

	want := "pool error [endpoints=3, deadline=30s]: acquire timed out: timed out waiting for endpoint"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestPoolError_NoContext(t *testing.T) {
	err := NewPoolError("pool is empty", ErrEmptyPool)
	want := "pool error: pool is empty: no endpoints configured"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTaskError_Format(t *testing.T) {
	err := NewTaskError("command exited 1", ErrTaskExecution).
		WithTaskID("t4").
		WithExecutorType("shell").
		WithEndpoint("10.0.0.2:9090")

	want := "task error [task=t4, executor=shell, endpoint=10.0.0.2:9090]: command exited 1: task execution failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsPlanRejection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"structure", NewPlanError("empty", ErrPlanStructure), true},
		{"executor type", NewPlanError("bad type", ErrInvalidExecutorType), true},
		{"cycle", NewPlanError("cycle", ErrCyclicDependency), true},
		{"unknown dep", NewPlanError("dangling", ErrUnknownDependency), true},
		{"retries exhausted", fmt.Errorf("giving up: %w", ErrPlanRetriesExhausted), false},
		{"task execution", NewTaskError("boom", ErrTaskExecution), false},
		{"unrelated", New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlanRejection(tt.err); got != tt.want {
				t.Errorf("IsPlanRejection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(fmt.Errorf("startup: %w", ErrEmptyPool)) {
		t.Error("empty pool should be fatal")
	}
	if !IsFatal(fmt.Errorf("planning: %w", ErrPlanRetriesExhausted)) {
		t.Error("exhausted retries should be fatal")
	}
	if IsFatal(NewTaskError("boom", ErrTaskExecution)) {
		t.Error("task execution failure should not be fatal")
	}
	if IsFatal(nil) {
		t.Error("nil should not be fatal")
	}
}

func TestIsTaskScoped(t *testing.T) {
	if !IsTaskScoped(NewTaskError("boom", ErrTaskExecution)) {
		t.Error("execution failure should be task scoped")
	}
	if !IsTaskScoped(NewPoolError("timeout", ErrEndpointTimeout)) {
		t.Error("endpoint timeout should be task scoped")
	}
	if IsTaskScoped(fmt.Errorf("planning: %w", ErrPlanRetriesExhausted)) {
		t.Error("fatal planning error should not be task scoped")
	}
}
