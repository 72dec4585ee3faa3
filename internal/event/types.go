// Package event defines event types for decoupling components in relay.
// The engine, scheduler, and pool publish events; logging and the monitor
// TUI consume them without direct dependencies on scheduler internals.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.started", "wave.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Planning Events
// -----------------------------------------------------------------------------

// PlanValidatedEvent is emitted when a plan passes validation.
type PlanValidatedEvent struct {
	baseEvent
	PlanID    string
	TaskCount int
	Attempt   int // 1-based planning attempt that produced the valid plan
}

// NewPlanValidatedEvent creates a PlanValidatedEvent.
func NewPlanValidatedEvent(planID string, taskCount, attempt int) PlanValidatedEvent {
	return PlanValidatedEvent{
		baseEvent: newBaseEvent("plan.validated"),
		PlanID:    planID,
		TaskCount: taskCount,
		Attempt:   attempt,
	}
}

// PlanRejectedEvent is emitted when the validator rejects a plan.
type PlanRejectedEvent struct {
	baseEvent
	PlanID  string
	Reason  string // Validator rejection reason, fed back to the planner
	Attempt int
}

// NewPlanRejectedEvent creates a PlanRejectedEvent.
func NewPlanRejectedEvent(planID, reason string, attempt int) PlanRejectedEvent {
	return PlanRejectedEvent{
		baseEvent: newBaseEvent("plan.rejected"),
		PlanID:    planID,
		Reason:    reason,
		Attempt:   attempt,
	}
}

// FallbackTriggeredEvent is emitted when the pipeline abandons delegated
// execution and falls back to the direct-execution capability.
type FallbackTriggeredEvent struct {
	baseEvent
	Request string
	Cause   string
}

// NewFallbackTriggeredEvent creates a FallbackTriggeredEvent.
func NewFallbackTriggeredEvent(request, cause string) FallbackTriggeredEvent {
	return FallbackTriggeredEvent{
		baseEvent: newBaseEvent("pipeline.fallback"),
		Request:   request,
		Cause:     cause,
	}
}

// -----------------------------------------------------------------------------
// Wave Events
// -----------------------------------------------------------------------------

// WaveStartedEvent is emitted when the coordinator begins dispatching a wave.
type WaveStartedEvent struct {
	baseEvent
	Index   int // 0-based wave index
	TaskIDs []string
}

// NewWaveStartedEvent creates a WaveStartedEvent.
func NewWaveStartedEvent(index int, taskIDs []string) WaveStartedEvent {
	return WaveStartedEvent{
		baseEvent: newBaseEvent("wave.started"),
		Index:     index,
		TaskIDs:   taskIDs,
	}
}

// WaveCompletedEvent is emitted when every task in a wave has reached a
// terminal state.
type WaveCompletedEvent struct {
	baseEvent
	Index     int
	Succeeded []string
	Failed    []string
}

// NewWaveCompletedEvent creates a WaveCompletedEvent.
func NewWaveCompletedEvent(index int, succeeded, failed []string) WaveCompletedEvent {
	return WaveCompletedEvent{
		baseEvent: newBaseEvent("wave.completed"),
		Index:     index,
		Succeeded: succeeded,
		Failed:    failed,
	}
}

// -----------------------------------------------------------------------------
// Task Events
// -----------------------------------------------------------------------------

// TaskStartedEvent is emitted when a task acquires an endpoint and begins
// its executor invocation.
type TaskStartedEvent struct {
	baseEvent
	TaskID       string
	ExecutorType string
	Endpoint     string // Address of the acquired endpoint
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(taskID, executorType, endpoint string) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent:    newBaseEvent("task.started"),
		TaskID:       taskID,
		ExecutorType: executorType,
		Endpoint:     endpoint,
	}
}

// TaskCompletedEvent is emitted when a task's executor invocation succeeds.
type TaskCompletedEvent struct {
	baseEvent
	TaskID   string
	Duration time.Duration
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID string, duration time.Duration) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent("task.completed"),
		TaskID:    taskID,
		Duration:  duration,
	}
}

// TaskFailedEvent is emitted when a task's executor invocation fails or its
// endpoint acquire times out.
type TaskFailedEvent struct {
	baseEvent
	TaskID string
	Error  string
}

// NewTaskFailedEvent creates a TaskFailedEvent.
func NewTaskFailedEvent(taskID, errMsg string) TaskFailedEvent {
	return TaskFailedEvent{
		baseEvent: newBaseEvent("task.failed"),
		TaskID:    taskID,
		Error:     errMsg,
	}
}

// TaskBlockedEvent is emitted when a task is swept to Blocked because a
// dependency failed or was itself blocked.
type TaskBlockedEvent struct {
	baseEvent
	TaskID string
}

// NewTaskBlockedEvent creates a TaskBlockedEvent.
func NewTaskBlockedEvent(taskID string) TaskBlockedEvent {
	return TaskBlockedEvent{
		baseEvent: newBaseEvent("task.blocked"),
		TaskID:    taskID,
	}
}

// -----------------------------------------------------------------------------
// Endpoint Events
// -----------------------------------------------------------------------------

// EndpointAcquiredEvent is emitted when the pool grants an endpoint slot.
type EndpointAcquiredEvent struct {
	baseEvent
	Address  string
	Load     int // Load after the acquire
	Capacity int
}

// NewEndpointAcquiredEvent creates an EndpointAcquiredEvent.
func NewEndpointAcquiredEvent(address string, load, capacity int) EndpointAcquiredEvent {
	return EndpointAcquiredEvent{
		baseEvent: newBaseEvent("endpoint.acquired"),
		Address:   address,
		Load:      load,
		Capacity:  capacity,
	}
}

// EndpointReleasedEvent is emitted when a task releases its endpoint slot.
type EndpointReleasedEvent struct {
	baseEvent
	Address string
	Load    int // Load after the release
	Success bool
}

// NewEndpointReleasedEvent creates an EndpointReleasedEvent.
func NewEndpointReleasedEvent(address string, load int, success bool) EndpointReleasedEvent {
	return EndpointReleasedEvent{
		baseEvent: newBaseEvent("endpoint.released"),
		Address:   address,
		Load:      load,
		Success:   success,
	}
}
