// Package executor defines the capability invoked to perform one task's
// work, and the registry that resolves capabilities by executor-type tag.
// The scheduler treats executors as opaque: it never inspects what they do.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/hollis-m/relay/internal/errors"
)

// Request carries one task's work to an executor.
type Request struct {
	// TaskID identifies the task for logging; executors may ignore it.
	TaskID string

	// Description is the task's work description from the plan.
	Description string

	// Context carries results of completed dependency tasks, keyed by
	// task ID, plus anything the embedder injects.
	Context map[string]string
}

// Executor is the external capability invoked to perform one task's work.
type Executor interface {
	Execute(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, req Request) (string, error)

// Execute implements Executor.
func (f Func) Execute(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Registry maps executor-type tags to capabilities. It is populated once at
// startup and read-only afterwards; Types doubles as the plan validator's
// whitelist.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	order     []string // registration order, for stable whitelists
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
	}
}

// Register adds a capability under the given type tag.
// Registering a duplicate tag is a programming error and fails.
func (r *Registry) Register(tag string, exec Executor) error {
	if tag == "" {
		return fmt.Errorf("executor tag must not be empty")
	}
	if exec == nil {
		return fmt.Errorf("executor for tag %q must not be nil", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[tag]; exists {
		return fmt.Errorf("executor tag %q already registered", tag)
	}
	r.executors[tag] = exec
	r.order = append(r.order, tag)
	return nil
}

// Resolve returns the capability for a type tag.
func (r *Registry) Resolve(tag string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.executors[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrExecutorNotRegistered, tag)
	}
	return exec, nil
}

// Types returns the registered type tags in registration order. This is
// the whitelist handed to the plan validator.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, len(r.order))
	copy(types, r.order)
	return types
}
