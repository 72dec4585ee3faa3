package scheduler

import (
	"context"
	"sync"
)

// gate is a context-aware counting concurrency limiter. One gate is shared
// across every wave of a plan run, bounding simultaneous executor
// invocations regardless of wave size.
//
// A limit of 0 means unlimited - Acquire always succeeds immediately.
type gate struct {
	mu    sync.Mutex
	cond  *sync.Cond
	limit int // 0 = unlimited
	inUse int
}

// newGate creates a gate with the given limit. Negative values are
// clamped to 0 (unlimited).
func newGate(limit int) *gate {
	if limit < 0 {
		limit = 0
	}
	g := &gate{limit: limit}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Acquire blocks until a slot is available or the context is cancelled.
// Returns nil on success, or the context error if cancelled.
func (g *gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.limit == 0 {
		g.inUse++
		return nil
	}

	// Broadcast on context cancellation so blocked waiters wake up and
	// can return the context error. The waker locks the mutex first so
	// the broadcast cannot slip between the loop's ctx check and Wait.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			g.mu.Lock()
			g.cond.Broadcast()
			g.mu.Unlock()
		case <-done:
		}
	}()

	for g.inUse >= g.limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.cond.Wait()
	}

	// Re-check after waking - the wake may have been from cancellation.
	if err := ctx.Err(); err != nil {
		return err
	}

	g.inUse++
	return nil
}

// Release frees a slot and signals one waiting goroutine.
func (g *gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inUse > 0 {
		g.inUse--
	}
	g.cond.Signal()
}

// InUse returns the number of currently held slots.
func (g *gate) InUse() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inUse
}

// Limit returns the configured limit (0 = unlimited).
func (g *gate) Limit() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit
}
