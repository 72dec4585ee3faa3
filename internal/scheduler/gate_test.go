package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGate_BasicAcquireRelease(t *testing.T) {
	g := newGate(2)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if g.InUse() != 2 {
		t.Errorf("InUse() = %d, want 2", g.InUse())
	}

	g.Release()
	g.Release()
	if g.InUse() != 0 {
		t.Errorf("after releases: InUse() = %d, want 0", g.InUse())
	}
}

func TestGate_BlocksAtLimit(t *testing.T) {
	g := newGate(1)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		_ = g.Acquire(ctx)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked")
	case <-time.After(50 * time.Millisecond):
		// Expected: still blocked.
	}

	g.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock after Release")
	}
}

func TestGate_ContextCancellation(t *testing.T) {
	g := newGate(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- g.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Errorf("Acquire returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Acquire did not observe cancellation")
	}

	if g.InUse() != 1 {
		t.Errorf("InUse() = %d after cancelled acquire, want 1", g.InUse())
	}
}

func TestGate_CancellationWakesEveryWaiter(t *testing.T) {
	// The cancellation wake must reach waiters even when it races their
	// ctx check; no Release ever fires here, so a missed wake would hang.
	g := newGate(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	const waiters = 16
	errc := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			errc <- g.Acquire(ctx)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	cancel()

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errc:
			if err != context.Canceled {
				t.Errorf("Acquire returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter %d never observed cancellation", i)
		}
	}

	if g.InUse() != 1 {
		t.Errorf("InUse() = %d after cancelled acquires, want 1", g.InUse())
	}
}

func TestGate_UnlimitedMode(t *testing.T) {
	g := newGate(0)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := g.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	if g.InUse() != 50 {
		t.Errorf("InUse() = %d, want 50", g.InUse())
	}
	if g.Limit() != 0 {
		t.Errorf("Limit() = %d, want 0", g.Limit())
	}
}

func TestGate_NegativeLimitClampedToUnlimited(t *testing.T) {
	g := newGate(-5)
	if g.Limit() != 0 {
		t.Errorf("Limit() = %d, want 0", g.Limit())
	}
}

func TestGate_BoundsConcurrency(t *testing.T) {
	const limit = 3
	g := newGate(limit)
	ctx := context.Background()

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(ctx); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer g.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if peak.Load() > limit {
		t.Errorf("peak concurrency = %d, want <= %d", peak.Load(), limit)
	}
}
