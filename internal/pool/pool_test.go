package pool

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var testLogger = slog.New(slog.DiscardHandler)

func TestPool_RunsTasks(t *testing.T) {
	p := New(4, testLogger)
	defer p.Shutdown()

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
		if !ok {
			wg.Done()
			t.Fatalf("submit %d rejected", i)
		}
	}
	wg.Wait()

	if count.Load() != 20 {
		t.Errorf("ran %d tasks, want 20", count.Load())
	}
}

func TestPool_ShutdownDrains(t *testing.T) {
	p := New(2, testLogger)

	var count atomic.Int64
	for i := 0; i < 10; i++ {
		p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			count.Add(1)
		})
	}

	p.Shutdown()
	if count.Load() != 10 {
		t.Errorf("shutdown drained %d tasks, want 10", count.Load())
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := New(1, testLogger)
	p.Shutdown()

	if p.Submit(func() {}) {
		t.Error("submit accepted after shutdown")
	}
	// Repeated shutdown is a no-op.
	p.Shutdown()
}

func TestPool_QueueFullRejects(t *testing.T) {
	p := New(1, testLogger)
	defer p.Shutdown()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then flood the queue.
	p.Submit(func() { <-block })

	accepted := 0
	for i := 0; i < 200; i++ {
		if p.Submit(func() { <-block }) {
			accepted++
		}
	}
	if accepted >= 200 {
		t.Error("queue never pushed back")
	}
}
