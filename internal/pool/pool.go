// Package pool provides a fixed-size worker pool for per-object background
// jobs (pass prediction, ground-track sampling). Admission control lives on
// the object record's computing flag, not here: the pool only bounds
// parallelism and queue depth.
package pool

import (
	"log/slog"
	"sync"

	"github.com/skyward/skytrack/internal/metrics"
)

// DefaultWorkers is the pool size used when the caller passes zero.
const DefaultWorkers = 4

const queueDepth = 64

// Pool runs submitted closures on a fixed set of goroutines.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New starts a pool with the given number of workers.
func New(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	p := &Pool{
		tasks:  make(chan func(), queueDepth),
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
				metrics.SetWorkerQueueDepth(len(p.tasks))
			}
		}()
	}

	logger.Info("worker pool started", "workers", workers)
	return p
}

// Submit enqueues a task without blocking. Returns false if the pool is
// shutting down or the queue is full; the caller is responsible for
// releasing any admission claim it holds.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	select {
	case p.tasks <- task:
		metrics.SetWorkerQueueDepth(len(p.tasks))
		return true
	default:
		return false
	}
}

// Shutdown stops accepting work and waits for queued tasks to drain.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}
