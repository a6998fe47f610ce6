package poster

import (
	"context"
	"sync"
	"sync/atomic"
)

// Pool is a bounded worker-pool Executor. Unlike the default GoExecutor
// it caps both concurrency and queued work; Submit rejects with
// ErrQueueFull when the queue is at capacity, which the bus surfaces to
// the Post caller as a scheduling failure.
type Pool struct {
	queueSize   int
	workerCount int

	mu      sync.Mutex // protects queue creation/destruction
	queue   chan func()
	running atomic.Bool
	wg      sync.WaitGroup

	submitted atomic.Uint64
	executed  atomic.Uint64
	dropped   atomic.Uint64
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) PoolOption {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// NewPool creates a new worker pool. Call Start before submitting.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		queueSize:   10000,
		workerCount: 10,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the worker goroutines.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrAlreadyRunning
	}

	p.queue = make(chan func(), p.queueSize)
	p.running.Store(true)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

// Stop stops the pool gracefully. It waits for all queued tasks to
// complete or until the context is cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.running.Store(false)
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit implements Executor. It returns ErrNotRunning when the pool is
// stopped and ErrQueueFull when the queue is at capacity.
func (p *Pool) Submit(task func()) error {
	if !p.running.Load() {
		return ErrNotRunning
	}
	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

// worker processes tasks from the queue.
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		task()
		p.executed.Add(1)
	}
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// PoolStats contains pool counters.
type PoolStats struct {
	// Submitted is the total number of accepted tasks.
	Submitted uint64

	// Executed is the number of tasks that have completed.
	Executed uint64

	// Dropped is the number of tasks rejected because the queue was full.
	Dropped uint64

	// QueueDepth is the current number of tasks waiting in the queue.
	QueueDepth int
}

// Stats returns pool counters.
func (p *Pool) Stats() PoolStats {
	var depth int
	if p.running.Load() {
		depth = len(p.queue)
	}
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Executed:   p.executed.Load(),
		Dropped:    p.dropped.Load(),
		QueueDepth: depth,
	}
}
