package poster

import (
	"context"
	"sync"
	"time"
)

// backgroundLinger is how long an idle background worker waits for the
// next delivery before exiting.
const backgroundLinger = time.Second

// BackgroundPoster delivers events on a single background worker,
// strictly in FIFO order with at most one delivery executing at a time.
// The worker is started lazily and lingers briefly when the queue runs
// dry so bursts reuse one submission.
type BackgroundPoster struct {
	invoker Invoker
	exec    Executor

	mu      sync.Mutex
	queue   *pendingQueue
	running bool
}

// NewBackgroundPoster returns a BackgroundPoster running on exec.
func NewBackgroundPoster(invoker Invoker, exec Executor) *BackgroundPoster {
	return &BackgroundPoster{
		invoker: invoker,
		exec:    exec,
		queue:   newPendingQueue(),
	}
}

// Enqueue queues one delivery, starting a worker if none is running.
// The executor's rejection, if any, is returned to the caller.
func (b *BackgroundPoster) Enqueue(ctx context.Context, subscription, event any) error {
	p := obtainPendingPost(ctx, subscription, event)
	b.mu.Lock()
	b.queue.enqueue(p)
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	b.mu.Unlock()
	if err := b.exec.Submit(b.run); err != nil {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		return err
	}
	return nil
}

// run drains the queue serially, lingering for late arrivals before
// giving the worker back.
func (b *BackgroundPoster) run() {
	for {
		p := b.queue.pollWait(backgroundLinger)
		if p == nil {
			// Double-check under the flag lock: a producer may have
			// enqueued after the linger expired.
			b.mu.Lock()
			p = b.queue.poll()
			if p == nil {
				b.running = false
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
		}
		b.invoker.InvokePending(p)
	}
}
