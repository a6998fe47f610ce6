package poster

import (
	"context"
	"sync"
	"time"
)

// DefaultSliceBudget is how long one scheduled pump run may keep the
// main context busy before rescheduling itself.
const DefaultSliceBudget = 10 * time.Millisecond

// MainPoster delivers events on the designated main context. Deliveries
// are enqueued from any goroutine; a pump run is scheduled when the
// queue goes non-empty and drains in FIFO order, yielding the main
// context back after the slice budget.
type MainPoster struct {
	invoker Invoker
	sched   Scheduler
	budget  time.Duration

	mu     sync.Mutex
	queue  *pendingQueue
	active bool
}

// NewMainPoster returns a MainPoster pumping through sched. A budget of
// zero selects DefaultSliceBudget.
func NewMainPoster(invoker Invoker, sched Scheduler, budget time.Duration) *MainPoster {
	if budget <= 0 {
		budget = DefaultSliceBudget
	}
	return &MainPoster{
		invoker: invoker,
		sched:   sched,
		budget:  budget,
		queue:   newPendingQueue(),
	}
}

// Enqueue queues one delivery and schedules a pump run unless one is
// already active or scheduled.
func (m *MainPoster) Enqueue(ctx context.Context, subscription, event any) {
	p := obtainPendingPost(ctx, subscription, event)
	m.mu.Lock()
	m.queue.enqueue(p)
	if !m.active {
		m.active = true
		m.mu.Unlock()
		m.sched.Schedule(m.pump)
		return
	}
	m.mu.Unlock()
}

// pump drains the queue on the main context. When the slice budget runs
// out it reschedules itself so the main context stays responsive.
func (m *MainPoster) pump() {
	rescheduled := false
	defer func() {
		m.mu.Lock()
		m.active = rescheduled
		m.mu.Unlock()
	}()

	started := time.Now()
	for {
		p := m.queue.poll()
		if p == nil {
			// Double-check under the flag lock: a producer may have
			// enqueued between the poll and going idle.
			m.mu.Lock()
			p = m.queue.poll()
			if p == nil {
				m.active = false
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()
		}
		m.invoker.InvokePending(p)
		if time.Since(started) >= m.budget {
			m.sched.Schedule(m.pump)
			rescheduled = true
			return
		}
	}
}
