package poster

import (
	"context"
	"sync"
	"time"
)

// PendingPost is one queued delivery: an event bound to a subscription,
// plus the context the handler will receive. Records are pooled; callers
// obtain them through the posters and the Invoker releases them after
// invocation.
type PendingPost struct {
	// Ctx is the context the handler receives. Queued deliveries carry
	// a context detached from the posting state of the producer.
	Ctx context.Context

	// Event is the payload to deliver.
	Event any

	// Subscription is the target subscription. It is typed any so the
	// bus package can keep its subscription type private.
	Subscription any

	next *PendingPost
}

const pendingPoolLimit = 10000

var (
	pendingMu   sync.Mutex
	pendingPool []*PendingPost
)

// obtainPendingPost returns a pooled record, reset and populated.
func obtainPendingPost(ctx context.Context, subscription, event any) *PendingPost {
	pendingMu.Lock()
	var p *PendingPost
	if n := len(pendingPool); n > 0 {
		p = pendingPool[n-1]
		pendingPool = pendingPool[:n-1]
	}
	pendingMu.Unlock()
	if p == nil {
		p = &PendingPost{}
	}
	p.Ctx = ctx
	p.Event = event
	p.Subscription = subscription
	p.next = nil
	return p
}

// ReleasePendingPost clears a record and returns it to the pool. The
// pool is bounded so a delivery burst does not pin memory forever.
func ReleasePendingPost(p *PendingPost) {
	p.Ctx = nil
	p.Event = nil
	p.Subscription = nil
	p.next = nil
	pendingMu.Lock()
	if len(pendingPool) < pendingPoolLimit {
		pendingPool = append(pendingPool, p)
	}
	pendingMu.Unlock()
}

// pendingQueue is an intrusive FIFO of PendingPosts. All methods are
// safe for concurrent use.
type pendingQueue struct {
	mu     sync.Mutex
	head   *PendingPost
	tail   *PendingPost
	notify chan struct{}
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{notify: make(chan struct{}, 1)}
}

func (q *pendingQueue) enqueue(p *PendingPost) {
	q.mu.Lock()
	if q.tail != nil {
		q.tail.next = p
		q.tail = p
	} else {
		q.head = p
		q.tail = p
	}
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *pendingQueue) poll() *PendingPost {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pollLocked()
}

func (q *pendingQueue) pollLocked() *PendingPost {
	p := q.head
	if p != nil {
		q.head = p.next
		p.next = nil
		if q.head == nil {
			q.tail = nil
		}
	}
	return p
}

// pollWait polls the queue, waiting up to maxWait for an item to arrive
// when the queue is empty.
func (q *pendingQueue) pollWait(maxWait time.Duration) *PendingPost {
	if p := q.poll(); p != nil {
		return p
	}
	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case <-q.notify:
	case <-timer.C:
	}
	return q.poll()
}
