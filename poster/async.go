package poster

import "context"

// AsyncPoster delivers each event on its own executor task. Deliveries
// are independent: no ordering is guaranteed and slow handlers do not
// delay one another.
type AsyncPoster struct {
	invoker Invoker
	exec    Executor
}

// NewAsyncPoster returns an AsyncPoster running on exec.
func NewAsyncPoster(invoker Invoker, exec Executor) *AsyncPoster {
	return &AsyncPoster{
		invoker: invoker,
		exec:    exec,
	}
}

// Enqueue submits one task bound to one delivery record. The executor's
// rejection, if any, is returned to the caller with that caller's own
// record released; accepted deliveries are never affected.
func (a *AsyncPoster) Enqueue(ctx context.Context, subscription, event any) error {
	p := obtainPendingPost(ctx, subscription, event)
	if err := a.exec.Submit(func() { a.invoker.InvokePending(p) }); err != nil {
		ReleasePendingPost(p)
		return err
	}
	return nil
}
