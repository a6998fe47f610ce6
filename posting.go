package pulse

import "context"

// postingState tracks one logical chain of posting. It rides on the
// context handed to handlers, so a post made from inside a handler finds
// the active state and enqueues FIFO instead of nesting delivery.
type postingState struct {
	// queue holds events waiting for the active drain loop.
	queue []any

	// isPosting marks an active drain loop on this state.
	isPosting bool

	// isMain records whether the drain runs on the main context. Fixed
	// for the whole drain.
	isMain bool

	// canceled aborts the current resolved-type pass.
	canceled bool

	// event is the event currently being delivered.
	event any

	// sub is the subscription currently being delivered to.
	sub *Subscription
}

type postingStateKey struct{}

// postingStateFrom extracts the posting state from a context, or nil.
func postingStateFrom(ctx context.Context) *postingState {
	ps, _ := ctx.Value(postingStateKey{}).(*postingState)
	return ps
}

// withPostingState attaches a posting state to a context.
func withPostingState(ctx context.Context, ps *postingState) context.Context {
	return context.WithValue(ctx, postingStateKey{}, ps)
}

// detachPostingState masks any posting state so queued deliveries do not
// inherit the producer's drain loop.
func detachPostingState(ctx context.Context) context.Context {
	if postingStateFrom(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, postingStateKey{}, (*postingState)(nil))
}
