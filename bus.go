package pulse

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/dshills/pulse/handler"
	"github.com/dshills/pulse/poster"
)

// Bus is an in-process publish/subscribe dispatcher. Components register
// handler methods for event types; posted events are delivered to every
// matching handler on its declared execution context, in priority order.
//
// A Bus is safe for concurrent use. The zero value is not usable; create
// one with New.
type Bus struct {
	cfg busConfig

	resolver *handler.Resolver
	registry *registry
	sticky   *stickyStore
	types    *typeCache

	mainPoster       *poster.MainPoster
	backgroundPoster *poster.BackgroundPoster
	asyncPoster      *poster.AsyncPoster
}

// New creates a bus with the given options.
func New(opts ...BusOption) *Bus {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		cfg: cfg,
		resolver: handler.NewResolver(
			handler.WithTable(cfg.table),
			handler.WithStrict(cfg.strictVerification),
			handler.WithRelaxedAmbiguity(cfg.relaxedAmbiguity),
			handler.WithIgnoreTable(cfg.ignoreTable),
		),
		registry: newRegistry(),
		sticky:   newStickyStore(),
		types:    newTypeCache(),
	}
	if cfg.mainSupport != nil {
		b.mainPoster = poster.NewMainPoster(b, poster.SchedulerFunc(cfg.mainSupport.Schedule), cfg.sliceBudget)
	}
	b.backgroundPoster = poster.NewBackgroundPoster(b, cfg.executor)
	b.asyncPoster = poster.NewAsyncPoster(b, cfg.executor)
	return b
}

var (
	defaultMu  sync.Mutex
	defaultBus *Bus
)

// Default returns the process-wide bus, creating it with default options
// on first use.
func Default() *Bus {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus == nil {
		defaultBus = New()
	}
	return defaultBus
}

// InstallDefault makes b the process-wide bus. It fails once Default has
// been used or another bus was installed.
func InstallDefault(b *Bus) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus != nil {
		return ErrDefaultInstalled
	}
	defaultBus = b
	return nil
}

// Register resolves the subscriber's handlers and subscribes each of
// them. The subscriber must be a pointer to a struct; the same pointer
// passed to Unregister removes all of its subscriptions.
//
// Handlers marked sticky immediately receive the stored sticky events
// matching their event type, routed like a regular post.
func (b *Bus) Register(subscriber any) error {
	descriptors, err := b.resolver.Resolve(reflect.TypeOf(subscriber))
	if err != nil {
		return err
	}

	type replay struct {
		sub   *Subscription
		event any
	}
	var replays []replay

	b.registry.mu.Lock()
	for _, d := range descriptors {
		s := newSubscription(subscriber, d)
		if err := b.registry.insertLocked(s); err != nil {
			b.registry.mu.Unlock()
			return err
		}
		if d.Event.Kind() == reflect.Interface {
			b.types.addInterface(d.Event)
		}
		if d.Sticky {
			for _, ev := range b.matchingSticky(d) {
				replays = append(replays, replay{sub: s, event: ev})
			}
		}
	}
	b.registry.mu.Unlock()

	// Replay outside the registry lock so a replayed handler may use
	// the bus.
	for _, rp := range replays {
		if err := b.postToSubscription(context.Background(), rp.sub, rp.event, b.isMainContext()); err != nil {
			return err
		}
	}
	return nil
}

// matchingSticky returns the stored sticky events a descriptor should
// receive on registration, already extracted to the descriptor's event
// type.
func (b *Bus) matchingSticky(d *handler.Descriptor) []any {
	if !b.cfg.inheritance {
		if ev := b.sticky.get(d.Event); ev != nil {
			return []any{ev}
		}
		return nil
	}
	var out []any
	for t, ev := range b.sticky.snapshot() {
		for _, entry := range b.types.closure(t) {
			if entry.Type == d.Event {
				out = append(out, entry.payload(ev))
				break
			}
		}
	}
	return out
}

// Unregister removes all subscriptions of a subscriber. Unregistering an
// unknown subscriber is logged and otherwise ignored.
func (b *Bus) Unregister(subscriber any) {
	if !b.registry.removeAll(subscriber) {
		b.cfg.logger.Warn("unregister of subscriber that was not registered",
			"subscriber", fmt.Sprintf("%T", subscriber))
	}
}

// IsRegistered reports whether the subscriber holds any subscription.
func (b *Bus) IsRegistered(subscriber any) bool {
	return b.registry.isRegistered(subscriber)
}

// Post delivers an event to every matching subscription.
//
// A post made from inside a handler joins the handler's drain loop: the
// event is appended to the loop's FIFO queue and delivered after the
// current event finishes, provided the handler passes its own context
// on. Delivery errors of inline handlers and scheduling failures of
// queued deliveries are returned to the outermost Post call.
func (b *Bus) Post(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ps := postingStateFrom(ctx)
	if ps == nil {
		ps = &postingState{}
		ctx = withPostingState(ctx, ps)
	}

	ps.queue = append(ps.queue, event)
	if ps.isPosting {
		return nil
	}
	if ps.canceled {
		return fmt.Errorf("%w: cancel flag set outside delivery", ErrInternal)
	}

	ps.isMain = b.isMainContext()
	ps.isPosting = true
	defer func() {
		ps.isPosting = false
		ps.isMain = false
	}()

	var firstErr error
	for len(ps.queue) > 0 {
		ev := ps.queue[0]
		ps.queue = ps.queue[1:]
		if err := b.postSingleEvent(ctx, ev, ps); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PostSticky stores the event as the sticky event of its concrete type,
// then posts it like Post. Later sticky registrations for a matching
// type replay the stored event.
func (b *Bus) PostSticky(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}
	b.sticky.put(event)
	return b.Post(ctx, event)
}

// Cancel stops further delivery of the event currently being delivered.
// It may only be called from inside a Posting-context handler, with the
// event that handler is receiving, using the context the handler was
// given. Remaining handlers of the current resolved-type pass are
// skipped; queued deliveries already handed off are not recalled.
func (b *Bus) Cancel(ctx context.Context, event any) error {
	if ctx == nil {
		return &IllegalCancelError{Reason: "no delivery in progress on this context"}
	}
	ps := postingStateFrom(ctx)
	if ps == nil || !ps.isPosting {
		return &IllegalCancelError{Reason: "no delivery in progress on this context"}
	}
	if event == nil {
		return &IllegalCancelError{Reason: "event cannot be nil"}
	}
	if !sameEvent(ps.event, event) {
		return &IllegalCancelError{Reason: "only the event currently being delivered may be canceled"}
	}
	if ps.sub.descriptor.Context != handler.Posting {
		return &IllegalCancelError{Reason: "only posting-context handlers may cancel"}
	}
	ps.canceled = true
	return nil
}

// Sticky returns the stored sticky event of the given concrete type, or
// nil.
func (b *Bus) Sticky(t reflect.Type) any {
	return b.sticky.get(t)
}

// RemoveSticky removes and returns the stored sticky event of the given
// concrete type, or nil.
func (b *Bus) RemoveSticky(t reflect.Type) any {
	return b.sticky.remove(t)
}

// RemoveStickyEvent removes the stored sticky event only if it equals
// the given one. It reports whether an event was removed.
func (b *Bus) RemoveStickyEvent(event any) bool {
	if event == nil {
		return false
	}
	return b.sticky.removeEvent(event)
}

// RemoveAllSticky removes all stored sticky events.
func (b *Bus) RemoveAllSticky() {
	b.sticky.removeAll()
}

// HasSubscriberFor reports whether posting an event of the given
// concrete type would reach at least one subscription.
func (b *Bus) HasSubscriberFor(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if !b.cfg.inheritance {
		return b.registry.hasAny(t)
	}
	for _, entry := range b.types.closure(t) {
		if b.registry.hasAny(entry.Type) {
			return true
		}
	}
	return false
}

// ClearCaches drops the process-wide resolution cache and this bus's
// delivery closure cache. Mainly for tests.
func (b *Bus) ClearCaches() {
	handler.ClearCaches()
	b.types.closures.Purge()
}

// isMainContext reports whether the calling goroutine counts as the main
// context. Without MainSupport every goroutine does, so Main handlers
// run inline and Background handlers always leave the caller.
func (b *Bus) isMainContext() bool {
	return b.cfg.mainSupport == nil || b.cfg.mainSupport.IsMain()
}

// postSingleEvent fans one event out under its delivery closure.
func (b *Bus) postSingleEvent(ctx context.Context, event any, ps *postingState) error {
	et := reflect.TypeOf(event)
	found := false

	if b.cfg.inheritance {
		for _, entry := range b.types.closure(et) {
			ok, err := b.postSingleEventForType(ctx, event, entry.payload(event), entry.Type, ps)
			found = found || ok
			if err != nil {
				return err
			}
		}
	} else {
		ok, err := b.postSingleEventForType(ctx, event, event, et, ps)
		found = ok
		if err != nil {
			return err
		}
	}

	if !found {
		if b.cfg.logNoSubscriber {
			b.cfg.logger.Debug("no subscribers for event", "event", et.String())
		}
		if b.cfg.sendNoSubscriberEvent {
			switch event.(type) {
			case NoSubscriberEvent, HandlerErrorEvent:
			default:
				return b.Post(ctx, NoSubscriberEvent{Bus: b, Event: event})
			}
		}
	}
	return nil
}

// postSingleEventForType delivers under one closure type. It reports
// whether any subscription existed for the type.
func (b *Bus) postSingleEventForType(ctx context.Context, origEvent, payload any, t reflect.Type, ps *postingState) (bool, error) {
	subs := b.registry.snapshot(t)
	if len(subs) == 0 {
		return false, nil
	}
	for _, sub := range subs {
		ps.event = origEvent
		ps.sub = sub
		err := b.postToSubscription(ctx, sub, payload, ps.isMain)
		aborted := ps.canceled
		ps.event = nil
		ps.sub = nil
		ps.canceled = false
		if err != nil {
			return true, err
		}
		if aborted {
			break
		}
	}
	return true, nil
}

// postToSubscription routes one delivery to its execution context.
func (b *Bus) postToSubscription(ctx context.Context, sub *Subscription, event any, isMain bool) error {
	switch sub.descriptor.Context {
	case handler.Posting:
		return b.invoke(ctx, sub, event)
	case handler.Main:
		if isMain || b.mainPoster == nil {
			return b.invoke(ctx, sub, event)
		}
		b.mainPoster.Enqueue(detachPostingState(ctx), sub, event)
		return nil
	case handler.MainOrdered:
		if b.mainPoster == nil {
			// Degenerate case without main support: deliver inline to
			// keep delivery at least ordered.
			return b.invoke(ctx, sub, event)
		}
		b.mainPoster.Enqueue(detachPostingState(ctx), sub, event)
		return nil
	case handler.Background:
		if !isMain {
			return b.invoke(ctx, sub, event)
		}
		if err := b.backgroundPoster.Enqueue(detachPostingState(ctx), sub, event); err != nil {
			return &SchedulingError{Context: handler.Background, Event: reflect.TypeOf(event), Err: err}
		}
		return nil
	case handler.Async:
		if err := b.asyncPoster.Enqueue(detachPostingState(ctx), sub, event); err != nil {
			return &SchedulingError{Context: handler.Async, Event: reflect.TypeOf(event), Err: err}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown execution context %d", ErrInternal, sub.descriptor.Context)
	}
}

// InvokePending delivers one queued record. It implements
// poster.Invoker.
func (b *Bus) InvokePending(p *poster.PendingPost) {
	sub, _ := p.Subscription.(*Subscription)
	ctx, event := p.Ctx, p.Event
	if sub == nil || !sub.IsActive() {
		poster.ReleasePendingPost(p)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := b.invoke(ctx, sub, event)
	// The record is released only after the handler returns, so it
	// stays intact for the whole invocation.
	poster.ReleasePendingPost(p)
	if err != nil {
		// Queued deliveries have no Post caller to re-raise to.
		b.cfg.logger.Error("handler failed on queued delivery", "error", err)
	}
}

// invoke calls the handler and applies the failure policy. A non-nil
// return means the failure should be re-raised to the Post caller.
func (b *Bus) invoke(ctx context.Context, sub *Subscription, event any) error {
	herr := b.callHandler(ctx, sub, event)
	if herr == nil {
		return nil
	}
	return b.handleHandlerError(ctx, sub, event, herr)
}

// callHandler invokes the handler with panic recovery.
func (b *Bus) callHandler(ctx context.Context, sub *Subscription, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				SubscriptionID: sub.id,
				Event:          reflect.TypeOf(event),
				Value:          r,
				Stack:          string(debug.Stack()),
			}
		}
	}()
	return sub.descriptor.Invoke(sub.subscriber, ctx, event)
}

// handleHandlerError applies the configured failure policy.
func (b *Bus) handleHandlerError(ctx context.Context, sub *Subscription, event any, herr error) error {
	if ee, ok := event.(HandlerErrorEvent); ok {
		// Never report a failure of a HandlerErrorEvent handler as
		// another HandlerErrorEvent.
		if b.cfg.logHandlerErrors {
			b.cfg.logger.Error("HandlerErrorEvent handler failed",
				"handler", sub.descriptor.String(),
				"error", herr,
				"original_error", ee.Err,
				"original_event", fmt.Sprintf("%T", ee.Event))
		}
		return nil
	}
	if b.cfg.rethrowHandlerErrors {
		return fmt.Errorf("invoking handler %s failed: %w", sub.descriptor, herr)
	}
	if b.cfg.logHandlerErrors {
		b.cfg.logger.Error("handler failed",
			"handler", sub.descriptor.String(),
			"event", fmt.Sprintf("%T", event),
			"error", herr)
	}
	if b.cfg.sendHandlerErrorEvent {
		return b.Post(ctx, HandlerErrorEvent{Bus: b, Err: herr, Event: event, Subscriber: sub.subscriber})
	}
	return nil
}
