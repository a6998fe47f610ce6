// Package pulse is an in-process publish/subscribe event bus.
//
// Components register handler methods for event types; other components
// post event instances. The bus delivers each event to every matching
// handler, on the execution context the handler declared, in priority
// order, with support for mid-delivery cancellation and sticky events.
//
// # Subscribers and handlers
//
// A subscriber is a pointer to a struct. Its handlers are discovered by
// the handler package, in order of preference: a pre-built handler.Table
// (WithTable), the handler.Describer capability, or reflection over
// exported On* methods shaped like
//
//	func (s *Stats) OnOrderPlaced(ctx context.Context, e OrderPlaced) error
//
// The error return is optional. Embedded structs contribute their
// handlers too, with outer declarations shadowing embedded ones.
//
//	bus := pulse.New()
//	if err := bus.Register(stats); err != nil { /* ... */ }
//	defer bus.Unregister(stats)
//
//	err := bus.Post(ctx, OrderPlaced{ID: id})
//
// # Execution contexts
//
// Each handler runs on one of five contexts (see handler.ExecContext):
// inline on the posting goroutine (Posting, the default), on the
// application's designated main context (Main, MainOrdered), on a single
// serial background worker (Background), or on the concurrent async
// queue (Async). Main-context delivery needs a MainSupport wired in with
// WithMainSupport; without one, every goroutine counts as main.
// Background and Async run on the configured Executor, by default one
// goroutine per task; a bounded poster.Pool surfaces overflow to the
// Post caller as a *SchedulingError.
//
// # Event inheritance
//
// By default an event is also delivered under the interface event types
// it satisfies and, for handlers subscribed to an embedded struct type,
// as the embedded value itself. WithInheritance(false) restricts
// delivery to the exact concrete type.
//
// # Reentrant posting and cancellation
//
// Handlers receive a context carrying the active delivery state. A post
// made with that context is queued FIFO behind the current event instead
// of nesting. A Posting-context handler may stop the remaining delivery
// of its current event with Cancel.
//
// # Sticky events
//
// PostSticky stores the event (one per concrete type) before posting.
// A later registration of a sticky handler immediately receives the
// stored event, routed like a regular post.
//
// # Failure policy
//
// A handler failure, either a returned error or a recovered panic
// (*PanicError), is contained by default: it is logged and reported as a
// HandlerErrorEvent. Events with no subscriber at all are reported as a
// NoSubscriberEvent. Both reports, the logging, and the contain-versus-
// re-raise behavior are configurable per bus.
package pulse
