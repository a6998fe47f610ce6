// Package handler resolves subscriber types to their event handler
// descriptors.
//
// A subscriber is a pointer to a struct. Each of its handlers targets one
// event type and carries metadata: the execution context the handler must
// run on, a delivery priority, and a sticky flag. The Resolver discovers
// handlers from three sources, in order of preference per hierarchy level:
//
//  1. A pre-built Table supplied by the application (the fastest path,
//     analogous to a generated lookup).
//  2. The Describer capability: the subscriber type describes its own
//     handlers by returning Specs built from method expressions.
//  3. Runtime reflection over exported methods named On* with the shape
//     func (ctx context.Context, e E) error (the error return is
//     optional). Reflection-discovered handlers run with default
//     metadata: Posting context, priority 0, not sticky.
//
// # Hierarchy walk
//
// Resolution walks the subscriber struct and its embedded structs
// depth-first, most-derived level first. Embedded types from the standard
// library and unnamed types are skipped. A handler with the same name and
// event type at an outer level shadows the embedded one; the same pair
// declared by two unrelated embedded types is a configuration error
// (AmbiguousHandlerError) unless relaxed mode is enabled.
//
// # Caching
//
// Results are memoized process-wide, keyed by subscriber type, and never
// evicted automatically. ClearCaches exists for test isolation.
// Concurrent resolution of the same type is collapsed into a single
// computation.
//
// # Describing handlers
//
//	type AuditLog struct{ /* ... */ }
//
//	func (a *AuditLog) OnOrderPlaced(ctx context.Context, e OrderPlaced) error { /* ... */ }
//
//	func (a *AuditLog) EventSpecs() []handler.Spec {
//		return []handler.Spec{
//			handler.On("OnOrderPlaced", (*AuditLog).OnOrderPlaced,
//				handler.WithContext(handler.Background),
//				handler.WithPriority(10)),
//		}
//	}
//
// Specs must be built from method expressions, not bound methods, so that
// one resolution can serve every instance of the type.
package handler
