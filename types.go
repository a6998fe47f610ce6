package pulse

import "reflect"

// MainSupport connects a bus to an application's designated main
// context, typically a UI event loop. IsMain reports whether the caller
// currently runs on that context; Schedule runs a function on it.
//
// A bus without MainSupport treats every goroutine as the main context:
// Main and MainOrdered handlers run inline and Background handlers
// always go to the background worker.
type MainSupport interface {
	IsMain() bool
	Schedule(task func())
}

// TypeOf returns the event type tag for E, for the type-keyed bus
// accessors:
//
//	ev := bus.Sticky(pulse.TypeOf[ConfigChanged]())
func TypeOf[E any]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

// StickyOf returns the current sticky event of type E, if one is stored.
func StickyOf[E any](b *Bus) (E, bool) {
	ev, ok := b.sticky.get(TypeOf[E]()).(E)
	return ev, ok
}
