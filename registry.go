package pulse

import (
	"reflect"
	"sync"
)

// registry holds the live subscriptions of a bus.
//
// Per-event-type lists are ordered by descending priority with
// registration order preserved among equals, and treated as immutable:
// every mutation installs a fresh slice, so fan-out iterates snapshots
// without holding the lock.
type registry struct {
	mu sync.Mutex

	// byEvent maps an event type to its ordered subscription list.
	byEvent map[reflect.Type][]*Subscription

	// bySubscriber maps a subscriber instance to the event types it
	// subscribed to, for unregistration.
	bySubscriber map[any][]reflect.Type
}

func newRegistry() *registry {
	return &registry{
		byEvent:      make(map[reflect.Type][]*Subscription),
		bySubscriber: make(map[any][]reflect.Type),
	}
}

// insertLocked adds a subscription in priority position. The caller
// holds r.mu.
func (r *registry) insertLocked(s *Subscription) error {
	d := s.descriptor
	list := r.byEvent[d.Event]
	for _, ex := range list {
		if ex.subscriber == s.subscriber && ex.descriptor.Equal(d) {
			return &AlreadyRegisteredError{
				Subscriber: reflect.TypeOf(s.subscriber),
				Name:       d.Name,
				Event:      d.Event,
			}
		}
	}

	next := make([]*Subscription, 0, len(list)+1)
	inserted := false
	for _, ex := range list {
		if !inserted && d.Priority > ex.descriptor.Priority {
			next = append(next, s)
			inserted = true
		}
		next = append(next, ex)
	}
	if !inserted {
		next = append(next, s)
	}
	r.byEvent[d.Event] = next
	r.bySubscriber[s.subscriber] = append(r.bySubscriber[s.subscriber], d.Event)
	return nil
}

// removeAll deactivates and removes every subscription of a subscriber.
// It reports whether the subscriber was registered.
func (r *registry) removeAll(subscriber any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	types, ok := r.bySubscriber[subscriber]
	if !ok {
		return false
	}
	delete(r.bySubscriber, subscriber)

	for _, t := range types {
		list := r.byEvent[t]
		next := make([]*Subscription, 0, len(list))
		for _, ex := range list {
			if ex.subscriber == subscriber {
				ex.deactivate()
				continue
			}
			next = append(next, ex)
		}
		if len(next) == 0 {
			delete(r.byEvent, t)
		} else {
			r.byEvent[t] = next
		}
	}
	return true
}

// snapshot returns the current subscription list for an event type. The
// returned slice is immutable.
func (r *registry) snapshot(t reflect.Type) []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEvent[t]
}

// hasAny reports whether any subscription exists for an event type.
func (r *registry) hasAny(t reflect.Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEvent[t]) > 0
}

// isRegistered reports whether a subscriber holds any subscription.
func (r *registry) isRegistered(subscriber any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bySubscriber[subscriber]
	return ok
}
