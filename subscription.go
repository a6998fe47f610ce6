package pulse

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/pulse/handler"
)

// Subscription binds one subscriber instance to one of its handler
// descriptors on a bus.
type Subscription struct {
	// id identifies the subscription in logs and errors.
	id string

	// subscriber is the registered instance, always a pointer to a
	// struct.
	subscriber any

	// descriptor is the resolved handler, shared by every instance of
	// the subscriber type.
	descriptor *handler.Descriptor

	// active is flipped false before the subscription leaves the
	// registry. Queued deliveries re-check it just before invocation so
	// an unregistered handler is not called late.
	active atomic.Bool
}

func newSubscription(subscriber any, d *handler.Descriptor) *Subscription {
	s := &Subscription{
		id:         uuid.NewString(),
		subscriber: subscriber,
		descriptor: d,
	}
	s.active.Store(true)
	return s
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Subscriber returns the registered subscriber instance.
func (s *Subscription) Subscriber() any {
	return s.subscriber
}

// Descriptor returns the handler descriptor the subscription delivers to.
func (s *Subscription) Descriptor() *handler.Descriptor {
	return s.descriptor
}

// IsActive reports whether the subscription is still registered.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

func (s *Subscription) deactivate() {
	s.active.Store(false)
}
