package handler

import (
	"context"
	"fmt"
	"reflect"
)

// Descriptor is one resolved handler of a subscriber type. Descriptors are
// immutable after resolution and shared by every instance of the type.
type Descriptor struct {
	// Owner is the type that declared the handler. For handlers found on
	// an embedded type this is the embedded type, not the subscriber.
	Owner reflect.Type

	// Event is the event type the handler receives.
	Event reflect.Type

	// Name is the handler method name. Together with Owner and Event it
	// identifies the handler.
	Name string

	// Context is the execution context the handler runs on.
	Context ExecContext

	// Priority orders delivery within one event type, higher first.
	// Handlers with equal priority deliver in registration order.
	Priority int

	// Sticky requests replay of a matching sticky event on registration.
	Sticky bool

	// fieldPath navigates from the subscriber struct to the embedded
	// struct that declared the handler. Empty for top-level handlers.
	fieldPath []int

	// invoke calls the handler on the declaring level's receiver.
	invoke func(recv any, ctx context.Context, event any) error
}

// Invoke calls the handler on the given subscriber instance. The
// subscriber must be of the type the descriptor was resolved for.
func (d *Descriptor) Invoke(subscriber any, ctx context.Context, event any) error {
	recv := subscriber
	if len(d.fieldPath) > 0 {
		v, err := receiverAt(subscriber, d.fieldPath)
		if err != nil {
			return fmt.Errorf("handler %s.%s: %w", d.Owner, d.Name, err)
		}
		recv = v
	}
	return d.invoke(recv, ctx, event)
}

// Equal reports whether two descriptors identify the same handler.
func (d *Descriptor) Equal(o *Descriptor) bool {
	return d.Owner == o.Owner && d.Name == o.Name && d.Event == o.Event
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s.%s(%s) [%s p=%d]", d.Owner, d.Name, d.Event, d.Context, d.Priority)
}

// receiverAt walks fieldPath from the subscriber pointer down to the
// embedded struct declaring the handler and returns a pointer to it.
func receiverAt(subscriber any, path []int) (any, error) {
	v := reflect.ValueOf(subscriber)
	for _, idx := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, fmt.Errorf("nil embedded pointer in %s", v.Type())
			}
			v = v.Elem()
		}
		f := v.Field(idx)
		if f.Kind() == reflect.Pointer {
			v = f
		} else {
			v = f.Addr()
		}
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, fmt.Errorf("nil embedded pointer in %s", v.Type())
	}
	return v.Interface(), nil
}
