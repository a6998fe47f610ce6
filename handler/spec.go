package handler

import (
	"context"
	"reflect"
)

// Describer is implemented by subscriber types that describe their own
// handlers. It is consulted before reflection and after the Table.
//
// EventSpecs is called on a zero value of the type during resolution, so
// it must not depend on instance state.
type Describer interface {
	EventSpecs() []Spec
}

// Spec declares one handler of a subscriber type. Build Specs with On.
type Spec struct {
	// Name is the handler method name.
	Name string

	// Owner is the receiver type of the method expression the Spec was
	// built from.
	Owner reflect.Type

	// Event is the event type the handler receives.
	Event reflect.Type

	// Context is the execution context for the handler.
	Context ExecContext

	// Priority orders delivery within one event type, higher first.
	Priority int

	// Sticky requests replay of a matching sticky event on registration.
	Sticky bool

	// invoke calls the method expression on a receiver of type Owner.
	invoke func(recv any, ctx context.Context, event any) error
}

// SpecOption configures a Spec built by On.
type SpecOption func(*Spec)

// WithContext sets the execution context. The default is Posting.
func WithContext(c ExecContext) SpecOption {
	return func(s *Spec) {
		s.Context = c
	}
}

// WithPriority sets the delivery priority. The default is 0.
func WithPriority(p int) SpecOption {
	return func(s *Spec) {
		s.Priority = p
	}
}

// WithSticky marks the handler sticky: on registration a stored sticky
// event matching its event type is replayed to it.
func WithSticky() SpecOption {
	return func(s *Spec) {
		s.Sticky = true
	}
}

// On builds a Spec from a method expression, for example
//
//	handler.On("OnOrderPlaced", (*AuditLog).OnOrderPlaced,
//		handler.WithContext(handler.Background))
//
// The method expression form keeps the Spec instance-independent so that
// one resolution serves every instance of the subscriber type.
func On[S any, E any](name string, fn func(S, context.Context, E) error, opts ...SpecOption) Spec {
	s := Spec{
		Name:    name,
		Owner:   reflect.TypeOf((*S)(nil)).Elem(),
		Event:   reflect.TypeOf((*E)(nil)).Elem(),
		Context: Posting,
		invoke: func(recv any, ctx context.Context, event any) error {
			return fn(recv.(S), ctx, event.(E))
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// OnDiscard is On for handlers without an error return.
func OnDiscard[S any, E any](name string, fn func(S, context.Context, E), opts ...SpecOption) Spec {
	return On(name, func(recv S, ctx context.Context, e E) error {
		fn(recv, ctx, e)
		return nil
	}, opts...)
}
