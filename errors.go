package pulse

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dshills/pulse/handler"
)

// Sentinel errors for the bus.
var (
	// ErrNilEvent is returned when a nil event is posted.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrAlreadyRegistered is returned when a subscriber's handler is
	// registered twice on the same bus.
	ErrAlreadyRegistered = errors.New("subscriber already registered")

	// ErrIllegalCancel is returned when Cancel is called outside the
	// conditions that allow cancellation.
	ErrIllegalCancel = errors.New("illegal cancellation")

	// ErrScheduling is returned when a queued delivery cannot be handed
	// to its execution context.
	ErrScheduling = errors.New("delivery scheduling failed")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrInternal reports a broken internal invariant of the bus.
	ErrInternal = errors.New("internal bus error")

	// ErrDefaultInstalled is returned when InstallDefault is called
	// after the default bus exists.
	ErrDefaultInstalled = errors.New("default bus already installed")
)

// AlreadyRegisteredError reports a duplicate registration: the same
// subscriber instance already holds a subscription for the same handler.
type AlreadyRegisteredError struct {
	// Subscriber is the subscriber type.
	Subscriber reflect.Type

	// Name is the handler method name.
	Name string

	// Event is the handler's event type.
	Event reflect.Type
}

// Error implements the error interface.
func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("subscriber %s already registered for %s via %s", e.Subscriber, e.Event, e.Name)
}

// Is allows errors.Is to match AlreadyRegisteredError with ErrAlreadyRegistered.
func (e *AlreadyRegisteredError) Is(target error) bool {
	return target == ErrAlreadyRegistered
}

// IllegalCancelError reports a Cancel call made outside an active
// posting-context delivery of the given event.
type IllegalCancelError struct {
	// Reason describes which cancellation condition was violated.
	Reason string
}

// Error implements the error interface.
func (e *IllegalCancelError) Error() string {
	return "illegal cancellation: " + e.Reason
}

// Is allows errors.Is to match IllegalCancelError with ErrIllegalCancel.
func (e *IllegalCancelError) Is(target error) bool {
	return target == ErrIllegalCancel
}

// SchedulingError reports a delivery that could not be handed to its
// execution context, for example a full bounded worker pool. The Post
// call that triggered the delivery fails with it.
type SchedulingError struct {
	// Context is the execution context the delivery was bound for.
	Context handler.ExecContext

	// Event is the event type of the failed delivery.
	Event reflect.Type

	// Err is the executor's rejection.
	Err error
}

// Error implements the error interface.
func (e *SchedulingError) Error() string {
	return fmt.Sprintf("cannot schedule %s delivery of %s: %v", e.Context, e.Event, e.Err)
}

// Unwrap returns the executor's rejection.
func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match SchedulingError with ErrScheduling.
func (e *SchedulingError) Is(target error) bool {
	return target == ErrScheduling
}

// PanicError wraps a recovered handler panic as an error.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose handler panicked.
	SubscriptionID string

	// Event is the event type being delivered.
	Event reflect.Type

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for subscription %s on %s: %v", e.SubscriptionID, e.Event, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
