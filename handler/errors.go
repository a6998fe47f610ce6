package handler

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for handler resolution.
var (
	// ErrAmbiguousHandler is returned when two unrelated embedded types
	// declare a handler with the same name and event type.
	ErrAmbiguousHandler = errors.New("ambiguous handler")

	// ErrMalformedHandler is returned in strict mode when an On* method
	// does not have a valid handler shape.
	ErrMalformedHandler = errors.New("malformed handler method")

	// ErrNoHandlers is returned when a subscriber type declares no
	// handlers at all.
	ErrNoHandlers = errors.New("subscriber has no handler methods")

	// ErrInvalidSubscriber is returned when the subscriber is not a
	// pointer to a struct.
	ErrInvalidSubscriber = errors.New("subscriber must be a pointer to a struct")
)

// AmbiguousHandlerError reports a handler declared by two embedded types
// that have no embedding relation to each other.
type AmbiguousHandlerError struct {
	// Subscriber is the resolved subscriber type.
	Subscriber reflect.Type

	// Name is the handler method name.
	Name string

	// Event is the event type both declarations target.
	Event reflect.Type

	// Owners are the two unrelated declaring types.
	Owners [2]reflect.Type
}

// Error implements the error interface.
func (e *AmbiguousHandlerError) Error() string {
	return fmt.Sprintf("ambiguous handler %s(%s) on %s: declared by both %s and %s",
		e.Name, e.Event, e.Subscriber, e.Owners[0], e.Owners[1])
}

// Is allows errors.Is to match AmbiguousHandlerError with ErrAmbiguousHandler.
func (e *AmbiguousHandlerError) Is(target error) bool {
	return target == ErrAmbiguousHandler
}

// MalformedHandlerError reports an On* method whose signature is not a
// valid handler shape. It is only produced in strict mode; otherwise
// malformed methods are skipped silently.
type MalformedHandlerError struct {
	// Owner is the type declaring the method.
	Owner reflect.Type

	// Name is the method name.
	Name string

	// Reason describes what is wrong with the signature.
	Reason string
}

// Error implements the error interface.
func (e *MalformedHandlerError) Error() string {
	return fmt.Sprintf("malformed handler method %s.%s: %s", e.Owner, e.Name, e.Reason)
}

// Is allows errors.Is to match MalformedHandlerError with ErrMalformedHandler.
func (e *MalformedHandlerError) Is(target error) bool {
	return target == ErrMalformedHandler
}

// NoHandlersFoundError reports a subscriber type with no handlers.
type NoHandlersFoundError struct {
	// Type is the subscriber type that was resolved.
	Type reflect.Type
}

// Error implements the error interface.
func (e *NoHandlersFoundError) Error() string {
	return fmt.Sprintf("subscriber %s and its embedded types have no handler methods; "+
		"declare exported On* methods or implement Describer", e.Type)
}

// Is allows errors.Is to match NoHandlersFoundError with ErrNoHandlers.
func (e *NoHandlersFoundError) Is(target error) bool {
	return target == ErrNoHandlers
}
