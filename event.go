package pulse

// NoSubscriberEvent is posted when an event finds no subscription in
// its whole delivery closure, if the bus is configured to send it.
// Posting a NoSubscriberEvent that itself finds no subscriber is not
// reported again.
type NoSubscriberEvent struct {
	// Bus is the bus the original event was posted on.
	Bus *Bus

	// Event is the original event that found no subscriber.
	Event any
}

// HandlerErrorEvent is posted when a handler fails, if the bus is
// configured to send it. A failure inside a HandlerErrorEvent handler is
// only logged, never reported again.
type HandlerErrorEvent struct {
	// Bus is the bus the failing delivery ran on.
	Bus *Bus

	// Err is the handler's returned error, or a *PanicError for a
	// recovered panic.
	Err error

	// Event is the event whose delivery failed.
	Event any

	// Subscriber is the subscriber whose handler failed.
	Subscriber any
}
