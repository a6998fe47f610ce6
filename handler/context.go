package handler

// ExecContext selects the execution context a handler is invoked on.
type ExecContext int

const (
	// Posting invokes the handler synchronously on the posting goroutine.
	// This is the default for reflection-discovered handlers and the only
	// context that may cancel delivery.
	Posting ExecContext = iota

	// Main invokes the handler on the designated main context. If the
	// post already happens on the main context the handler runs inline;
	// otherwise it is enqueued to the main pump.
	Main

	// MainOrdered always enqueues to the main pump, even when posting
	// from the main context, so delivery is never reentrant.
	MainOrdered

	// Background invokes the handler on a single serial background
	// worker when posting from the main context, and inline otherwise.
	Background

	// Async always enqueues to the concurrent worker queue, independent
	// of the posting context. No ordering is guaranteed.
	Async
)

// String implements fmt.Stringer.
func (c ExecContext) String() string {
	switch c {
	case Posting:
		return "posting"
	case Main:
		return "main"
	case MainOrdered:
		return "main-ordered"
	case Background:
		return "background"
	case Async:
		return "async"
	default:
		return "unknown"
	}
}
