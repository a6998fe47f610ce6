package pulse

import (
	"log/slog"
	"time"

	"github.com/dshills/pulse/handler"
	"github.com/dshills/pulse/poster"
)

// BusOption configures a Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the bus.
type busConfig struct {
	// table is an optional pre-built handler table.
	table *handler.Table

	// ignoreTable resolves handlers with reflection only.
	ignoreTable bool

	// strictVerification fails resolution on malformed On* methods.
	strictVerification bool

	// relaxedAmbiguity keeps both handlers on an ambiguity instead of
	// failing resolution.
	relaxedAmbiguity bool

	// inheritance delivers events under embedded struct types and
	// satisfied interface types, not just the concrete type.
	inheritance bool

	// logNoSubscriber logs events that found no subscriber.
	logNoSubscriber bool

	// sendNoSubscriberEvent posts a NoSubscriberEvent for events that
	// found no subscriber.
	sendNoSubscriberEvent bool

	// logHandlerErrors logs handler failures.
	logHandlerErrors bool

	// sendHandlerErrorEvent posts a HandlerErrorEvent for handler
	// failures.
	sendHandlerErrorEvent bool

	// rethrowHandlerErrors propagates handler failures to the Post
	// caller instead of containing them.
	rethrowHandlerErrors bool

	// mainSupport connects the bus to the application's main context.
	mainSupport MainSupport

	// executor runs background and async deliveries.
	executor poster.Executor

	// sliceBudget is how long one main-context pump run may last.
	sliceBudget time.Duration

	// logger receives bus diagnostics.
	logger *slog.Logger
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		inheritance:           true,
		logNoSubscriber:       true,
		sendNoSubscriberEvent: true,
		logHandlerErrors:      true,
		sendHandlerErrorEvent: true,
		sliceBudget:           poster.DefaultSliceBudget,
		executor:              poster.GoExecutor{},
		logger:                slog.Default(),
	}
}

// WithTable supplies a pre-built handler table, consulted before
// Describer and reflection.
func WithTable(t *handler.Table) BusOption {
	return func(c *busConfig) {
		c.table = t
	}
}

// WithIgnoreTable forces reflection-only handler resolution.
func WithIgnoreTable(ignore bool) BusOption {
	return func(c *busConfig) {
		c.ignoreTable = ignore
	}
}

// WithStrictVerification fails registration when an exported On* method
// has an invalid handler shape.
func WithStrictVerification(strict bool) BusOption {
	return func(c *busConfig) {
		c.strictVerification = strict
	}
}

// WithRelaxedAmbiguity keeps both handlers when unrelated embedded types
// declare the same handler, instead of failing registration.
func WithRelaxedAmbiguity(relaxed bool) BusOption {
	return func(c *busConfig) {
		c.relaxedAmbiguity = relaxed
	}
}

// WithInheritance controls whether events are also delivered under their
// embedded struct types and satisfied interface types. Enabled by
// default.
func WithInheritance(on bool) BusOption {
	return func(c *busConfig) {
		c.inheritance = on
	}
}

// WithNoSubscriberEvent controls posting of NoSubscriberEvent.
func WithNoSubscriberEvent(send bool) BusOption {
	return func(c *busConfig) {
		c.sendNoSubscriberEvent = send
	}
}

// WithNoSubscriberLogging controls logging of events without subscriber.
func WithNoSubscriberLogging(log bool) BusOption {
	return func(c *busConfig) {
		c.logNoSubscriber = log
	}
}

// WithHandlerErrorEvent controls posting of HandlerErrorEvent.
func WithHandlerErrorEvent(send bool) BusOption {
	return func(c *busConfig) {
		c.sendHandlerErrorEvent = send
	}
}

// WithHandlerErrorLogging controls logging of handler failures.
func WithHandlerErrorLogging(log bool) BusOption {
	return func(c *busConfig) {
		c.logHandlerErrors = log
	}
}

// WithRethrow propagates handler failures to the Post caller. Mainly for
// tests; a contained failure policy is the default.
func WithRethrow(rethrow bool) BusOption {
	return func(c *busConfig) {
		c.rethrowHandlerErrors = rethrow
	}
}

// WithMainSupport connects the bus to the application's main context.
func WithMainSupport(ms MainSupport) BusOption {
	return func(c *busConfig) {
		c.mainSupport = ms
	}
}

// WithExecutor sets the executor for background and async deliveries.
// The default spawns a goroutine per task; use a poster.Pool to bound
// concurrency.
func WithExecutor(e poster.Executor) BusOption {
	return func(c *busConfig) {
		if e != nil {
			c.executor = e
		}
	}
}

// WithMainSliceBudget sets how long one main-context pump run may keep
// the main context busy before rescheduling itself.
func WithMainSliceBudget(d time.Duration) BusOption {
	return func(c *busConfig) {
		if d > 0 {
			c.sliceBudget = d
		}
	}
}

// WithLogger sets the logger for bus diagnostics.
func WithLogger(l *slog.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
