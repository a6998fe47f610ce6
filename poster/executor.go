package poster

// Invoker performs the actual handler invocation for a queued delivery.
// The bus implements it: it re-checks the subscription's active flag,
// recovers panics, applies the error policy, and releases the record.
type Invoker interface {
	InvokePending(p *PendingPost)
}

// Executor runs delivery work off the posting goroutine. Submit returns
// an error when the executor cannot accept the task; the bus reports
// that to the Post caller as a scheduling failure.
type Executor interface {
	Submit(task func()) error
}

// GoExecutor spawns one goroutine per task and never rejects. It is the
// default Executor of a bus.
type GoExecutor struct{}

// Submit implements Executor.
func (GoExecutor) Submit(task func()) error {
	go task()
	return nil
}

// Scheduler schedules a function onto the designated main context, for
// example a UI event loop. MainPoster uses it to run its pump.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(task func())

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}
