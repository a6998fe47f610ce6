package poster

import "errors"

// Sentinel errors for the poster package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running pool.
	ErrAlreadyRunning = errors.New("worker pool is already running")

	// ErrNotRunning is returned when tasks are submitted to a stopped pool.
	ErrNotRunning = errors.New("worker pool is not running")

	// ErrQueueFull is returned when the pool queue is full and cannot
	// accept more tasks.
	ErrQueueFull = errors.New("task queue is full")
)
