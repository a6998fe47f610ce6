// Package poster contains the execution-context delivery machinery of
// the bus: the main-context pump, the strictly serial background queue,
// and the per-delivery async submitter.
//
// Posters do not invoke handlers themselves. They hand queued
// PendingPost records back to an Invoker (the bus), which re-checks the
// subscription's active flag, recovers panics, and applies the error
// policy. Delivery work runs on an Executor; the default spawns one
// goroutine per task and never rejects, while Pool is a bounded
// worker-pool Executor whose overflow rejection surfaces to the Post
// caller.
package poster
