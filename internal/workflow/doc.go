// Package workflow runs the single download worker.
//
// The Worker resets tracks left in downloading by a previous process back to
// pending, subscribes once to the store's pending snapshots and feeds them
// into the FIFO track queue from a producer goroutine. A second goroutine
// drains the queue and hands each track to the pipeline synchronously; it is
// the only goroutine that ever runs a pipeline. When the queue is empty the
// progress surface is hidden, a queue completion notification is sent for
// the batch that just finished, and the worker blocks until new work arrives
// or it is stopped.
package workflow
