// Package async runs background tasks behind a single handle contract, on
// either of two runtimes.
//
// A task is an ordinary Go function taking a [context.Context]. [Spawn]
// starts it on a [Runtime] and returns a [JoinHandle], which can be awaited
// for the task's value, polled, or aborted. Whatever happens to the task,
// the handle observes exactly one outcome: the value, [ErrAborted], or a
// [*PanicError] if the task panicked.
//
// # Runtimes
//
// A [*Threaded] runtime runs every task on its own goroutine and lets the Go
// scheduler spread them over OS threads.
//
// An [*Executor] runs every task on a single logical thread of execution.
// Tasks interleave only at suspension points: [Sleep], [Runtime.Yield],
// [JoinHandle.Await] and the other waiting functions of this package. Code
// between two suspension points runs without interruption, so tasks of one
// Executor may share data without locks. Some goroutine must drive the
// Executor with [Executor.Run] or [Executor.RunUntilIdle].
//
// Code written against [Runtime] behaves the same on both, except for
// timing. A process usually picks one with [NewRuntime] at start-up.
//
// # Aborting
//
// [JoinHandle.Abort] only requests a stop. The task notices at its next
// suspension point, which then does not return: the task is unwound, running
// its deferred calls, and its handle reports [ErrAborted]. On a Threaded
// runtime, aborting also cancels the task's context, so anything honoring
// that context stops too.
//
// A task whose function returns after Abort was called still reports
// [ErrAborted]. Once the function has returned, Abort no longer affects the
// outcome.
//
// Closing a runtime aborts every task it still holds. An Executor discards
// them at once: suspended tasks are unwound, and tasks that never ran never
// will.
//
// # Time
//
// Durations are measured with a [Clock]. Executors default to a monotonic
// clock; a [ManualClock] together with [Executor.RunUntilIdle] makes
// timer-driven code fully deterministic, which is what tests usually want.
// Pending deadlines live in a [Wheel], which is usable on its own.
package async
