package async

import "errors"

var (
	// ErrAborted is returned when awaiting a task that was aborted, either
	// explicitly with [JoinHandle.Abort] or because its runtime discarded it.
	ErrAborted = errors.New("async: task was aborted")

	// ErrPanicked matches, with errors.Is, the [*PanicError] returned when
	// awaiting a task that panicked.
	ErrPanicked = errors.New("async: task panicked")

	// ErrPending is returned by [JoinHandle.Poll] when the task has not
	// finished yet.
	ErrPending = errors.New("async: task has not finished")

	// ErrTimeout is returned by [AwaitTimeout] when the task did not finish
	// in time. The task keeps running.
	ErrTimeout = errors.New("async: timed out waiting for task completion")

	// ErrNoHandles is returned by [WaitAny] when called without handles.
	ErrNoHandles = errors.New("async: WaitAny called with no handles")

	ErrClosed         = errors.New("async: runtime is closed")
	ErrExecutorBusy   = errors.New("async: executor is already being driven")
	ErrUnknownBackend = errors.New("async: unknown runtime backend")
	ErrNaNInstant     = errors.New("async: host timestamp is NaN")
)
