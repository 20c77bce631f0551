package async

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError is the error returned when awaiting a task whose computation
// panicked. It carries the recovered value and the stack trace of the
// panicking goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (pe *PanicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "async: task panicked: %v", pe.Value)
	if pe.Stack != nil {
		b.WriteString("\n\n")
		b.Write(pe.Stack)
	}
	return b.String()
}

// Is reports whether target is [ErrPanicked].
func (pe *PanicError) Is(target error) bool {
	return target == ErrPanicked
}

// Unwrap returns the panic value if it is an error.
func (pe *PanicError) Unwrap() error {
	if err, ok := pe.Value.(error); ok {
		return err
	}
	return nil
}

// unwind is panicked by suspension points to tear down a computation that
// has been aborted or discarded. Only the cancellable wrapper recovers it.
type unwind struct{}

func (unwind) String() string {
	return "async: task unwound at a suspension point"
}

// try calls f and reports how it terminated.
//
// A runtime.Goexit inside f cannot be stopped: try does not return and the
// goroutine keeps exiting.
func try(f func()) (pe *PanicError, unwound bool) {
	ok := false
	defer func() {
		if ok {
			return
		}
		switch v := recover(); v.(type) {
		case nil:
		case unwind:
			unwound = true
		default:
			pe = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	f()
	ok = true
	return
}
