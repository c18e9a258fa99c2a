package dispatch

import (
	"errors"
	"fmt"
)

// Attach argument errors.
// Use errors.Is() to check for these as they may be wrapped with additional context.
var (
	// ErrInvalidArgument is the root of all argument validation errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyEvent indicates an empty event name was passed to Attach.
	ErrEmptyEvent = fmt.Errorf("%w: empty event name", ErrInvalidArgument)

	// ErrNilHandler indicates a nil handler was passed to Attach.
	ErrNilHandler = fmt.Errorf("%w: nil handler", ErrInvalidArgument)

	// ErrEmitterClosed is returned when attaching to or firing a closed emitter.
	ErrEmitterClosed = errors.New("emitter is closed")
)

// HandlerError wraps a failure raised by a synchronous listener during Call.
// When the failing listener has no OnError callback, Call returns this error
// and dispatch of the remaining listeners in that firing is aborted.
type HandlerError struct {
	Event    string
	Listener string
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failed for event %q (listener %s): %v", e.Event, e.Listener, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsHandlerError checks if an error originated from a listener handler.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// AsyncError wraps a failure raised by an asynchronous listener.
// It is delivered to the listener's OnError callback or, if absent, to the
// emitter's error sink. It is never returned from Call.
type AsyncError struct {
	Event    string
	Listener string
	Err      error
}

func (e *AsyncError) Error() string {
	return fmt.Sprintf("async handler failed for event %q (listener %s): %v", e.Event, e.Listener, e.Err)
}

func (e *AsyncError) Unwrap() error {
	return e.Err
}

// IsAsyncError checks if an error originated from an asynchronous listener.
func IsAsyncError(err error) bool {
	var ae *AsyncError
	return errors.As(err, &ae)
}

// PanicError wraps a recovered panic value from a listener or callback.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// recovered converts a recover() value into an error.
func recovered(v any) error {
	return &PanicError{Value: v}
}
