package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for protocol violations.
var (
	ErrNilEvent        = errors.New("dispatch: nil event")
	ErrNilCallback     = errors.New("dispatch: nil callback")
	ErrNilListener     = errors.New("dispatch: nil listener")
	ErrListenerRunning = errors.New("dispatch: listener is running")
	ErrListenerClosed  = errors.New("dispatch: listener is closed")
	ErrHandlerRunning  = errors.New("dispatch: handler is running")
)

// CallbackPanicError records a callback panic that terminated a listener.
type CallbackPanicError struct {
	Listener string
	Value    any
}

func (e *CallbackPanicError) Error() string {
	return fmt.Sprintf("dispatch: callback panicked in listener %s: %v", e.Listener, e.Value)
}

// IsCallbackPanic reports whether err is (or wraps) a CallbackPanicError.
func IsCallbackPanic(err error) bool {
	var pe *CallbackPanicError
	return errors.As(err, &pe)
}
