package domain

import (
	"errors"
	"fmt"
)

// ErrTraceNotFound is returned when a trace ID cannot be found in the store.
var ErrTraceNotFound = errors.New("trace not found")

// ErrFrameClosed is returned by Yield while a frame is being force-closed.
var ErrFrameClosed = errors.New("frame closed")

// ErrUnknownElement is returned when an element type is not registered.
var ErrUnknownElement = errors.New("unknown element type")

// ErrElementNotFound is returned when a named element cannot be found in the archive.
var ErrElementNotFound = errors.New("element not found")

// ErrNoCallFrame is returned by call-stack operations outside of any call.
var ErrNoCallFrame = errors.New("no call frame")

// ErrDebuggerBusy is returned when a second debug session is started on the same engine.
var ErrDebuggerBusy = errors.New("debugger already attached")

// LogicError is the fatal error surfaced to the caller of Run.
// It wraps either an unhandled Exception or a host fault, plus the diagnostic trace.
type LogicError struct {
	Exception *Exception
	Fault     error
	Trace     *Trace
}

func (e *LogicError) Error() string {
	if e.Exception != nil {
		return fmt.Sprintf("unhandled exception %s", e.Exception.Error())
	}
	if e.Fault != nil {
		return fmt.Sprintf("logic error: %v", e.Fault)
	}
	return "logic error"
}

func (e *LogicError) Unwrap() error {
	if e.Exception != nil {
		return e.Exception
	}
	return e.Fault
}
