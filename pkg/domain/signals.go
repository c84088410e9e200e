package domain

import (
	"errors"
	"fmt"
)

// Control signals. Node logic returns these to restructure the engine stack;
// they are consumed by the driver and never reach the caller of Run.
var (
	// ErrBreakLoop exits the nearest enclosing loop or call boundary.
	ErrBreakLoop = errors.New("break loop")
	// ErrContinueLoop resumes the nearest enclosing loop or call boundary.
	ErrContinueLoop = errors.New("continue loop")
	// ErrUnwind returns to the nearest enclosing call boundary.
	ErrUnwind = errors.New("unwind")
)

// Abort terminates the whole run. The payload is handed to the caller of Run.
type Abort struct {
	Payload any
}

func (a *Abort) Error() string {
	return fmt.Sprintf("abort: %v", a.Payload)
}

// Breakpoint asks the engine to pause in the debugger.
type Breakpoint struct {
	Node Node
}

func (b *Breakpoint) Error() string {
	if b.Node == nil {
		return "breakpoint"
	}
	return "breakpoint at " + b.Node.ID()
}

// IsSignal reports whether err is a control signal rather than a failure.
func IsSignal(err error) bool {
	var abort *Abort
	var bp *Breakpoint
	return errors.Is(err, ErrBreakLoop) ||
		errors.Is(err, ErrContinueLoop) ||
		errors.Is(err, ErrUnwind) ||
		errors.As(err, &abort) ||
		errors.As(err, &bp)
}
