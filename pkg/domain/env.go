package domain

import (
	"context"
	"io"
)

// Env is the scoped key-value environment a run executes against.
//
// Keys starting with "." address the root scope. Everything else resolves
// through the scopes of the current frame, innermost first, then the root.
type Env interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Has(key string) bool
	// SetIfAbsent stores init() under key unless the key exists, and returns the stored value.
	SetIfAbsent(key string, init func() any) any
	// Resolve is Get with join-on-read: pending worker results are awaited.
	Resolve(key string) (any, error)

	Eval(expr string) (any, error)
	EvalBool(expr string) (bool, error)
	// Substitute replaces ${expr} placeholders in s.
	Substitute(s string) (string, error)

	PushFrame(data map[string]any)
	PopFrame()
	PushScope(data map[string]any)
	PopScope()

	PushCall(frame *CallFrame)
	PopCall() (*CallFrame, error)
	TopCall() (*CallFrame, error)
	// CallStack returns a copy of the call stack, outermost first.
	CallStack() []*CallFrame

	// Capture returns a snapshot of the data visible in the current frame.
	Capture() map[string]any
	// Fork returns a private environment seeded with a copy of the root data.
	Fork() Env

	Stdout() io.Writer
}

// ContextBinder is an Env whose blocking reads honour the context of the
// run using it. The engine binds each run's context for the run's duration.
type ContextBinder interface {
	BindContext(ctx context.Context) (restore func())
}

// Archive exposes named element lookup.
type Archive interface {
	Element(name string) (Node, bool)
}
