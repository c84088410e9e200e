package domain

import "context"

// Result describes a completed driver invocation.
type Result struct {
	RunID   string
	Aborted bool
	// Payload is the value carried by an Abort.
	Payload any
	Steps   int
}

// Runner starts driver invocations. Nodes use it to evaluate a sub-tree with
// a fresh engine stack, e.g. on a worker goroutine.
type Runner interface {
	Run(ctx context.Context, env Env, root Directive) (*Result, error)
}

type runnerKey struct{}

// WithRunner returns a context carrying r.
func WithRunner(ctx context.Context, r Runner) context.Context {
	return context.WithValue(ctx, runnerKey{}, r)
}

// RunnerFrom returns the runner carried by ctx.
func RunnerFrom(ctx context.Context) (Runner, bool) {
	r, ok := ctx.Value(runnerKey{}).(Runner)
	return r, ok
}
