package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the logic interpreter. It drives node trees to completion on an
// explicit stack, so any node can suspend while its children run.
//
// An Engine holds no per-run state and can serve concurrent runs, each
// against its own Env.
type Engine struct {
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	store   ports.TraceStore
	console ports.DebugConsole

	debugMu             sync.Mutex
	suppressBreakpoints atomic.Bool
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers callbacks for engine events.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTraceStore persists the trace of every fatal error.
func WithTraceStore(store ports.TraceStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithDebugConsole enables the debug overlay. Breakpoints hit during Run
// attach the debugger to this console.
func WithDebugConsole(console ports.DebugConsole) Option {
	return func(e *Engine) {
		e.console = console
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SuppressBreakpoints makes every later breakpoint a no-op.
func (e *Engine) SuppressBreakpoints(v bool) {
	e.suppressBreakpoints.Store(v)
}

// run is the state of one driver invocation.
type run struct {
	engine *Engine
	env    domain.Env
	logger *slog.Logger
	id     string
	stack  *stack

	skip        []string
	debugging   bool
	breakpoints bool
	session     *debugSession

	steps   int
	aborted bool
	payload any
}

// Run drives root to completion against env.
//
// It returns normally once the engine stack is empty, or after an Abort
// (Result.Aborted is set and Result.Payload carries the abort value). An
// exception no node handles, or a host fault raised by a node, is returned
// as a *domain.LogicError carrying the diagnostic trace. Context
// cancellation closes every suspended frame and returns ctx.Err().
func (e *Engine) Run(ctx context.Context, env domain.Env, root domain.Directive) (*domain.Result, error) {
	return e.start(ctx, env, root, false)
}

// Debug is Run with the debugger armed from the first node.
func (e *Engine) Debug(ctx context.Context, env domain.Env, root domain.Directive) (*domain.Result, error) {
	return e.start(ctx, env, root, true)
}

func (e *Engine) start(ctx context.Context, env domain.Env, root domain.Directive, debug bool) (*domain.Result, error) {
	id := uuid.NewString()
	r := &run{
		engine: e,
		env:    env,
		logger: e.logger.With("run_id", id),
		id:     id,
		stack:  &stack{},
	}
	ctx = domain.WithRunner(ctx, e)
	if b, ok := env.(domain.ContextBinder); ok {
		defer b.BindContext(ctx)()
	}

	if debug {
		if err := r.attach(); err != nil {
			return nil, err
		}
	}
	defer r.detach()

	started := time.Now()
	e.emitRunStart(ctx, r)
	r.pushDirective(root)

	err := r.execute(ctx)

	e.emitRunEnd(ctx, r, time.Since(started), err)
	if err != nil {
		return nil, err
	}
	return &domain.Result{RunID: r.id, Aborted: r.aborted, Payload: r.payload, Steps: r.steps}, nil
}

// execute runs the loop until it ends for a reason other than an escaped breakpoint.
func (r *run) execute(ctx context.Context) error {
	for {
		err := r.loop(ctx)
		var bp *domain.Breakpoint
		if !errors.As(err, &bp) {
			return err
		}
		if r.session == nil && !r.engine.suppressBreakpoints.Load() && r.engine.console != nil {
			if err := r.attach(); err == nil {
				r.logger.Info("breakpoint hit", "node", bp.Node.ID())
				continue
			}
		}
		r.logger.Debug("breakpoint ignored", "node", bp.Node.ID())
		r.debugging = false
		r.breakpoints = false
	}
}

// loop is the driver: pop one entry, dispatch it, handle what it raised.
// An escaping breakpoint leaves the stack untouched so the loop can be re-entered.
func (r *run) loop(ctx context.Context) (err error) {
	finalize := true
	defer func() {
		if finalize {
			r.closeAll(ctx)
		}
	}()

	for r.stack.len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := r.stack.pop()
		r.steps++

		stepErr := r.step(ctx, current)
		if stepErr == nil {
			continue
		}
		if err := r.handle(ctx, current, stepErr); err != nil {
			var bp *domain.Breakpoint
			if errors.As(err, &bp) {
				finalize = false
			}
			return err
		}
	}
	return nil
}

func (r *run) step(ctx context.Context, current entry) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v", describe(current), p)
		}
	}()

	switch e := current.(type) {
	case *skipMarker:
		r.skip = e.types
		return nil
	case *rawNode:
		return r.dispatch(ctx, e.node)
	case *Frame:
		d, err := e.Advance()
		if err != nil || d == nil {
			r.leave(ctx, e, false, err)
			return err
		}
		r.stack.push(e)
		r.pushDirective(d)
		return nil
	case *childIterator:
		d, _ := e.Advance()
		if d == nil {
			return nil
		}
		r.stack.push(e)
		r.pushDirective(d)
		return nil
	}
	return fmt.Errorf("unknown stack entry %T", current)
}

// dispatch runs a node awaiting its first execution.
func (r *run) dispatch(ctx context.Context, node domain.Node) error {
	meta := node.Meta()
	if meta.LogicSkip {
		return nil
	}
	if r.skip != nil && slices.Contains(r.skip, node.Type()) {
		return nil
	}
	if r.debugging && r.session != nil && !meta.DebugSkip {
		r.debugging, r.breakpoints = r.session.hook(ctx, r, node)
	}
	if !meta.IgnoreSkip {
		r.skip = nil
	}

	ok, err := node.Check(ctx, r.env)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	r.logger.Debug("dispatch", "node", node.ID(), "type", node.Type())
	r.engine.emitNodeEnter(ctx, r, node)

	seq, err := node.Logic(ctx, r.env)
	if err != nil || seq == nil {
		r.engine.emitNodeLeave(ctx, r, node, false, err)
		return err
	}
	r.stack.push(newFrame(node, seq))
	return nil
}

func (r *run) pushDirective(d domain.Directive) {
	switch d := d.(type) {
	case domain.DelegateNode:
		r.stack.push(&rawNode{node: d.Node})
	case *domain.DelegateNode:
		r.stack.push(&rawNode{node: d.Node})
	case domain.DelegateChildren:
		r.stack.push(newChildIterator(d.Node))
	case *domain.DelegateChildren:
		r.stack.push(newChildIterator(d.Node))
	case domain.SkipNext:
		r.stack.push(&skipMarker{types: d.Types})
	case *domain.SkipNext:
		r.stack.push(&skipMarker{types: d.Types})
	}
}

// handle routes an error raised by a stack entry.
func (r *run) handle(ctx context.Context, current entry, err error) error {
	var (
		exc   *domain.Exception
		abort *domain.Abort
		bp    *domain.Breakpoint
	)
	switch {
	case errors.Is(err, domain.ErrBreakLoop):
		r.breakLoop(ctx, current)
		return nil
	case errors.Is(err, domain.ErrContinueLoop):
		r.continueLoop(ctx, current)
		return nil
	case errors.Is(err, domain.ErrUnwind):
		r.unwind(ctx, current)
		return nil
	case errors.As(err, &abort):
		r.abort(ctx, current, abort)
		return nil
	case errors.As(err, &bp):
		if bp.Node == nil {
			bp.Node = current.owner()
		}
		if r.breakpoints {
			r.debugging = true
			return nil
		}
		return bp
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.close(ctx, current)
		return err
	case errors.As(err, &exc):
		return r.handleException(ctx, current, exc)
	}
	return r.fault(ctx, current, err)
}

// close force-closes an entry if it is a live frame. Cleanup failures are logged, never raised.
func (r *run) close(ctx context.Context, e entry) {
	f, ok := e.(*Frame)
	if !ok || f.done {
		return
	}
	err := safeClose(f)
	if err != nil {
		r.logger.Warn("frame cleanup failed", "node", f.node.ID(), "err", err)
	}
	r.leave(ctx, f, true, err)
}

func (r *run) closeAll(ctx context.Context) {
	for r.stack.len() > 0 {
		r.close(ctx, r.stack.pop())
	}
}

func (r *run) leave(ctx context.Context, f *Frame, closed bool, err error) {
	if f.left {
		return
	}
	f.left = true
	r.engine.emitNodeLeave(ctx, r, f.node, closed, err)
}

func safeClose(f *Frame) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while closing %s: %v", f.node.ID(), p)
		}
	}()
	return f.Close()
}

func describe(e entry) string {
	switch e := e.(type) {
	case *rawNode:
		return e.node.ID()
	case *Frame:
		return e.node.ID()
	case *childIterator:
		return "children of " + e.node.ID()
	}
	return fmt.Sprintf("%T", e)
}
