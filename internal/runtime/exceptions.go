package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// handleException searches outward from current for a node that handles exc.
//
// Each entry is resolved to the node it belongs to. A trap-policy node
// handles the exception itself; otherwise the catch siblings directly after
// the node are tried in document order. Entries that do not handle the
// exception are closed and discarded on the way out. When the stack runs
// out the exception is fatal.
func (r *run) handleException(ctx context.Context, current entry, exc *domain.Exception) error {
	origin := current.owner()
	if exc.Node == nil {
		exc.Node = origin
	}
	callstack := r.env.CallStack()
	path := r.stack.path(current)

	var searched domain.Node
	for current != nil {
		n := current.owner()
		if n == nil || n == searched {
			r.close(ctx, current)
			current = r.stack.pop()
			continue
		}
		searched = n

		// A trap node guards its descendants, not its own check and logic.
		if n.Meta().TrapExceptions && n != origin {
			handled, rethrown, err := r.trap(ctx, current, n, exc, callstack, path)
			if err != nil {
				return r.fatal(ctx, nil, err, callstack, path)
			}
			if handled {
				r.logger.Debug("exception trapped", "type", exc.Type, "node", n.ID())
				r.engine.emitException(ctx, r, origin, exc, n)
				return nil
			}
			// The rethrown exception is offered to the trap node's own catch siblings.
			exc = rethrown
			r.discardOwned(ctx, n)
		}

		catch, err := r.findCatch(n, exc)
		if err != nil {
			return r.fatal(ctx, nil, err, callstack, path)
		}
		if catch != nil {
			r.close(ctx, current)
			r.discardOwned(ctx, n)
			if err := catch.BindException(r.env, exc); err != nil {
				return r.fatal(ctx, nil, err, callstack, path)
			}
			r.stack.push(&skipMarker{types: []string{domain.TypeElse, domain.TypeElif}})
			r.stack.push(newChildIterator(catch))
			r.logger.Debug("exception caught", "type", exc.Type, "catch", catch.ID())
			r.engine.emitException(ctx, r, origin, exc, catch)
			return nil
		}

		r.close(ctx, current)
		current = r.stack.pop()
	}

	r.engine.emitException(ctx, r, origin, exc, nil)
	return r.fatal(ctx, exc, nil, callstack, path)
}

// findCatch returns the first catch sibling after n whose types match exc.
func (r *run) findCatch(n domain.Node, exc *domain.Exception) (domain.Catcher, error) {
	for _, sibling := range domain.YoungerSiblingsOfType(n, domain.TypeCatch) {
		catch, ok := sibling.(domain.Catcher)
		if !ok {
			continue
		}
		types, err := catch.CatchTypes(r.env)
		if err != nil {
			return nil, err
		}
		if domain.MatchException(exc.Type, types) {
			return catch, nil
		}
	}
	return nil, nil
}

// trap lets a trap-policy node deal with exc. It returns handled=false and
// the exception to keep searching with when the node's handler rethrows.
func (r *run) trap(ctx context.Context, current entry, n domain.Node, exc *domain.Exception, callstack []*domain.CallFrame, path []domain.Node) (bool, *domain.Exception, error) {
	trapper, ok := n.(domain.ExceptionTrapper)
	if !ok {
		r.inject(ctx, current, n, exc, callstack, path)
		return true, nil, nil
	}

	d, err := trapper.OnException(ctx, r.env, exc)
	if err != nil {
		var next *domain.Exception
		if errors.As(err, &next) {
			r.close(ctx, current)
			return false, next, nil
		}
		return false, nil, err
	}
	r.close(ctx, current)
	if d != nil {
		r.pushDirective(d)
	}
	return true, nil, nil
}

// inject delivers exc into the suspended frame of a trap node without a
// handler, so the node's own cleanup runs. Whatever escapes that
// continuation is logged and absorbed: the trap node has the last word.
func (r *run) inject(ctx context.Context, current entry, n domain.Node, exc *domain.Exception, callstack []*domain.CallFrame, path []domain.Node) {
	frame, ok := current.(*Frame)
	for !ok || frame.node != n {
		r.close(ctx, current)
		next := r.stack.peek()
		if next == nil || next.owner() != n {
			r.logger.Debug("exception trapped without a suspended frame", "node", n.ID())
			return
		}
		current = r.stack.pop()
		frame, ok = current.(*Frame)
	}

	lerr := &domain.LogicError{Exception: exc, Trace: r.buildTrace(exc, nil, callstack, path)}
	d, err := safeInject(frame, lerr)
	if err != nil {
		r.logger.Warn("frame cleanup failed", "node", n.ID(), "err", err)
		r.leave(ctx, frame, true, err)
		return
	}
	if d == nil {
		r.leave(ctx, frame, false, nil)
		return
	}
	r.stack.push(frame)
	r.pushDirective(d)
}

func safeInject(f *Frame, err error) (d domain.Directive, out error) {
	defer func() {
		if p := recover(); p != nil {
			out = fmt.Errorf("panic during injected cleanup of %s: %v", f.node.ID(), p)
		}
	}()
	return f.Inject(err)
}

// discardOwned closes and drops the entries on top of the stack that belong to n.
func (r *run) discardOwned(ctx context.Context, n domain.Node) {
	for {
		top := r.stack.peek()
		if top == nil || top.owner() != n {
			return
		}
		r.close(ctx, r.stack.pop())
	}
}

// fault turns a host-level error raised by a node into a fatal LogicError.
func (r *run) fault(ctx context.Context, current entry, err error) error {
	callstack := r.env.CallStack()
	path := r.stack.path(current)
	r.close(ctx, current)
	return r.fatal(ctx, nil, err, callstack, path)
}

// fatal builds, logs and stores the trace of an unrecoverable error.
func (r *run) fatal(ctx context.Context, exc *domain.Exception, fault error, callstack []*domain.CallFrame, path []domain.Node) error {
	trace := r.buildTrace(exc, fault, callstack, path)
	r.logTrace(trace)
	if r.engine.store != nil {
		if err := r.engine.store.Save(ctx, trace); err != nil {
			r.logger.Warn("failed to save trace", "trace_id", trace.ID, "err", err)
		}
	}
	return &domain.LogicError{Exception: exc, Fault: fault, Trace: trace}
}
