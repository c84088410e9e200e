package runtime

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Signal names reported in SignalEvent.
const (
	SignalBreak    = "break"
	SignalContinue = "continue"
	SignalUnwind   = "unwind"
	SignalAbort    = "abort"
)

// breakLoop discards entries up to and including the nearest loop or call boundary.
func (r *run) breakLoop(ctx context.Context, current entry) {
	r.close(ctx, current)
	for r.stack.len() > 0 {
		e := r.stack.pop()
		r.close(ctx, e)
		if m := metaOf(e); m.IsLoop || m.IsCall {
			r.engine.emitSignal(ctx, r, current, SignalBreak, e.owner())
			return
		}
	}
	r.logger.Warn("break outside of a loop", "node", describe(current))
	r.engine.emitSignal(ctx, r, current, SignalBreak, nil)
}

// continueLoop discards entries above the nearest loop or call boundary and
// leaves the boundary in place, unclosed, so it resumes with its next step.
func (r *run) continueLoop(ctx context.Context, current entry) {
	r.close(ctx, current)
	for r.stack.len() > 0 {
		e := r.stack.pop()
		if m := metaOf(e); m.IsLoop || m.IsCall {
			r.stack.push(e)
			r.engine.emitSignal(ctx, r, current, SignalContinue, e.owner())
			return
		}
		r.close(ctx, e)
	}
	r.logger.Warn("continue outside of a loop", "node", describe(current))
	r.engine.emitSignal(ctx, r, current, SignalContinue, nil)
}

// unwind discards entries above the nearest call boundary and resumes it.
// The call node reads the return value established before the signal.
func (r *run) unwind(ctx context.Context, current entry) {
	r.close(ctx, current)
	for r.stack.len() > 0 {
		e := r.stack.pop()
		if metaOf(e).IsCall {
			r.stack.push(e)
			r.engine.emitSignal(ctx, r, current, SignalUnwind, e.owner())
			return
		}
		r.close(ctx, e)
	}
	r.logger.Warn("return outside of a call", "node", describe(current))
	r.engine.emitSignal(ctx, r, current, SignalUnwind, nil)
}

// abort closes everything and records the payload for the caller of Run.
func (r *run) abort(ctx context.Context, current entry, a *domain.Abort) {
	r.close(ctx, current)
	r.closeAll(ctx)
	r.aborted = true
	r.payload = a.Payload
	r.logger.Debug("run aborted", "node", describe(current))
	r.engine.emitSignal(ctx, r, current, SignalAbort, nil)
}
