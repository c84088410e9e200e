package runtime

import (
	"context"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

func base(r *run, typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: typ, RunID: r.id}
}

func (e *Engine) emitRunStart(ctx context.Context, r *run) {
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{EventBase: base(r, domain.EventRunStart)})
	}
}

func (e *Engine) emitRunEnd(ctx context.Context, r *run, elapsed time.Duration, err error) {
	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			EventBase: base(r, domain.EventRunEnd),
			Steps:     r.steps,
			Elapsed:   elapsed,
			Aborted:   r.aborted,
			Err:       err,
		})
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, r *run, n domain.Node) {
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: base(r, domain.EventNodeEnter),
			NodeID:    n.ID(),
			NodeType:  n.Type(),
		})
	}
}

func (e *Engine) emitNodeLeave(ctx context.Context, r *run, n domain.Node, closed bool, err error) {
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: base(r, domain.EventNodeLeave),
			NodeID:    n.ID(),
			NodeType:  n.Type(),
			Closed:    closed,
			Err:       err,
		})
	}
}

func (e *Engine) emitException(ctx context.Context, r *run, origin domain.Node, exc *domain.Exception, handler domain.Node) {
	if e.hooks.OnException == nil {
		return
	}
	ev := &domain.ExceptionEvent{
		EventBase:     base(r, domain.EventException),
		ExceptionType: exc.Type,
		Message:       exc.Message,
		Handled:       handler != nil,
	}
	if origin != nil {
		ev.NodeID = origin.ID()
	}
	if handler != nil {
		ev.HandlerID = handler.ID()
	}
	e.hooks.OnException(ctx, ev)
}

func (e *Engine) emitSignal(ctx context.Context, r *run, current entry, signal string, boundary domain.Node) {
	if e.hooks.OnSignal == nil {
		return
	}
	ev := &domain.SignalEvent{
		EventBase: base(r, domain.EventSignal),
		Signal:    signal,
	}
	if n := current.owner(); n != nil {
		ev.NodeID = n.ID()
	}
	if boundary != nil {
		ev.BoundaryID = boundary.ID()
	}
	e.hooks.OnSignal(ctx, ev)
}
