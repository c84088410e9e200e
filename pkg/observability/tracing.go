package observability

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing records an OpenTelemetry span per run, with a child span per node
// execution. Exceptions and signals are span events on the innermost span.
type Tracing struct {
	tracer trace.Tracer

	mu   sync.Mutex
	runs map[string]*spanStack
}

type spanEntry struct {
	nodeID string
	ctx    context.Context
	span   trace.Span
}

type spanStack struct {
	entries []spanEntry
}

func (s *spanStack) top() spanEntry {
	return s.entries[len(s.entries)-1]
}

// NewTracing creates span hooks that use tracer.
func NewTracing(tracer trace.Tracer) *Tracing {
	return &Tracing{tracer: tracer, runs: make(map[string]*spanStack)}
}

// Hooks returns the lifecycle hooks that record spans.
func (t *Tracing) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart:  t.runStart,
		OnRunEnd:    t.runEnd,
		OnNodeEnter: t.nodeEnter,
		OnNodeLeave: t.nodeLeave,
		OnException: t.exception,
		OnSignal:    t.signal,
	}
}

func (t *Tracing) runStart(ctx context.Context, e *domain.RunEvent) {
	ctx, span := t.tracer.Start(ctx, "arbor.run", trace.WithAttributes(attribute.String("arbor.run_id", e.RunID)))
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[e.RunID] = &spanStack{entries: []spanEntry{{ctx: ctx, span: span}}}
}

func (t *Tracing) runEnd(ctx context.Context, e *domain.RunEvent) {
	t.mu.Lock()
	stack, ok := t.runs[e.RunID]
	delete(t.runs, e.RunID)
	t.mu.Unlock()
	if !ok {
		return
	}
	// Spans left open belong to frames the run never finished.
	for i := len(stack.entries) - 1; i > 0; i-- {
		stack.entries[i].span.End()
	}
	run := stack.entries[0].span
	run.SetAttributes(
		attribute.Int("arbor.steps", e.Steps),
		attribute.Bool("arbor.aborted", e.Aborted),
	)
	if e.Err != nil {
		run.RecordError(e.Err)
		run.SetStatus(codes.Error, e.Err.Error())
	}
	run.End()
}

func (t *Tracing) nodeEnter(ctx context.Context, e *domain.NodeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stack, ok := t.runs[e.RunID]
	if !ok {
		return
	}
	nctx, span := t.tracer.Start(stack.top().ctx, e.NodeType, trace.WithAttributes(
		attribute.String("arbor.node_id", e.NodeID),
		attribute.String("arbor.node_type", e.NodeType),
	))
	stack.entries = append(stack.entries, spanEntry{nodeID: e.NodeID, ctx: nctx, span: span})
}

func (t *Tracing) nodeLeave(ctx context.Context, e *domain.NodeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stack, ok := t.runs[e.RunID]
	if !ok {
		return
	}
	for i := len(stack.entries) - 1; i > 0; i-- {
		entry := stack.entries[i]
		if entry.nodeID != e.NodeID {
			continue
		}
		if e.Closed {
			entry.span.SetAttributes(attribute.Bool("arbor.closed", true))
		}
		// Exceptions are reported by OnException, handled or not.
		var exc *domain.Exception
		if e.Err != nil && !domain.IsSignal(e.Err) && !errors.As(e.Err, &exc) {
			entry.span.RecordError(e.Err)
			entry.span.SetStatus(codes.Error, e.Err.Error())
		}
		entry.span.End()
		stack.entries = append(stack.entries[:i], stack.entries[i+1:]...)
		return
	}
}

func (t *Tracing) exception(ctx context.Context, e *domain.ExceptionEvent) {
	t.event(e.RunID, "exception",
		attribute.String("exception.type", e.ExceptionType),
		attribute.String("exception.message", e.Message),
		attribute.Bool("arbor.handled", e.Handled),
		attribute.String("arbor.handler_id", e.HandlerID),
	)
}

func (t *Tracing) signal(ctx context.Context, e *domain.SignalEvent) {
	t.event(e.RunID, "signal",
		attribute.String("arbor.signal", e.Signal),
		attribute.String("arbor.boundary_id", e.BoundaryID),
	)
}

func (t *Tracing) event(runID, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stack, ok := t.runs[runID]; ok {
		stack.top().span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
