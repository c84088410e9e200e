package runtime

import (
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

func (r *run) buildTrace(exc *domain.Exception, fault error, callstack []*domain.CallFrame, path []domain.Node) *domain.Trace {
	trace := &domain.Trace{
		ID:        uuid.NewString(),
		RunID:     r.id,
		Time:      time.Now().UTC(),
		ErrorType: domain.ErrorTypeException,
		Exception: exc,
	}
	if fault != nil {
		trace.ErrorType = domain.ErrorTypeFault
		trace.Fault = fault.Error()
	}
	for _, cf := range callstack {
		if cf.Node != nil {
			trace.CallStack = append(trace.CallStack, domain.FrameOf(cf.Node))
		}
	}
	for _, n := range path {
		trace.Stack = append(trace.Stack, domain.FrameOf(n))
	}
	return trace
}

func (r *run) logTrace(trace *domain.Trace) {
	for _, line := range strings.Split(strings.TrimRight(trace.String(), "\n"), "\n") {
		r.logger.Error(line, "trace_id", trace.ID)
	}
}
