package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Masked replaces redacted values.
const Masked = "***"

type redactMiddleware struct {
	next     ports.TraceStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks exception info fields,
// at any depth, whose key matches one of the patterns.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.TraceStore) ports.TraceStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, trace *domain.Trace) error {
	if trace.Exception == nil || trace.Exception.Info == nil {
		return m.next.Save(ctx, trace)
	}
	// The caller still holds the trace; mask a copy.
	cloned := *trace
	exc := *trace.Exception
	info := orderedmap.New[string, any]()
	for pair := trace.Exception.Info.Oldest(); pair != nil; pair = pair.Next() {
		info.Set(pair.Key, m.mask(pair.Key, pair.Value))
	}
	exc.Info = info
	cloned.Exception = &exc
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.Trace, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) mask(key string, v any) any {
	if m.matches(key) {
		return Masked
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(sub))
	for k, sv := range sub {
		out[k] = m.mask(k, sv)
	}
	return out
}
