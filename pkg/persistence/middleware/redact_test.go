package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact_Contract(t *testing.T) {
	mw, err := middleware.NewRedactMiddleware([]string{"(?i)password"})
	require.NoError(t, err)
	ports.RunTraceStoreContract(t, middleware.Wrap(memory.NewStore(), mw))
}

func TestRedact_MasksInfoFields(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	mw, err := middleware.NewRedactMiddleware([]string{"(?i)password", "^token$"})
	require.NoError(t, err)
	store := middleware.Wrap(inner, mw)

	exc := domain.NewException("auth.denied", "bad login",
		"user", "ana",
		"Password", "hunter2",
		"request", map[string]any{"token": "abc", "path": "/login"},
	)
	trace := &domain.Trace{ID: "t1", ErrorType: domain.ErrorTypeException, Exception: exc}
	require.NoError(t, store.Save(ctx, trace))

	got, err := inner.Load(ctx, "t1")
	require.NoError(t, err)
	var keys []string
	for pair := got.Exception.Info.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"user", "Password", "request"}, keys, "field order is kept")

	pw, _ := got.Exception.Info.Get("Password")
	assert.Equal(t, middleware.Masked, pw)
	req, _ := got.Exception.Info.Get("request")
	assert.Equal(t, map[string]any{"token": middleware.Masked, "path": "/login"}, req)

	orig, _ := exc.Info.Get("Password")
	assert.Equal(t, "hunter2", orig, "the caller's trace is untouched")
}

func TestRedact_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactMiddleware([]string{"("})
	assert.Error(t, err)
}
