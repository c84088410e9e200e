package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter records the current loop index.
func counter(rec *recorder) *node {
	n := newNode("count", "echo")
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		i, _ := env.Get("i")
		rec.add(fmt.Sprint(i))
		return nil, nil
	}
	return n
}

// signalAt raises err when the loop index equals at.
func signalAt(id string, at int, err error) *node {
	n := newNode(id, "signal")
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		if i, _ := env.Get("i"); i == at {
			return nil, err
		}
		return nil, nil
	}
	return n
}

func callNode(id string, rec *recorder, children ...domain.Node) *node {
	n := newNode(id, "call", children...)
	n.meta.IsCall = true
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return func(yield domain.Yield) error {
			if err := yield(domain.DelegateChildren{Node: n}); err != nil {
				return err
			}
			rec.add(n.id + ":resumed")
			return nil
		}, nil
	}
	return n
}

func TestSignals_Break(t *testing.T) {
	rec := &recorder{}
	var boundary string
	hooks := domain.LifecycleHooks{
		OnSignal: func(ctx context.Context, e *domain.SignalEvent) { boundary = e.BoundaryID },
	}
	root := newNode("root", "block",
		loop("loop", 3, rec, signalAt("break", 1, domain.ErrBreakLoop), counter(rec)),
		leaf("after", rec),
	)

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).
		Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "loop:cleanup", "after"}, rec.get())
	assert.Equal(t, "loop", boundary)
}

func TestSignals_Continue(t *testing.T) {
	rec := &recorder{}
	root := newNode("root", "block",
		loop("loop", 3, rec, signalAt("continue", 1, domain.ErrContinueLoop), counter(rec)),
		leaf("after", rec),
	)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "2", "loop:cleanup", "after"}, rec.get())
}

func TestSignals_BreakStopsAtCallBoundary(t *testing.T) {
	rec := &recorder{}
	root := newNode("root", "block",
		loop("loop", 2, rec,
			callNode("call", rec, signalAt("break", 0, domain.ErrBreakLoop), signalAt("break1", 1, domain.ErrBreakLoop)),
			counter(rec),
		),
	)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "loop:cleanup"}, rec.get())
}

func TestSignals_Unwind(t *testing.T) {
	rec := &recorder{}
	ret := newNode("return", "return")
	ret.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return nil, domain.ErrUnwind
	}
	root := newNode("root", "block",
		callNode("call", rec, guarded("body", rec, ret, leaf("never", rec))),
		leaf("after", rec),
	)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"body:enter", "body:cleanup", "call:resumed", "after"}, rec.get())
}

func TestSignals_BreakWithoutLoopEndsRun(t *testing.T) {
	rec := &recorder{}
	root := newNode("root", "block", raising("break", domain.ErrBreakLoop), leaf("never", rec))

	res, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)
	assert.False(t, res.Aborted)
	assert.Empty(t, rec.get())
}

func TestSignals_Abort(t *testing.T) {
	rec := &recorder{}
	root := guarded("root", rec,
		leaf("a", rec),
		raising("exit", &domain.Abort{Payload: 7}),
		leaf("never", rec),
	)

	res, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Equal(t, 7, res.Payload)
	assert.Equal(t, []string{"root:enter", "a", "root:cleanup"}, rec.get())
}
