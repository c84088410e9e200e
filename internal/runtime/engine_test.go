package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv() *scope.Context {
	return scope.New(scope.WithStdout(&bytes.Buffer{}))
}

func TestEngine_RunsChildrenInDocumentOrder(t *testing.T) {
	rec := &recorder{}
	root := newNode("root", "block",
		leaf("a", rec),
		newNode("inner", "block", leaf("b", rec), leaf("c", rec)),
		leaf("d", rec),
	)

	res, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, rec.get())
	assert.False(t, res.Aborted)
	assert.NotEmpty(t, res.RunID)
	assert.Positive(t, res.Steps)
}

func TestEngine_CheckDiscardsNode(t *testing.T) {
	rec := &recorder{}
	skipped := leaf("skipped", rec)
	skipped.check = func(env domain.Env) (bool, error) { return false, nil }
	root := newNode("root", "block", skipped, leaf("kept", rec))

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, rec.get())
}

func TestEngine_DataChildrenAreNotVisited(t *testing.T) {
	rec := &recorder{}
	data := leaf("data", rec)
	data.meta.Class = domain.ClassData
	root := newNode("root", "block", data, leaf("logic", rec))

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"logic"}, rec.get())
}

func TestEngine_FrameResumesAfterDelegatedWork(t *testing.T) {
	rec := &recorder{}
	root := guarded("outer", rec, leaf("a", rec), guarded("inner", rec, leaf("b", rec)))

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"outer:enter", "a", "inner:enter", "b", "inner:cleanup", "outer:cleanup",
	}, rec.get())
}

func TestEngine_SkipNext(t *testing.T) {
	rec := &recorder{}
	cond := newNode("if", "if")
	cond.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return func(yield domain.Yield) error {
			rec.add("if")
			return yield(domain.Skip(domain.TypeElif, domain.TypeElse))
		}, nil
	}
	elif := leaf("elif", rec)
	elif.typ = domain.TypeElif
	els := leaf("else", rec)
	els.typ = domain.TypeElse
	root := newNode("root", "block", cond, elif, els, leaf("after", rec))

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"if", "after"}, rec.get())
}

func TestEngine_CatchFirstMatch(t *testing.T) {
	rec := &recorder{}
	exc := domain.NewException("db.timeout", "too slow")
	netCatch := newCatch("catch-net", "net.*")
	adopt(netCatch, leaf("net", rec))
	dbCatch := newCatch("catch-db", "db.*")
	adopt(dbCatch, leaf("db", rec))
	anyCatch := newCatch("catch-any", "*")
	adopt(anyCatch, leaf("any", rec))

	root := newNode("root", "block",
		raising("throw", exc),
		netCatch, dbCatch, anyCatch,
		leaf("after", rec),
	)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"db", "after"}, rec.get())
	assert.Same(t, exc, dbCatch.bound)
	assert.Nil(t, netCatch.bound)
	assert.Nil(t, anyCatch.bound)
}

func TestEngine_CatchClosesFramesOnTheWay(t *testing.T) {
	rec := &recorder{}
	body := guarded("body", rec, guarded("inner", rec, raising("throw", domain.NewException("io.error", ""))))
	catch := newCatch("catch", "io.*")
	adopt(catch, leaf("handler", rec))
	root := newNode("root", "block", body, catch)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"body:enter", "inner:enter", "inner:cleanup", "body:cleanup", "handler",
	}, rec.get())
}

func TestEngine_UnhandledException(t *testing.T) {
	rec := &recorder{}
	store := memory.NewStore()
	root := newNode("root", "block",
		loop("loop", 3, rec, raising("leaf", domain.NewException("value.error", "bad value"))),
		leaf("never", rec),
	)
	catch := newCatch("catch", "io.*")
	adopt(root, append(root.children, catch)...)

	_, err := runtime.NewEngine(runtime.WithTraceStore(store)).
		Run(context.Background(), newEnv(), domain.Delegate(root))
	require.Error(t, err)

	var lerr *domain.LogicError
	require.ErrorAs(t, err, &lerr)
	require.NotNil(t, lerr.Exception)
	assert.Equal(t, "value.error", lerr.Exception.Type)
	assert.Equal(t, domain.ErrorTypeException, lerr.Trace.ErrorType)

	var ids []string
	for _, f := range lerr.Trace.Stack {
		ids = append(ids, f.NodeID)
	}
	assert.Equal(t, []string{"root", "loop", "leaf"}, ids)
	origin, ok := lerr.Trace.Origin()
	require.True(t, ok)
	assert.Equal(t, "leaf", origin.NodeID)

	// The suspended loop was closed, nothing after it ran.
	assert.Equal(t, []string{"loop:cleanup"}, rec.get())

	stored, err := store.Load(context.Background(), lerr.Trace.ID)
	require.NoError(t, err)
	assert.Equal(t, lerr.Trace.RunID, stored.RunID)
	assert.Contains(t, lerr.Trace.String(), `unhandled exception: value.error "bad value"`)
}

func TestEngine_Fault(t *testing.T) {
	root := newNode("root", "block", raising("bad", errBoom))

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))

	var lerr *domain.LogicError
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, domain.ErrorTypeFault, lerr.Trace.ErrorType)
	assert.Nil(t, lerr.Exception)
}

func TestEngine_PanicBecomesFault(t *testing.T) {
	bad := newNode("bad", "panic")
	bad.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		panic("kaput")
	}
	root := newNode("root", "block", bad)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))

	var lerr *domain.LogicError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Trace.Fault, "kaput")
}

func TestEngine_ExceptionRaisedFromSuspendedFrame(t *testing.T) {
	rec := &recorder{}
	after := newNode("after-yield", "block", leaf("child", rec))
	after.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return func(yield domain.Yield) error {
			if err := yield(domain.DelegateChildren{Node: n}); err != nil {
				return err
			}
			return domain.NewException("late.failure", "after children")
		}, nil
	}
	catch := newCatch("catch", "late.*")
	adopt(catch, leaf("handler", rec))
	root := newNode("root", "block", after, catch)

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"child", "handler"}, rec.get())
}

func TestEngine_ContextCancellation(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := newNode("stop", "cancel")
	stop.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		cancel()
		return nil, nil
	}
	root := guarded("root", rec, stop, leaf("never", rec))

	_, err := runtime.NewEngine().Run(ctx, newEnv(), domain.Delegate(root))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"root:enter", "root:cleanup"}, rec.get())
}

func TestEngine_CancellationStopsWorkerJoin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newEnv()
	env.Set("pending", scope.NewFuture("pending", 0))

	join := newNode("join", "echo")
	join.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, err := env.Eval("pending + 1")
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		_, err := runtime.NewEngine().Run(ctx, env, domain.Delegate(join))
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run kept waiting on the worker after cancellation")
	}
}

func TestEngine_LifecycleHooks(t *testing.T) {
	rec := &recorder{}
	var (
		entered, left []string
		starts, ends  int
		exceptions    []*domain.ExceptionEvent
	)
	hooks := domain.LifecycleHooks{
		OnRunStart:  func(ctx context.Context, e *domain.RunEvent) { starts++ },
		OnRunEnd:    func(ctx context.Context, e *domain.RunEvent) { ends++ },
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) { left = append(left, e.NodeID) },
		OnException: func(ctx context.Context, e *domain.ExceptionEvent) { exceptions = append(exceptions, e) },
	}
	catch := newCatch("catch", "*")
	root := newNode("root", "block",
		leaf("a", rec),
		raising("throw", domain.NewException("x", "")),
		catch,
	)

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).
		Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.Equal(t, []string{"root", "a", "throw"}, entered)
	assert.Contains(t, left, "root")
	require.Len(t, exceptions, 1)
	assert.True(t, exceptions[0].Handled)
	assert.Equal(t, "throw", exceptions[0].NodeID)
	assert.Equal(t, "catch", exceptions[0].HandlerID)
}

func TestEngine_NestedRunner(t *testing.T) {
	rec := &recorder{}
	inner := newNode("inner", "block", leaf("nested", rec))
	outer := newNode("outer", "worker")
	outer.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		runner, ok := domain.RunnerFrom(ctx)
		if !ok {
			return nil, errors.New("no runner")
		}
		_, err := runner.Run(ctx, env.Fork(), domain.Delegate(inner))
		return nil, err
	}

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(outer))
	require.NoError(t, err)
	assert.Equal(t, []string{"nested"}, rec.get())
}
