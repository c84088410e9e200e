package tags

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scope"
)

const workerApp = "worker"

// Worker runs its children on a goroutine against a private fork of the Env.
//
// Dst receives a *scope.Future right away; reading it later joins the
// worker. A return inside the worker sets the joined value.
type Worker struct {
	Element `mapstructure:",squash"`
	Dst     string         `mapstructure:"dst"`
	Timeout time.Duration  `mapstructure:"timeout"`
	Params  map[string]any `mapstructure:",remain"`
}

func (t *Worker) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsCall: true}
}

// body reports whether env is the worker's own fork, in which case the
// node runs its children instead of starting another worker.
func (t *Worker) body(env domain.Env) bool {
	frame, err := env.TopCall()
	return err == nil && frame.Node == t.self && frame.App == workerApp
}

func (t *Worker) Check(ctx context.Context, env domain.Env) (bool, error) {
	if t.body(env) {
		return true, nil
	}
	return t.Element.Check(ctx, env)
}

func (t *Worker) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	if t.body(env) {
		return domain.Children(t.self), nil
	}
	runner, ok := domain.RunnerFrom(ctx)
	if !ok {
		return nil, errors.New("worker: no runner in context")
	}
	params, err := evalAttrs(env, t.Params)
	if err != nil {
		return nil, err
	}
	dst := t.Dst
	if dst == "" {
		dst = workerApp
	}

	fork := env.Fork()
	frame := &domain.CallFrame{Node: t.self, App: workerApp, Params: params}
	fork.PushCall(frame)
	fork.PushFrame(maps.Clone(params))

	future := scope.NewFuture(t.ID(), t.Timeout)
	env.Set(dst, future)

	go func() {
		_, err := runner.Run(ctx, fork, domain.Delegate(t.self))
		if err != nil {
			err = fmt.Errorf("worker %s: %w", t.ID(), err)
		}
		future.Complete(frame.Return, err)
	}()
	return nil, nil
}
