package tags

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/cenkalti/backoff/v4"
)

// Try groups a body protected by the catch siblings that follow it.
type Try struct {
	Element `mapstructure:",squash"`
}

func (t *Try) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsTry: true}
}

// Catch handles exceptions raised by the sibling directly before it.
// Exception is a comma separated list of type patterns, "*" by default.
type Catch struct {
	Element   `mapstructure:",squash"`
	Exception string `mapstructure:"exception"`
	Dst       string `mapstructure:"dst"`
}

var _ domain.Catcher = (*Catch)(nil)

func (t *Catch) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, LogicSkip: true}
}

func (t *Catch) CatchTypes(env domain.Env) ([]string, error) {
	return patterns(env, t.Exception)
}

func (t *Catch) BindException(env domain.Env, exc *domain.Exception) error {
	if t.Dst != "" {
		env.Set(t.Dst, exceptionData(exc))
	}
	return nil
}

func patterns(env domain.Env, src string) ([]string, error) {
	if src == "" {
		return []string{"*"}, nil
	}
	s, err := env.Substitute(src)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// exceptionData is the view of an exception bound into the Env.
func exceptionData(exc *domain.Exception) map[string]any {
	return map[string]any{
		"type": exc.Type,
		"msg":  exc.Message,
		"info": exc.InfoMap(),
	}
}

// Throw raises a domain exception. Extra attributes become info fields.
type Throw struct {
	Element   `mapstructure:",squash"`
	Exception string         `mapstructure:"exception"`
	Msg       string         `mapstructure:"msg"`
	Info      map[string]any `mapstructure:",remain"`
}

func (t *Throw) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	typ, err := env.Substitute(t.Exception)
	if err != nil {
		return nil, err
	}
	msg, err := env.Substitute(t.Msg)
	if err != nil {
		return nil, err
	}
	exc := domain.NewException(typ, msg)
	for _, k := range sortedKeys(t.Info) {
		v, err := evalAttr(env, t.Info[k])
		if err != nil {
			return nil, err
		}
		exc.With(k, v)
	}
	return nil, exc
}

// Retry runs its children again when they raise a matching exception,
// up to Times attempts in total. Delay is the wait before each new attempt;
// with Backoff "exponential" it doubles every time.
type Retry struct {
	Element   `mapstructure:",squash"`
	Times     int           `mapstructure:"times"`
	Exception string        `mapstructure:"exception"`
	Delay     time.Duration `mapstructure:"delay"`
	Backoff   string        `mapstructure:"backoff"`
	Dst       string        `mapstructure:"dst"`
}

var _ domain.ExceptionTrapper = (*Retry)(nil)

type retryState struct {
	attempt int
	policy  backoff.BackOff
}

func (t *Retry) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, TrapExceptions: true}
}

// states returns the attempts of the active invocations of this node,
// innermost last. Recursive macros may nest the same retry node.
func (t *Retry) states(env domain.Env) *[]*retryState {
	return env.SetIfAbsent("._retry_"+t.ID(), func() any {
		return &[]*retryState{}
	}).(*[]*retryState)
}

func (t *Retry) policy() backoff.BackOff {
	times := t.Times
	if times <= 0 {
		times = 3
	}
	var b backoff.BackOff
	switch t.Backoff {
	case "exponential":
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = max(t.Delay, time.Millisecond)
		exp.MaxElapsedTime = 0
		b = exp
	default:
		b = backoff.NewConstantBackOff(t.Delay)
	}
	return backoff.WithMaxRetries(b, uint64(times-1))
}

func (t *Retry) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	states := t.states(env)
	return func(yield domain.Yield) error {
		*states = append(*states, &retryState{attempt: 1, policy: t.policy()})
		defer func() { *states = (*states)[:len(*states)-1] }()
		if t.Dst != "" {
			env.Set(t.Dst, 1)
		}
		return yield(domain.DelegateChildren{Node: t.self})
	}, nil
}

func (t *Retry) OnException(ctx context.Context, env domain.Env, exc *domain.Exception) (domain.Directive, error) {
	types, err := patterns(env, t.Exception)
	if err != nil {
		return nil, err
	}
	states := *t.states(env)
	if len(states) == 0 || !domain.MatchException(exc.Type, types) {
		return nil, exc
	}
	st := states[len(states)-1]
	wait := st.policy.NextBackOff()
	if wait == backoff.Stop {
		return nil, exc
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, exc
		}
	}
	st.attempt++
	if t.Dst != "" {
		env.Set(t.Dst, st.attempt)
	}
	return domain.DelegateChildren{Node: t.self}, nil
}

// Trap absorbs any exception raised by its children. The exception is
// bound to Dst when set.
type Trap struct {
	Element `mapstructure:",squash"`
	Dst     string `mapstructure:"dst"`
}

func (t *Trap) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, TrapExceptions: true}
}

func (t *Trap) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	if t.Dst != "" {
		env.Set(t.Dst, nil)
	}
	return func(yield domain.Yield) error {
		err := yield(domain.DelegateChildren{Node: t.self})
		if err == nil || errors.Is(err, domain.ErrFrameClosed) {
			return err
		}
		var lerr *domain.LogicError
		if errors.As(err, &lerr) && lerr.Exception != nil && t.Dst != "" {
			env.Set(t.Dst, exceptionData(lerr.Exception))
		}
		return nil
	}, nil
}
