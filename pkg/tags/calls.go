package tags

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Macro is a named block of logic run by call. It never runs where it is declared.
type Macro struct {
	Element `mapstructure:",squash"`
	Name    string `mapstructure:"name"`
}

func (t *Macro) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, LogicSkip: true}
}

// ElementName makes the macro addressable through the archive.
func (t *Macro) ElementName() string {
	return t.Name
}

// Call runs a macro in a new frame seeded with the evaluated parameters.
// The children of the call are the block a yield inside the macro runs.
type Call struct {
	Element `mapstructure:",squash"`
	Macro   string         `mapstructure:"macro"`
	Dst     string         `mapstructure:"dst"`
	Params  map[string]any `mapstructure:",remain"`
}

func (t *Call) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsCall: true, AppFirstArg: true}
}

func (t *Call) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	var target domain.Node
	if archive := t.Archive(); archive != nil {
		target, _ = archive.Element(t.Macro)
	}
	if target == nil {
		return nil, fmt.Errorf("call %q: %w", t.Macro, domain.ErrElementNotFound)
	}
	params, err := evalAttrs(env, t.Params)
	if err != nil {
		return nil, err
	}
	frame := &domain.CallFrame{
		Node:      t.self,
		App:       t.Macro,
		Params:    params,
		YieldNode: t.self,
		YieldData: env.Capture(),
	}
	return enter(env, frame, maps.Clone(params), target, t.Dst), nil
}

// enter runs the logic children of body inside a call frame. The return
// value is stored in dst in the caller's frame.
func enter(env domain.Env, frame *domain.CallFrame, data map[string]any, body domain.Node, dst string) domain.Sequence {
	return func(yield domain.Yield) error {
		env.PushCall(frame)
		env.PushFrame(data)
		leave := sync.OnceFunc(func() {
			env.PopFrame()
			_, _ = env.PopCall()
		})
		defer leave()

		err := yield(domain.DelegateChildren{Node: body})
		leave()
		if err != nil {
			return err
		}
		if dst != "" {
			env.Set(dst, frame.Return)
		}
		return nil
	}
}

// Yield runs the block passed to the current call, in the scope it was called from.
type Yield struct {
	Element `mapstructure:",squash"`
}

func (t *Yield) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	frame, err := env.TopCall()
	if err != nil {
		return nil, fmt.Errorf("yield: %w", err)
	}
	if frame.YieldNode == nil {
		return nil, nil
	}
	return func(yield domain.Yield) error {
		env.PushFrame(maps.Clone(frame.YieldData))
		defer env.PopFrame()
		return yield(domain.DelegateChildren{Node: frame.YieldNode})
	}, nil
}

// Return ends the current call, optionally with a value.
type Return struct {
	Element `mapstructure:",squash"`
	Value   string `mapstructure:"value"`
}

func (t *Return) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	frame, err := env.TopCall()
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}
	if t.Value != "" {
		v, err := env.Eval(t.Value)
		if err != nil {
			return nil, err
		}
		frame.SetReturn(v)
	}
	return nil, domain.ErrUnwind
}

// Exit aborts the whole run. Value is handed to the caller of Run.
type Exit struct {
	Element `mapstructure:",squash"`
	Value   string `mapstructure:"value"`
}

func (t *Exit) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	var payload any
	if t.Value != "" {
		v, err := env.Eval(t.Value)
		if err != nil {
			return nil, err
		}
		payload = v
	}
	return nil, &domain.Abort{Payload: payload}
}

// Closure stores its children, together with the data visible now, in Dst.
type Closure struct {
	Element `mapstructure:",squash"`
	Dst     string `mapstructure:"dst"`
}

func (t *Closure) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	env.Set(t.Dst, domain.NewClosure(t.self, env.Capture()))
	return nil, nil
}

// Invoke calls the closure Src evaluates to.
type Invoke struct {
	Element `mapstructure:",squash"`
	Src     string         `mapstructure:"src"`
	Dst     string         `mapstructure:"dst"`
	Params  map[string]any `mapstructure:",remain"`
}

func (t *Invoke) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsCall: true}
}

func (t *Invoke) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	v, err := env.Eval(t.Src)
	if err != nil {
		return nil, err
	}
	closure, ok := v.(*domain.Closure)
	if !ok {
		return nil, domain.NewException("invoke.not-callable",
			fmt.Sprintf("%s is not a closure", t.Src), "type", fmt.Sprintf("%T", v))
	}
	params, err := evalAttrs(env, t.Params)
	if err != nil {
		return nil, err
	}
	data := closure.Data()
	maps.Copy(data, params)
	frame := &domain.CallFrame{Node: t.self, App: closure.Node().ID(), Params: params}
	return enter(env, frame, data, closure.Node(), t.Dst), nil
}
