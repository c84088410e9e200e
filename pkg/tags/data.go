package tags

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
)

// Let evaluates each attribute and sets it in the innermost scope.
type Let struct {
	Element `mapstructure:",squash"`
	Vars    map[string]any `mapstructure:",remain"`
}

func (t *Let) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	for _, k := range sortedKeys(t.Vars) {
		v, err := evalAttr(env, t.Vars[k])
		if err != nil {
			return nil, err
		}
		env.Set(k, v)
	}
	return nil, nil
}

// With runs its children in a new scope holding the evaluated attributes.
type With struct {
	Element `mapstructure:",squash"`
	Vars    map[string]any `mapstructure:",remain"`
}

func (t *With) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	data, err := evalAttrs(env, t.Vars)
	if err != nil {
		return nil, err
	}
	return func(yield domain.Yield) error {
		env.PushScope(data)
		defer env.PopScope()
		return yield(domain.DelegateChildren{Node: t.self})
	}, nil
}

// Echo writes Text, with ${expr} placeholders substituted, to the run's output.
type Echo struct {
	Element `mapstructure:",squash"`
	Text    string `mapstructure:"text"`
}

func (t *Echo) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, TextNodes: true}
}

func (t *Echo) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	text, err := env.Substitute(t.Text)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintln(env.Stdout(), text); err != nil {
		return nil, fmt.Errorf("echo: %w", err)
	}
	return nil, nil
}

// Breakpoint pauses the run in the debugger, when one is attached.
type Breakpoint struct {
	Element `mapstructure:",squash"`
}

func (t *Breakpoint) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, DebugSkip: true}
}

func (t *Breakpoint) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	return nil, &domain.Breakpoint{Node: t.self}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
