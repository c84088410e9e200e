package tags

import (
	"context"
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cast"
)

// Element types of the conditional tags.
const (
	TypeIf          = "if"
	TypeElif        = domain.TypeElif
	TypeElse        = domain.TypeElse
	TypeSwitch      = "switch"
	TypeCase        = "case"
	TypeDefaultCase = "default-case"
)

// switchKey holds the value of the innermost switch.
const switchKey = "_switch"

// Block runs its children.
type Block struct {
	Element `mapstructure:",squash"`
}

// If runs its children when Test holds, then skips the elif and else
// siblings that follow.
type If struct {
	Element `mapstructure:",squash"`
	Test    string `mapstructure:"test"`
}

func (t *If) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	ok, err := env.EvalBool(t.Test)
	if err != nil || !ok {
		return nil, err
	}
	return func(yield domain.Yield) error {
		if err := yield(domain.DelegateChildren{Node: t.self}); err != nil {
			return err
		}
		return yield(domain.Skip(TypeElif, TypeElse))
	}, nil
}

// Elif is an If reached only when the preceding branches did not run.
type Elif struct {
	If `mapstructure:",squash"`
}

// Else runs its children when no preceding branch ran.
type Else struct {
	Element `mapstructure:",squash"`
}

// Switch evaluates Value once and runs its children, among which the first
// matching case wins.
type Switch struct {
	Element `mapstructure:",squash"`
	Value   string `mapstructure:"value"`
}

func (t *Switch) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	v, err := env.Eval(t.Value)
	if err != nil {
		return nil, err
	}
	return func(yield domain.Yield) error {
		env.PushScope(map[string]any{switchKey: v})
		defer env.PopScope()
		return yield(domain.DelegateChildren{Node: t.self})
	}, nil
}

// Case runs its children when its Value equals the switch value, then skips
// the remaining cases.
type Case struct {
	Element `mapstructure:",squash"`
	Value   string `mapstructure:"value"`
}

func (t *Case) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	want, _ := env.Get(switchKey)
	got, err := env.Eval(t.Value)
	if err != nil {
		return nil, err
	}
	if !equal(want, got) {
		return nil, nil
	}
	return func(yield domain.Yield) error {
		if err := yield(domain.DelegateChildren{Node: t.self}); err != nil {
			return err
		}
		return yield(domain.Skip(TypeCase, TypeDefaultCase))
	}, nil
}

// DefaultCase runs when no case matched.
type DefaultCase struct {
	Element `mapstructure:",squash"`
}

func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	as, aerr := cast.ToStringE(a)
	bs, berr := cast.ToStringE(b)
	return aerr == nil && berr == nil && as == bs
}
