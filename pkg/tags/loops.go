package tags

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cast"
)

// For runs its children once per item of Src.
//
// Src may evaluate to a slice, an array, a map (keys in sorted order) or an
// integer n (0 to n-1).
type For struct {
	Element `mapstructure:",squash"`
	Src     string `mapstructure:"src"`
	Dst     string `mapstructure:"dst"`
	Index   string `mapstructure:"index"`
}

func (t *For) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsLoop: true}
}

func (t *For) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	src, err := env.Eval(t.Src)
	if err != nil {
		return nil, err
	}
	items, err := iterate(src)
	if err != nil {
		return nil, domain.NewException("for.invalid-source", err.Error(), "src", t.Src)
	}
	dst := t.Dst
	if dst == "" {
		dst = "item"
	}
	return func(yield domain.Yield) error {
		for i, item := range items {
			env.Set(dst, item)
			if t.Index != "" {
				env.Set(t.Index, i)
			}
			if err := yield(domain.DelegateChildren{Node: t.self}); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func iterate(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case string:
		return nil, fmt.Errorf("cannot iterate over string %q", t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		keys := make([]any, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.Interface())
		}
		sort.Slice(keys, func(i, j int) bool {
			return cast.ToString(keys[i]) < cast.ToString(keys[j])
		})
		return keys, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, fmt.Errorf("cannot iterate over %T", v)
	}
	out := make([]any, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out, nil
}

// While runs its children as long as Test holds.
type While struct {
	Element `mapstructure:",squash"`
	Test    string `mapstructure:"test"`
}

func (t *While) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsLoop: true}
}

func (t *While) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	return func(yield domain.Yield) error {
		for {
			ok, err := env.EvalBool(t.Test)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := yield(domain.DelegateChildren{Node: t.self}); err != nil {
				return err
			}
		}
	}, nil
}

// Repeat runs its children Times times.
type Repeat struct {
	Element `mapstructure:",squash"`
	Times   string `mapstructure:"times"`
	Index   string `mapstructure:"index"`
}

func (t *Repeat) Meta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic, IsLoop: true}
}

func (t *Repeat) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	v, err := env.Eval(t.Times)
	if err != nil {
		return nil, err
	}
	times, err := cast.ToIntE(v)
	if err != nil {
		return nil, domain.NewException("repeat.invalid-times", err.Error(), "times", t.Times)
	}
	return func(yield domain.Yield) error {
		for i := range times {
			if t.Index != "" {
				env.Set(t.Index, i)
			}
			if err := yield(domain.DelegateChildren{Node: t.self}); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// Break exits the enclosing loop.
type Break struct {
	Element `mapstructure:",squash"`
}

func (t *Break) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	return nil, domain.ErrBreakLoop
}

// Continue skips to the next iteration of the enclosing loop.
type Continue struct {
	Element `mapstructure:",squash"`
}

func (t *Continue) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	return nil, domain.ErrContinueLoop
}
