package tags

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Element is the base of every tag.
type Element struct {
	// If is the guard shared by all tags. An empty guard always passes.
	If string `mapstructure:"if"`

	self     domain.Node
	place    domain.Placement
	children []domain.Node
}

// Mount places the element in a tree. self is the tag embedding the element.
func (e *Element) Mount(self domain.Node, p domain.Placement) {
	e.self = self
	e.place = p
}

// SetChildren attaches the built children.
func (e *Element) SetChildren(children []domain.Node) {
	e.children = children
}

func (e *Element) ID() string                { return e.place.ID }
func (e *Element) Type() string              { return e.place.Type }
func (e *Element) Location() domain.Location { return e.place.Location }
func (e *Element) Parent() domain.Node       { return e.place.Parent }
func (e *Element) Children() []domain.Node   { return e.children }
func (e *Element) Archive() domain.Archive   { return e.place.Archive }
func (e *Element) Meta() domain.Meta         { return domain.Meta{Class: domain.ClassLogic} }
func (e *Element) Self() domain.Node         { return e.self }

func (e *Element) Check(ctx context.Context, env domain.Env) (bool, error) {
	if e.If == "" {
		return true, nil
	}
	return env.EvalBool(e.If)
}

// Logic runs the logic children of the tag.
func (e *Element) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	return domain.Children(e.self), nil
}

// evalAttr evaluates an expression attribute. Non-string values are literals.
func evalAttr(env domain.Env, v any) (any, error) {
	src, ok := v.(string)
	if !ok {
		return v, nil
	}
	return env.Eval(src)
}

func evalAttrs(env domain.Env, attrs map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		ev, err := evalAttr(env, v)
		if err != nil {
			return nil, err
		}
		out[k] = ev
	}
	return out, nil
}
