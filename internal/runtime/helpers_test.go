package runtime_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// node is a scriptable domain.Node for driving the engine directly.
type node struct {
	id       string
	typ      string
	meta     domain.Meta
	parent   domain.Node
	children []domain.Node

	check func(env domain.Env) (bool, error)
	logic func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error)
}

func (n *node) ID() string                { return n.id }
func (n *node) Type() string              { return n.typ }
func (n *node) Location() domain.Location { return domain.Location{File: "test.xml", Line: 1} }
func (n *node) Meta() domain.Meta         { return n.meta }
func (n *node) Parent() domain.Node       { return n.parent }
func (n *node) Children() []domain.Node   { return n.children }
func (n *node) setParent(p domain.Node)   { n.parent = p }

func (n *node) Check(ctx context.Context, env domain.Env) (bool, error) {
	if n.check == nil {
		return true, nil
	}
	return n.check(env)
}

func (n *node) Logic(ctx context.Context, env domain.Env) (domain.Sequence, error) {
	if n.logic == nil {
		return domain.Children(n), nil
	}
	return n.logic(ctx, env, n)
}

type catchNode struct {
	*node
	types []string
	bound *domain.Exception
}

func (c *catchNode) CatchTypes(env domain.Env) ([]string, error) { return c.types, nil }

func (c *catchNode) BindException(env domain.Env, exc *domain.Exception) error {
	c.bound = exc
	return nil
}

type trapNode struct {
	*node
	handler func(exc *domain.Exception) (domain.Directive, error)
}

func (t *trapNode) OnException(ctx context.Context, env domain.Env, exc *domain.Exception) (domain.Directive, error) {
	return t.handler(exc)
}

type parentSetter interface {
	setParent(domain.Node)
}

func logicMeta() domain.Meta {
	return domain.Meta{Class: domain.ClassLogic}
}

// newNode builds a logic node and adopts children.
func newNode(id, typ string, children ...domain.Node) *node {
	n := &node{id: id, typ: typ, meta: logicMeta()}
	adopt(n, children...)
	return n
}

func adopt(parent domain.Node, children ...domain.Node) {
	for _, c := range children {
		c.(parentSetter).setParent(parent)
	}
	switch p := parent.(type) {
	case *node:
		p.children = children
	case *trapNode:
		p.children = children
	case *catchNode:
		p.children = children
	}
}

func newCatch(id string, types ...string) *catchNode {
	n := newNode(id, domain.TypeCatch)
	n.meta.LogicSkip = true
	return &catchNode{node: n, types: types}
}

// recorder collects what nodes did, in order.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// leaf records its id when it runs.
func leaf(id string, rec *recorder) *node {
	n := newNode(id, "leaf")
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		rec.add(n.id)
		return nil, nil
	}
	return n
}

// raising returns a node whose logic fails with err.
func raising(id string, err error) *node {
	n := newNode(id, "throw")
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return nil, err
	}
	return n
}

// guarded runs its children and records cleanup when its frame ends.
func guarded(id string, rec *recorder, children ...domain.Node) *node {
	n := newNode(id, "block", children...)
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return func(yield domain.Yield) error {
			rec.add(n.id + ":enter")
			defer rec.add(n.id + ":cleanup")
			return yield(domain.DelegateChildren{Node: n})
		}, nil
	}
	return n
}

// loop runs its children once per item of 0..count-1, exposing the index as "i".
func loop(id string, count int, rec *recorder, children ...domain.Node) *node {
	n := newNode(id, "for", children...)
	n.meta.IsLoop = true
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return func(yield domain.Yield) error {
			defer rec.add(n.id + ":cleanup")
			for i := range count {
				env.Set("i", i)
				if err := yield(domain.DelegateChildren{Node: n}); err != nil {
					return err
				}
			}
			return nil
		}, nil
	}
	return n
}

// scriptConsole answers prompts from a fixed list of commands.
type scriptConsole struct {
	mu       sync.Mutex
	commands []string
	prompts  []string
	shown    []string
}

func (c *scriptConsole) ReadCommand(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.commands) == 0 {
		return "", io.EOF
	}
	cmd := c.commands[0]
	c.commands = c.commands[1:]
	return cmd, nil
}

func (c *scriptConsole) Show(title string, lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = append(c.shown, title+"\n"+strings.Join(lines, "\n"))
}

func (c *scriptConsole) getPrompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

func (c *scriptConsole) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.shown, "\n")
}

var errBoom = errors.New("boom")
