package domain

import "strings"

// Directive tells the engine what to run next.
// The variants are DelegateNode, DelegateChildren and SkipNext.
type Directive interface {
	directive()
}

// DelegateNode runs a single node.
type DelegateNode struct {
	Node Node
}

// DelegateChildren runs the logic-class children of Node in document order.
type DelegateChildren struct {
	Node Node
}

// SkipNext installs a filter that discards following siblings of the given types.
type SkipNext struct {
	Types []string
}

func (DelegateNode) directive()     {}
func (DelegateChildren) directive() {}
func (SkipNext) directive()         {}

// Delegate is shorthand for DelegateNode{Node: n}.
func Delegate(n Node) Directive {
	return DelegateNode{Node: n}
}

// Skip is shorthand for SkipNext{Types: types}.
func Skip(types ...string) Directive {
	return SkipNext{Types: types}
}

func (d DelegateNode) String() string {
	return "delegate(" + d.Node.ID() + ")"
}

func (d DelegateChildren) String() string {
	return "children(" + d.Node.ID() + ")"
}

func (d SkipNext) String() string {
	return "skip(" + strings.Join(d.Types, ",") + ")"
}

// Children returns a Sequence that delegates to the logic children of n once.
func Children(n Node) Sequence {
	return func(yield Yield) error {
		return yield(DelegateChildren{Node: n})
	}
}
