package domain

import (
	"context"
	"fmt"
)

// ElementClass separates executable children from declarative ones.
// Only ClassLogic children are visited by DelegateChildren.
type ElementClass string

const (
	ClassLogic ElementClass = "logic"
	ClassData  ElementClass = "data"
)

// Element types the engine itself knows about.
const (
	TypeCatch = "catch"
	TypeElse  = "else"
	TypeElif  = "elif"
)

// Meta describes the static role of a node.
type Meta struct {
	Class ElementClass

	// IsLoop marks a loop boundary (target of Break and Continue).
	IsLoop bool
	// IsCall marks a call boundary (target of Unwind, stops Break and Continue).
	IsCall bool
	IsTry  bool
	// TrapExceptions makes the node intercept exceptions raised by its descendants.
	TrapExceptions bool
	// LogicSkip nodes are structural markers and never execute when reached.
	LogicSkip bool
	// IgnoreSkip nodes leave an active skip filter in place after being considered.
	IgnoreSkip bool

	TextNodes   bool
	AppFirstArg bool
	// DebugSkip nodes never stop the debugger.
	DebugSkip bool
}

// Location points at the source of a node.
type Location struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Yield hands a directive to the engine and suspends the caller until the
// directive has been fully executed.
//
// It returns nil when the node should carry on, the injected error when an
// exception is delivered into the node, or ErrFrameClosed when the node is
// being force-closed. In the last case the node must return; its deferred
// calls are its cleanup.
type Yield func(Directive) error

// Sequence is the resumable body of a node.
// Returning an error raises it from the node's position in the tree.
type Sequence func(yield Yield) error

// Node is the polymorphic unit of execution.
type Node interface {
	// ID is the document path of the node, e.g. "demo/for[1]/echo[0]".
	ID() string
	Type() string
	Location() Location
	Meta() Meta
	Parent() Node
	Children() []Node

	// Check is the node's guard. A false result discards the node.
	Check(ctx context.Context, env Env) (bool, error)

	// Logic runs the node. A nil Sequence means the node ran to completion inline.
	Logic(ctx context.Context, env Env) (Sequence, error)
}

// ExceptionTrapper is implemented by trap-policy nodes with a custom handler.
//
// A returned directive replaces the failing body (e.g. to retry it). A nil
// directive and nil error absorb the exception. A non-nil error keeps the
// search going with that error.
type ExceptionTrapper interface {
	OnException(ctx context.Context, env Env, exc *Exception) (Directive, error)
}

// Catcher is implemented by catch nodes.
type Catcher interface {
	Node
	CatchTypes(env Env) ([]string, error)
	BindException(env Env, exc *Exception) error
}

// LogicChildren returns the children of n that DelegateChildren visits.
func LogicChildren(n Node) []Node {
	var out []Node
	for _, child := range n.Children() {
		if child.Meta().Class == ClassLogic {
			out = append(out, child)
		}
	}
	return out
}

// YoungerSiblingsOfType returns the siblings directly after n that have the
// given type, stopping at the first sibling of another type.
func YoungerSiblingsOfType(n Node, typ string) []Node {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	siblings := parent.Children()
	var out []Node
	for i, s := range siblings {
		if s != n {
			continue
		}
		for _, next := range siblings[i+1:] {
			if next.Type() != typ {
				break
			}
			out = append(out, next)
		}
		break
	}
	return out
}

// Placement is where a node sits in a built tree.
type Placement struct {
	ID       string
	Type     string
	Location Location
	Parent   Node
	Archive  Archive
}
