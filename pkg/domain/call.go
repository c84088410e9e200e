package domain

import "maps"

// CallFrame is the record pushed on the Env call stack when a call boundary is entered.
type CallFrame struct {
	Node   Node
	App    string
	Params map[string]any

	// Return is the value established by a return before unwinding.
	Return   any
	Returned bool

	// YieldNode and YieldData are the caller block a yield inside the call
	// re-enters, and the scope it was captured with.
	YieldNode Node
	YieldData map[string]any
}

// SetReturn establishes the return value of the call.
func (f *CallFrame) SetReturn(v any) {
	f.Return = v
	f.Returned = true
}

// Closure is a snapshot of a node and the scope data visible when it was captured.
type Closure struct {
	node Node
	data map[string]any
}

// NewClosure captures a node with a copy of data.
func NewClosure(n Node, data map[string]any) *Closure {
	return &Closure{node: n, data: maps.Clone(data)}
}

func (c *Closure) Node() Node {
	return c.node
}

// Data returns a copy of the captured scope.
func (c *Closure) Data() map[string]any {
	return maps.Clone(c.data)
}
