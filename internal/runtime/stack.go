package runtime

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// entry is one item of the engine stack: *rawNode, *Frame, *skipMarker or *childIterator.
type entry interface {
	// owner is the node the entry executes on behalf of, nil for skip markers.
	owner() domain.Node
}

// rawNode is a node awaiting its first execution.
type rawNode struct {
	node domain.Node
}

// skipMarker installs the skip filter when popped.
type skipMarker struct {
	types []string
}

// childIterator walks the logic children of a node in document order.
type childIterator struct {
	node     domain.Node
	children []domain.Node
	pos      int
}

func newChildIterator(n domain.Node) *childIterator {
	return &childIterator{node: n, children: domain.LogicChildren(n)}
}

func (c *childIterator) Advance() (domain.Directive, error) {
	if c.pos >= len(c.children) {
		return nil, nil
	}
	n := c.children[c.pos]
	c.pos++
	return domain.DelegateNode{Node: n}, nil
}

func (r *rawNode) owner() domain.Node       { return r.node }
func (f *Frame) owner() domain.Node         { return f.node }
func (s *skipMarker) owner() domain.Node    { return nil }
func (c *childIterator) owner() domain.Node { return c.node }

// metaOf returns the flags control signals look at. Only nodes and their
// frames carry flags; iterators and markers are transparent.
func metaOf(e entry) domain.Meta {
	switch e := e.(type) {
	case *rawNode:
		return e.node.Meta()
	case *Frame:
		return e.node.Meta()
	}
	return domain.Meta{}
}

type stack struct {
	entries []entry
}

func (s *stack) push(e entry) {
	s.entries = append(s.entries, e)
}

// pop returns nil when the stack is empty.
func (s *stack) pop() entry {
	if len(s.entries) == 0 {
		return nil
	}
	e := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	return e
}

func (s *stack) peek() entry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

func (s *stack) len() int {
	return len(s.entries)
}

func (s *stack) snapshot() []entry {
	out := make([]entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// isPrefixOf reports whether the stack is a prefix of snap.
func (s *stack) isPrefixOf(snap []entry) bool {
	if len(s.entries) > len(snap) {
		return false
	}
	for i, e := range s.entries {
		if snap[i] != e {
			return false
		}
	}
	return true
}

// path lists the nodes on the stack, outermost first, followed by last.
// Consecutive entries of the same node are folded.
func (s *stack) path(last entry) []domain.Node {
	var out []domain.Node
	add := func(e entry) {
		if e == nil {
			return
		}
		n := e.owner()
		if n == nil || (len(out) > 0 && out[len(out)-1] == n) {
			return
		}
		out = append(out, n)
	}
	for _, e := range s.entries {
		add(e)
	}
	add(last)
	return out
}
