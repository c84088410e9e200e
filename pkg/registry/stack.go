package registry

import "sync"

// Stack tracks the "current" registry. Pushing an isolated registry lets a
// host reload documents without disturbing the registry in use.
type Stack struct {
	mu   sync.Mutex
	regs []*Registry
}

// NewStack creates a stack whose bottom (and current) registry is base.
func NewStack(base *Registry) *Stack {
	return &Stack{regs: []*Registry{base}}
}

// Current returns the registry on top of the stack.
func (s *Stack) Current() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[len(s.regs)-1]
}

// Push makes r the current registry.
func (s *Stack) Push(r *Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs = append(s.regs, r)
}

// Pop restores the previous registry and returns the one removed.
// The base registry is never popped; Pop returns nil in that case.
func (s *Stack) Pop() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.regs) == 1 {
		return nil
	}
	top := s.regs[len(s.regs)-1]
	s.regs = s.regs[:len(s.regs)-1]
	return top
}

// Depth returns the number of registries on the stack.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regs)
}
