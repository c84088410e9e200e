package runtime

import (
	"errors"
	"iter"

	"github.com/aretw0/arbor/pkg/domain"
)

// Frame is the suspended execution of a node.
//
// The node's Sequence runs as a coroutine: each yielded directive suspends
// it until the engine resumes the frame with Advance or Inject. Close stops
// the coroutine at its suspension point; the node sees ErrFrameClosed from
// yield and returns, running its deferred cleanup.
type Frame struct {
	node domain.Node

	next func() (domain.Directive, bool)
	stop func()

	injected error
	result   error
	started  bool
	done     bool
	left     bool
}

func newFrame(node domain.Node, seq domain.Sequence) *Frame {
	f := &Frame{node: node}
	f.next, f.stop = iter.Pull(func(yield func(domain.Directive) bool) {
		f.result = seq(func(d domain.Directive) error {
			if !yield(d) {
				return domain.ErrFrameClosed
			}
			if err := f.injected; err != nil {
				f.injected = nil
				return err
			}
			return nil
		})
	})
	return f
}

func (f *Frame) Node() domain.Node {
	return f.node
}

// Advance resumes the frame. It returns the next directive, or nil once the
// sequence is exhausted. An error is the error the sequence returned.
func (f *Frame) Advance() (domain.Directive, error) {
	if f.done {
		return nil, nil
	}
	f.started = true
	d, ok := f.next()
	if !ok {
		f.done = true
		return nil, f.result
	}
	if d == nil {
		// A nil directive is a no-op; keep the frame moving.
		return f.Advance()
	}
	return d, nil
}

// Inject delivers err to the frame's current suspension point and resumes it.
// A frame that never started is finished without running and err is returned.
func (f *Frame) Inject(err error) (domain.Directive, error) {
	if f.done {
		return nil, nil
	}
	if !f.started {
		f.done = true
		f.stop()
		return nil, err
	}
	f.injected = err
	return f.Advance()
}

// Close force-closes the frame. It is idempotent. The returned error is a
// failure raised by the node's cleanup.
func (f *Frame) Close() error {
	if f.done {
		return nil
	}
	f.done = true
	f.stop()
	if f.result != nil && !errors.Is(f.result, domain.ErrFrameClosed) {
		return f.result
	}
	return nil
}

// Done reports whether the frame is exhausted or closed.
func (f *Frame) Done() bool {
	return f.done
}
