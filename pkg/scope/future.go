package scope

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// Future is the result slot of a worker. Reading it through the Context
// blocks until the worker finishes (join-on-read).
type Future struct {
	name    string
	timeout time.Duration

	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewFuture creates a pending result. A zero timeout waits forever.
func NewFuture(name string, timeout time.Duration) *Future {
	return &Future{
		name:    name,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

func (f *Future) Name() string {
	return f.name
}

// Complete stores the outcome. Only the first call has an effect.
func (f *Future) Complete(value any, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the worker has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait joins the worker. It raises thread.timeout when the timeout elapses
// first and thread.fail when the worker ended with an error.
func (f *Future) Wait(ctx context.Context) (any, error) {
	var timeout <-chan time.Time
	if f.timeout > 0 {
		timer := time.NewTimer(f.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-f.done:
	case <-timeout:
		return nil, domain.NewException("thread.timeout",
			"the worker failed to complete within timeout",
			"worker", f.name, "timeout", f.timeout.String())
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if f.err != nil {
		return nil, domain.NewException("thread.fail",
			"exception occurred in worker",
			"worker", f.name, "diagnosis", f.err.Error())
	}
	return f.value, nil
}
