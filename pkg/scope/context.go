package scope

import (
	"context"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

type frame struct {
	scopes []map[string]any
}

// Context is the default domain.Env implementation.
type Context struct {
	root   map[string]any
	frames []*frame
	calls  []*domain.CallFrame
	stdout io.Writer
	ctx    context.Context
}

// Option configures a Context.
type Option func(*Context)

// WithStdout sets the writer output tags write to. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *Context) {
		c.stdout = w
	}
}

// WithData seeds the root scope.
func WithData(data map[string]any) Option {
	return func(c *Context) {
		maps.Copy(c.root, data)
	}
}

// New creates a Context with an empty root scope.
func New(opts ...Option) *Context {
	c := &Context{
		root:   make(map[string]any),
		stdout: os.Stdout,
		ctx:    context.Background(),
	}
	c.frames = []*frame{{scopes: []map[string]any{c.root}}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ domain.Env           = (*Context)(nil)
	_ domain.ContextBinder = (*Context)(nil)
)

func rootKey(key string) (string, bool) {
	if strings.HasPrefix(key, ".") {
		return key[1:], true
	}
	return key, false
}

func (c *Context) current() *frame {
	return c.frames[len(c.frames)-1]
}

// lookup returns the scope holding key, searching the current frame then the root.
func (c *Context) lookup(key string) (map[string]any, bool) {
	if k, ok := rootKey(key); ok {
		_, found := c.root[k]
		return c.root, found
	}
	scopes := c.current().scopes
	for i := len(scopes) - 1; i >= 0; i-- {
		if _, ok := scopes[i][key]; ok {
			return scopes[i], true
		}
	}
	if _, ok := c.root[key]; ok {
		return c.root, true
	}
	return nil, false
}

func (c *Context) Get(key string) (any, bool) {
	s, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	k, _ := rootKey(key)
	return s[k], true
}

// Set writes to the innermost scope of the current frame, or to the root for "." keys.
func (c *Context) Set(key string, value any) {
	if k, ok := rootKey(key); ok {
		c.root[k] = value
		return
	}
	scopes := c.current().scopes
	scopes[len(scopes)-1][key] = value
}

func (c *Context) Delete(key string) {
	s, ok := c.lookup(key)
	if !ok {
		return
	}
	k, _ := rootKey(key)
	delete(s, k)
}

func (c *Context) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Context) SetIfAbsent(key string, init func() any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := init()
	c.Set(key, v)
	return v
}

// Resolve returns the value under key, waiting on it if it is a pending worker result.
func (c *Context) Resolve(key string) (any, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, nil
	}
	return c.resolve(v)
}

func (c *Context) resolve(v any) (any, error) {
	if f, ok := v.(*Future); ok {
		return f.Wait(c.ctx)
	}
	return v, nil
}

// BindContext makes blocking reads, such as joining a worker, stop when ctx
// is done. The returned func restores the previous binding.
func (c *Context) BindContext(ctx context.Context) func() {
	prev := c.ctx
	c.ctx = ctx
	return func() { c.ctx = prev }
}

// PushFrame starts a new frame whose base scope is data.
func (c *Context) PushFrame(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	c.frames = append(c.frames, &frame{scopes: []map[string]any{data}})
}

// PopFrame discards the current frame. The root frame is never popped.
func (c *Context) PopFrame() {
	if len(c.frames) > 1 {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// PushScope adds a scope to the current frame.
func (c *Context) PushScope(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	f := c.current()
	f.scopes = append(f.scopes, data)
}

// PopScope discards the innermost scope of the current frame. The base scope is never popped.
func (c *Context) PopScope() {
	f := c.current()
	if len(f.scopes) > 1 {
		f.scopes = f.scopes[:len(f.scopes)-1]
	}
}

func (c *Context) PushCall(cf *domain.CallFrame) {
	c.calls = append(c.calls, cf)
}

func (c *Context) PopCall() (*domain.CallFrame, error) {
	if len(c.calls) == 0 {
		return nil, domain.ErrNoCallFrame
	}
	cf := c.calls[len(c.calls)-1]
	c.calls = c.calls[:len(c.calls)-1]
	return cf, nil
}

func (c *Context) TopCall() (*domain.CallFrame, error) {
	if len(c.calls) == 0 {
		return nil, domain.ErrNoCallFrame
	}
	return c.calls[len(c.calls)-1], nil
}

func (c *Context) CallStack() []*domain.CallFrame {
	out := make([]*domain.CallFrame, len(c.calls))
	copy(out, c.calls)
	return out
}

// Capture merges the root with the scopes of the current frame, inner scopes winning.
func (c *Context) Capture() map[string]any {
	out := maps.Clone(c.root)
	for _, s := range c.current().scopes {
		maps.Copy(out, s)
	}
	return out
}

// Fork returns a Context seeded with the root keys that do not start with "_".
// Frames, scopes and the call stack are not carried over.
func (c *Context) Fork() domain.Env {
	data := make(map[string]any, len(c.root))
	for k, v := range c.root {
		if !strings.HasPrefix(k, "_") {
			data[k] = v
		}
	}
	return New(WithStdout(c.stdout), WithData(data))
}

func (c *Context) Stdout() io.Writer {
	return c.stdout
}
