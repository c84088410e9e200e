package arbor

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/scope"
	"github.com/aretw0/arbor/pkg/tags"
)

// ErrNoConsole is returned by Debug when no debug console is configured.
var ErrNoConsole = runtime.ErrNoConsole

// Version is the arbor release, set at build time with -ldflags.
var Version = "0.1.0-dev"

// Engine is the high-level entry point for the arbor library.
// It wraps the internal runtime and owns the registry stack trees are built against.
type Engine struct {
	runtime    *runtime.Engine
	registries *registry.Stack
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	store      ports.TraceStore
	console    ports.DebugConsole
	stdout     io.Writer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTraceStore persists the diagnostic trace of every fatal error.
func WithTraceStore(store ports.TraceStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithDebugConsole enables the debugger. Breakpoints reached by Run attach
// to this console; Debug requires it.
func WithDebugConsole(console ports.DebugConsole) Option {
	return func(e *Engine) {
		e.console = console
	}
}

// WithRegistry replaces the core tag registry as the base of the registry stack.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registries = registry.NewStack(reg)
	}
}

// WithStdout sets where output tags write for environments created by NewEnv.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) {
		e.stdout = w
	}
}

// New initializes a new Engine with the core tag set.
func New(opts ...Option) *Engine {
	eng := &Engine{stdout: os.Stdout}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.registries == nil {
		eng.registries = registry.NewStack(tags.NewRegistry())
	}

	runtimeOpts := []runtime.Option{runtime.WithLifecycleHooks(eng.hooks)}
	// A nil logger would overwrite the runtime's discard default.
	if eng.logger != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithLogger(eng.logger))
	}
	if eng.store != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithTraceStore(eng.store))
	}
	if eng.console != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithDebugConsole(eng.console))
	}
	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng
}

// Registries returns the registry stack. Build uses its current registry.
func (e *Engine) Registries() *registry.Stack {
	return e.registries
}

// Build creates the tree described by root against the current registry.
// file is reported as the location of every node.
func (e *Engine) Build(file string, root dsl.Spec) (domain.Node, error) {
	return dsl.New(e.registries.Current(), file).Build(root)
}

// NewEnv creates an environment whose root scope holds data.
func (e *Engine) NewEnv(data map[string]any) domain.Env {
	return scope.New(scope.WithStdout(e.stdout), scope.WithData(data))
}

// Run executes root against env until the engine stack is empty.
// Fatal errors are returned as *domain.LogicError.
func (e *Engine) Run(ctx context.Context, env domain.Env, root domain.Node) (*domain.Result, error) {
	return e.runtime.Run(ctx, env, domain.Delegate(root))
}

// Debug executes root with the debugger attached from the first node.
func (e *Engine) Debug(ctx context.Context, env domain.Env, root domain.Node) (*domain.Result, error) {
	return e.runtime.Debug(ctx, env, domain.Delegate(root))
}

// SuppressBreakpoints turns every later breakpoint into a no-op.
func (e *Engine) SuppressBreakpoints(v bool) {
	e.runtime.SuppressBreakpoints(v)
}
