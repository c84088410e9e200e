package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/adapters/file"
	"github.com/aretw0/arbor/internal/adapters/redis"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

// Runtime bundles an engine with the collaborators the CLI wires into it.
type Runtime struct {
	Engine  *arbor.Engine
	Store   ports.TraceStore
	Metrics *prometheus.Registry
	closers []func() error
}

// Close releases the trace store connection, if any.
func (r *Runtime) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// EngineOptions are the per-command settings layered over the config.
type EngineOptions struct {
	Logger  *slog.Logger
	Console ports.DebugConsole
	Stdout  io.Writer
	// Verbose logs every node and signal at debug level.
	Verbose bool
}

// OpenTraceStore creates the trace store selected by cfg.Traces.Backend,
// masking the info fields named by cfg.Traces.Redact.
// The returned closer is never nil.
func OpenTraceStore(ctx context.Context, cfg *config.Config) (ports.TraceStore, func() error, error) {
	store, closer, err := openBackend(ctx, cfg)
	if err != nil || len(cfg.Traces.Redact) == 0 {
		return store, closer, err
	}
	redact, err := middleware.NewRedactMiddleware(cfg.Traces.Redact)
	if err != nil {
		_ = closer()
		return nil, func() error { return nil }, err
	}
	return middleware.Wrap(store, redact), closer, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (ports.TraceStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Traces.Backend {
	case config.BackendMemory:
		return memory.NewStore(), noop, nil
	case config.BackendFile:
		return file.New(cfg.Traces.Dir), noop, nil
	case config.BackendRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown trace backend %q", cfg.Traces.Backend)
	}
}

// createEngine initializes an engine with standard CLI conventions: the
// configured trace store, Prometheus metrics and OpenTelemetry spans.
func createEngine(ctx context.Context, cfg *config.Config, opts EngineOptions) (*Runtime, error) {
	store, closeStore, err := OpenTraceStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Store: store, Metrics: prometheus.NewRegistry(), closers: []func() error{closeStore}}

	metrics, err := observability.NewMetrics(rt.Metrics)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	hooks := []domain.LifecycleHooks{
		metrics.Hooks(),
		observability.NewTracing(otel.Tracer("github.com/aretw0/arbor")).Hooks(),
	}
	if opts.Verbose {
		hooks = append(hooks, createDebugHooks(opts.Logger))
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(opts.Logger),
		arbor.WithTraceStore(store),
		arbor.WithLifecycleHooks(observability.Chain(hooks...)),
	}
	if opts.Stdout != nil {
		engineOpts = append(engineOpts, arbor.WithStdout(opts.Stdout))
	}
	if opts.Console != nil {
		engineOpts = append(engineOpts, arbor.WithDebugConsole(opts.Console))
	}
	rt.Engine = arbor.New(engineOpts...)
	if !cfg.Debug.Breakpoints {
		rt.Engine.SuppressBreakpoints(true)
	}
	return rt, nil
}
