package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/goccy/go-json"
)

// RunOptions contains all the configuration for the run and debug commands.
type RunOptions struct {
	Demo       string
	ConfigPath string
	// Context is a JSON object merged into the demo's root scope.
	Context string
	// Debug attaches the debugger from the first node.
	Debug   bool
	Verbose bool
	Quiet   bool

	Stdout  io.Writer
	Stderr  io.Writer
	Console ports.DebugConsole
}

// Execute builds and runs a demo program, printing the trace of a fatal error.
func Execute(ctx context.Context, opts RunOptions) error {
	demo, err := LookupDemo(opts.Demo)
	if err != nil {
		return err
	}

	data := maps.Clone(demo.Data)
	if data == nil {
		data = map[string]any{}
	}
	if opts.Context != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(opts.Context), &extra); err != nil {
			return fmt.Errorf("error parsing --context JSON: %w", err)
		}
		maps.Copy(data, extra)
	}

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Verbose)
	if err != nil {
		return err
	}

	rt, err := createEngine(ctx, cfg, EngineOptions{
		Logger:  logger,
		Console: opts.Console,
		Stdout:  opts.Stdout,
		Verbose: opts.Verbose,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	root, err := rt.Engine.Build(demo.Name, demo.Program)
	if err != nil {
		return fmt.Errorf("build %s: %w", demo.Name, err)
	}

	env := rt.Engine.NewEnv(data)
	var res *domain.Result
	if opts.Debug {
		res, err = rt.Engine.Debug(ctx, env, root)
	} else {
		res, err = rt.Engine.Run(ctx, env, root)
	}

	var lerr *domain.LogicError
	if errors.As(err, &lerr) {
		if perr := tui.PrintTrace(opts.Stderr, lerr.Trace); perr != nil {
			logger.Warn("failed to print trace", "err", perr)
		}
		return fmt.Errorf("%s failed (trace %s): %w", demo.Name, lerr.Trace.ID, err)
	}

	if !opts.Quiet {
		logCompletion(opts.Stderr, demo.Name, res, err, signalOf(ctx))
	}
	return handleExecutionError(err)
}
