package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// LoadConfig reads the configuration file and ARBOR_* overrides.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(config.Options{File: path, DotEnv: ".env"})
}

// createLogger configures the application logger from the config.
// Verbose forces debug level.
func createLogger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.FromConfig(level, cfg.Log.Format)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Enter Node", "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.Debug("Leave Node (Error)", "node_id", e.NodeID, "err", e.Err)
			} else {
				logger.Debug("Leave Node", "node_id", e.NodeID, "closed", e.Closed)
			}
		},
		OnException: func(ctx context.Context, e *domain.ExceptionEvent) {
			logger.Debug("Exception", "node_id", e.NodeID, "type", e.ExceptionType, "handled", e.Handled, "handler", e.HandlerID)
		},
		OnSignal: func(ctx context.Context, e *domain.SignalEvent) {
			logger.Debug("Signal", "node_id", e.NodeID, "signal", e.Signal, "boundary", e.BoundaryID)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

func logCompletion(w io.Writer, demo string, res *domain.Result, err error, sig os.Signal) {
	switch {
	case err == nil && res.Aborted:
		printSystemMessage(w, "'%s' exited with %v after %d steps.", demo, res.Payload, res.Steps)
	case err == nil:
		printSystemMessage(w, "'%s' finished in %d steps.", demo, res.Steps)
	case isInterrupted(err) && sig == os.Interrupt:
		fmt.Fprintf(w, "[CTRL+C]\n")
		printSystemMessage(w, "Interrupted '%s'.", demo)
	case isInterrupted(err) && sig != nil:
		printSystemMessage(w, "Terminated '%s'.", demo)
	case isInterrupted(err):
		printSystemMessage(w, "Stopped '%s'.", demo)
	}
}

func signalOf(ctx context.Context) os.Signal {
	if sc, ok := ctx.(*SignalContext); ok {
		return sc.Signal()
	}
	return nil
}
