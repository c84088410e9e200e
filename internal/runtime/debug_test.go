package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakpoint(id string) *node {
	n := newNode(id, "breakpoint")
	n.logic = func(ctx context.Context, env domain.Env, n *node) (domain.Sequence, error) {
		return nil, &domain.Breakpoint{Node: n}
	}
	return n
}

func TestDebug_RequiresConsole(t *testing.T) {
	_, err := runtime.NewEngine().Debug(context.Background(), newEnv(), domain.Delegate(newNode("root", "block")))
	assert.ErrorIs(t, err, runtime.ErrNoConsole)
}

func TestDebug_Step(t *testing.T) {
	rec := &recorder{}
	console := &scriptConsole{commands: []string{"s", "s", "c"}}
	root := newNode("root", "block", leaf("a", rec), leaf("b", rec), leaf("c", rec))

	_, err := runtime.NewEngine(runtime.WithDebugConsole(console)).
		Debug(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"arbor root > ", "arbor a > ", "arbor b > "}, console.getPrompts())
	assert.Equal(t, []string{"a", "b", "c"}, rec.get())
}

func TestDebug_StepOver(t *testing.T) {
	rec := &recorder{}
	console := &scriptConsole{commands: []string{"s", "over"}}
	root := newNode("root", "block",
		newNode("inner", "block", leaf("x", rec), leaf("y", rec)),
		leaf("z", rec),
	)

	_, err := runtime.NewEngine(runtime.WithDebugConsole(console)).
		Debug(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	// The last prompt reads EOF, which ends the session.
	assert.Equal(t, []string{"arbor root > ", "arbor inner > ", "arbor z > "}, console.getPrompts())
	assert.Equal(t, []string{"x", "y", "z"}, rec.get())
}

func TestDebug_LetAndEval(t *testing.T) {
	env := newEnv()
	console := &scriptConsole{commands: []string{"let x = 1 + 1", "watch x * 10", "x?", "c"}}

	_, err := runtime.NewEngine(runtime.WithDebugConsole(console)).
		Debug(context.Background(), env, domain.Delegate(newNode("root", "block")))
	require.NoError(t, err)

	x, ok := env.Get("x")
	require.True(t, ok)
	assert.Equal(t, 2, x)
	assert.Contains(t, console.output(), "x * 10 = 20")
}

func TestDebug_BreakpointWithoutConsoleIsIgnored(t *testing.T) {
	rec := &recorder{}
	root := newNode("root", "block", leaf("a", rec), breakpoint("bp"), leaf("b", rec))

	_, err := runtime.NewEngine().Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.get())
}

func TestDebug_BreakpointAttachesDebugger(t *testing.T) {
	rec := &recorder{}
	console := &scriptConsole{commands: []string{"c"}}
	root := newNode("root", "block", leaf("a", rec), breakpoint("bp"), leaf("b", rec))

	_, err := runtime.NewEngine(runtime.WithDebugConsole(console)).
		Run(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"arbor b > "}, console.getPrompts())
	assert.Equal(t, []string{"a", "b"}, rec.get())
}

func TestDebug_RunSuppressesBreakpoints(t *testing.T) {
	rec := &recorder{}
	console := &scriptConsole{commands: []string{"r"}}
	root := newNode("root", "block", breakpoint("bp"), leaf("a", rec), breakpoint("bp2"))

	_, err := runtime.NewEngine(runtime.WithDebugConsole(console)).
		Debug(context.Background(), newEnv(), domain.Delegate(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"arbor root > "}, console.getPrompts())
	assert.Equal(t, []string{"a"}, rec.get())
}

type blockingConsole struct {
	prompted chan struct{}
	release  chan struct{}
}

func (c *blockingConsole) ReadCommand(ctx context.Context, prompt string) (string, error) {
	select {
	case c.prompted <- struct{}{}:
	default:
	}
	<-c.release
	return "c", nil
}

func (c *blockingConsole) Show(title string, lines ...string) {}

func TestDebug_SingleSession(t *testing.T) {
	console := &blockingConsole{prompted: make(chan struct{}, 1), release: make(chan struct{})}
	engine := runtime.NewEngine(runtime.WithDebugConsole(console))

	done := make(chan error, 1)
	go func() {
		_, err := engine.Debug(context.Background(), newEnv(), domain.Delegate(newNode("first", "block")))
		done <- err
	}()
	<-console.prompted

	_, err := engine.Debug(context.Background(), newEnv(), domain.Delegate(newNode("second", "block")))
	assert.ErrorIs(t, err, domain.ErrDebuggerBusy)

	close(console.release)
	require.NoError(t, <-done)
}
