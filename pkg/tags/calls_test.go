package tags_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/scope"
	"github.com/aretw0/arbor/pkg/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalls_NestedCallReturns(t *testing.T) {
	o := run(t, el("block", nil,
		el("macro", attrs{"name": "double"},
			el("return", attrs{"value": "n * 2"}),
			el("echo", attrs{"text": "unreachable"}),
		),
		el("macro", attrs{"name": "six"},
			el("call", attrs{"macro": "double", "n": "3", "dst": "v"}),
			el("return", attrs{"value": "v"}),
		),
		el("call", attrs{"macro": "six", "dst": "r"}),
		el("echo", attrs{"text": "${r}"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "6\n", o.out)
	assert.Empty(t, o.env.CallStack())
	_, ok := o.env.Get("v")
	assert.False(t, ok, "callee frame leaked into the caller")
}

func TestCalls_ReturnInsideLoop(t *testing.T) {
	o := run(t, el("block", nil,
		el("macro", attrs{"name": "find"},
			el("for", attrs{"src": "items", "dst": "it"},
				el("if", attrs{"test": "it > 2"}, el("return", attrs{"value": "it"})),
			),
			el("return", attrs{"value": "-1"}),
		),
		el("call", attrs{"macro": "find", "items": "[1, 3, 5]", "dst": "found"}),
		el("echo", attrs{"text": "${found}"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "3\n", o.out)
}

func TestCalls_Yield(t *testing.T) {
	o := run(t, el("block", nil,
		el("macro", attrs{"name": "wrap"},
			el("echo", attrs{"text": "<${tag}>"}),
			el("yield", nil),
			el("echo", attrs{"text": "</${tag}>"}),
		),
		el("let", attrs{"body": "'hello'"}),
		el("call", attrs{"macro": "wrap", "tag": "'p'"},
			el("echo", attrs{"text": "${body}"}),
		),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "<p>\nhello\n</p>\n", o.out)
}

func TestCalls_UnknownMacro(t *testing.T) {
	o := run(t, el("call", attrs{"macro": "missing"}), nil)

	var lerr *domain.LogicError
	require.ErrorAs(t, o.err, &lerr)
	assert.ErrorIs(t, o.err, domain.ErrElementNotFound)
	assert.Equal(t, domain.ErrorTypeFault, lerr.Trace.ErrorType)
}

func TestCalls_ClosureCapturesScope(t *testing.T) {
	o := run(t, el("block", nil,
		el("let", attrs{"x": "1"}),
		el("closure", attrs{"dst": "add"},
			el("return", attrs{"value": "x + y"}),
		),
		el("let", attrs{"x": "100"}),
		el("invoke", attrs{"src": "add", "y": "10", "dst": "r"}),
		el("echo", attrs{"text": "${r} ${x}"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "11 100\n", o.out)
}

func TestCalls_InvokeNotCallable(t *testing.T) {
	o := run(t, el("block", nil,
		el("invoke", attrs{"src": "42"}),
		el("catch", attrs{"exception": "invoke.*"}, el("echo", attrs{"text": "not callable"})),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "not callable\n", o.out)
}

func TestCalls_ReturnOutsideCall(t *testing.T) {
	o := run(t, el("return", nil), nil)
	assert.ErrorIs(t, o.err, domain.ErrNoCallFrame)
}

func TestWorker_JoinOnRead(t *testing.T) {
	o := run(t, el("block", nil,
		el("worker", attrs{"dst": "w", "base": "20"},
			el("let", attrs{"v": "base + 1"}),
			el("return", attrs{"value": "v * 2"}),
		),
		el("echo", attrs{"text": "${w}"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "42\n", o.out)

	_, leaked := o.env.Get("v")
	assert.False(t, leaked, "worker data leaked into the caller")
}

func TestWorker_FailureRaisesThreadFail(t *testing.T) {
	o := run(t, el("block", nil,
		el("worker", attrs{"dst": "w"},
			el("throw", attrs{"exception": "boom"}),
		),
		el("let", attrs{"r": "w"}),
		el("catch", attrs{"exception": "thread.fail", "dst": "err"},
			el("echo", attrs{"text": "${err.info.worker}"}),
		),
	).Named("main"), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "main/worker[0]\n", o.out)
}

func TestWorker_Timeout(t *testing.T) {
	root, err := dsl.New(tags.NewRegistry(), "").Build(el("block", nil,
		el("worker", attrs{"dst": "w", "timeout": "10ms"},
			el("while", attrs{"test": "true"}, el("let", attrs{"spin": "1"})),
		),
		el("let", attrs{"r": "w"}),
		el("catch", attrs{"exception": "thread.timeout"}, el("echo", attrs{"text": "timed out"})),
	))
	require.NoError(t, err)

	// Cancelling stops the spinning worker once the test is done.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	_, err = runtime.NewEngine().Run(ctx, scope.New(scope.WithStdout(&buf)), domain.Delegate(root))
	require.NoError(t, err)
	assert.Equal(t, "timed out\n", buf.String())
}

func TestRegistry_CoreTags(t *testing.T) {
	reg := tags.NewRegistry()
	for _, typ := range []string{
		"block", "if", "elif", "else", "switch", "case", "default-case",
		"for", "while", "repeat", "break", "continue",
		"try", "catch", "throw", "retry", "trap",
		"macro", "call", "yield", "return", "exit",
		"let", "with", "echo", "breakpoint", "worker", "closure", "invoke",
	} {
		n, err := reg.New(typ)
		require.NoError(t, err, typ)
		_, ok := n.(dsl.Mountable)
		assert.True(t, ok, typ)
	}
	assert.Len(t, reg.Types(), 29)
}

func TestBreakpoint_WithoutDebuggerIsIgnored(t *testing.T) {
	o := run(t, el("block", nil,
		el("breakpoint", nil),
		el("echo", attrs{"text": "still running"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "still running\n", o.out)
}
