package tags_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptions_TryCatch(t *testing.T) {
	o := run(t, el("block", nil,
		el("try", nil,
			el("throw", attrs{"exception": "db.timeout", "msg": "slow"}),
			el("echo", attrs{"text": "unreachable"}),
		),
		el("catch", attrs{"exception": "db.*", "dst": "err"},
			el("echo", attrs{"text": "caught ${err.type}: ${err.msg}"}),
		),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "caught db.timeout: slow\n", o.out)
}

func TestExceptions_FirstMatchingCatchWins(t *testing.T) {
	o := run(t, el("block", nil,
		el("try", nil, el("throw", attrs{"exception": "net.http.404"})),
		el("catch", attrs{"exception": "db.*"}, el("echo", attrs{"text": "db"})),
		el("catch", attrs{"exception": "net.*, io.*"}, el("echo", attrs{"text": "net"})),
		el("catch", nil, el("echo", attrs{"text": "any"})),
		el("echo", attrs{"text": "after"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "net\nafter\n", o.out)
}

func TestExceptions_ThrowInfo(t *testing.T) {
	o := run(t, el("block", nil,
		el("throw", attrs{"exception": "app.error", "code": "40 + 2"}),
		el("catch", attrs{"dst": "err"}, el("echo", attrs{"text": "${err.info.code}"})),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "42\n", o.out)
}

func TestExceptions_UnhandledTrace(t *testing.T) {
	o := run(t, el("block", nil,
		el("for", attrs{"src": "2"},
			el("throw", attrs{"exception": "value.error"}),
		),
	).Named("main"), nil)

	var lerr *domain.LogicError
	require.ErrorAs(t, o.err, &lerr)

	var ids []string
	for _, f := range lerr.Trace.Stack {
		ids = append(ids, f.NodeID)
	}
	assert.Equal(t, []string{"main", "main/for[0]", "main/for[0]/throw[0]"}, ids)
	assert.Equal(t, "test.xml", lerr.Trace.Stack[0].File)
}

func TestExceptions_RetrySucceeds(t *testing.T) {
	o := run(t, el("block", nil,
		el("retry", attrs{"times": "3", "exception": "net.*", "dst": "attempt"},
			el("let", attrs{"n": "n + 1"}),
			el("throw", attrs{"exception": "net.reset", "if": "n < 3"}),
		),
		el("echo", attrs{"text": "${n} ${attempt}"}),
	), map[string]any{"n": 0})

	require.NoError(t, o.err)
	assert.Equal(t, "3 3\n", o.out)
}

func TestExceptions_RetryExhaustedRethrows(t *testing.T) {
	o := run(t, el("block", nil,
		el("retry", attrs{"times": "2", "backoff": "exponential", "delay": "1ms"},
			el("let", attrs{"n": "n + 1"}),
			el("throw", attrs{"exception": "net.reset"}),
		),
		el("catch", attrs{"exception": "net.*"},
			el("echo", attrs{"text": "gave up after ${n}"}),
		),
	), map[string]any{"n": 0})

	require.NoError(t, o.err)
	assert.Equal(t, "gave up after 2\n", o.out)
}

func TestExceptions_RetryIgnoresOtherTypes(t *testing.T) {
	o := run(t, el("block", nil,
		el("retry", attrs{"times": "5", "exception": "net.*"},
			el("let", attrs{"n": "n + 1"}),
			el("throw", attrs{"exception": "db.error"}),
		),
		el("catch", nil, el("echo", attrs{"text": "${n}"})),
	), map[string]any{"n": 0})

	require.NoError(t, o.err)
	assert.Equal(t, "1\n", o.out)
}

func TestExceptions_Trap(t *testing.T) {
	o := run(t, el("block", nil,
		el("trap", attrs{"dst": "err"},
			el("throw", attrs{"exception": "io.closed"}),
			el("echo", attrs{"text": "unreachable"}),
		),
		el("echo", attrs{"text": "trapped ${err.type}"}),
	), nil)

	require.NoError(t, o.err)
	assert.Equal(t, "trapped io.closed\n", o.out)
}
