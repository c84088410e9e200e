package arbor_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RunWritesToStdout(t *testing.T) {
	var out bytes.Buffer
	eng := arbor.New(arbor.WithStdout(&out))
	root, err := eng.Build("t", dsl.El("block", nil,
		dsl.El("let", dsl.Attrs{"name": "'world'"}),
		dsl.El("echo", dsl.Attrs{"text": "hello ${name}"}),
	))
	require.NoError(t, err)

	res, err := eng.Run(context.Background(), eng.NewEnv(nil), root)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out.String())
	assert.False(t, res.Aborted)
	assert.NotEmpty(t, res.RunID)
}

func TestEngine_NewEnvSeedsRootScope(t *testing.T) {
	var out bytes.Buffer
	eng := arbor.New(arbor.WithStdout(&out))
	root, err := eng.Build("t", dsl.El("echo", dsl.Attrs{"text": "${who}"}))
	require.NoError(t, err)

	_, err = eng.Run(context.Background(), eng.NewEnv(map[string]any{"who": "ops"}), root)
	require.NoError(t, err)
	assert.Equal(t, "ops\n", out.String())
}

func TestEngine_SavesTraces(t *testing.T) {
	store := memory.NewStore()
	eng := arbor.New(arbor.WithTraceStore(store))
	root, err := eng.Build("t", dsl.El("throw", dsl.Attrs{"exception": "boom"}))
	require.NoError(t, err)

	_, err = eng.Run(context.Background(), eng.NewEnv(nil), root)
	var lerr *domain.LogicError
	require.ErrorAs(t, err, &lerr)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{lerr.Trace.ID}, ids)
}

func TestEngine_RegistryStackIsolatesBuilds(t *testing.T) {
	eng := arbor.New()
	base := eng.Registries().Current()

	eng.Registries().Push(base.Clone())
	_, err := eng.Build("reload", dsl.El("macro", dsl.Attrs{"name": "greet"}))
	require.NoError(t, err)
	_, ok := eng.Registries().Current().Element("greet")
	assert.True(t, ok)

	eng.Registries().Pop()
	_, ok = base.Element("greet")
	assert.False(t, ok, "macros built on a pushed registry do not leak into the base")
}

func TestEngine_DebugRequiresConsole(t *testing.T) {
	eng := arbor.New()
	root, err := eng.Build("t", dsl.El("block", nil))
	require.NoError(t, err)

	_, err = eng.Debug(context.Background(), eng.NewEnv(nil), root)
	assert.ErrorIs(t, err, arbor.ErrNoConsole)
}
