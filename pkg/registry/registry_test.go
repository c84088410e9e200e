package registry_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_New(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("block", func() domain.Node { return &tags.Block{} })

	a, err := reg.New("block")
	require.NoError(t, err)
	b, err := reg.New("block")
	require.NoError(t, err)
	assert.NotSame(t, a, b, "factories must return fresh nodes")

	_, err = reg.New("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownElement)
}

func TestRegistry_Elements(t *testing.T) {
	reg := tags.NewRegistry()
	macro := &tags.Macro{Name: "greet"}
	reg.RegisterElement("greet", macro)

	got, ok := reg.Element("greet")
	require.True(t, ok)
	assert.Same(t, macro, got)

	clone := reg.Clone()
	_, ok = clone.Element("greet")
	assert.False(t, ok)
	assert.Equal(t, reg.Types(), clone.Types())
}

func TestStack(t *testing.T) {
	base := tags.NewRegistry()
	s := registry.NewStack(base)
	assert.Same(t, base, s.Current())
	assert.Equal(t, 1, s.Depth())

	scoped := base.Clone()
	s.Push(scoped)
	assert.Same(t, scoped, s.Current())

	assert.Same(t, scoped, s.Pop())
	assert.Same(t, base, s.Current())
	assert.Nil(t, s.Pop(), "the base registry is never popped")
}
