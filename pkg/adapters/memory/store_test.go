package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunTraceStoreContract(t, store)
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, &domain.Trace{ID: "t1", Stack: []domain.TraceFrame{{NodeID: "a"}}}))

	loaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	loaded.Stack[0].NodeID = "mutated"

	again, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Stack[0].NodeID)
}
