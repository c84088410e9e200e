package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractTrace(id string) *domain.Trace {
	return &domain.Trace{
		ID:        id,
		RunID:     "run-" + id,
		Time:      time.Now().UTC().Truncate(time.Second),
		ErrorType: domain.ErrorTypeException,
		Exception: domain.NewException("db.timeout", "too slow", "table", "users"),
		CallStack: []domain.TraceFrame{{NodeID: "demo/macro[0]", Type: "macro", File: "demo", Line: 1}},
		Stack: []domain.TraceFrame{
			{NodeID: "demo/for[1]", Type: "for", File: "demo", Line: 4},
			{NodeID: "demo/for[1]/throw[0]", Type: "throw", File: "demo", Line: 5},
		},
	}
}

// RunTraceStoreContract runs a suite of tests to verify that a TraceStore implementation
// adheres to the defined interface contract.
func RunTraceStoreContract(t *testing.T, store TraceStore) {
	ctx := context.Background()
	traceID := "contract-test-trace-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		trace := contractTrace(traceID)

		err := store.Save(ctx, trace)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, traceID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, trace.ID, loaded.ID)
		assert.Equal(t, trace.RunID, loaded.RunID)
		assert.Equal(t, trace.ErrorType, loaded.ErrorType)
		assert.Equal(t, trace.Stack, loaded.Stack)
		assert.Equal(t, trace.CallStack, loaded.CallStack)
		require.NotNil(t, loaded.Exception)
		assert.Equal(t, "db.timeout", loaded.Exception.Type)
		table, ok := loaded.Exception.Field("table")
		assert.True(t, ok)
		assert.Equal(t, "users", table)
		assert.True(t, trace.Time.Equal(loaded.Time))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+traceID)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, contractTrace(traceID))
		require.NoError(t, err)

		err = store.Delete(ctx, traceID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, traceID)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound, "Load after Delete should return ErrTraceNotFound")

		assert.NoError(t, store.Delete(ctx, traceID), "Delete of a missing trace is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := traceID + "-1"
		id2 := traceID + "-2"
		_ = store.Save(ctx, contractTrace(id1))
		_ = store.Save(ctx, contractTrace(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
