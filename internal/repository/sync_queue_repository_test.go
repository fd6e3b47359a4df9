package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncQueueRepository_Order(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncQueueRepository(db)
	ctx := context.Background()
	now := model.Now()

	// Same queuedAt: insertion order must win over id order.
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		require.NoError(t, repo.Put(ctx, &model.SyncQueueItem{
			ID:       id,
			OpType:   model.OpCreateDebtor,
			Payload:  json.RawMessage(`{"id":"` + id + `"}`),
			QueuedAt: now,
		}))
	}

	items, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, id := range ids {
		assert.Equal(t, id, items[i].ID)
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSyncQueueRepository_IncrementRetries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncQueueRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &model.SyncQueueItem{
		ID:       "q1",
		OpType:   model.OpDeleteDebtor,
		Payload:  json.RawMessage(`{"id":"d1"}`),
		QueuedAt: model.Now(),
	}))

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementRetries(ctx, "q1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.IncrementRetries(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestSyncQueueRepository_IndexAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncQueueRepository(db)
	ctx := context.Background()
	now := model.Now()

	ops := map[string]model.OpType{
		"q1": model.OpCreateDebtor,
		"q2": model.OpDeleteTransaction,
		"q3": model.OpDeleteTransaction,
	}
	for id, op := range ops {
		require.NoError(t, repo.Put(ctx, &model.SyncQueueItem{ID: id, OpType: op, Payload: json.RawMessage(`{}`), QueuedAt: now}))
	}

	got, err := repo.GetAllByIndex(ctx, "opType", model.OpDeleteTransaction)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = repo.GetAllByIndex(ctx, "retries", 0)
	assert.ErrorIs(t, err, ErrUnknownIndex)

	require.NoError(t, repo.DeleteMany(ctx, []string{"q2", "q3"}))
	require.NoError(t, repo.DeleteMany(ctx, nil))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Clear(ctx))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
