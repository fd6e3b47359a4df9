package repository

import (
	"context"
	"testing"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDebtor(id, name, phone string, at time.Time) *model.Debtor {
	return &model.Debtor{
		ID:        id,
		Name:      name,
		Phone:     phone,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestDebtorRepository_PutGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDebtorRepository(db)
	ctx := context.Background()
	now := model.Now()

	t.Run("get missing returns nil", func(t *testing.T) {
		d, err := repo.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("put then get", func(t *testing.T) {
		d := newDebtor("d1", "Ahmed", "0770", now)
		d.Address = "Baghdad"
		require.NoError(t, repo.Put(ctx, d))

		got, err := repo.Get(ctx, "d1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ahmed", got.Name)
		assert.Equal(t, "Baghdad", got.Address)
		assert.True(t, now.Equal(got.CreatedAt))
		assert.Equal(t, time.UTC, got.CreatedAt.Location())
	})

	t.Run("put replaces existing record", func(t *testing.T) {
		later := now.Add(time.Second)
		d := newDebtor("d1", "Ahmed Ali", "0771", now)
		d.UpdatedAt = later
		require.NoError(t, repo.Put(ctx, d))

		got, err := repo.Get(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, "Ahmed Ali", got.Name)
		assert.Equal(t, "", got.Address)
		assert.True(t, later.Equal(got.UpdatedAt))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestDebtorRepository_GetAllByIndex(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDebtorRepository(db)
	ctx := context.Background()
	now := model.Now()

	require.NoError(t, repo.Put(ctx, newDebtor("d1", "Sara", "111", now)))
	require.NoError(t, repo.Put(ctx, newDebtor("d2", "Omar", "222", now.Add(time.Millisecond))))
	require.NoError(t, repo.Put(ctx, newDebtor("d3", "Sara", "333", now.Add(2*time.Millisecond))))

	t.Run("by name", func(t *testing.T) {
		got, err := repo.GetAllByIndex(ctx, "name", "Sara")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "d1", got[0].ID)
		assert.Equal(t, "d3", got[1].ID)
	})

	t.Run("by phone", func(t *testing.T) {
		got, err := repo.GetAllByIndex(ctx, "phone", "222")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Omar", got[0].Name)
	})

	t.Run("unknown index", func(t *testing.T) {
		_, err := repo.GetAllByIndex(ctx, "notes", "x")
		assert.ErrorIs(t, err, ErrUnknownIndex)
	})
}

func TestDebtorRepository_DeleteAndClear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDebtorRepository(db)
	ctx := context.Background()
	now := model.Now()

	require.NoError(t, repo.Put(ctx, newDebtor("d1", "A", "1", now)))
	require.NoError(t, repo.Put(ctx, newDebtor("d2", "B", "2", now)))

	require.NoError(t, repo.Delete(ctx, "d1"))
	require.NoError(t, repo.Delete(ctx, "never-existed"))

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Clear(ctx))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDebtorRepository_TransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDebtorRepository(db)
	ctx := context.Background()

	err := db.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Put(ctx, newDebtor("d1", "A", "1", model.Now())))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
