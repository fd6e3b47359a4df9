package repository

import (
	"context"
	"testing"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransaction(id, debtorID string, typ model.TransactionType, amount string, at time.Time) *model.Transaction {
	return &model.Transaction{
		ID:        id,
		DebtorID:  debtorID,
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
		Currency:  model.DefaultCurrency,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestTransactionRepository_PutGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	now := model.Now()

	tx := newTransaction("t1", "d1", model.TransactionTypeDebt, "1250.75", now)
	tx.Product = "rice"
	require.NoError(t, repo.Put(ctx, tx))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.TransactionTypeDebt, got.Type)
	assert.True(t, decimal.RequireFromString("1250.75").Equal(got.Amount))
	assert.Equal(t, "rice", got.Product)
	assert.True(t, now.Equal(got.CreatedAt))

	missing, err := repo.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTransactionRepository_GetAllByIndex(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	now := model.Now()

	require.NoError(t, repo.Put(ctx, newTransaction("t1", "d1", model.TransactionTypeDebt, "100", now)))
	require.NoError(t, repo.Put(ctx, newTransaction("t2", "d1", model.TransactionTypePayment, "40", now.Add(time.Millisecond))))
	require.NoError(t, repo.Put(ctx, newTransaction("t3", "d2", model.TransactionTypeDebt, "100", now.Add(2*time.Millisecond))))

	t.Run("by debtor", func(t *testing.T) {
		got, err := repo.GetAllByIndex(ctx, "debtorId", "d1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "t1", got[0].ID)
		assert.Equal(t, "t2", got[1].ID)
	})

	t.Run("by type", func(t *testing.T) {
		got, err := repo.GetAllByIndex(ctx, "type", model.TransactionTypeDebt)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by amount", func(t *testing.T) {
		got, err := repo.GetAllByIndex(ctx, "amount", decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown index", func(t *testing.T) {
		_, err := repo.GetAllByIndex(ctx, "product", "rice")
		assert.ErrorIs(t, err, ErrUnknownIndex)
	})
}

func TestTransactionRepository_GetCreatedBetween(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"t1", "t2", "t3", "t4"} {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, repo.Put(ctx, newTransaction(id, "d1", model.TransactionTypeDebt, "10", at)))
	}

	got, err := repo.GetCreatedBetween(ctx, base.Add(24*time.Hour), base.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].ID)
	assert.Equal(t, "t3", got[1].ID)
}
