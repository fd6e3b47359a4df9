package helpers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/repository"
	"github.com/krarar/debt-manager/pkg/redis"
	"github.com/krarar/debt-manager/pkg/store"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// SetupTestStore opens a private in-memory local store with the real schema.
func SetupTestStore(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Open(store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.Migrate(context.Background(), db))
	return db
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// The adapter registry is keyed by name; keep names unique per test.
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = adapter.Close()
		mr.Close()
	})
	return mr, adapter
}

// EnableSync turns the syncEnabled setting on so mutations reach the outbox.
func EnableSync(t *testing.T, db *store.DB) {
	t.Helper()
	SetSetting(t, db, model.SettingSyncEnabled, true)
}

func SetSetting(t *testing.T, db *store.DB, key string, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	err = repository.NewSettingRepository(db).Put(context.Background(), &model.Setting{Key: key, Value: raw})
	require.NoError(t, err)
}

func CreateTestDebtor(t *testing.T, db *store.DB, name, phone string) *model.Debtor {
	t.Helper()
	now := model.Now()
	d := &model.Debtor{
		ID:        model.NewID(),
		Name:      name,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repository.NewDebtorRepository(db).Put(context.Background(), d))
	return d
}

func CreateTestTransaction(t *testing.T, db *store.DB, debtorID string, typ model.TransactionType, amount string) *model.Transaction {
	t.Helper()
	now := model.Now()
	tx := &model.Transaction{
		ID:        model.NewID(),
		DebtorID:  debtorID,
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
		Currency:  model.DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repository.NewTransactionRepository(db).Put(context.Background(), tx))
	return tx
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
