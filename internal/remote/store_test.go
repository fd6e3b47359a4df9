package remote

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/test/fixtures"
	"github.com/krarar/debt-manager/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uid = "anon_test"

func TestStore_Records(t *testing.T) {
	mr, adapter := helpers.SetupTestRedis(t)
	s := NewStore(adapter)
	ctx := context.Background()

	ahmed := fixtures.DebtorAhmed
	sara := fixtures.DebtorSara
	require.NoError(t, s.PutDebtor(ctx, uid, &ahmed))
	require.NoError(t, s.PutDebtor(ctx, uid, &sara))

	snap := fixtures.Snapshot()
	for _, tx := range snap.Transactions {
		require.NoError(t, s.PutTransaction(ctx, uid, tx))
	}

	t.Run("wire shape carries syncedAt", func(t *testing.T) {
		raw := mr.HGet("users:"+uid+":debtors", ahmed.ID)
		var wire map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &wire))
		assert.Equal(t, "Ahmed", wire["name"])
		assert.Contains(t, wire, "syncedAt")
	})

	t.Run("download strips syncedAt", func(t *testing.T) {
		debtors, err := s.Debtors(ctx, uid)
		require.NoError(t, err)
		require.Len(t, debtors, 2)
		byID := map[string]*model.Debtor{}
		for _, d := range debtors {
			byID[d.ID] = d
		}
		assert.Equal(t, ahmed, *byID[ahmed.ID])

		txs, err := s.Transactions(ctx, uid)
		require.NoError(t, err)
		assert.Len(t, txs, 3)
	})

	t.Run("delete debtor removes its transactions", func(t *testing.T) {
		require.NoError(t, s.DeleteDebtor(ctx, uid, ahmed.ID))

		debtors, err := s.Debtors(ctx, uid)
		require.NoError(t, err)
		require.Len(t, debtors, 1)
		assert.Equal(t, sara.ID, debtors[0].ID)

		txs, err := s.Transactions(ctx, uid)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, sara.ID, txs[0].DebtorID)
	})

	t.Run("delete transaction", func(t *testing.T) {
		require.NoError(t, s.DeleteTransaction(ctx, uid, "tx-3"))
		require.NoError(t, s.DeleteTransaction(ctx, uid, "never-uploaded"))
		txs, err := s.Transactions(ctx, uid)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("users are isolated", func(t *testing.T) {
		debtors, err := s.Debtors(ctx, "someone_else")
		require.NoError(t, err)
		assert.Empty(t, debtors)
	})
}

func TestStore_SettingsAndLastSync(t *testing.T) {
	_, adapter := helpers.SetupTestRedis(t)
	s := NewStore(adapter)
	ctx := context.Background()

	at, err := s.LastSyncAt(ctx, uid)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	now := model.Now()
	require.NoError(t, s.SetLastSyncAt(ctx, uid, now))
	at, err = s.LastSyncAt(ctx, uid)
	require.NoError(t, err)
	assert.True(t, now.Equal(at))

	require.NoError(t, s.PutSettings(ctx, uid, map[string]json.RawMessage{
		"currency": json.RawMessage(`"IQD"`),
		"stale":    json.RawMessage(`1`),
	}))
	require.NoError(t, s.PutSettings(ctx, uid, map[string]json.RawMessage{
		"currency": json.RawMessage(`"USD"`),
	}))

	settings, err := s.Settings(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, settings, 1, "replaced wholesale, syncedAt hidden")
	assert.JSONEq(t, `"USD"`, string(settings["currency"]))
}

func TestStore_Backups(t *testing.T) {
	_, adapter := helpers.SetupTestRedis(t)
	s := NewStore(adapter)
	ctx := context.Background()

	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.SaveBackup(ctx, uid, fixtures.Snapshot())
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := s.SaveBackup(ctx, uid, &model.Snapshot{Version: model.SnapshotVersion})
	require.NoError(t, err)

	list, err := s.ListBackups(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, 2, list[1].Debtors)
	assert.Equal(t, 3, list[1].Transactions)

	raw, err := s.Backup(ctx, uid, first)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"createdAt"`)

	_, err = s.Backup(ctx, uid, "123")
	assert.ErrorIs(t, err, ErrBackupNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_CycleLock(t *testing.T) {
	mr, adapter := helpers.SetupTestRedis(t)
	s := NewStore(adapter)
	ctx := context.Background()

	lock, err := s.AcquireLock(ctx, uid, 30*time.Second)
	require.NoError(t, err)

	_, err = s.AcquireLock(ctx, uid, 30*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, lock.Release(ctx))
	again, err := s.AcquireLock(ctx, uid, 30*time.Second)
	require.NoError(t, err)

	t.Run("expired lock is not stolen back", func(t *testing.T) {
		mr.FastForward(31 * time.Second)
		other, err := s.AcquireLock(ctx, uid, 30*time.Second)
		require.NoError(t, err)

		require.NoError(t, again.Release(ctx))
		assert.True(t, mr.Exists("users:"+uid+":sync_lock"), "stale holder must not drop the new lock")
		require.NoError(t, other.Release(ctx))
		assert.False(t, mr.Exists("users:"+uid+":sync_lock"))
	})
}
