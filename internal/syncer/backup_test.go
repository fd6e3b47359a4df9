package syncer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/remote"
	"github.com/krarar/debt-manager/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_BackupAndRestore(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()
	uid := env.engine.UserID()

	_, err := env.ledger.ImportData(ctx, fixtures.Snapshot(), model.ImportOptions{})
	require.NoError(t, err)
	require.NoError(t, env.ledger.SetSetting(ctx, model.SettingRemoteUserID, uid))

	id, err := env.engine.BackupToRemote(ctx)
	require.NoError(t, err)

	backups, err := env.engine.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, id, backups[0].ID)
	assert.Equal(t, 2, backups[0].Debtors)
	assert.Equal(t, 3, backups[0].Transactions)

	// diverge locally, then roll back
	require.NoError(t, env.ledger.DeleteDebtor(ctx, fixtures.DebtorSara.ID))
	_, err = env.ledger.AddDebtor(ctx, fixtures.NewDebtorCreateRequest("Newcomer", "0750"))
	require.NoError(t, err)

	summary, err := env.engine.RestoreFromRemote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Debtors)
	assert.Equal(t, 3, summary.Transactions)

	debtors, err := env.ledger.GetAllDebtors(ctx)
	require.NoError(t, err)
	ids := make([]string, len(debtors))
	for i, d := range debtors {
		ids[i] = d.ID
	}
	assert.ElementsMatch(t, []string{fixtures.DebtorAhmed.ID, fixtures.DebtorSara.ID}, ids)

	raw, err := env.ledger.GetSetting(ctx, model.SettingRemoteUserID)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+uid+`"`, string(raw))

	t.Run("unknown backup", func(t *testing.T) {
		_, err := env.engine.RestoreFromRemote(ctx, "42")
		assert.ErrorIs(t, err, remote.ErrBackupNotFound)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("offline", func(t *testing.T) {
		env.engine.SetOnline(false)
		defer env.engine.SetOnline(true)
		_, err := env.engine.BackupToRemote(ctx)
		assert.ErrorIs(t, err, model.ErrSyncUnavailable)
	})
}

func TestEngine_Settings(t *testing.T) {
	env := setupEnv(t, nil)
	ctx := context.Background()
	uid := env.engine.UserID()

	require.NoError(t, env.ledger.SetSetting(ctx, "currency", "USD"))
	require.NoError(t, env.engine.SyncSettings(ctx))

	remoteSettings, err := env.remote.Settings(ctx, uid)
	require.NoError(t, err)
	assert.JSONEq(t, `"USD"`, string(remoteSettings["currency"]))
	assert.NotContains(t, remoteSettings, "syncedAt")
	assert.True(t, env.mr.Exists("users:"+uid+":settings"))

	require.NoError(t, env.remote.PutSettings(ctx, uid, map[string]json.RawMessage{
		"currency":    json.RawMessage(`"IQD"`),
		"syncEnabled": json.RawMessage(`true`),
		"theme":       json.RawMessage(`{"dark":true}`),
	}))

	n, err := env.engine.DownloadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	theme, err := env.ledger.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dark":true}`, string(theme))
	currency, err := env.ledger.GetSetting(ctx, "currency")
	require.NoError(t, err)
	assert.JSONEq(t, `"IQD"`, string(currency))

	stamp, err := env.ledger.GetSetting(ctx, "syncedAt")
	require.NoError(t, err)
	assert.Nil(t, stamp)
}
