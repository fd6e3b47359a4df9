package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/krarar/debt-manager/internal/exchange"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/remote"
	"github.com/krarar/debt-manager/pkg/logger"
)

// ready reports the remote user id, or ErrSyncUnavailable before Init or
// while offline.
func (e *Engine) ready() (string, error) {
	if !e.initialized.Load() {
		return "", fmt.Errorf("%w: sync engine not initialized", model.ErrSyncUnavailable)
	}
	if !e.online.Load() {
		return "", fmt.Errorf("%w: offline", model.ErrSyncUnavailable)
	}
	return e.UserID(), nil
}

// BackupToRemote stores a full export of the local ledger remotely and
// returns the backup id.
func (e *Engine) BackupToRemote(ctx context.Context) (string, error) {
	uid, err := e.ready()
	if err != nil {
		return "", err
	}
	snap, err := e.ledger.ExportData(ctx)
	if err != nil {
		return "", err
	}
	id, err := e.remote.SaveBackup(ctx, uid, snap)
	if err != nil {
		return "", fmt.Errorf("save backup: %w", err)
	}
	logger.Info("backup stored", "uid", uid, "backup", id,
		"debtors", len(snap.Debtors), "transactions", len(snap.Transactions))
	return id, nil
}

// RestoreFromRemote replaces the local ledger with the given backup.
func (e *Engine) RestoreFromRemote(ctx context.Context, backupID string) (*model.ImportSummary, error) {
	uid, err := e.ready()
	if err != nil {
		return nil, err
	}
	raw, err := e.remote.Backup(ctx, uid, backupID)
	if err != nil {
		return nil, err
	}
	snap, err := exchange.DecodeSnapshot(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", backupID, err)
	}
	summary, err := e.ledger.ImportData(ctx, snap, model.ImportOptions{Merge: false})
	if err != nil {
		return nil, err
	}
	// a cleared store has no id left to keep
	if err := e.ledger.SetSetting(ctx, model.SettingRemoteUserID, uid); err != nil {
		return nil, err
	}
	logger.Info("backup restored", "uid", uid, "backup", backupID)
	return summary, nil
}

func (e *Engine) ListBackups(ctx context.Context) ([]remote.BackupInfo, error) {
	uid, err := e.ready()
	if err != nil {
		return nil, err
	}
	return e.remote.ListBackups(ctx, uid)
}

// SyncSettings replaces the remote settings with the local ones.
func (e *Engine) SyncSettings(ctx context.Context) error {
	uid, err := e.ready()
	if err != nil {
		return err
	}
	settings, err := e.ledger.GetAllSettings(ctx)
	if err != nil {
		return err
	}
	return e.remote.PutSettings(ctx, uid, settings)
}

// DownloadSettings copies every remote setting into the local store and
// returns how many were applied.
func (e *Engine) DownloadSettings(ctx context.Context) (int, error) {
	uid, err := e.ready()
	if err != nil {
		return 0, err
	}
	settings, err := e.remote.Settings(ctx, uid)
	if err != nil {
		return 0, err
	}
	for key, value := range settings {
		if err := e.ledger.SetSetting(ctx, key, value); err != nil {
			return 0, fmt.Errorf("apply remote setting %s: %w", key, err)
		}
	}
	return len(settings), nil
}

// Status is the sync health as shown to the user.
type Status struct {
	LastSyncAt     *time.Time `json:"lastSyncAt"`
	SyncEnabled    bool       `json:"syncEnabled"`
	IsOnline       bool       `json:"isOnline"`
	SyncInProgress bool       `json:"syncInProgress"`
	QueueLength    int        `json:"queueLength"`
	IsInitialized  bool       `json:"isInitialized"`
	State          State      `json:"state"`
	UserID         string     `json:"userId,omitempty"`
}

func (e *Engine) Status(ctx context.Context) (*Status, error) {
	enabled, err := e.ledger.SyncEnabled(ctx)
	if err != nil {
		return nil, err
	}
	queued, err := e.outbox.Len(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{
		SyncEnabled:    enabled,
		IsOnline:       e.online.Load(),
		SyncInProgress: e.inProgress.Load(),
		QueueLength:    queued,
		IsInitialized:  e.initialized.Load(),
		State:          e.State(),
		UserID:         e.UserID(),
	}

	raw, err := e.ledger.GetSetting(ctx, model.SettingLastSyncAt)
	if err != nil {
		return nil, err
	}
	var ms int64
	if raw != nil && json.Unmarshal(raw, &ms) == nil && ms > 0 {
		at := time.UnixMilli(ms).UTC()
		st.LastSyncAt = &at
	}
	return st, nil
}
