package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/redis"
)

type backupRecord struct {
	*model.Snapshot
	CreatedAt int64 `json:"createdAt"`
}

// BackupInfo describes one stored backup without its payload.
type BackupInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	ExportedAt   time.Time `json:"exportedAt"`
	Debtors      int       `json:"debtors"`
	Transactions int       `json:"transactions"`
}

// SaveBackup stores a full snapshot under the current epoch-ms id.
func (s *Store) SaveBackup(ctx context.Context, uid string, snap *model.Snapshot) (string, error) {
	now := s.now()
	id := strconv.FormatInt(now.UnixMilli(), 10)
	raw, err := json.Marshal(backupRecord{Snapshot: snap, CreatedAt: now.UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := s.redis.HSet(ctx, userKey(uid, keyBackups), id, raw); err != nil {
		return "", err
	}
	return id, nil
}

// Backup returns the raw snapshot document stored under id.
func (s *Store) Backup(ctx context.Context, uid, id string) ([]byte, error) {
	raw, err := s.redis.HGet(ctx, userKey(uid, keyBackups), id)
	if errors.Is(err, redis.NilError) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ListBackups returns backups newest first.
func (s *Store) ListBackups(ctx context.Context, uid string) ([]BackupInfo, error) {
	fields, err := s.redis.HGetAll(ctx, userKey(uid, keyBackups))
	if err != nil {
		return nil, err
	}

	out := make([]BackupInfo, 0, len(fields))
	for id, raw := range fields {
		var rec struct {
			Debtors      []json.RawMessage `json:"debtors"`
			Transactions []json.RawMessage `json:"transactions"`
			ExportedAt   time.Time         `json:"exportedAt"`
			CreatedAt    int64             `json:"createdAt"`
		}
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode backup %s: %w", id, err)
		}
		out = append(out, BackupInfo{
			ID:           id,
			CreatedAt:    time.UnixMilli(rec.CreatedAt).UTC(),
			ExportedAt:   rec.ExportedAt,
			Debtors:      len(rec.Debtors),
			Transactions: len(rec.Transactions),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
