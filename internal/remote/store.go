// Package remote is the per-user cloud copy of the ledger, kept in Redis
// under users:{uid}:. Records are stored as JSON hash fields keyed by id and
// carry a syncedAt stamp (epoch ms) set by the writer.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyDebtors      = "debtors"
	keyTransactions = "transactions"
	keySettings     = "settings"
	keyLastSyncAt   = "lastSyncAt"
	keyBackups      = "backups"
	keySyncLock     = "sync_lock"

	fieldSyncedAt = "syncedAt"
)

var ErrBackupNotFound = fmt.Errorf("backup %w", model.ErrNotFound)

type Store struct {
	redis redis.RedisAdapter
	now   func() time.Time
}

func NewStore(adapter redis.RedisAdapter) *Store {
	return &Store{
		redis: adapter,
		now:   model.Now,
	}
}

func userKey(uid, name string) string {
	return "users:" + uid + ":" + name
}

func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

type syncedDebtor struct {
	*model.Debtor
	SyncedAt int64 `json:"syncedAt"`
}

type syncedTransaction struct {
	*model.Transaction
	SyncedAt int64 `json:"syncedAt"`
}

func (s *Store) PutDebtor(ctx context.Context, uid string, d *model.Debtor) error {
	raw, err := json.Marshal(syncedDebtor{Debtor: d, SyncedAt: s.now().UnixMilli()})
	if err != nil {
		return err
	}
	return s.redis.HSet(ctx, userKey(uid, keyDebtors), d.ID, raw)
}

func (s *Store) PutTransaction(ctx context.Context, uid string, t *model.Transaction) error {
	raw, err := json.Marshal(syncedTransaction{Transaction: t, SyncedAt: s.now().UnixMilli()})
	if err != nil {
		return err
	}
	return s.redis.HSet(ctx, userKey(uid, keyTransactions), t.ID, raw)
}

// DeleteDebtor removes the debtor and every remote transaction that
// references it.
func (s *Store) DeleteDebtor(ctx context.Context, uid, id string) error {
	txs, err := s.Transactions(ctx, uid)
	if err != nil {
		return err
	}
	var orphans []string
	for _, t := range txs {
		if t.DebtorID == id {
			orphans = append(orphans, t.ID)
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HDel(ctx, s.redis.Key(userKey(uid, keyDebtors)), id)
		if len(orphans) > 0 {
			p.HDel(ctx, s.redis.Key(userKey(uid, keyTransactions)), orphans...)
		}
		return nil
	})
	return err
}

func (s *Store) DeleteTransaction(ctx context.Context, uid, id string) error {
	return s.redis.HDel(ctx, userKey(uid, keyTransactions), id)
}

// Debtors returns every remote debtor; syncedAt is dropped on decode.
func (s *Store) Debtors(ctx context.Context, uid string) ([]*model.Debtor, error) {
	fields, err := s.redis.HGetAll(ctx, userKey(uid, keyDebtors))
	if err != nil {
		return nil, err
	}
	out := make([]*model.Debtor, 0, len(fields))
	for id, raw := range fields {
		var d model.Debtor
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode remote debtor %s: %w", id, err)
		}
		if d.ID == "" {
			d.ID = id
		}
		out = append(out, &d)
	}
	return out, nil
}

func (s *Store) Transactions(ctx context.Context, uid string) ([]*model.Transaction, error) {
	fields, err := s.redis.HGetAll(ctx, userKey(uid, keyTransactions))
	if err != nil {
		return nil, err
	}
	out := make([]*model.Transaction, 0, len(fields))
	for id, raw := range fields {
		var t model.Transaction
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode remote transaction %s: %w", id, err)
		}
		if t.ID == "" {
			t.ID = id
		}
		out = append(out, &t)
	}
	return out, nil
}

// PutSettings replaces the remote settings with the given set plus a
// syncedAt stamp.
func (s *Store) PutSettings(ctx context.Context, uid string, settings map[string]json.RawMessage) error {
	key := s.redis.Key(userKey(uid, keySettings))
	values := make(map[string]interface{}, len(settings)+1)
	for k, v := range settings {
		values[k] = []byte(v)
	}
	values[fieldSyncedAt] = strconv.FormatInt(s.now().UnixMilli(), 10)

	_, err := s.redis.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, values)
		return nil
	})
	return err
}

// Settings returns the remote settings without the syncedAt stamp.
func (s *Store) Settings(ctx context.Context, uid string) (map[string]json.RawMessage, error) {
	fields, err := s.redis.HGetAll(ctx, userKey(uid, keySettings))
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k == fieldSyncedAt {
			continue
		}
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

func (s *Store) SetLastSyncAt(ctx context.Context, uid string, at time.Time) error {
	return s.redis.Set(ctx, userKey(uid, keyLastSyncAt), []byte(strconv.FormatInt(at.UnixMilli(), 10)), 0)
}

// LastSyncAt returns the zero time when no cycle has completed yet.
func (s *Store) LastSyncAt(ctx context.Context, uid string) (time.Time, error) {
	raw, err := s.redis.Get(ctx, userKey(uid, keyLastSyncAt))
	if errors.Is(err, redis.NilError) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode lastSyncAt: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
