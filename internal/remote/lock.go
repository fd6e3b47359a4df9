package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/logger"
)

var ErrLockHeld = errors.New("sync lock held by another process")

// CycleLock keeps two processes of the same user from running sync cycles
// at the same time. The lock expires after its TTL so a crashed holder
// cannot block the user forever.
type CycleLock struct {
	store *Store
	uid   string
	token []byte
}

// AcquireLock takes the user's cycle lock or returns ErrLockHeld.
func (s *Store) AcquireLock(ctx context.Context, uid string, ttl time.Duration) (*CycleLock, error) {
	token := []byte(model.NewID())
	acquired, err := s.redis.SetNX(ctx, userKey(uid, keySyncLock), token, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		logger.Info("sync lock already held", "uid", uid)
		return nil, ErrLockHeld
	}
	return &CycleLock{store: s, uid: uid, token: token}, nil
}

// Release drops the lock if this holder still owns it.
func (l *CycleLock) Release(ctx context.Context) error {
	released, err := l.store.redis.DelIfEquals(ctx, userKey(l.uid, keySyncLock), l.token)
	if err != nil {
		return fmt.Errorf("release sync lock: %w", err)
	}
	if !released {
		logger.Warn("sync lock expired before release", "uid", l.uid)
	}
	return nil
}
