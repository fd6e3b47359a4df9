package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var syncQueueIndexes = map[string]string{
	"queuedAt": "queued_at",
	"opType":   "op_type",
}

// Enqueue order: queued_at, then SQLite rowid for entries sharing a
// millisecond.
const syncQueueOrder = "queued_at ASC, rowid ASC"

type SyncQueueRepository struct {
	*store.DB
}

func NewSyncQueueRepository(db *store.DB) *SyncQueueRepository {
	return &SyncQueueRepository{
		db,
	}
}

func (r *SyncQueueRepository) Put(ctx context.Context, item *model.SyncQueueItem) error {
	return r.Write(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toSyncQueueEntity(item)).Error
}

func (r *SyncQueueRepository) Get(ctx context.Context, id string) (*model.SyncQueueItem, error) {
	var e SyncQueueEntity
	err := r.Read(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSyncQueueModel(&e), nil
}

func (r *SyncQueueRepository) GetAll(ctx context.Context) ([]*model.SyncQueueItem, error) {
	var entities []*SyncQueueEntity
	if err := r.Read(ctx).Order(syncQueueOrder).Find(&entities).Error; err != nil {
		return nil, err
	}
	return toSyncQueueModels(entities), nil
}

func (r *SyncQueueRepository) GetAllByIndex(ctx context.Context, index string, value any) ([]*model.SyncQueueItem, error) {
	column, ok := syncQueueIndexes[index]
	if !ok {
		return nil, fmt.Errorf("sync_queue.%s: %w", index, ErrUnknownIndex)
	}
	if op, ok := value.(model.OpType); ok {
		value = string(op)
	}

	var entities []*SyncQueueEntity
	err := r.Read(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order(syncQueueOrder).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toSyncQueueModels(entities), nil
}

// IncrementRetries bumps the retry counter and returns the new value. A
// missing item yields 0.
func (r *SyncQueueRepository) IncrementRetries(ctx context.Context, id string) (int, error) {
	var retries int
	err := r.DB.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).Model(&SyncQueueEntity{}).
			Where("id = ?", id).
			UpdateColumn("retries", gorm.Expr("retries + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return r.Read(ctx).Model(&SyncQueueEntity{}).
			Where("id = ?", id).
			Select("retries").
			Scan(&retries).Error
	})
	return retries, err
}

func (r *SyncQueueRepository) Delete(ctx context.Context, id string) error {
	return r.Write(ctx).Where("id = ?", id).Delete(&SyncQueueEntity{}).Error
}

func (r *SyncQueueRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.Write(ctx).Where("id IN ?", ids).Delete(&SyncQueueEntity{}).Error
}

func (r *SyncQueueRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&SyncQueueEntity{}).Count(&n).Error
	return n, err
}

func (r *SyncQueueRepository) Clear(ctx context.Context) error {
	return r.Write(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SyncQueueEntity{}).Error
}
