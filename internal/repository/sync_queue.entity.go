package repository

import (
	"encoding/json"
	"time"

	"github.com/krarar/debt-manager/internal/model"
)

type SyncQueueEntity struct {
	ID       string    `db:"id"        gorm:"primaryKey;column:id"`
	OpType   string    `db:"op_type"   gorm:"column:op_type;not null;index"`
	Payload  string    `db:"payload"   gorm:"column:payload;not null"`
	QueuedAt time.Time `db:"queued_at" gorm:"column:queued_at;not null;index"`
	Retries  int       `db:"retries"   gorm:"column:retries;not null;default:0"`
}

func (SyncQueueEntity) TableName() string {
	return "sync_queue"
}

func toSyncQueueEntity(m *model.SyncQueueItem) *SyncQueueEntity {
	if m == nil {
		return nil
	}
	return &SyncQueueEntity{
		ID:       m.ID,
		OpType:   string(m.OpType),
		Payload:  string(m.Payload),
		QueuedAt: m.QueuedAt.UTC(),
		Retries:  m.Retries,
	}
}

func toSyncQueueModel(e *SyncQueueEntity) *model.SyncQueueItem {
	if e == nil {
		return nil
	}
	return &model.SyncQueueItem{
		ID:       e.ID,
		OpType:   model.OpType(e.OpType),
		Payload:  json.RawMessage(e.Payload),
		QueuedAt: e.QueuedAt.UTC(),
		Retries:  e.Retries,
	}
}

func toSyncQueueModels(entities []*SyncQueueEntity) []*model.SyncQueueItem {
	if entities == nil {
		return nil
	}
	models := make([]*model.SyncQueueItem, len(entities))
	for i, e := range entities {
		models[i] = toSyncQueueModel(e)
	}
	return models
}
