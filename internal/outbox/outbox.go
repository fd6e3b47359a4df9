package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/logger"
)

const DefaultMaxRetries = 3

type QueueStore interface {
	Put(ctx context.Context, item *model.SyncQueueItem) error
	GetAll(ctx context.Context) ([]*model.SyncQueueItem, error)
	IncrementRetries(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type SettingStore interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
}

type Config struct {
	// MaxRetries is the failure count at which an item is dropped.
	MaxRetries int
}

type Stats struct {
	Enqueued int64
	Skipped  int64
	Dropped  int64
}

// Outbox is the durable list of local mutations waiting to be uploaded.
// It lives in the local store so it survives restarts and offline periods.
type Outbox struct {
	queue    QueueStore
	settings SettingStore
	config   Config

	enqueued atomic.Int64
	skipped  atomic.Int64
	dropped  atomic.Int64
}

func New(queue QueueStore, settings SettingStore, config Config) *Outbox {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	return &Outbox{
		queue:    queue,
		settings: settings,
		config:   config,
	}
}

// Enqueue appends an operation. It is a no-op while the syncEnabled setting
// is not true. Pass the context of an open store transaction to make the
// entry part of the same unit as the mutation it describes.
func (o *Outbox) Enqueue(ctx context.Context, op model.OpType, payload any) error {
	if !op.Valid() {
		return model.NewValidationError("invalid op type %q", op)
	}

	enabled, err := o.settings.Get(ctx, model.SettingSyncEnabled)
	if err != nil {
		return fmt.Errorf("read %s: %w", model.SettingSyncEnabled, err)
	}
	if !enabled.Bool() {
		o.skipped.Add(1)
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", op, err)
	}

	item := &model.SyncQueueItem{
		ID:       model.NewID(),
		OpType:   op,
		Payload:  raw,
		QueuedAt: model.Now(),
	}
	if err := o.queue.Put(ctx, item); err != nil {
		return fmt.Errorf("enqueue %s: %w", op, err)
	}
	o.enqueued.Add(1)
	return nil
}

// Pending returns every queued item in enqueue order.
func (o *Outbox) Pending(ctx context.Context) ([]*model.SyncQueueItem, error) {
	return o.queue.GetAll(ctx)
}

// MarkFailure records a failed upload attempt. Once the item has failed
// MaxRetries times it is removed and reported as dropped.
func (o *Outbox) MarkFailure(ctx context.Context, item *model.SyncQueueItem) (bool, error) {
	retries, err := o.queue.IncrementRetries(ctx, item.ID)
	if err != nil {
		return false, fmt.Errorf("mark failure %s: %w", item.ID, err)
	}
	item.Retries = retries
	if retries < o.config.MaxRetries {
		return false, nil
	}

	if err := o.queue.Delete(ctx, item.ID); err != nil {
		return false, fmt.Errorf("drop %s: %w", item.ID, err)
	}
	o.dropped.Add(1)
	logger.Warn("outbox item dropped after max retries",
		"id", item.ID, "op", item.OpType, "retries", retries, "payload", string(item.Payload))
	return true, nil
}

func (o *Outbox) Remove(ctx context.Context, id string) error {
	return o.queue.Delete(ctx, id)
}

func (o *Outbox) RemoveMany(ctx context.Context, ids []string) error {
	return o.queue.DeleteMany(ctx, ids)
}

func (o *Outbox) Clear(ctx context.Context) error {
	return o.queue.Clear(ctx)
}

func (o *Outbox) Len(ctx context.Context) (int, error) {
	n, err := o.queue.Count(ctx)
	return int(n), err
}

func (o *Outbox) Stats() Stats {
	return Stats{
		Enqueued: o.enqueued.Load(),
		Skipped:  o.skipped.Load(),
		Dropped:  o.dropped.Load(),
	}
}
