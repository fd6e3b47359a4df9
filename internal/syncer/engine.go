package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/remote"
	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/krarar/debt-manager/pkg/prom"
)

const (
	DefaultDebounce = time.Second
	DefaultLockTTL  = 30 * time.Second
)

// Ledger is the slice of the domain layer the engine drives.
type Ledger interface {
	ExportData(ctx context.Context) (*model.Snapshot, error)
	ImportData(ctx context.Context, snap *model.Snapshot, opts model.ImportOptions) (*model.ImportSummary, error)
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, key string, value any) error
	GetAllSettings(ctx context.Context) (map[string]json.RawMessage, error)
	SyncEnabled(ctx context.Context) (bool, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type DebtorStore interface {
	Get(ctx context.Context, id string) (*model.Debtor, error)
	Put(ctx context.Context, d *model.Debtor) error
}

type TransactionStore interface {
	Get(ctx context.Context, id string) (*model.Transaction, error)
	Put(ctx context.Context, t *model.Transaction) error
}

type Outbox interface {
	Pending(ctx context.Context) ([]*model.SyncQueueItem, error)
	MarkFailure(ctx context.Context, item *model.SyncQueueItem) (bool, error)
	RemoveMany(ctx context.Context, ids []string) error
	Len(ctx context.Context) (int, error)
}

// Remote is the per-user cloud copy.
type Remote interface {
	Ping(ctx context.Context) error
	PutDebtor(ctx context.Context, uid string, d *model.Debtor) error
	PutTransaction(ctx context.Context, uid string, t *model.Transaction) error
	DeleteDebtor(ctx context.Context, uid, id string) error
	DeleteTransaction(ctx context.Context, uid, id string) error
	Debtors(ctx context.Context, uid string) ([]*model.Debtor, error)
	Transactions(ctx context.Context, uid string) ([]*model.Transaction, error)
	PutSettings(ctx context.Context, uid string, settings map[string]json.RawMessage) error
	Settings(ctx context.Context, uid string) (map[string]json.RawMessage, error)
	SetLastSyncAt(ctx context.Context, uid string, at time.Time) error
	SaveBackup(ctx context.Context, uid string, snap *model.Snapshot) (string, error)
	Backup(ctx context.Context, uid, id string) ([]byte, error)
	ListBackups(ctx context.Context, uid string) ([]remote.BackupInfo, error)
	AcquireLock(ctx context.Context, uid string, ttl time.Duration) (*remote.CycleLock, error)
}

type Deps struct {
	Ledger       Ledger
	Tx           Transactor
	Debtors      DebtorStore
	Transactions TransactionStore
	Outbox       Outbox
	Remote       Remote
}

type Config struct {
	// Debounce delays the automatic cycle after connectivity returns.
	Debounce time.Duration
	LockTTL  time.Duration
}

// Result is the outcome of one PerformSync call.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Uploaded int    `json:"uploaded"`
	Failed   int    `json:"failed"`
	Dropped  int    `json:"dropped"`
	Merged   int    `json:"merged"`
}

// Engine moves outbox entries to the remote store and merges remote records
// back into the local store. At most one cycle runs at a time; a request
// arriving while a cycle is in flight is declined, not queued.
type Engine struct {
	ledger       Ledger
	tx           Transactor
	debtors      DebtorStore
	transactions TransactionStore
	outbox       Outbox
	remote       Remote
	config       Config
	metrics      *Metrics

	uid         atomic.Pointer[string]
	initialized atomic.Bool
	online      atomic.Bool
	inProgress  atomic.Bool
	state       atomic.Int32

	mu       sync.Mutex
	debounce *time.Timer
}

func New(deps Deps, config Config) *Engine {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}
	e := &Engine{
		ledger:       deps.Ledger,
		tx:           deps.Tx,
		debtors:      deps.Debtors,
		transactions: deps.Transactions,
		outbox:       deps.Outbox,
		remote:       deps.Remote,
		config:       config,
		metrics:      NewMetrics(),
	}
	e.online.Store(true)
	return e
}

func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// UserID is the remote namespace of this installation, empty before Init.
func (e *Engine) UserID() string {
	if p := e.uid.Load(); p != nil {
		return *p
	}
	return ""
}

// Init resolves the anonymous remote user id, creating and persisting one
// on first run, and starts a cycle when syncOnStartup is set.
func (e *Engine) Init(ctx context.Context) error {
	uid, err := e.resolveUserID(ctx)
	if err != nil {
		return err
	}
	e.uid.Store(&uid)
	e.initialized.Store(true)
	logger.Info("sync engine initialized", "uid", uid, "online", e.online.Load())

	onStartup, err := e.settingBool(ctx, model.SettingSyncOnStartup)
	if err != nil {
		return err
	}
	if onStartup && e.online.Load() {
		go e.AutoSync(context.WithoutCancel(ctx))
	}
	return nil
}

func (e *Engine) resolveUserID(ctx context.Context) (string, error) {
	raw, err := e.ledger.GetSetting(ctx, model.SettingRemoteUserID)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", model.SettingRemoteUserID, err)
	}
	if raw != nil {
		var uid string
		if err := json.Unmarshal(raw, &uid); err == nil && uid != "" {
			return uid, nil
		}
		logger.Warn("ignoring malformed remote user id", "value", string(raw))
	}

	// a cleared store keeps the identity this engine already runs under
	uid := e.UserID()
	if uid == "" {
		uid = "anon_" + model.NewID()
	}
	if err := e.ledger.SetSetting(ctx, model.SettingRemoteUserID, uid); err != nil {
		return "", fmt.Errorf("store %s: %w", model.SettingRemoteUserID, err)
	}
	return uid, nil
}

func (e *Engine) settingBool(ctx context.Context, key string) (bool, error) {
	raw, err := e.ledger.GetSetting(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	return (&model.Setting{Key: key, Value: raw}).Bool(), nil
}

func (e *Engine) decline(reason string) (*Result, error) {
	e.metrics.RecordDecline()
	logger.Debug("sync declined", "reason", reason)
	return &Result{Message: reason}, fmt.Errorf("%w: %s", model.ErrSyncUnavailable, reason)
}

// PerformSync runs one upload, download and reconcile cycle. A declined
// cycle returns ErrSyncUnavailable; any other error means the cycle was
// aborted and the outbox kept for the next attempt.
func (e *Engine) PerformSync(ctx context.Context) (*Result, error) {
	if !e.initialized.Load() {
		return e.decline("sync engine not initialized")
	}
	if !e.online.Load() {
		return e.decline("offline")
	}
	if !e.inProgress.CompareAndSwap(false, true) {
		return e.decline("sync already in progress")
	}
	defer func() {
		e.setState(StateIdle)
		e.inProgress.Store(false)
	}()

	uid := e.UserID()
	lock, err := e.remote.AcquireLock(ctx, uid, e.config.LockTTL)
	if errors.Is(err, remote.ErrLockHeld) {
		return e.decline("sync running in another process")
	}
	if err != nil {
		e.metrics.RecordAbort(0, &Result{})
		return &Result{Message: err.Error()}, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to release sync lock", "uid", uid, "error", err)
		}
	}()

	start := time.Now()
	res, err := e.cycle(ctx, uid)
	if n, lenErr := e.outbox.Len(ctx); lenErr == nil {
		prom.SetOutboxLength(uid, n)
	}
	if err != nil {
		res.Message = err.Error()
		e.metrics.RecordAbort(time.Since(start), res)
		logger.Error("sync cycle aborted", "uid", uid, "error", err)
		return res, err
	}

	res.Success = true
	res.Message = fmt.Sprintf("uploaded %d, merged %d", res.Uploaded, res.Merged)
	e.metrics.RecordSuccess(time.Since(start), res)
	logger.Info("sync cycle completed", "uid", uid, "uploaded", res.Uploaded,
		"failed", res.Failed, "dropped", res.Dropped, "merged", res.Merged, "duration", time.Since(start).String())
	return res, nil
}

func (e *Engine) cycle(ctx context.Context, uid string) (*Result, error) {
	res := &Result{}

	e.setState(StateUploading)
	done, err := e.upload(ctx, uid, res)
	if err != nil {
		return res, err
	}

	e.setState(StateDownloading)
	debtors, err := e.remote.Debtors(ctx, uid)
	if err != nil {
		return res, fmt.Errorf("download debtors: %w", err)
	}
	transactions, err := e.remote.Transactions(ctx, uid)
	if err != nil {
		return res, fmt.Errorf("download transactions: %w", err)
	}

	e.setState(StateReconciling)
	deleted, err := e.pendingDeletes(ctx)
	if err != nil {
		return res, err
	}
	if res.Merged, err = e.reconcile(ctx, debtors, transactions, deleted); err != nil {
		return res, err
	}

	now := model.Now()
	if err := e.remote.SetLastSyncAt(ctx, uid, now); err != nil {
		return res, fmt.Errorf("record remote lastSyncAt: %w", err)
	}
	if err := e.ledger.SetSetting(ctx, model.SettingLastSyncAt, now.UnixMilli()); err != nil {
		return res, fmt.Errorf("record local lastSyncAt: %w", err)
	}
	// items that failed below the ceiling, and items queued during the
	// cycle, stay for the next one
	if err := e.outbox.RemoveMany(ctx, done); err != nil {
		return res, fmt.Errorf("clear uploaded items: %w", err)
	}
	return res, nil
}

// upload pushes every pending item in order and returns the ids that were
// written remotely.
func (e *Engine) upload(ctx context.Context, uid string, res *Result) ([]string, error) {
	items, err := e.outbox.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}

	done := make([]string, 0, len(items))
	for _, item := range items {
		if err := e.push(ctx, uid, item); err != nil {
			dropped, markErr := e.outbox.MarkFailure(ctx, item)
			if markErr != nil {
				return done, markErr
			}
			if dropped {
				res.Dropped++
			} else {
				res.Failed++
			}
			logger.Debug("outbox item upload failed", "id", item.ID, "op", item.OpType, "retries", item.Retries, "error", err)
			continue
		}
		done = append(done, item.ID)
		res.Uploaded++
	}
	return done, nil
}

func (e *Engine) push(ctx context.Context, uid string, item *model.SyncQueueItem) error {
	var err error
	switch item.OpType {
	case model.OpCreateDebtor, model.OpUpdateDebtor:
		var d model.Debtor
		if err = json.Unmarshal(item.Payload, &d); err == nil {
			err = e.remote.PutDebtor(ctx, uid, &d)
		}
	case model.OpCreateTransaction, model.OpUpdateTransaction:
		var t model.Transaction
		if err = json.Unmarshal(item.Payload, &t); err == nil {
			err = e.remote.PutTransaction(ctx, uid, &t)
		}
	case model.OpDeleteDebtor:
		var p model.DeletePayload
		if err = json.Unmarshal(item.Payload, &p); err == nil {
			err = e.remote.DeleteDebtor(ctx, uid, p.ID)
		}
	case model.OpDeleteTransaction:
		var p model.DeletePayload
		if err = json.Unmarshal(item.Payload, &p); err == nil {
			err = e.remote.DeleteTransaction(ctx, uid, p.ID)
		}
	default:
		err = fmt.Errorf("unknown op type %q", item.OpType)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", model.ErrSyncItemFailure, item.OpType, item.ID, err)
	}
	return nil
}

// pendingDeletes collects the ids of records whose local delete is still
// waiting in the outbox.
func (e *Engine) pendingDeletes(ctx context.Context) (map[string]struct{}, error) {
	items, err := e.outbox.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}
	ids := make(map[string]struct{})
	for _, item := range items {
		if item.OpType != model.OpDeleteDebtor && item.OpType != model.OpDeleteTransaction {
			continue
		}
		var p model.DeletePayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			continue
		}
		ids[p.ID] = struct{}{}
	}
	return ids, nil
}

// reconcile inserts remote records missing locally and overwrites a local
// record only when the remote copy has a strictly newer updatedAt. Records
// with a pending local delete are skipped, as are transactions of such a
// debtor.
func (e *Engine) reconcile(ctx context.Context, debtors []*model.Debtor, transactions []*model.Transaction, deleted map[string]struct{}) (int, error) {
	merged := 0
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, rd := range debtors {
			if _, ok := deleted[rd.ID]; ok {
				continue
			}
			local, err := e.debtors.Get(ctx, rd.ID)
			if err != nil {
				return err
			}
			if local != nil && !rd.UpdatedAt.After(local.UpdatedAt) {
				continue
			}
			if err := e.debtors.Put(ctx, rd); err != nil {
				return err
			}
			merged++
		}
		for _, rt := range transactions {
			if _, ok := deleted[rt.ID]; ok {
				continue
			}
			if _, ok := deleted[rt.DebtorID]; ok {
				continue
			}
			local, err := e.transactions.Get(ctx, rt.ID)
			if err != nil {
				return err
			}
			if local != nil && !rt.UpdatedAt.After(local.UpdatedAt) {
				continue
			}
			if err := e.transactions.Put(ctx, rt); err != nil {
				return err
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("merge remote records: %w", err)
	}
	return merged, nil
}
