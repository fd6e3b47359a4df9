// Package app wires the local store, the remote store and the sync engine
// from configuration. Every binary builds its process through New.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/krarar/debt-manager/internal/config"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/outbox"
	"github.com/krarar/debt-manager/internal/remote"
	"github.com/krarar/debt-manager/internal/repository"
	"github.com/krarar/debt-manager/internal/services"
	"github.com/krarar/debt-manager/internal/syncer"
	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/krarar/debt-manager/pkg/prom"
	"github.com/krarar/debt-manager/pkg/redis"
	"github.com/krarar/debt-manager/pkg/store"
)

type App struct {
	DB     *store.DB
	Redis  redis.RedisAdapter
	Ledger *services.LedgerService
	Outbox *outbox.Outbox
	Remote *remote.Store
	Engine *syncer.Engine
}

// New opens and migrates the local store and prepares the remote
// connection without requiring it to be reachable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Configure(cfg.AppEnv, cfg.AppDebug, "app", cfg.AppName); err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}

	db, err := store.Open(store.Config{Path: cfg.StorePath, Debug: cfg.StoreDebug})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStorageFatal, err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", model.ErrStorageFatal, err)
	}

	adapter := redis.OpenRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName,
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})

	return Wire(db, adapter, cfg), nil
}

// Wire builds the services on top of already opened stores.
func Wire(db *store.DB, adapter redis.RedisAdapter, cfg *config.Config) *App {
	debtors := repository.NewDebtorRepository(db)
	transactions := repository.NewTransactionRepository(db)
	settings := repository.NewSettingRepository(db)
	queue := repository.NewSyncQueueRepository(db)

	ob := outbox.New(queue, settings, outbox.Config{MaxRetries: cfg.SyncMaxRetries})
	ledger := services.NewLedgerService(db, debtors, transactions, settings, ob)
	rs := remote.NewStore(adapter)
	engine := syncer.New(syncer.Deps{
		Ledger:       ledger,
		Tx:           db,
		Debtors:      debtors,
		Transactions: transactions,
		Outbox:       ob,
		Remote:       rs,
	}, syncer.Config{
		Debounce: cfg.SyncDebounce,
		LockTTL:  cfg.SyncLockTTL,
	})

	return &App{
		DB:     db,
		Redis:  adapter,
		Ledger: ledger,
		Outbox: ob,
		Remote: rs,
		Engine: engine,
	}
}

// StartMetrics registers the metric set and serves it in the background.
func StartMetrics(cfg *config.Config) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		return fmt.Errorf("create prometheus metrics: %w", err)
	}
	go prom.ListenAndServer(cfg.MetricsAddr, cfg.MetricsURI)
	return nil
}

func (a *App) Close() {
	a.Engine.Stop()
	if err := a.Redis.Close(); err != nil {
		logger.Warn("failed to close redis", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		logger.Warn("failed to close local store", "error", err)
	}
}
