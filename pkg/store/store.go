package store

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type txContextKey string

const txKey txContextKey = "trx"

// DB is the local store handle. SQLite has a single writer, so read and
// write share one connection; the split is kept so repositories express
// intent and so a transaction stored in the context is always picked up.
type DB struct {
	read  *gorm.DB
	write *gorm.DB
}

type Config struct {
	// Path is a file path or an SQLite URI such as "file::memory:".
	Path  string
	Debug bool
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Open opens (creating if needed) the local store and applies pragmas.
// It does not touch the schema; call Migrate for that.
func Open(config Config) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store %q: %w", config.Path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("open local store %q: %w", config.Path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	for _, p := range pragmas {
		if err := gdb.Exec(p).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if config.Debug {
		gdb = gdb.Debug()
	}
	return &DB{read: gdb, write: gdb}, nil
}

// New wraps an already opened gorm handle.
func New(gdb *gorm.DB) *DB {
	return &DB{read: gdb, write: gdb}
}

func (r *DB) Close() error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTransaction runs fn in one SQLite transaction. Repositories called
// with the context passed to fn join it; nested calls reuse the outer one.
func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}

	return r.write.WithContext(ctx)
}

func (r *DB) Read(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}

	return r.read.WithContext(ctx)
}

func (r *DB) Ping(ctx context.Context) error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
