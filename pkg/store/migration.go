package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func init() {
	goose.SetBaseFS(migrations)
	goose.SetLogger(logger.GetLogger())
}

// Migrate brings the schema up to the latest version. Running it against an
// already migrated store is a no-op, so it is safe on every start.
func Migrate(ctx context.Context, db *DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	sqlDB, err := db.write.DB()
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migrate local store: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied schema version.
func SchemaVersion(ctx context.Context, db *DB) (int64, error) {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	sqlDB, err := db.write.DB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}
