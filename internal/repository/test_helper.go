package repository

import (
	"context"
	"testing"

	"github.com/krarar/debt-manager/pkg/store"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a private in-memory store migrated with the real schema.
func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Open(store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.Migrate(context.Background(), db))
	return db
}
