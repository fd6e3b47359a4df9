package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/remote"
	"github.com/krarar/debt-manager/internal/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) PerformSync(ctx context.Context) (*syncer.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncer.Result), args.Error(1)
}

func (m *MockSyncService) Status(ctx context.Context) (*syncer.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncer.Status), args.Error(1)
}

func (m *MockSyncService) BackupToRemote(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSyncService) ListBackups(ctx context.Context) ([]remote.BackupInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]remote.BackupInfo), args.Error(1)
}

func (m *MockSyncService) RestoreFromRemote(ctx context.Context, backupID string) (*model.ImportSummary, error) {
	args := m.Called(ctx, backupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportSummary), args.Error(1)
}

func (m *MockSyncService) SyncSettings(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSyncService) DownloadSettings(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestSyncHandler_Sync(t *testing.T) {
	t.Run("completed cycle", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("PerformSync", mock.Anything).Return(&syncer.Result{Success: true, Uploaded: 2, Merged: 1}, nil)

		ctx := setupTestContext("POST", "/sync", nil)
		NewSyncHandler(svc).Sync(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"success":true,"message":"","uploaded":2,"failed":0,"dropped":0,"merged":1}`, string(ctx.Response.Body()))
		svc.AssertExpectations(t)
	})

	t.Run("declined cycle", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("PerformSync", mock.Anything).
			Return(&syncer.Result{Message: "offline"}, fmt.Errorf("%w: offline", model.ErrSyncUnavailable))

		ctx := setupTestContext("POST", "/sync", nil)
		NewSyncHandler(svc).Sync(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"success":false`)
	})

	t.Run("aborted cycle", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("PerformSync", mock.Anything).
			Return(&syncer.Result{Uploaded: 1, Message: "download debtors: EOF"}, errors.New("download debtors: EOF"))

		ctx := setupTestContext("POST", "/sync", nil)
		NewSyncHandler(svc).Sync(ctx)

		assert.Equal(t, 503, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"uploaded":1`)
	})
}

func TestSyncHandler_Backups(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("BackupToRemote", mock.Anything).Return("1705311000000", nil)

		ctx := setupTestContext("POST", "/sync/backups", nil)
		NewSyncHandler(svc).CreateBackup(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"id":"1705311000000"}`, string(ctx.Response.Body()))
	})

	t.Run("restore unknown backup", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("RestoreFromRemote", mock.Anything, "42").Return(nil, remote.ErrBackupNotFound)

		ctx := setupTestContext("POST", "/sync/backups/42/restore", nil)
		ctx.SetUserValue("id", "42")
		NewSyncHandler(svc).RestoreBackup(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("list while offline", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("ListBackups", mock.Anything).Return(nil, fmt.Errorf("%w: offline", model.ErrSyncUnavailable))

		ctx := setupTestContext("GET", "/sync/backups", nil)
		NewSyncHandler(svc).ListBackups(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})
}

func TestSyncHandler_Status(t *testing.T) {
	svc := new(MockSyncService)
	svc.On("Status", mock.Anything).Return(&syncer.Status{
		SyncEnabled:   true,
		IsOnline:      true,
		QueueLength:   3,
		IsInitialized: true,
		State:         syncer.StateIdle,
	}, nil)

	ctx := setupTestContext("GET", "/sync/status", nil)
	NewSyncHandler(svc).GetStatus(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"lastSyncAt":null,"syncEnabled":true,"isOnline":true,"syncInProgress":false,
		"queueLength":3,"isInitialized":true,"state":"idle"}`, string(ctx.Response.Body()))
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

type stubConnectivity bool

func (s stubConnectivity) IsOnline() bool { return bool(s) }

func TestHealthHandler(t *testing.T) {
	ctx := setupTestContext("GET", "/health", nil)
	NewHealthHandler(stubPinger{}, stubConnectivity(false)).GetHealth(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"status":"ok","store":"ok","online":false}`, string(ctx.Response.Body()))

	ctx = setupTestContext("GET", "/health", nil)
	NewHealthHandler(stubPinger{err: errors.New("database is locked")}, stubConnectivity(true)).GetHealth(ctx)
	assert.Equal(t, 503, ctx.Response.StatusCode())
}
