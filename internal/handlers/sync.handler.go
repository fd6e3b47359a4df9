package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/internal/remote"
	"github.com/krarar/debt-manager/internal/syncer"
	xhttp "github.com/krarar/debt-manager/pkg/http"
)

type SyncService interface {
	PerformSync(ctx context.Context) (*syncer.Result, error)
	Status(ctx context.Context) (*syncer.Status, error)
	BackupToRemote(ctx context.Context) (string, error)
	ListBackups(ctx context.Context) ([]remote.BackupInfo, error)
	RestoreFromRemote(ctx context.Context, backupID string) (*model.ImportSummary, error)
	SyncSettings(ctx context.Context) error
	DownloadSettings(ctx context.Context) (int, error)
}

type SyncHandler struct {
	svc SyncService
}

func RegisterSyncRoutes(e *router.Group, h *SyncHandler) {
	e.POST("/sync", h.Sync)
	e.GET("/sync/status", h.GetStatus)
	e.POST("/sync/backups", h.CreateBackup)
	e.GET("/sync/backups", h.ListBackups)
	e.POST("/sync/backups/{id}/restore", h.RestoreBackup)
	e.POST("/sync/settings/upload", h.UploadSettings)
	e.POST("/sync/settings/download", h.DownloadSettings)
}

func NewSyncHandler(svc SyncService) *SyncHandler {
	return &SyncHandler{
		svc: svc,
	}
}

type backupResponse struct {
	ID string `json:"id"`
}

type settingsResponse struct {
	Applied int `json:"applied"`
}

// Sync runs one cycle. A declined cycle answers 409 and an aborted one 503,
// both with the cycle result as body.
func (h *SyncHandler) Sync(ctx *xhttp.RequestCtx) {
	res, err := h.svc.PerformSync(ctx)
	switch {
	case err == nil:
		writeJSON(ctx, xhttp.StatusOK, res)
	case res != nil && errors.Is(err, model.ErrSyncUnavailable):
		writeJSON(ctx, xhttp.StatusConflict, res)
	case res != nil:
		writeJSON(ctx, xhttp.StatusServiceUnavailable, res)
	default:
		writeServiceError(ctx, err)
	}
}

func (h *SyncHandler) GetStatus(ctx *xhttp.RequestCtx) {
	st, err := h.svc.Status(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, st)
}

func (h *SyncHandler) CreateBackup(ctx *xhttp.RequestCtx) {
	id, err := h.svc.BackupToRemote(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, backupResponse{ID: id})
}

func (h *SyncHandler) ListBackups(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListBackups(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
}

func (h *SyncHandler) RestoreBackup(ctx *xhttp.RequestCtx) {
	summary, err := h.svc.RestoreFromRemote(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, summary)
}

func (h *SyncHandler) UploadSettings(ctx *xhttp.RequestCtx) {
	if err := h.svc.SyncSettings(ctx); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *SyncHandler) DownloadSettings(ctx *xhttp.RequestCtx) {
	n, err := h.svc.DownloadSettings(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, settingsResponse{Applied: n})
}
