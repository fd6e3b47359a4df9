package handlers

import (
	"context"

	"github.com/fasthttp/router"
	xhttp "github.com/krarar/debt-manager/pkg/http"
)

type StorePinger interface {
	Ping(ctx context.Context) error
}

type Connectivity interface {
	IsOnline() bool
}

type HealthHandler struct {
	store  StorePinger
	remote Connectivity
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Online bool   `json:"online"`
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(store StorePinger, remote Connectivity) *HealthHandler {
	return &HealthHandler{
		store:  store,
		remote: remote,
	}
}

// GetHealth reports the local store state; being offline is not unhealthy.
func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	res := healthResponse{Status: "ok", Store: "ok", Online: h.remote.IsOnline()}
	if err := h.store.Ping(ctx); err != nil {
		res.Status = "degraded"
		res.Store = err.Error()
		writeJSON(ctx, xhttp.StatusServiceUnavailable, res)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
