package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	xhttp "github.com/krarar/debt-manager/pkg/http"
	"github.com/krarar/debt-manager/pkg/logger"
)

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto status codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrValidation):
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrSyncUnavailable):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
	}
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
