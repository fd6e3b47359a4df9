package handlers

import (
	"time"

	"github.com/krarar/debt-manager/internal/model"
	xhttp "github.com/krarar/debt-manager/pkg/http"
)

// ListTransactions returns every transaction, or those created within
// [from, to] when either bound is given. A date-only "to" covers that day.
func (h *LedgerHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	from, to := query(ctx, "from"), query(ctx, "to")
	if from == "" && to == "" {
		items, err := h.svc.GetAllTransactions(ctx)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
		return
	}

	start := time.Time{}
	end := model.Now()
	if from != "" {
		t, err := parseTime(from)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid from: "+err.Error())
			return
		}
		start = t
	}
	if to != "" {
		t, err := parseTime(to)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid to: "+err.Error())
			return
		}
		if len(to) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		end = t
	}

	items, err := h.svc.GetTransactionsInDateRange(ctx, start, end)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
}

func (h *LedgerHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req model.TransactionCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(ctx, err)
		return
	}
	t, err := h.svc.AddTransaction(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, t)
}

func (h *LedgerHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	t, err := h.svc.GetTransaction(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, t)
}

func (h *LedgerHandler) UpdateTransaction(ctx *xhttp.RequestCtx) {
	var patch model.TransactionPatch
	if err := readJSON(ctx, &patch); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := patch.Validate(); err != nil {
		writeServiceError(ctx, err)
		return
	}
	t, err := h.svc.UpdateTransaction(ctx, pathParam(ctx, "id"), patch)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, t)
}

func (h *LedgerHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
	if err := h.svc.DeleteTransaction(ctx, pathParam(ctx, "id")); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}
