package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/krarar/debt-manager/internal/exchange"
	"github.com/krarar/debt-manager/internal/model"
	xhttp "github.com/krarar/debt-manager/pkg/http"
)

func (h *LedgerHandler) SearchDebtors(ctx *xhttp.RequestCtx) {
	items, err := h.svc.SearchDebtors(ctx, query(ctx, "q"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
}

func (h *LedgerHandler) SearchTransactions(ctx *xhttp.RequestCtx) {
	items, err := h.svc.SearchTransactions(ctx, query(ctx, "q"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
}

func (h *LedgerHandler) GetStats(ctx *xhttp.RequestCtx) {
	stats, err := h.svc.GetDebtorStats(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, stats)
}

func (h *LedgerHandler) Export(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.ExportData(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	var buf bytes.Buffer
	if err := exchange.EncodeSnapshot(&buf, snap); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="debts-backup.json"`)
	ctx.SetBody(buf.Bytes())
}

func (h *LedgerHandler) ExportCSV(ctx *xhttp.RequestCtx) {
	debtors, err := h.svc.GetAllDebtors(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	txs, err := h.svc.GetAllTransactions(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	names := make(map[string]string, len(debtors))
	for _, d := range debtors {
		names[d.ID] = d.Name
	}
	var buf bytes.Buffer
	if err := exchange.WriteTransactionsCSV(&buf, txs, names); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeCSV(ctx, "transactions.csv", buf.Bytes())
}

// Import loads a snapshot document; ?merge=true keeps existing data.
func (h *LedgerHandler) Import(ctx *xhttp.RequestCtx) {
	merge := false
	if v := query(ctx, "merge"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid merge flag")
			return
		}
		merge = b
	}

	snap, err := exchange.DecodeSnapshot(bytes.NewReader(ctx.PostBody()))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	summary, err := h.svc.ImportData(ctx, snap, model.ImportOptions{Merge: merge})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, summary)
}

func (h *LedgerHandler) ClearData(ctx *xhttp.RequestCtx) {
	if err := h.svc.ClearAllData(ctx); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *LedgerHandler) ListSettings(ctx *xhttp.RequestCtx) {
	settings, err := h.svc.GetAllSettings(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, settings)
}

func (h *LedgerHandler) GetSetting(ctx *xhttp.RequestCtx) {
	key := pathParam(ctx, "key")
	value, err := h.svc.GetSetting(ctx, key)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if value == nil {
		writeError(ctx, xhttp.StatusNotFound, "setting "+key+" not set")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, value)
}

// PutSetting stores the raw JSON body as the value of key.
func (h *LedgerHandler) PutSetting(ctx *xhttp.RequestCtx) {
	key := pathParam(ctx, "key")
	body := ctx.PostBody()
	if !json.Valid(body) {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON value")
		return
	}
	value := json.RawMessage(append([]byte(nil), body...))
	if err := h.svc.SetSetting(ctx, key, value); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, value)
}
