package handlers

import (
	"bytes"

	"github.com/krarar/debt-manager/internal/exchange"
	"github.com/krarar/debt-manager/internal/model"
	xhttp "github.com/krarar/debt-manager/pkg/http"
)

func (h *LedgerHandler) ListDebtors(ctx *xhttp.RequestCtx) {
	items, err := h.svc.GetAllDebtors(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
}

func (h *LedgerHandler) CreateDebtor(ctx *xhttp.RequestCtx) {
	var req model.DebtorCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" || req.Phone == "" {
		writeError(ctx, xhttp.StatusBadRequest, "name and phone are required")
		return
	}
	d, err := h.svc.AddDebtor(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, d)
}

func (h *LedgerHandler) GetDebtor(ctx *xhttp.RequestCtx) {
	d, err := h.svc.GetDebtor(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, d)
}

func (h *LedgerHandler) UpdateDebtor(ctx *xhttp.RequestCtx) {
	var patch model.DebtorPatch
	if err := readJSON(ctx, &patch); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, err := h.svc.UpdateDebtor(ctx, pathParam(ctx, "id"), patch)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, d)
}

func (h *LedgerHandler) DeleteDebtor(ctx *xhttp.RequestCtx) {
	if err := h.svc.DeleteDebtor(ctx, pathParam(ctx, "id")); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *LedgerHandler) GetDebtorBalance(ctx *xhttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if _, err := h.svc.GetDebtor(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	balance, err := h.svc.GetDebtorBalance(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, balanceResponse{DebtorID: id, Balance: balance})
}

func (h *LedgerHandler) ListDebtorTransactions(ctx *xhttp.RequestCtx) {
	items, err := h.svc.GetTransactionsByDebtor(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orEmpty(items))
}

func (h *LedgerHandler) ExportDebtor(ctx *xhttp.RequestCtx) {
	report, err := h.svc.ExportDebtor(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	var buf bytes.Buffer
	if err := exchange.EncodeDebtorReport(&buf, report); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="debtor-`+report.Debtor.ID+`.json"`)
	ctx.SetBody(buf.Bytes())
}

func (h *LedgerHandler) ExportDebtorCSV(ctx *xhttp.RequestCtx) {
	report, err := h.svc.ExportDebtor(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	var buf bytes.Buffer
	if err := exchange.WriteDebtorCSV(&buf, report.Debtor, report.Transactions, report.Balance); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeCSV(ctx, "debtor-"+report.Debtor.ID+".csv", buf.Bytes())
}

func (h *LedgerHandler) ImportDebtorCSV(ctx *xhttp.RequestCtx) {
	n, err := h.svc.ImportTransactionsCSV(ctx, pathParam(ctx, "id"), bytes.NewReader(ctx.PostBody()))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, importCSVResponse{Imported: n})
}

func writeCSV(ctx *xhttp.RequestCtx, filename string, body []byte) {
	ctx.Response.Header.Set("Content-Type", "text/csv; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.SetStatusCode(xhttp.StatusOK)
	ctx.SetBody(body)
}

// orEmpty keeps empty lists encoding as [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
