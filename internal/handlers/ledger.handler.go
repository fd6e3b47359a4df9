package handlers

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/fasthttp/router"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
)

type LedgerService interface {
	AddDebtor(ctx context.Context, req model.DebtorCreateRequest) (*model.Debtor, error)
	GetDebtor(ctx context.Context, id string) (*model.Debtor, error)
	GetAllDebtors(ctx context.Context) ([]*model.Debtor, error)
	UpdateDebtor(ctx context.Context, id string, patch model.DebtorPatch) (*model.Debtor, error)
	DeleteDebtor(ctx context.Context, id string) error
	GetDebtorBalance(ctx context.Context, debtorID string) (decimal.Decimal, error)
	ExportDebtor(ctx context.Context, id string) (*model.DebtorReport, error)

	AddTransaction(ctx context.Context, req model.TransactionCreateRequest) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]*model.Transaction, error)
	GetTransactionsByDebtor(ctx context.Context, debtorID string) ([]*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactionsInDateRange(ctx context.Context, start, end time.Time) ([]*model.Transaction, error)

	SearchDebtors(ctx context.Context, query string) ([]*model.Debtor, error)
	SearchTransactions(ctx context.Context, query string) ([]*model.Transaction, error)
	GetDebtorStats(ctx context.Context) (*model.Stats, error)

	ExportData(ctx context.Context) (*model.Snapshot, error)
	ImportData(ctx context.Context, snap *model.Snapshot, opts model.ImportOptions) (*model.ImportSummary, error)
	ImportTransactionsCSV(ctx context.Context, debtorID string, r io.Reader) (int, error)
	ClearAllData(ctx context.Context) error

	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, key string, value any) error
	GetAllSettings(ctx context.Context) (map[string]json.RawMessage, error)
}

type LedgerHandler struct {
	svc LedgerService
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.GET("/debtors", h.ListDebtors)
	e.POST("/debtors", h.CreateDebtor)
	e.GET("/debtors/{id}", h.GetDebtor)
	e.PATCH("/debtors/{id}", h.UpdateDebtor)
	e.DELETE("/debtors/{id}", h.DeleteDebtor)
	e.GET("/debtors/{id}/balance", h.GetDebtorBalance)
	e.GET("/debtors/{id}/transactions", h.ListDebtorTransactions)
	e.GET("/debtors/{id}/export", h.ExportDebtor)
	e.GET("/debtors/{id}/export.csv", h.ExportDebtorCSV)
	e.POST("/debtors/{id}/import.csv", h.ImportDebtorCSV)

	e.GET("/transactions", h.ListTransactions)
	e.POST("/transactions", h.CreateTransaction)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.PATCH("/transactions/{id}", h.UpdateTransaction)
	e.DELETE("/transactions/{id}", h.DeleteTransaction)

	e.GET("/search/debtors", h.SearchDebtors)
	e.GET("/search/transactions", h.SearchTransactions)
	e.GET("/stats", h.GetStats)

	e.GET("/export", h.Export)
	e.GET("/export.csv", h.ExportCSV)
	e.POST("/import", h.Import)
	e.DELETE("/data", h.ClearData)

	e.GET("/settings", h.ListSettings)
	e.GET("/settings/{key}", h.GetSetting)
	e.PUT("/settings/{key}", h.PutSetting)
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{
		svc: svc,
	}
}

type balanceResponse struct {
	DebtorID string          `json:"debtorId"`
	Balance  decimal.Decimal `json:"balance"`
}

type importCSVResponse struct {
	Imported int `json:"imported"`
}
