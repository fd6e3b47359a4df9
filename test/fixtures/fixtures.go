package fixtures

import (
	"encoding/json"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
)

var (
	Epoch = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	DebtorAhmed = model.Debtor{
		ID:        "debtor-ahmed",
		Name:      "Ahmed",
		Phone:     "07701234567",
		Address:   "Karrada, Baghdad",
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}

	DebtorSara = model.Debtor{
		ID:        "debtor-sara",
		Name:      "Sara",
		Phone:     "07807654321",
		Notes:     "pays monthly",
		CreatedAt: Epoch.Add(time.Hour),
		UpdatedAt: Epoch.Add(time.Hour),
	}
)

func NewDebtorCreateRequest(name, phone string) model.DebtorCreateRequest {
	return model.DebtorCreateRequest{
		Name:  name,
		Phone: phone,
	}
}

func NewTransactionCreateRequest(debtorID string, typ model.TransactionType, amount int64) model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		DebtorID:      debtorID,
		Type:          typ,
		Amount:        decimal.NewFromInt(amount),
		Currency:      model.DefaultCurrency,
		PaymentMethod: "cash",
	}
}

func NewTransaction(id, debtorID string, typ model.TransactionType, amount int64, at time.Time) *model.Transaction {
	return &model.Transaction{
		ID:        id,
		DebtorID:  debtorID,
		Type:      typ,
		Amount:    decimal.NewFromInt(amount),
		Currency:  model.DefaultCurrency,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Snapshot returns a small export document covering both debtors.
func Snapshot() *model.Snapshot {
	ahmed := DebtorAhmed
	sara := DebtorSara
	return &model.Snapshot{
		Debtors: []*model.Debtor{&ahmed, &sara},
		Transactions: []*model.Transaction{
			NewTransaction("tx-1", ahmed.ID, model.TransactionTypeDebt, 1000, Epoch),
			NewTransaction("tx-2", ahmed.ID, model.TransactionTypePayment, 400, Epoch.Add(time.Minute)),
			NewTransaction("tx-3", sara.ID, model.TransactionTypeDebt, 250, Epoch.Add(2*time.Hour)),
		},
		Settings:   map[string]json.RawMessage{"currency": json.RawMessage(`"IQD"`)},
		ExportedAt: Epoch.Add(24 * time.Hour),
		Version:    model.SnapshotVersion,
	}
}
