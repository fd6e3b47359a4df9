package repository

import (
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID            string          `db:"id"             gorm:"primaryKey;column:id"`
	DebtorID      string          `db:"debtor_id"      gorm:"column:debtor_id;not null;index"`
	Type          string          `db:"type"           gorm:"column:type;not null;index"`
	Amount        decimal.Decimal `db:"amount"         gorm:"column:amount;type:text;not null;index"`
	Currency      string          `db:"currency"       gorm:"column:currency;not null"`
	Product       string          `db:"product"        gorm:"column:product"`
	Notes         string          `db:"notes"          gorm:"column:notes"`
	PaymentMethod string          `db:"payment_method" gorm:"column:payment_method"`
	CreatedAt     time.Time       `db:"created_at"     gorm:"column:created_at;not null;index;autoCreateTime:false"`
	UpdatedAt     time.Time       `db:"updated_at"     gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:            m.ID,
		DebtorID:      m.DebtorID,
		Type:          string(m.Type),
		Amount:        m.Amount,
		Currency:      m.Currency,
		Product:       m.Product,
		Notes:         m.Notes,
		PaymentMethod: m.PaymentMethod,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:            e.ID,
		DebtorID:      e.DebtorID,
		Type:          model.TransactionType(e.Type),
		Amount:        e.Amount,
		Currency:      e.Currency,
		Product:       e.Product,
		Notes:         e.Notes,
		PaymentMethod: e.PaymentMethod,
		CreatedAt:     e.CreatedAt.UTC(),
		UpdatedAt:     e.UpdatedAt.UTC(),
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
