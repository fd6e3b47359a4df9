package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/store"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var transactionIndexes = map[string]string{
	"debtorId":  "debtor_id",
	"type":      "type",
	"createdAt": "created_at",
	"amount":    "amount",
}

type TransactionRepository struct {
	*store.DB
}

func NewTransactionRepository(db *store.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Put(ctx context.Context, t *model.Transaction) error {
	return r.Write(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toTransactionEntity(t)).Error
}

// Get returns nil without error when the transaction does not exist.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var e TransactionEntity
	err := r.Read(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toTransactionModel(&e), nil
}

func (r *TransactionRepository) GetAll(ctx context.Context) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.Read(ctx).Order("created_at ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) GetAllByIndex(ctx context.Context, index string, value any) ([]*model.Transaction, error) {
	column, ok := transactionIndexes[index]
	if !ok {
		return nil, fmt.Errorf("transactions.%s: %w", index, ErrUnknownIndex)
	}

	switch v := value.(type) {
	case decimal.Decimal:
		value = v.String()
	case model.TransactionType:
		value = string(v)
	case time.Time:
		value = v.UTC()
	}

	var entities []*TransactionEntity
	err := r.Read(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("created_at ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

// GetCreatedBetween returns transactions with from <= createdAt <= to.
func (r *TransactionRepository) GetCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).
		Where("created_at >= ? AND created_at <= ?", from.UTC(), to.UTC()).
		Order("created_at ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	return r.Write(ctx).Where("id = ?", id).Delete(&TransactionEntity{}).Error
}

func (r *TransactionRepository) Clear(ctx context.Context) error {
	return r.Write(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&TransactionEntity{}).Error
}
