package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var debtorIndexes = map[string]string{
	"name":      "name",
	"phone":     "phone",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type DebtorRepository struct {
	*store.DB
}

func NewDebtorRepository(db *store.DB) *DebtorRepository {
	return &DebtorRepository{
		db,
	}
}

// Put inserts the debtor or replaces the stored record with the same id.
func (r *DebtorRepository) Put(ctx context.Context, d *model.Debtor) error {
	return r.Write(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toDebtorEntity(d)).Error
}

// Get returns nil without error when the debtor does not exist.
func (r *DebtorRepository) Get(ctx context.Context, id string) (*model.Debtor, error) {
	var e DebtorEntity
	err := r.Read(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDebtorModel(&e), nil
}

func (r *DebtorRepository) GetAll(ctx context.Context) ([]*model.Debtor, error) {
	var entities []*DebtorEntity
	if err := r.Read(ctx).Order("created_at ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toDebtorModels(entities), nil
}

func (r *DebtorRepository) GetAllByIndex(ctx context.Context, index string, value any) ([]*model.Debtor, error) {
	column, ok := debtorIndexes[index]
	if !ok {
		return nil, fmt.Errorf("debtors.%s: %w", index, ErrUnknownIndex)
	}

	var entities []*DebtorEntity
	err := r.Read(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("created_at ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toDebtorModels(entities), nil
}

// Delete removes the debtor; deleting an absent id is not an error.
func (r *DebtorRepository) Delete(ctx context.Context, id string) error {
	return r.Write(ctx).Where("id = ?", id).Delete(&DebtorEntity{}).Error
}

func (r *DebtorRepository) Clear(ctx context.Context) error {
	return r.Write(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&DebtorEntity{}).Error
}
