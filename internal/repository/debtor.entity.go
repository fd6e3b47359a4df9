package repository

import (
	"time"

	"github.com/krarar/debt-manager/internal/model"
)

type DebtorEntity struct {
	ID        string    `db:"id"         gorm:"primaryKey;column:id"`
	Name      string    `db:"name"       gorm:"column:name;not null;index"`
	Phone     string    `db:"phone"      gorm:"column:phone;not null;index"`
	Address   string    `db:"address"    gorm:"column:address"`
	Notes     string    `db:"notes"      gorm:"column:notes"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;not null;index;autoUpdateTime:false"`
}

func (DebtorEntity) TableName() string {
	return "debtors"
}

func toDebtorEntity(m *model.Debtor) *DebtorEntity {
	if m == nil {
		return nil
	}
	return &DebtorEntity{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func toDebtorModel(e *DebtorEntity) *model.Debtor {
	if e == nil {
		return nil
	}
	return &model.Debtor{
		ID:        e.ID,
		Name:      e.Name,
		Phone:     e.Phone,
		Address:   e.Address,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func toDebtorModels(entities []*DebtorEntity) []*model.Debtor {
	if entities == nil {
		return nil
	}
	models := make([]*model.Debtor, len(entities))
	for i, e := range entities {
		models[i] = toDebtorModel(e)
	}
	return models
}
