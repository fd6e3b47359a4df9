package repository

import (
	"context"
	"errors"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	*store.DB
}

func NewSettingRepository(db *store.DB) *SettingRepository {
	return &SettingRepository{
		db,
	}
}

func (r *SettingRepository) Put(ctx context.Context, s *model.Setting) error {
	return r.Write(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toSettingEntity(s)).Error
}

// Get returns nil without error when the key is unset.
func (r *SettingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	var e SettingEntity
	err := r.Read(ctx).Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSettingModel(&e), nil
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]*model.Setting, error) {
	var entities []*SettingEntity
	if err := r.Read(ctx).Order("key ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toSettingModels(entities), nil
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	return r.Write(ctx).Where("key = ?", key).Delete(&SettingEntity{}).Error
}

func (r *SettingRepository) Clear(ctx context.Context) error {
	return r.Write(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SettingEntity{}).Error
}
