package repository

import (
	"context"

	"github.com/shinyyama/bargain-backend/internal/model"
	"gorm.io/gorm"
)

type BargainSettingsRepository interface {
	FindOrCreate(ctx context.Context, sellerUID string) (*model.BargainSettings, error)
	Save(ctx context.Context, s *model.BargainSettings) error
	SetDB(db *gorm.DB)
}

type bargainSettingsRepository struct {
	db *gorm.DB
}

func NewBargainSettingsRepository(db *gorm.DB) BargainSettingsRepository {
	return &bargainSettingsRepository{db: db}
}

func (r *bargainSettingsRepository) FindOrCreate(ctx context.Context, sellerUID string) (*model.BargainSettings, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var s model.BargainSettings
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Attrs(model.BargainSettings{DefaultResponseTimeHours: model.DefaultResponseTimeHours}).
		FirstOrCreate(&s, model.BargainSettings{SellerUID: sellerUID}).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *bargainSettingsRepository) Save(ctx context.Context, s *model.BargainSettings) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *bargainSettingsRepository) SetDB(db *gorm.DB) {
	r.db = db
}
