package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/bargain-backend/internal/model"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByUserProduct(ctx context.Context, uid string, productID uint64) (*model.CartItem, error)
	Save(ctx context.Context, it *model.CartItem) error
	ListByUser(ctx context.Context, uid string) ([]model.CartItem, error)
	WithTx(tx *gorm.DB) CartRepository
	SetDB(db *gorm.DB)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserProduct(ctx context.Context, uid string, productID uint64) (*model.CartItem, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var it model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_uid = ? AND product_id = ?", uid, productID).
		First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func (r *cartRepository) Save(ctx context.Context, it *model.CartItem) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(it).Error
}

func (r *cartRepository) ListByUser(ctx context.Context, uid string) ([]model.CartItem, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) SetDB(db *gorm.DB) {
	r.db = db
}
