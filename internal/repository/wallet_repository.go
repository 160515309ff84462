package repository

import (
	"context"

	"github.com/shinyyama/bargain-backend/internal/model"
	"gorm.io/gorm"
)

type WalletRepository interface {
	CreateEntry(ctx context.Context, e *model.WalletEntry) error
	ListEntries(ctx context.Context, uid string, limit int) ([]model.WalletEntry, error)
	WithTx(tx *gorm.DB) WalletRepository
	SetDB(db *gorm.DB)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) CreateEntry(ctx context.Context, e *model.WalletEntry) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *walletRepository) ListEntries(ctx context.Context, uid string, limit int) ([]model.WalletEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.WalletEntry
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *walletRepository) WithTx(tx *gorm.DB) WalletRepository {
	return &walletRepository{db: tx}
}

func (r *walletRepository) SetDB(db *gorm.DB) {
	r.db = db
}
