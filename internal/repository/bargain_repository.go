package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/bargain-backend/internal/model"
	"gorm.io/gorm"
)

type BargainRepository interface {
	Create(ctx context.Context, b *model.BargainRequest) error
	FindByID(ctx context.Context, id uint64) (*model.BargainRequest, error)
	LockByID(ctx context.Context, id uint64) (*model.BargainRequest, error)
	FindActiveByBuyerProduct(ctx context.Context, buyerUID string, productID uint64) (*model.BargainRequest, error)
	UpdateIfStatus(ctx context.Context, id uint64, from model.BargainStatus, updates map[string]interface{}) (int64, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.BargainRequest, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.BargainRequest, error)
	ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error)
	CreateMessage(ctx context.Context, m *model.BargainMessage) error
	ListMessages(ctx context.Context, bargainID uint64) ([]model.BargainMessage, error)
	WithTx(tx *gorm.DB) BargainRepository
	SetDB(db *gorm.DB)
}

type bargainRepository struct {
	db *gorm.DB
}

func NewBargainRepository(db *gorm.DB) BargainRepository {
	return &bargainRepository{db: db}
}

func (r *bargainRepository) Create(ctx context.Context, b *model.BargainRequest) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Omit("Messages").Create(b).Error
}

func (r *bargainRepository) FindByID(ctx context.Context, id uint64) (*model.BargainRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var b model.BargainRequest
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// LockByID reads the row with FOR UPDATE; only meaningful inside a transaction.
func (r *bargainRepository) LockByID(ctx context.Context, id uint64) (*model.BargainRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var b model.BargainRequest
	if err := forUpdate(r.db.WithContext(ctx)).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bargainRepository) FindActiveByBuyerProduct(ctx context.Context, buyerUID string, productID uint64) (*model.BargainRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var b model.BargainRequest
	err := r.db.WithContext(ctx).
		Where("buyer_uid = ? AND product_id = ? AND status IN ?", buyerUID, productID,
			[]model.BargainStatus{model.BargainStatusPending, model.BargainStatusCountered}).
		Order("id DESC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// UpdateIfStatus is a compare-and-set on status. 0 rows means another
// writer moved the bargain first.
func (r *bargainRepository) UpdateIfStatus(ctx context.Context, id uint64, from model.BargainStatus, updates map[string]interface{}) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.BargainRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *bargainRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.BargainRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.BargainRequest
	if err := r.db.WithContext(ctx).
		Where("buyer_uid = ?", buyerUID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *bargainRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.BargainRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.BargainRequest
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *bargainRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&model.BargainRequest{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]model.BargainStatus{model.BargainStatusPending, model.BargainStatusCountered}, now).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *bargainRepository) CreateMessage(ctx context.Context, m *model.BargainMessage) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *bargainRepository) ListMessages(ctx context.Context, bargainID uint64) ([]model.BargainMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.BargainMessage
	if err := r.db.WithContext(ctx).
		Where("bargain_id = ?", bargainID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *bargainRepository) WithTx(tx *gorm.DB) BargainRepository {
	return &bargainRepository{db: tx}
}

func (r *bargainRepository) SetDB(db *gorm.DB) {
	r.db = db
}
