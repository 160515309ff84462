package repository

import (
	"context"

	"github.com/shinyyama/bargain-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	CreateItem(ctx context.Context, it *model.OrderItem) error
	CreatePayment(ctx context.Context, p *model.Payment) error
	FindByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	LockByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	UpdateIfStatus(ctx context.Context, id uint64, from model.OrderStatus, updates map[string]interface{}) (int64, error)
	UpdatePaymentStatus(ctx context.Context, orderID uint64, status model.PaymentStatus) error
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error)
	CountByBargain(ctx context.Context, bargainID uint64) (int64, error)
	WithTx(tx *gorm.DB) OrderRepository
	SetDB(db *gorm.DB)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Omit("Items", "Payment").Create(o).Error
}

func (r *orderRepository) CreateItem(ctx context.Context, it *model.OrderItem) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *orderRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("order_number = ?", orderNumber).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) LockByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("order_number = ?", orderNumber).
		First(&o).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", o.ID).Find(&o.Items).Error; err != nil {
		return nil, err
	}
	var pay model.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", o.ID).Limit(1).Find(&pay).Error; err != nil {
		return nil, err
	}
	if pay.ID != 0 {
		o.Payment = &pay
	}
	return &o, nil
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, orderID uint64, status model.PaymentStatus) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}

func (r *orderRepository) UpdateIfStatus(ctx context.Context, id uint64, from model.OrderStatus, updates map[string]interface{}) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("buyer_uid = ?", buyerUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) CountByBargain(ctx context.Context, bargainID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("bargain_id = ?", bargainID).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) SetDB(db *gorm.DB) {
	r.db = db
}
