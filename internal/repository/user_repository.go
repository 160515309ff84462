package repository

import (
	"context"

	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByUID(ctx context.Context, uid string) (*model.User, error)
	Ensure(ctx context.Context, uid string) (*model.User, error)
	LockByUID(ctx context.Context, uid string) (*model.User, error)
	UpdateBalance(ctx context.Context, uid string, balance decimal.Decimal) error
	WithTx(tx *gorm.DB) UserRepository
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Ensure returns the account row, creating an empty one for uids that
// authenticated but never wrote a profile.
func (r *userRepository) Ensure(ctx context.Context, uid string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).
		Attrs(model.User{UserType: model.UserTypeBuyer, WalletBalance: decimal.Zero}).
		FirstOrCreate(&u, model.User{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) LockByUID(ctx context.Context, uid string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := forUpdate(r.db.WithContext(ctx)).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdateBalance(ctx context.Context, uid string, balance decimal.Decimal) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ?", uid).
		Update("wallet_balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db = db
}
