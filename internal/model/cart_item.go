package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	UserUID   string          `gorm:"column:user_uid;size:128;uniqueIndex:uniq_cart_user_product;not null"`
	ProductID uint64          `gorm:"column:product_id;uniqueIndex:uniq_cart_user_product;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
	BargainID *uint64         `gorm:"column:bargain_id;index"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
