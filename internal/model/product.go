package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	SellerUID       string          `gorm:"column:seller_uid;size:128;index;not null"`
	Name            string          `gorm:"column:name;size:200;not null"`
	Description     string          `gorm:"column:description;type:text"`
	Price           decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
	StockQuantity   int             `gorm:"column:stock_quantity;not null;default:0"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	AllowBargaining bool            `gorm:"column:allow_bargaining;not null;default:true"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
