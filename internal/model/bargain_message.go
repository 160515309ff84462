package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BargainMessage struct {
	ID             uint64           `gorm:"primaryKey;autoIncrement"`
	BargainID      uint64           `gorm:"column:bargain_id;index;not null"`
	SenderUID      string           `gorm:"column:sender_uid;size:128;index"`
	Body           string           `gorm:"column:body;type:text;not null"`
	OfferedPrice   *decimal.Decimal `gorm:"column:offered_price;type:decimal(12,2)"`
	IsCounterOffer bool             `gorm:"column:is_counter_offer;not null;default:false"`
	IsSystem       bool             `gorm:"column:is_system;not null;default:false"`
	CreatedAt      time.Time        `gorm:"autoCreateTime"`
}

func (BargainMessage) TableName() string {
	return "bargain_messages"
}
