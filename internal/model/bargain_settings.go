package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultResponseTimeHours = 24

type BargainSettings struct {
	ID                       uint64           `gorm:"primaryKey;autoIncrement"`
	SellerUID                string           `gorm:"column:seller_uid;size:128;uniqueIndex;not null"`
	EnableAutoAccept         bool             `gorm:"column:enable_auto_accept;not null;default:false"`
	AutoAcceptThreshold      *decimal.Decimal `gorm:"column:auto_accept_threshold;type:decimal(5,2)"`
	EnableAutoReject         bool             `gorm:"column:enable_auto_reject;not null;default:false"`
	AutoRejectThreshold      *decimal.Decimal `gorm:"column:auto_reject_threshold;type:decimal(5,2)"`
	EnableAutoCounter        bool             `gorm:"column:enable_auto_counter;not null;default:false"`
	CounterOfferPercentage   *decimal.Decimal `gorm:"column:counter_offer_percentage;type:decimal(5,2)"`
	DefaultResponseTimeHours int              `gorm:"column:default_response_time_hours;not null;default:24"`
	CreatedAt                time.Time        `gorm:"autoCreateTime"`
	UpdatedAt                time.Time        `gorm:"autoUpdateTime"`
}

func (BargainSettings) TableName() string {
	return "bargain_settings"
}
