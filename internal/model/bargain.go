package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BargainStatus string

const (
	BargainStatusPending   BargainStatus = "pending"
	BargainStatusAccepted  BargainStatus = "accepted"
	BargainStatusRejected  BargainStatus = "rejected"
	BargainStatusCountered BargainStatus = "countered"
	BargainStatusExpired   BargainStatus = "expired"
	BargainStatusCompleted BargainStatus = "completed"
)

// bargainTransitions is the only place allowed moves are declared.
var bargainTransitions = map[BargainStatus][]BargainStatus{
	BargainStatusPending: {
		BargainStatusAccepted,
		BargainStatusRejected,
		BargainStatusCountered,
		BargainStatusExpired,
	},
	BargainStatusCountered: {
		BargainStatusAccepted,
		BargainStatusRejected,
		BargainStatusCountered,
		BargainStatusExpired,
	},
	BargainStatusAccepted: {BargainStatusCompleted},
}

func (s BargainStatus) Valid() bool {
	switch s {
	case BargainStatusPending, BargainStatusAccepted, BargainStatusRejected,
		BargainStatusCountered, BargainStatusExpired, BargainStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a bargain in status s may move to next.
func (s BargainStatus) CanTransitionTo(next BargainStatus) bool {
	for _, to := range bargainTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsActive is true while the negotiation can still be answered.
func (s BargainStatus) IsActive() bool {
	return s == BargainStatusPending || s == BargainStatusCountered
}

func (s BargainStatus) IsTerminal() bool {
	return len(bargainTransitions[s]) == 0
}

type BargainRequest struct {
	ID             uint64           `gorm:"primaryKey;autoIncrement"`
	BuyerUID       string           `gorm:"column:buyer_uid;size:128;index:idx_bargain_buyer_product;not null"`
	SellerUID      string           `gorm:"column:seller_uid;size:128;index;not null"`
	ProductID      uint64           `gorm:"column:product_id;index:idx_bargain_buyer_product;not null"`
	OriginalPrice  decimal.Decimal  `gorm:"column:original_price;type:decimal(12,2);not null"`
	RequestedPrice decimal.Decimal  `gorm:"column:requested_price;type:decimal(12,2);not null"`
	CurrentOffer   *decimal.Decimal `gorm:"column:current_offer;type:decimal(12,2)"`
	Quantity       int              `gorm:"column:quantity;not null;default:1"`
	Status         BargainStatus    `gorm:"column:status;size:16;index;not null"`
	Message        string           `gorm:"column:message;type:text"`
	ExpiresAt      *time.Time       `gorm:"column:expires_at;index"`
	RespondedAt    *time.Time       `gorm:"column:responded_at"`
	CreatedAt      time.Time        `gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime"`

	Messages []BargainMessage `gorm:"foreignKey:BargainID;constraint:OnDelete:CASCADE"`
}

func (BargainRequest) TableName() string {
	return "bargain_requests"
}

// EffectivePrice is the unit price currently on the table.
func (b *BargainRequest) EffectivePrice() decimal.Decimal {
	if b.CurrentOffer != nil {
		return *b.CurrentOffer
	}
	return b.RequestedPrice
}

// DiscountPercentage is derived, never stored. Rounded to two places.
func (b *BargainRequest) DiscountPercentage() decimal.Decimal {
	if !b.OriginalPrice.IsPositive() {
		return decimal.Zero
	}
	return b.OriginalPrice.Sub(b.EffectivePrice()).
		Div(b.OriginalPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

func (b *BargainRequest) OriginalTotal() decimal.Decimal {
	return b.OriginalPrice.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

func (b *BargainRequest) CurrentTotal() decimal.Decimal {
	return b.EffectivePrice().Mul(decimal.NewFromInt(int64(b.Quantity)))
}

func (b *BargainRequest) Savings() decimal.Decimal {
	return b.OriginalTotal().Sub(b.CurrentTotal())
}

// IsExpiredAt reports logical expiry: an active bargain past its deadline.
func (b *BargainRequest) IsExpiredAt(now time.Time) bool {
	if b.Status == BargainStatusExpired {
		return true
	}
	return b.Status.IsActive() && b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}

func (b *BargainRequest) IsParty(uid string) bool {
	return uid != "" && (uid == b.BuyerUID || uid == b.SellerUID)
}
