package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletReason string

const (
	WalletReasonDeposit    WalletReason = "deposit"
	WalletReasonOrder      WalletReason = "order_payment"
	WalletReasonRefund     WalletReason = "refund"
	WalletReasonAdjustment WalletReason = "adjustment"
)

// WalletEntry is one immutable balance movement. Amount is signed.
type WalletEntry struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	UserUID      string          `gorm:"column:user_uid;size:128;index;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:decimal(12,2);not null"`
	Reason       WalletReason    `gorm:"column:reason;size:32;not null"`
	OrderID      *uint64         `gorm:"column:order_id;index"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
}

func (WalletEntry) TableName() string {
	return "wallet_entries"
}
