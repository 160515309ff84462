package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
)

type User struct {
	UID           string          `gorm:"column:uid;primaryKey;size:128"`
	Username      string          `gorm:"column:username;size:150;index"`
	Email         string          `gorm:"column:email;size:255"`
	FullName      string          `gorm:"column:full_name;size:255"`
	UserType      UserType        `gorm:"column:user_type;size:16;not null;default:buyer"`
	Phone         string          `gorm:"column:phone;size:32"`
	Address       string          `gorm:"column:address;type:text"`
	City          string          `gorm:"column:city;size:100"`
	State         string          `gorm:"column:state;size:100"`
	PostalCode    string          `gorm:"column:postal_code;size:20"`
	Country       string          `gorm:"column:country;size:100"`
	WalletBalance decimal.Decimal `gorm:"column:wallet_balance;type:decimal(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
