package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

type Order struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement"`
	OrderNumber       string          `gorm:"column:order_number;size:32;uniqueIndex;not null"`
	BuyerUID          string          `gorm:"column:buyer_uid;size:128;index;not null"`
	Status            OrderStatus     `gorm:"column:status;size:16;not null"`
	PaymentStatus     PaymentStatus   `gorm:"column:payment_status;size:16;not null"`
	Subtotal          decimal.Decimal `gorm:"column:subtotal;type:decimal(12,2);not null"`
	ShippingCost      decimal.Decimal `gorm:"column:shipping_cost;type:decimal(12,2);not null;default:0"`
	TaxAmount         decimal.Decimal `gorm:"column:tax_amount;type:decimal(12,2);not null;default:0"`
	DiscountAmount    decimal.Decimal `gorm:"column:discount_amount;type:decimal(12,2);not null;default:0"`
	TotalAmount       decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null"`
	ShippingName      string          `gorm:"column:shipping_name;size:255"`
	ShippingEmail     string          `gorm:"column:shipping_email;size:255"`
	ShippingPhone     string          `gorm:"column:shipping_phone;size:32"`
	ShippingAddress   string          `gorm:"column:shipping_address;type:text"`
	ShippingCity      string          `gorm:"column:shipping_city;size:100"`
	ShippingState     string          `gorm:"column:shipping_state;size:100"`
	ShippingPostal    string          `gorm:"column:shipping_postal_code;size:20"`
	ShippingCountry   string          `gorm:"column:shipping_country;size:100"`
	BillingSameAsShip bool            `gorm:"column:billing_same_as_shipping;not null;default:true"`
	BillingName       string          `gorm:"column:billing_name;size:255"`
	BillingAddress    string          `gorm:"column:billing_address;type:text"`
	BillingCity       string          `gorm:"column:billing_city;size:100"`
	BillingState      string          `gorm:"column:billing_state;size:100"`
	BillingPostal     string          `gorm:"column:billing_postal_code;size:20"`
	BillingCountry    string          `gorm:"column:billing_country;size:100"`
	BargainID         *uint64         `gorm:"column:bargain_id;index"`
	ConfirmedAt       *time.Time      `gorm:"column:confirmed_at"`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime"`

	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment *Payment    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID     uint64          `gorm:"column:order_id;index;not null"`
	ProductID   uint64          `gorm:"column:product_id;index;not null"`
	SellerUID   string          `gorm:"column:seller_uid;size:128;index;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:decimal(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type Payment struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID       uint64          `gorm:"column:order_id;uniqueIndex;not null"`
	Method        PaymentMethod   `gorm:"column:method;size:32;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Status        PaymentStatus   `gorm:"column:status;size:16;not null"`
	TransactionID string          `gorm:"column:transaction_id;size:64;uniqueIndex"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
