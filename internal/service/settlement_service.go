package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/metrics"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/reqctx"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCountry = "USA"

// SettlementService turns an accepted bargain into an order or a cart line.
type SettlementService interface {
	Settle(ctx context.Context, bargainID uint64, buyerUID string, method model.PaymentMethod) (*model.Order, error)
	AddToCart(ctx context.Context, bargainID uint64, buyerUID string) (*model.CartItem, error)
}

type settlementService struct {
	tx       repository.TxRunner
	bargains repository.BargainRepository
	products repository.ProductRepository
	users    repository.UserRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
	wallet   WalletService
	notify   NotificationService
	log      *zap.Logger
	now      func() time.Time
}

func NewSettlementService(
	tx repository.TxRunner,
	bargains repository.BargainRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	orders repository.OrderRepository,
	carts repository.CartRepository,
	wallet WalletService,
	notify NotificationService,
	log *zap.Logger,
) SettlementService {
	return &settlementService{
		tx:       tx,
		bargains: bargains,
		products: products,
		users:    users,
		orders:   orders,
		carts:    carts,
		wallet:   wallet,
		notify:   notify,
		log:      log,
		now:      time.Now,
	}
}

// Settle runs every write in one transaction: order, item, payment, wallet
// debit and bargain completion. Any failure leaves the bargain accepted.
func (s *settlementService) Settle(ctx context.Context, bargainID uint64, buyerUID string, method model.PaymentMethod) (*model.Order, error) {
	switch method {
	case model.PaymentMethodWallet, model.PaymentMethodCashOnDelivery:
	default:
		return nil, failf(ErrValidation, "unsupported payment method %q", method)
	}

	start := time.Now()
	var (
		order   *model.Order
		bargain *model.BargainRequest
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bargains := s.bargains.WithTx(tx)
		orders := s.orders.WithTx(tx)

		b, err := s.lockAccepted(ctx, bargains, bargainID, buyerUID)
		if err != nil {
			return err
		}
		p, err := s.products.WithTx(tx).FindByID(ctx, b.ProductID)
		if err != nil {
			return notFound(err, "product")
		}
		if b.Quantity > p.StockQuantity {
			return failf(ErrInsufficientStock, "only %d item(s) in stock", p.StockQuantity)
		}
		buyer, err := s.users.WithTx(tx).Ensure(ctx, buyerUID)
		if err != nil {
			return err
		}

		now := s.now()
		finalPrice := b.EffectivePrice()
		total := finalPrice.Mul(decimal.NewFromInt(int64(b.Quantity)))

		o := newOrderFromProfile(buyer, total, now)
		o.BargainID = uint64Ptr(b.ID)
		pay := &model.Payment{
			Method:        method,
			Amount:        total,
			Status:        model.PaymentStatusPending,
			TransactionID: newTransactionID(),
		}
		if method == model.PaymentMethodWallet {
			o.PaymentStatus = model.PaymentStatusPaid
			pay.Status = model.PaymentStatusPaid
		}

		if err := orders.Create(ctx, o); err != nil {
			return err
		}
		item := &model.OrderItem{
			OrderID:     o.ID,
			ProductID:   b.ProductID,
			SellerUID:   b.SellerUID,
			Quantity:    b.Quantity,
			PriceAtTime: finalPrice,
			TotalPrice:  total,
		}
		if err := orders.CreateItem(ctx, item); err != nil {
			return err
		}
		if method == model.PaymentMethodWallet {
			if _, err := s.wallet.Debit(ctx, tx, buyerUID, total, model.WalletReasonOrder, uint64Ptr(o.ID)); err != nil {
				return err
			}
		}
		pay.OrderID = o.ID
		if err := orders.CreatePayment(ctx, pay); err != nil {
			return err
		}

		if err := s.complete(ctx, bargains, b, fmt.Sprintf("Order %s placed for %s", o.OrderNumber, total.StringFixed(2))); err != nil {
			return err
		}

		o.Items = []model.OrderItem{*item}
		o.Payment = pay
		order, bargain = o, b
		return nil
	})
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Settlements.WithLabelValues(string(method), resultLabel(err)).Inc()
		s.log.Info("settlement rejected",
			zap.String("rid", reqctx.RequestID(ctx)),
			zap.String("uid", reqctx.UID(ctx)),
			zap.Uint64("bargain_id", bargainID),
			zap.String("method", string(method)),
			zap.Error(err))
		return nil, err
	}
	metrics.Settlements.WithLabelValues(string(method), "ok").Inc()
	metrics.BargainTransitions.WithLabelValues(string(model.BargainStatusCompleted)).Inc()
	s.log.Info("bargain settled",
		zap.String("rid", reqctx.RequestID(ctx)),
		zap.Uint64("bargain_id", bargain.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.String("method", string(method)))

	s.notify.Notify(ctx, Notice{
		UserUID:     bargain.SellerUID,
		ActorUID:    buyerUID,
		Type:        events.TypeOrderCreated,
		Title:       "Bargain settled",
		Body:        fmt.Sprintf("Order %s was placed for bargain #%d", order.OrderNumber, bargain.ID),
		BargainID:   uint64Ptr(bargain.ID),
		OrderID:     uint64Ptr(order.ID),
		OrderNumber: order.OrderNumber,
		Status:      string(model.BargainStatusCompleted),
		Price:       order.TotalAmount.StringFixed(2),
	})
	return order, nil
}

// AddToCart converts the accepted bargain into a cart line at the agreed
// unit price. A line already holding the product keeps the lower price.
func (s *settlementService) AddToCart(ctx context.Context, bargainID uint64, buyerUID string) (*model.CartItem, error) {
	var (
		line    *model.CartItem
		bargain *model.BargainRequest
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bargains := s.bargains.WithTx(tx)
		carts := s.carts.WithTx(tx)

		b, err := s.lockAccepted(ctx, bargains, bargainID, buyerUID)
		if err != nil {
			return err
		}
		p, err := s.products.WithTx(tx).FindByID(ctx, b.ProductID)
		if err != nil {
			return notFound(err, "product")
		}
		if !p.IsActive {
			return failf(ErrValidation, "product is not available")
		}
		if b.Quantity > p.StockQuantity {
			return failf(ErrInsufficientStock, "only %d item(s) in stock", p.StockQuantity)
		}

		price := b.EffectivePrice()
		it, err := carts.FindByUserProduct(ctx, buyerUID, b.ProductID)
		if err != nil {
			return err
		}
		if it == nil {
			it = &model.CartItem{UserUID: buyerUID, ProductID: b.ProductID, UnitPrice: price}
		} else if price.LessThan(it.UnitPrice) {
			it.UnitPrice = price
		}
		it.Quantity += b.Quantity
		it.BargainID = uint64Ptr(b.ID)
		if err := carts.Save(ctx, it); err != nil {
			return err
		}

		if err := s.complete(ctx, bargains, b, fmt.Sprintf("Added to cart at %s", price.StringFixed(2))); err != nil {
			return err
		}
		line, bargain = it, b
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.BargainTransitions.WithLabelValues(string(model.BargainStatusCompleted)).Inc()
	s.log.Info("bargain added to cart",
		zap.String("rid", reqctx.RequestID(ctx)),
		zap.Uint64("bargain_id", bargain.ID),
		zap.Uint64("product_id", line.ProductID))
	s.notify.Notify(ctx, Notice{
		UserUID:   bargain.SellerUID,
		ActorUID:  buyerUID,
		Type:      events.TypeBargainCompleted,
		Title:     "Bargain completed",
		Body:      fmt.Sprintf("Bargain #%d was added to the buyer's cart", bargain.ID),
		BargainID: uint64Ptr(bargain.ID),
		Status:    string(model.BargainStatusCompleted),
		Price:     bargain.EffectivePrice().StringFixed(2),
	})
	return line, nil
}

func (s *settlementService) lockAccepted(ctx context.Context, bargains repository.BargainRepository, bargainID uint64, buyerUID string) (*model.BargainRequest, error) {
	b, err := bargains.LockByID(ctx, bargainID)
	if err != nil {
		return nil, notFound(err, "bargain")
	}
	if buyerUID == "" || b.BuyerUID != buyerUID {
		return nil, failf(ErrForbidden, "only the buyer can settle this bargain")
	}
	if b.Status != model.BargainStatusAccepted {
		return nil, failf(ErrInvalidState, "bargain is %s, only accepted bargains can be settled", b.Status)
	}
	return b, nil
}

// complete is the accepted -> completed compare-and-set plus its log line.
func (s *settlementService) complete(ctx context.Context, bargains repository.BargainRepository, b *model.BargainRequest, note string) error {
	if !b.Status.CanTransitionTo(model.BargainStatusCompleted) {
		return failf(ErrInvalidState, "cannot complete a %s bargain", b.Status)
	}
	n, err := bargains.UpdateIfStatus(ctx, b.ID, model.BargainStatusAccepted, map[string]interface{}{
		"status": model.BargainStatusCompleted,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		metrics.BargainStaleWrites.Inc()
		return failf(ErrInvalidState, "bargain was already settled")
	}
	if err := bargains.CreateMessage(ctx, &model.BargainMessage{
		BargainID: b.ID,
		Body:      note,
		IsSystem:  true,
	}); err != nil {
		return err
	}
	b.Status = model.BargainStatusCompleted
	return nil
}

func newOrderFromProfile(u *model.User, total decimal.Decimal, now time.Time) *model.Order {
	country := u.Country
	if country == "" {
		country = defaultCountry
	}
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return &model.Order{
		OrderNumber:       newOrderNumber(),
		BuyerUID:          u.UID,
		Status:            model.OrderStatusConfirmed,
		PaymentStatus:     model.PaymentStatusPending,
		Subtotal:          total,
		ShippingCost:      decimal.Zero,
		TaxAmount:         decimal.Zero,
		DiscountAmount:    decimal.Zero,
		TotalAmount:       total,
		ShippingName:      name,
		ShippingEmail:     u.Email,
		ShippingPhone:     u.Phone,
		ShippingAddress:   u.Address,
		ShippingCity:      u.City,
		ShippingState:     u.State,
		ShippingPostal:    u.PostalCode,
		ShippingCountry:   country,
		BillingSameAsShip: true,
		BillingName:       name,
		BillingAddress:    u.Address,
		BillingCity:       u.City,
		BillingState:      u.State,
		BillingPostal:     u.PostalCode,
		BillingCountry:    country,
		ConfirmedAt:       &now,
	}
}

func hexID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func newOrderNumber() string {
	return hexID()[:16]
}

func newTransactionID() string {
	return "TXN-" + hexID()[:12]
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return "rejected"
	}
	return "error"
}
