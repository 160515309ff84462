package service

import (
	"context"

	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService interface {
	Get(ctx context.Context, orderNumber, uid string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error)
	Process(ctx context.Context, orderNumber, sellerUID string) (*model.Order, error)
	Cancel(ctx context.Context, orderNumber, buyerUID string) (*model.Order, error)
}

type orderService struct {
	tx       repository.TxRunner
	orders   repository.OrderRepository
	products repository.ProductRepository
	wallet   WalletService
	log      *zap.Logger
}

func NewOrderService(tx repository.TxRunner, orders repository.OrderRepository, products repository.ProductRepository, wallet WalletService, log *zap.Logger) OrderService {
	return &orderService{tx: tx, orders: orders, products: products, wallet: wallet, log: log}
}

func (s *orderService) Get(ctx context.Context, orderNumber, uid string) (*model.Order, error) {
	o, err := s.orders.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !canView(o, uid) {
		return nil, failf(ErrForbidden, "not allowed to view this order")
	}
	return o, nil
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error) {
	if buyerUID == "" {
		return nil, nil
	}
	return s.orders.ListByBuyer(ctx, buyerUID)
}

// Process is the seller's confirmation step; stock leaves the catalog here,
// not at settlement.
func (s *orderService) Process(ctx context.Context, orderNumber, sellerUID string) (*model.Order, error) {
	var order *model.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		products := s.products.WithTx(tx)
		o, err := orders.LockByNumber(ctx, orderNumber)
		if err != nil {
			return notFound(err, "order")
		}
		if len(o.Items) == 0 {
			return failf(ErrInvalidState, "order has no items")
		}
		for _, it := range o.Items {
			if it.SellerUID != sellerUID {
				return failf(ErrForbidden, "only the seller can process this order")
			}
		}
		if o.Status != model.OrderStatusPending && o.Status != model.OrderStatusConfirmed {
			return failf(ErrInvalidState, "order is %s", o.Status)
		}
		for _, it := range o.Items {
			n, err := products.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if n == 0 {
				return failf(ErrInsufficientStock, "not enough stock for product %d", it.ProductID)
			}
		}
		n, err := orders.UpdateIfStatus(ctx, o.ID, o.Status, map[string]interface{}{
			"status": model.OrderStatusProcessing,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return failf(ErrInvalidState, "order was updated by someone else")
		}
		o.Status = model.OrderStatusProcessing
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order processing", zap.String("order_number", order.OrderNumber))
	return order, nil
}

// Cancel refunds a wallet-paid order inside the same transaction that
// cancels it.
func (s *orderService) Cancel(ctx context.Context, orderNumber, buyerUID string) (*model.Order, error) {
	var order *model.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.LockByNumber(ctx, orderNumber)
		if err != nil {
			return notFound(err, "order")
		}
		if o.BuyerUID != buyerUID {
			return failf(ErrForbidden, "only the buyer can cancel this order")
		}
		if o.Status != model.OrderStatusPending && o.Status != model.OrderStatusConfirmed {
			return failf(ErrInvalidState, "order is %s and can no longer be cancelled", o.Status)
		}
		updates := map[string]interface{}{"status": model.OrderStatusCancelled}
		if o.PaymentStatus == model.PaymentStatusPaid && o.Payment != nil && o.Payment.Method == model.PaymentMethodWallet {
			if _, err := s.wallet.Credit(ctx, tx, o.BuyerUID, o.TotalAmount, model.WalletReasonRefund, uint64Ptr(o.ID)); err != nil {
				return err
			}
			if err := orders.UpdatePaymentStatus(ctx, o.ID, model.PaymentStatusRefunded); err != nil {
				return err
			}
			updates["payment_status"] = model.PaymentStatusRefunded
			o.PaymentStatus = model.PaymentStatusRefunded
			o.Payment.Status = model.PaymentStatusRefunded
		}
		n, err := orders.UpdateIfStatus(ctx, o.ID, o.Status, updates)
		if err != nil {
			return err
		}
		if n == 0 {
			return failf(ErrInvalidState, "order was updated by someone else")
		}
		o.Status = model.OrderStatusCancelled
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_status", string(order.PaymentStatus)))
	return order, nil
}

func canView(o *model.Order, uid string) bool {
	if uid == "" {
		return false
	}
	if o.BuyerUID == uid {
		return true
	}
	for _, it := range o.Items {
		if it.SellerUID == uid {
			return true
		}
	}
	return false
}
