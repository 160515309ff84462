package service

import (
	"context"
	"errors"

	"github.com/shinyyama/bargain-backend/internal/metrics"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errNoTx = errors.New("wallet mutation requires an open transaction")

// WalletService owns balance movements. Debit and Credit never open a
// transaction of their own; the caller passes the one that also writes the
// order or payment justifying the movement.
type WalletService interface {
	Debit(ctx context.Context, tx *gorm.DB, uid string, amount decimal.Decimal, reason model.WalletReason, orderID *uint64) (*model.WalletEntry, error)
	Credit(ctx context.Context, tx *gorm.DB, uid string, amount decimal.Decimal, reason model.WalletReason, orderID *uint64) (*model.WalletEntry, error)
	Balance(ctx context.Context, uid string) (decimal.Decimal, error)
	Deposit(ctx context.Context, uid string, amount decimal.Decimal) (*model.WalletEntry, error)
	Entries(ctx context.Context, uid string, limit int) ([]model.WalletEntry, error)
}

type walletService struct {
	tx      repository.TxRunner
	users   repository.UserRepository
	entries repository.WalletRepository
	log     *zap.Logger
}

func NewWalletService(tx repository.TxRunner, users repository.UserRepository, entries repository.WalletRepository, log *zap.Logger) WalletService {
	return &walletService{tx: tx, users: users, entries: entries, log: log}
}

func (s *walletService) Debit(ctx context.Context, tx *gorm.DB, uid string, amount decimal.Decimal, reason model.WalletReason, orderID *uint64) (*model.WalletEntry, error) {
	return s.apply(ctx, tx, uid, amount, true, reason, orderID)
}

func (s *walletService) Credit(ctx context.Context, tx *gorm.DB, uid string, amount decimal.Decimal, reason model.WalletReason, orderID *uint64) (*model.WalletEntry, error) {
	return s.apply(ctx, tx, uid, amount, false, reason, orderID)
}

func (s *walletService) apply(ctx context.Context, tx *gorm.DB, uid string, amount decimal.Decimal, debit bool, reason model.WalletReason, orderID *uint64) (*model.WalletEntry, error) {
	if tx == nil {
		return nil, errNoTx
	}
	if uid == "" {
		return nil, failf(ErrValidation, "user is required")
	}
	if !amount.IsPositive() {
		return nil, failf(ErrValidation, "amount must be greater than zero")
	}
	delta := amount
	if debit {
		delta = amount.Neg()
	}
	users := s.users.WithTx(tx)
	if _, err := users.Ensure(ctx, uid); err != nil {
		return nil, err
	}
	u, err := users.LockByUID(ctx, uid)
	if err != nil {
		return nil, notFound(err, "user")
	}
	next := u.WalletBalance.Add(delta)
	if next.IsNegative() {
		return nil, failf(ErrInsufficientBalance, "insufficient wallet balance: have %s, need %s",
			u.WalletBalance.StringFixed(2), amount.StringFixed(2))
	}
	if err := users.UpdateBalance(ctx, uid, next); err != nil {
		return nil, err
	}
	entry := &model.WalletEntry{
		UserUID:      uid,
		Amount:       delta,
		BalanceAfter: next,
		Reason:       reason,
		OrderID:      orderID,
	}
	if err := s.entries.WithTx(tx).CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	direction := "credit"
	if debit {
		direction = "debit"
	}
	metrics.WalletMovements.WithLabelValues(direction, string(reason)).Inc()
	return entry, nil
}

func (s *walletService) Balance(ctx context.Context, uid string) (decimal.Decimal, error) {
	if uid == "" {
		return decimal.Zero, failf(ErrValidation, "user is required")
	}
	u, err := s.users.Ensure(ctx, uid)
	if err != nil {
		return decimal.Zero, err
	}
	return u.WalletBalance, nil
}

// Deposit is the stub top-up path; no external gateway is involved.
func (s *walletService) Deposit(ctx context.Context, uid string, amount decimal.Decimal) (*model.WalletEntry, error) {
	if !amount.IsPositive() {
		return nil, failf(ErrValidation, "amount must be greater than zero")
	}
	var entry *model.WalletEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		e, err := s.Credit(ctx, tx, uid, amount, model.WalletReasonDeposit, nil)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("wallet deposit",
		zap.String("uid", uid),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", entry.BalanceAfter.StringFixed(2)))
	return entry, nil
}

func (s *walletService) Entries(ctx context.Context, uid string, limit int) ([]model.WalletEntry, error) {
	if uid == "" {
		return nil, nil
	}
	return s.entries.ListEntries(ctx, uid, limit)
}
