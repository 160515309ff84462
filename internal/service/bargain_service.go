package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/metrics"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/reqctx"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultBargainTTL = 7 * 24 * time.Hour

type RespondAction string

const (
	ActionAccept  RespondAction = "accept"
	ActionReject  RespondAction = "reject"
	ActionCounter RespondAction = "counter"
)

type CreateBargainInput struct {
	BuyerUID     string
	ProductID    uint64
	OfferedPrice decimal.Decimal
	Quantity     int
	Message      string
}

type RespondInput struct {
	BargainID uint64
	ActorUID  string
	Action    RespondAction
	// CounterOffer is the raw value as submitted; parsed only for counters.
	CounterOffer string
	Message      string
}

type BargainDetail struct {
	Bargain            model.BargainRequest
	Product            *model.Product
	Messages           []model.BargainMessage
	DiscountPercentage decimal.Decimal
	OriginalTotal      decimal.Decimal
	CurrentTotal       decimal.Decimal
	Savings            decimal.Decimal
	IsExpired          bool
}

type BargainService interface {
	Create(ctx context.Context, in CreateBargainInput) (*model.BargainRequest, error)
	Respond(ctx context.Context, in RespondInput) (*model.BargainRequest, error)
	AddMessage(ctx context.Context, bargainID uint64, actorUID, text string) (*model.BargainMessage, error)
	Get(ctx context.Context, bargainID uint64, actorUID string) (*BargainDetail, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.BargainRequest, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.BargainRequest, error)
	Expire(ctx context.Context, bargainID uint64) (bool, error)
}

type BargainOptions struct {
	TTL          time.Duration
	AutoResponse bool
	Now          func() time.Time
}

type bargainService struct {
	tx       repository.TxRunner
	bargains repository.BargainRepository
	products repository.ProductRepository
	settings repository.BargainSettingsRepository
	notify   NotificationService
	log      *zap.Logger

	ttl          time.Duration
	autoResponse bool
	now          func() time.Time
}

func NewBargainService(
	tx repository.TxRunner,
	bargains repository.BargainRepository,
	products repository.ProductRepository,
	settings repository.BargainSettingsRepository,
	notify NotificationService,
	log *zap.Logger,
	opts BargainOptions,
) BargainService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultBargainTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &bargainService{
		tx:           tx,
		bargains:     bargains,
		products:     products,
		settings:     settings,
		notify:       notify,
		log:          log,
		ttl:          opts.TTL,
		autoResponse: opts.AutoResponse,
		now:          opts.Now,
	}
}

func (s *bargainService) Create(ctx context.Context, in CreateBargainInput) (*model.BargainRequest, error) {
	if in.BuyerUID == "" {
		return nil, failf(ErrValidation, "buyer is required")
	}
	if in.Quantity <= 0 {
		return nil, failf(ErrValidation, "quantity must be at least 1")
	}
	if !in.OfferedPrice.IsPositive() {
		return nil, failf(ErrValidation, "offered price must be greater than zero")
	}

	var (
		created *model.BargainRequest
		lapsed  []*model.BargainRequest
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bargains := s.bargains.WithTx(tx)
		// Product row lock: creations for one product run one at a time.
		p, err := s.products.WithTx(tx).LockByID(ctx, in.ProductID)
		if err != nil {
			return notFound(err, "product")
		}
		if !p.IsActive {
			return failf(ErrValidation, "product is not available")
		}
		if !p.AllowBargaining {
			return failf(ErrValidation, "bargaining is not allowed for this product")
		}
		if p.SellerUID == in.BuyerUID {
			return failf(ErrValidation, "you cannot bargain on your own product")
		}
		now := s.now()
		for {
			existing, err := bargains.FindActiveByBuyerProduct(ctx, in.BuyerUID, p.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				break
			}
			if !existing.IsExpiredAt(now) {
				return failf(ErrValidation, "you already have a pending bargain request for this product")
			}
			locked, err := bargains.LockByID(ctx, existing.ID)
			if err != nil {
				return err
			}
			ok, err := s.expireLocked(ctx, bargains, locked, now)
			if err != nil {
				return err
			}
			if !ok {
				return failf(ErrInvalidState, "previous bargain was updated by someone else, try again")
			}
			lapsed = append(lapsed, locked)
		}

		expires := now.Add(s.ttl)
		b := &model.BargainRequest{
			BuyerUID:       in.BuyerUID,
			SellerUID:      p.SellerUID,
			ProductID:      p.ID,
			OriginalPrice:  p.Price,
			RequestedPrice: in.OfferedPrice,
			Quantity:       in.Quantity,
			Status:         model.BargainStatusPending,
			Message:        strings.TrimSpace(in.Message),
			ExpiresAt:      &expires,
		}
		if err := bargains.Create(ctx, b); err != nil {
			return err
		}
		if b.Message != "" {
			offered := in.OfferedPrice
			if err := bargains.CreateMessage(ctx, &model.BargainMessage{
				BargainID:    b.ID,
				SenderUID:    in.BuyerUID,
				Body:         b.Message,
				OfferedPrice: &offered,
			}); err != nil {
				return err
			}
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range lapsed {
		s.afterExpire(ctx, b)
	}
	metrics.BargainsCreated.Inc()
	s.log.Info("bargain created",
		zap.String("rid", reqctx.RequestID(ctx)),
		zap.Uint64("bargain_id", created.ID),
		zap.Uint64("product_id", created.ProductID),
		zap.String("offer", created.RequestedPrice.StringFixed(2)))
	s.notify.Notify(ctx, Notice{
		UserUID:   created.SellerUID,
		ActorUID:  created.BuyerUID,
		Type:      events.TypeBargainCreated,
		Title:     "New bargain request",
		Body:      fmt.Sprintf("A buyer offered %s for %d item(s)", created.RequestedPrice.StringFixed(2), created.Quantity),
		BargainID: uint64Ptr(created.ID),
		Status:    string(created.Status),
		Price:     created.RequestedPrice.StringFixed(2),
	})

	if s.autoResponse {
		if updated := s.applyAutoResponse(ctx, created); updated != nil {
			return updated, nil
		}
	}
	return created, nil
}

// applyAutoResponse runs the seller's policy. Failures stay in the log;
// the buyer's offer already stands.
func (s *bargainService) applyAutoResponse(ctx context.Context, b *model.BargainRequest) *model.BargainRequest {
	settings, err := s.settings.FindOrCreate(ctx, b.SellerUID)
	if err != nil {
		s.log.Warn("auto response: settings lookup failed", zap.Uint64("bargain_id", b.ID), zap.Error(err))
		return nil
	}
	decision, ok := DecideAutoResponse(settings, b)
	if !ok {
		return nil
	}
	in := RespondInput{BargainID: b.ID, ActorUID: b.SellerUID, Action: decision.Action}
	if decision.Action == ActionCounter {
		in.CounterOffer = decision.CounterOffer.StringFixed(2)
	}
	updated, err := s.Respond(ctx, in)
	if err != nil {
		s.log.Warn("auto response failed",
			zap.Uint64("bargain_id", b.ID),
			zap.String("action", string(decision.Action)),
			zap.Error(err))
		return nil
	}
	s.log.Info("auto response applied", zap.Uint64("bargain_id", b.ID), zap.String("action", string(decision.Action)))
	return updated
}

func (s *bargainService) Respond(ctx context.Context, in RespondInput) (*model.BargainRequest, error) {
	var (
		result     *model.BargainRequest
		expiredNow bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bargains := s.bargains.WithTx(tx)
		b, err := bargains.LockByID(ctx, in.BargainID)
		if err != nil {
			return notFound(err, "bargain")
		}
		if !b.IsParty(in.ActorUID) {
			return failf(ErrForbidden, "you are not a party to this bargain")
		}
		now := s.now()
		if b.IsExpiredAt(now) && b.Status.IsActive() {
			ok, err := s.expireLocked(ctx, bargains, b, now)
			if err != nil {
				return err
			}
			if !ok {
				return failf(ErrInvalidState, "bargain has expired")
			}
			expiredNow = true
			result = b
			return nil
		}
		if !b.Status.IsActive() {
			return failf(ErrInvalidState, "bargain is %s and can no longer be answered", b.Status)
		}

		text := strings.TrimSpace(in.Message)
		msg := &model.BargainMessage{BargainID: b.ID, SenderUID: in.ActorUID}
		updates := map[string]interface{}{"responded_at": now}
		var next model.BargainStatus

		switch in.Action {
		case ActionAccept:
			p, err := s.products.WithTx(tx).FindByID(ctx, b.ProductID)
			if err != nil {
				return notFound(err, "product")
			}
			if b.Quantity > p.StockQuantity {
				return failf(ErrInsufficientStock, "only %d item(s) in stock", p.StockQuantity)
			}
			price := b.EffectivePrice()
			next = model.BargainStatusAccepted
			msg.OfferedPrice = &price
			msg.Body = orDefault(text, fmt.Sprintf("Offer accepted at %s", price.StringFixed(2)))
		case ActionReject:
			next = model.BargainStatusRejected
			msg.Body = orDefault(text, "Offer rejected")
		case ActionCounter:
			raw := strings.TrimSpace(in.CounterOffer)
			if raw == "" {
				return failf(ErrValidation, "counter offer amount is required")
			}
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return failf(ErrValidation, "counter offer must be a number")
			}
			if !price.IsPositive() {
				return failf(ErrValidation, "counter offer must be greater than zero")
			}
			next = model.BargainStatusCountered
			updates["current_offer"] = price
			msg.OfferedPrice = &price
			msg.IsCounterOffer = true
			msg.Body = orDefault(text, fmt.Sprintf("Counter offer: %s", price.StringFixed(2)))
		default:
			return failf(ErrValidation, "unknown action %q", in.Action)
		}

		if !b.Status.CanTransitionTo(next) {
			return failf(ErrInvalidState, "cannot move bargain from %s to %s", b.Status, next)
		}
		updates["status"] = next
		n, err := bargains.UpdateIfStatus(ctx, b.ID, b.Status, updates)
		if err != nil {
			return err
		}
		if n == 0 {
			metrics.BargainStaleWrites.Inc()
			return failf(ErrInvalidState, "bargain was updated by someone else, reload and try again")
		}
		if err := bargains.CreateMessage(ctx, msg); err != nil {
			return err
		}

		b.Status = next
		b.RespondedAt = &now
		if price, ok := updates["current_offer"].(decimal.Decimal); ok {
			b.CurrentOffer = &price
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expiredNow {
		s.afterExpire(ctx, result)
		return nil, failf(ErrInvalidState, "bargain has expired")
	}

	metrics.BargainTransitions.WithLabelValues(string(result.Status)).Inc()
	s.log.Info("bargain responded",
		zap.String("rid", reqctx.RequestID(ctx)),
		zap.Uint64("bargain_id", result.ID),
		zap.String("actor", in.ActorUID),
		zap.String("status", string(result.Status)))

	recipient := result.BuyerUID
	if in.ActorUID == result.BuyerUID {
		recipient = result.SellerUID
	}
	s.notify.Notify(ctx, Notice{
		UserUID:   recipient,
		ActorUID:  in.ActorUID,
		Type:      eventTypeFor(result.Status),
		Title:     fmt.Sprintf("Bargain %s", result.Status),
		Body:      fmt.Sprintf("Bargain #%d is now %s at %s", result.ID, result.Status, result.EffectivePrice().StringFixed(2)),
		BargainID: uint64Ptr(result.ID),
		Status:    string(result.Status),
		Price:     result.EffectivePrice().StringFixed(2),
	})
	return result, nil
}

func (s *bargainService) AddMessage(ctx context.Context, bargainID uint64, actorUID, text string) (*model.BargainMessage, error) {
	b, err := s.bargains.FindByID(ctx, bargainID)
	if err != nil {
		return nil, notFound(err, "bargain")
	}
	if !b.IsParty(actorUID) {
		return nil, failf(ErrForbidden, "you are not a party to this bargain")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, failf(ErrValidation, "message cannot be empty")
	}
	m := &model.BargainMessage{BargainID: b.ID, SenderUID: actorUID, Body: text}
	if err := s.bargains.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	recipient := b.BuyerUID
	if actorUID == b.BuyerUID {
		recipient = b.SellerUID
	}
	s.notify.Notify(ctx, Notice{
		UserUID:   recipient,
		ActorUID:  actorUID,
		Type:      events.TypeBargainMessage,
		Title:     "New bargain message",
		Body:      text,
		BargainID: uint64Ptr(b.ID),
		Status:    string(b.Status),
	})
	return m, nil
}

func (s *bargainService) Get(ctx context.Context, bargainID uint64, actorUID string) (*BargainDetail, error) {
	b, err := s.bargains.FindByID(ctx, bargainID)
	if err != nil {
		return nil, notFound(err, "bargain")
	}
	if !b.IsParty(actorUID) {
		return nil, failf(ErrForbidden, "you are not a party to this bargain")
	}
	msgs, err := s.bargains.ListMessages(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, b.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &BargainDetail{
		Bargain:            *b,
		Product:            p,
		Messages:           msgs,
		DiscountPercentage: b.DiscountPercentage(),
		OriginalTotal:      b.OriginalTotal(),
		CurrentTotal:       b.CurrentTotal(),
		Savings:            b.Savings(),
		IsExpired:          b.IsExpiredAt(s.now()),
	}, nil
}

func (s *bargainService) ListByBuyer(ctx context.Context, buyerUID string) ([]model.BargainRequest, error) {
	if buyerUID == "" {
		return nil, nil
	}
	return s.bargains.ListByBuyer(ctx, buyerUID)
}

func (s *bargainService) ListBySeller(ctx context.Context, sellerUID string) ([]model.BargainRequest, error) {
	if sellerUID == "" {
		return nil, nil
	}
	return s.bargains.ListBySeller(ctx, sellerUID)
}

// Expire moves one logically expired bargain to expired. Rows that are
// no longer active or not yet due are left alone and report false.
func (s *bargainService) Expire(ctx context.Context, bargainID uint64) (bool, error) {
	var (
		expired bool
		b       *model.BargainRequest
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bargains := s.bargains.WithTx(tx)
		locked, err := bargains.LockByID(ctx, bargainID)
		if err != nil {
			return notFound(err, "bargain")
		}
		now := s.now()
		if !locked.Status.IsActive() || !locked.IsExpiredAt(now) {
			return nil
		}
		ok, err := s.expireLocked(ctx, bargains, locked, now)
		if err != nil {
			return err
		}
		expired, b = ok, locked
		return nil
	})
	if err != nil {
		return false, err
	}
	if expired {
		s.afterExpire(ctx, b)
	}
	return expired, nil
}

// expireLocked must run inside the transaction holding the row lock.
func (s *bargainService) expireLocked(ctx context.Context, bargains repository.BargainRepository, b *model.BargainRequest, now time.Time) (bool, error) {
	if !b.Status.CanTransitionTo(model.BargainStatusExpired) {
		return false, nil
	}
	n, err := bargains.UpdateIfStatus(ctx, b.ID, b.Status, map[string]interface{}{
		"status": model.BargainStatusExpired,
	})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := bargains.CreateMessage(ctx, &model.BargainMessage{
		BargainID: b.ID,
		Body:      fmt.Sprintf("Bargain request expired at %s", b.ExpiresAt.UTC().Format(time.RFC3339)),
		IsSystem:  true,
	}); err != nil {
		return false, err
	}
	b.Status = model.BargainStatusExpired
	return true, nil
}

func (s *bargainService) afterExpire(ctx context.Context, b *model.BargainRequest) {
	metrics.BargainsExpired.Inc()
	metrics.BargainTransitions.WithLabelValues(string(model.BargainStatusExpired)).Inc()
	s.log.Info("bargain expired", zap.Uint64("bargain_id", b.ID))
	for _, uid := range []string{b.BuyerUID, b.SellerUID} {
		s.notify.Notify(ctx, Notice{
			UserUID:   uid,
			Type:      events.TypeBargainExpired,
			Title:     "Bargain expired",
			Body:      fmt.Sprintf("Bargain #%d expired without agreement", b.ID),
			BargainID: uint64Ptr(b.ID),
			Status:    string(model.BargainStatusExpired),
		})
	}
}

func eventTypeFor(status model.BargainStatus) string {
	switch status {
	case model.BargainStatusAccepted:
		return events.TypeBargainAccepted
	case model.BargainStatusRejected:
		return events.TypeBargainRejected
	case model.BargainStatusCountered:
		return events.TypeBargainCountered
	case model.BargainStatusExpired:
		return events.TypeBargainExpired
	case model.BargainStatusCompleted:
		return events.TypeBargainCompleted
	}
	return "bargain." + string(status)
}

func orDefault(text, fallback string) string {
	if text != "" {
		return text
	}
	return fallback
}
