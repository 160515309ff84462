package service

import (
	"context"
	"time"

	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"go.uber.org/zap"
)

// Notice is one party-facing notification plus the event fanned out for it.
type Notice struct {
	UserUID     string
	ActorUID    string
	Type        string
	Title       string
	Body        string
	BargainID   *uint64
	OrderID     *uint64
	OrderNumber string
	Status      string
	Price       string
}

type NotificationService interface {
	Notify(ctx context.Context, n Notice)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByBargain(ctx context.Context, userUID string, bargainID uint64) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher events.Publisher
	log       *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, publisher events.Publisher, log *zap.Logger) NotificationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &notificationService{repo: repo, publisher: publisher, log: log}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, n Notice) {
	if n.UserUID == "" || n.Type == "" {
		return
	}
	row := &model.Notification{
		UserUID:   n.UserUID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		BargainID: n.BargainID,
		OrderID:   n.OrderID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.log.Warn("notification store failed", zap.String("uid", n.UserUID), zap.String("type", n.Type), zap.Error(err))
	}

	e := events.Event{
		Type:         n.Type,
		RecipientUID: n.UserUID,
		ActorUID:     n.ActorUID,
		OrderNumber:  n.OrderNumber,
		Status:       n.Status,
		Price:        n.Price,
		OccurredAt:   time.Now().UTC(),
	}
	if n.BargainID != nil {
		e.BargainID = *n.BargainID
	}
	pctx, cancel := withShortDeadline(ctx)
	defer cancel()
	if err := s.publisher.Publish(pctx, e); err != nil {
		s.log.Warn("event publish failed", zap.String("type", n.Type), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

func (s *notificationService) MarkByBargain(ctx context.Context, userUID string, bargainID uint64) error {
	if userUID == "" || bargainID == 0 {
		return nil
	}
	return s.repo.MarkByBargain(ctx, userUID, bargainID)
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// withShortDeadline bounds side-channel calls so they cannot stall a request.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
