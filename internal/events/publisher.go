package events

import (
	"context"
	"time"
)

const (
	TypeBargainCreated   = "bargain.created"
	TypeBargainAccepted  = "bargain.accepted"
	TypeBargainRejected  = "bargain.rejected"
	TypeBargainCountered = "bargain.countered"
	TypeBargainExpired   = "bargain.expired"
	TypeBargainMessage   = "bargain.message"
	TypeBargainCompleted = "bargain.completed"
	TypeOrderCreated     = "order.created"
)

// Event is the JSON payload fanned out to listeners of bargain activity.
type Event struct {
	Type         string    `json:"type"`
	RecipientUID string    `json:"recipientUid"`
	ActorUID     string    `json:"actorUid,omitempty"`
	BargainID    uint64    `json:"bargainId,omitempty"`
	OrderNumber  string    `json:"orderNumber,omitempty"`
	Status       string    `json:"status,omitempty"`
	Price        string    `json:"price,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, e Event) error {
	return nil
}
