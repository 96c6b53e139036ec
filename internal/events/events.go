// Package events publishes order lifecycle events for downstream consumers
// such as the notification service.
package events

import (
	"context"
	"time"

	"parkit-backend/internal/domain"
)

type Type string

const (
	OrderCreated          Type = "order.created"
	OrderConfirmed        Type = "order.confirmed"
	OrderPendingApproval  Type = "order.pending_approval"
	OrderCancelled        Type = "order.cancelled"
	OrderCompleted        Type = "order.completed"
	OrderPaymentCompleted Type = "order.payment_completed"
)

type Event struct {
	Type          Type                 `json:"type"`
	OrderID       string               `json:"order_id"`
	UserID        string               `json:"user_id"`
	LocationID    string               `json:"location_id"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Amount        int64                `json:"amount"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       time.Time            `json:"end_time"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// ForOrder builds an event snapshot of o.
func ForOrder(t Type, o *domain.Order) Event {
	return Event{
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		LocationID:    o.LocationID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Amount:        o.Amount,
		StartTime:     o.StartTime,
		EndTime:       o.EndTime,
		OccurredAt:    time.Now().UTC(),
	}
}

// ForTransition picks the event that announces entering t.To. ok is false
// when the transition is not announced.
func ForTransition(t domain.Transition) (Type, bool) {
	if t.From == t.To {
		if t.CompletePayment {
			return OrderPaymentCompleted, true
		}
		return "", false
	}
	switch t.To {
	case domain.OrderStatusConfirmed:
		return OrderConfirmed, true
	case domain.OrderStatusPendingApproval:
		if t.CompletePayment {
			return OrderPaymentCompleted, true
		}
		return OrderPendingApproval, true
	case domain.OrderStatusCancelled:
		return OrderCancelled, true
	case domain.OrderStatusCompleted:
		return OrderCompleted, true
	}
	return "", false
}

type noop struct{}

// NewNoop returns a Publisher that drops everything.
func NewNoop() Publisher { return noop{} }

func (noop) Publish(context.Context, Event) error { return nil }
func (noop) Close() error { return nil }
