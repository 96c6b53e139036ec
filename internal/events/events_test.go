package events

import (
	"context"
	"os"
	"testing"
	"time"

	"parkit-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForTransition(t *testing.T) {
	tests := []struct {
		name string
		tr   domain.Transition
		want Type
		ok   bool
	}{
		{"owner approval", domain.Transition{From: domain.OrderStatusCreated, To: domain.OrderStatusConfirmed}, OrderConfirmed, true},
		{"payment on created", domain.Transition{From: domain.OrderStatusCreated, To: domain.OrderStatusPendingApproval, CompletePayment: true}, OrderPaymentCompleted, true},
		{"reserver re-affirms", domain.Transition{From: domain.OrderStatusCreated, To: domain.OrderStatusPendingApproval}, OrderPendingApproval, true},
		{"payment without state change", domain.Transition{From: domain.OrderStatusConfirmed, To: domain.OrderStatusConfirmed, CompletePayment: true}, OrderPaymentCompleted, true},
		{"repeated re-affirmation", domain.Transition{From: domain.OrderStatusPendingApproval, To: domain.OrderStatusPendingApproval}, "", false},
		{"decline", domain.Transition{From: domain.OrderStatusCreated, To: domain.OrderStatusCancelled}, OrderCancelled, true},
		{"elapse", domain.Transition{From: domain.OrderStatusConfirmed, To: domain.OrderStatusCompleted}, OrderCompleted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ForTransition(tt.tr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForOrder(t *testing.T) {
	o := &domain.Order{ID: "o-1", UserID: "u-1", LocationID: "l-1", Status: domain.OrderStatusCreated, Amount: 150}
	e := ForOrder(OrderCreated, o)
	assert.Equal(t, "o-1", e.OrderID)
	assert.Equal(t, int64(150), e.Amount)
	assert.False(t, e.OccurredAt.IsZero())
	assert.NoError(t, NewNoop().Publish(context.Background(), e))
}

// Runs against a live broker when RABBITMQ_URL is set.
func TestAMQPPublisher_AgainstBroker(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	p, err := NewAMQPPublisher(url, "parkit.test")
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.Publish(ctx, ForOrder(OrderCreated, &domain.Order{ID: "o-1"})))
}
