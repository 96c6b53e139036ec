package payment

import (
	"context"
	"sync"

	"parkit-backend/internal/logger"

	"github.com/google/uuid"
)

// MockGateway is an in-process gateway for local development. Payments are
// captured unless marked failed with SetPaymentStatus.
type MockGateway struct {
	secret []byte

	mu       sync.Mutex
	orders   map[string]GatewayOrder
	statuses map[string]string
}

func NewMockGateway(secret string) *MockGateway {
	logger.Info("Using mock payment gateway")
	return &MockGateway{
		secret:   []byte(secret),
		orders:   make(map[string]GatewayOrder),
		statuses: make(map[string]string),
	}
}

func (m *MockGateway) KeyID() string { return "mock_key" }

func (m *MockGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	o := GatewayOrder{
		ID:       "order_" + uuid.NewString(),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "created",
	}
	m.mu.Lock()
	m.orders[o.ID] = o
	m.mu.Unlock()
	logger.Debug("Mock gateway order created", "gateway_order_id", o.ID, "receipt", req.Receipt)
	return &o, nil
}

func (m *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[paymentID]
	if !ok {
		status = "captured"
	}
	return &PaymentDetails{ID: paymentID, Status: status, Method: "card"}, nil
}

func (m *MockGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return verify(m.secret, gatewayOrderID, gatewayPaymentID, signature)
}

// SetPaymentStatus fixes the status FetchPayment reports for paymentID.
func (m *MockGateway) SetPaymentStatus(paymentID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[paymentID] = status
}

// Signature returns the signature a real checkout would hand back to the client.
func (m *MockGateway) Signature(gatewayOrderID, gatewayPaymentID string) string {
	return Sign(m.secret, gatewayOrderID, gatewayPaymentID)
}
