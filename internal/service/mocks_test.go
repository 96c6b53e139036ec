package service

import (
	"context"
	"sync"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/events"
	"parkit-backend/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Reserve(ctx context.Context, locationID, intentID string) error {
	args := m.Called(ctx, locationID, intentID)
	return args.Error(0)
}
func (m *MockLedger) Release(ctx context.Context, locationID, intentID string) error {
	args := m.Called(ctx, locationID, intentID)
	return args.Error(0)
}
func (m *MockLedger) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyLocation, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.NearbyLocation), args.Error(1)
}

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}
func (m *MockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// callers mutate the order they load
	o := *args.Get(0).(*domain.Order)
	return &o, args.Error(1)
}
func (m *MockOrderRepo) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus, expectedPayment domain.PaymentStatus) error {
	args := m.Called(ctx, order, expected, expectedPayment)
	return args.Error(0)
}
func (m *MockOrderRepo) HasOverlap(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	args := m.Called(ctx, vehicleID, start, end)
	return args.Bool(0), args.Error(1)
}
func (m *MockOrderRepo) ListElapsed(ctx context.Context, now time.Time, skip []string, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, now, skip, limit)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type MockIntentRepo struct {
	mock.Mock
}

func (m *MockIntentRepo) Create(ctx context.Context, intent *domain.CapacityIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}
func (m *MockIntentRepo) GetByID(ctx context.Context, id string) (*domain.CapacityIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityIntent), args.Error(1)
}
func (m *MockIntentRepo) Transition(ctx context.Context, id string, from, to domain.IntentStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *MockIntentRepo) ListStale(ctx context.Context, status domain.IntentStatus, olderThan time.Time, limit int) ([]domain.CapacityIntent, error) {
	args := m.Called(ctx, status, olderThan, limit)
	return args.Get(0).([]domain.CapacityIntent), args.Error(1)
}
func (m *MockIntentRepo) ListUnreleasedCancelled(ctx context.Context, limit int) ([]domain.CapacityIntent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.CapacityIntent), args.Error(1)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, record *domain.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}
func (m *MockPaymentRepo) GetOpenByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}
func (m *MockPaymentRepo) Settle(ctx context.Context, record *domain.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, vehicleID string) (func(), error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.GatewayOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayOrder), args.Error(1)
}
func (m *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*payment.PaymentDetails, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentDetails), args.Error(1)
}
func (m *MockGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	args := m.Called(gatewayOrderID, gatewayPaymentID, signature)
	return args.Bool(0)
}
func (m *MockGateway) KeyID() string { return "key_test" }

// recordingPublisher keeps published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
