package service

import (
	"context"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/repository"
)

// CreateReservationRequest carries raw client input. Times are RFC 3339
// strings so that parse failures surface as validation errors in order.
type CreateReservationRequest struct {
	UserID          string `json:"user_id"`
	LocationID      string `json:"location_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	VehicleCategory string `json:"vehicle_category"`
	VehicleID       string `json:"vehicle_id"`
	Amount          *int64 `json:"amount,omitempty"`
}

// OrderView is the read model returned to clients.
type OrderView struct {
	*domain.Order
	RemainingTime domain.RemainingTime `json:"remaining_time"`
}

type BookingService interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*domain.Order, error)
	ApplyApprovalDecision(ctx context.Context, orderID, actorID string, approve bool) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, actorID string) (*OrderView, error)
	CompleteElapsedOrders(ctx context.Context, now time.Time, skip []string, limit int) (domain.ElapseReport, error)
	SweepCapacityIntents(ctx context.Context, olderThan time.Time, limit int) (domain.SweepReport, error)
}

type PaymentService interface {
	InitializePayment(ctx context.Context, orderID, actorID string) (*domain.PaymentInit, error)
	ReconcilePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Order, error)
}

type LocationService interface {
	FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyLocation, error)
}

// Repositories groups the storage collaborators of the booking engine.
type Repositories struct {
	Users     repository.UserRepository
	Locations repository.LocationRepository
	Ledger    repository.CapacityLedger
	Orders    repository.OrderRepository
	Payments  repository.PaymentRepository
	Intents   repository.IntentRepository
	Locker    repository.VehicleLocker
}

type Options struct {
	Currency       string
	GatewayTimeout time.Duration
	LockTimeout    time.Duration
	// ReservationTimeout bounds the storage work done under a vehicle lock.
	ReservationTimeout time.Duration
	Now                func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = "INR"
	}
	if o.GatewayTimeout <= 0 {
		o.GatewayTimeout = 10 * time.Second
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 5 * time.Second
	}
	if o.ReservationTimeout <= 0 {
		o.ReservationTimeout = 15 * time.Second
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}
