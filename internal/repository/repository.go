package repository

import (
	"context"
	"time"

	"parkit-backend/internal/domain"
)

// UserRepository is the read side of the identity service.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Location, error)
}

// CapacityLedger owns the per-location free-spot counters. Reserve and
// Release are single conditional writes at the storage layer, each paired
// with the capacity intent they settle.
type CapacityLedger interface {
	// Reserve takes one spot if any is free and flips the intent
	// pending -> reserved. Returns domain.ErrCapacityExhausted otherwise.
	Reserve(ctx context.Context, locationID, intentID string) error
	// Release flips the intent reserved|committed -> released and returns the
	// spot. Releasing an already released intent is a no-op.
	Release(ctx context.Context, locationID, intentID string) error
	FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyLocation, error)
}

type OrderRepository interface {
	// Create inserts the order and commits its capacity intent in one unit.
	// Returns domain.ErrIntentLost if the intent is no longer reserved.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatus persists status and payment fields only if the stored
	// status and payment status still equal the expected ones. Returns
	// domain.ErrConcurrentUpdate otherwise.
	UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus, expectedPayment domain.PaymentStatus) error
	// HasOverlap reports whether a non-terminal order for vehicleID intersects [start, end).
	HasOverlap(ctx context.Context, vehicleID string, start, end time.Time) (bool, error)
	// ListElapsed returns active orders ended by now, oldest first, leaving out skip.
	ListElapsed(ctx context.Context, now time.Time, skip []string, limit int) ([]domain.Order, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, record *domain.PaymentRecord) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentRecord, error)
	// GetOpenByOrderID returns the latest record for the order that has not failed.
	GetOpenByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error)
	// Settle records the gateway outcome if the record is still in the created state.
	Settle(ctx context.Context, record *domain.PaymentRecord) error
}

type IntentRepository interface {
	Create(ctx context.Context, intent *domain.CapacityIntent) error
	GetByID(ctx context.Context, id string) (*domain.CapacityIntent, error)
	// Transition moves an intent from one status to another, returning false
	// if the intent was not in the from status.
	Transition(ctx context.Context, id string, from, to domain.IntentStatus) (bool, error)
	ListStale(ctx context.Context, status domain.IntentStatus, olderThan time.Time, limit int) ([]domain.CapacityIntent, error)
	// ListUnreleasedCancelled returns committed intents whose order is cancelled.
	ListUnreleasedCancelled(ctx context.Context, limit int) ([]domain.CapacityIntent, error)
}

// VehicleLocker serialises reservation attempts for one vehicle so the
// overlap check and the order insert cannot interleave with another request.
type VehicleLocker interface {
	Lock(ctx context.Context, vehicleID string) (unlock func(), err error)
}
