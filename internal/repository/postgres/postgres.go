package postgres

import (
	"database/sql"
	"errors"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/repository"

	"github.com/lib/pq"
)

// Store groups the repositories that share one connection pool. The vehicle
// locker is built separately with NewAdvisoryLocker on its own pool.
type Store struct {
	repository.UserRepository
	repository.LocationRepository
	repository.CapacityLedger
	repository.OrderRepository
	repository.PaymentRepository
	repository.IntentRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		UserRepository:     NewUserRepository(db),
		LocationRepository: NewLocationRepository(db),
		CapacityLedger:     NewCapacityLedger(db),
		OrderRepository:    NewOrderRepository(db),
		PaymentRepository:  NewPaymentRepository(db),
		IntentRepository:   NewIntentRepository(db),
	}
}

// notFound converts sql.ErrNoRows into domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// exclusion_violation raised by the order_vehicle_no_overlap constraint
const pqExclusionViolation = "23P01"

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqExclusionViolation
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
