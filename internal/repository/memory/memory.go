// Package memory is an in-process implementation of the repository
// interfaces for local development and tests. A single mutex stands in for
// the row locks and transactions the Postgres store relies on.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository"
	"parkit-backend/internal/utils"
)

type state struct {
	mu        sync.Mutex
	users     map[string]domain.User
	locations map[string]domain.Location
	orders    map[string]domain.Order
	payments  map[string]domain.PaymentRecord
	intents   map[string]domain.CapacityIntent
	now       func() time.Time

	locks *keyedMutex
}

type (
	userStore     struct{ *state }
	locationStore struct{ *state }
	ledgerStore   struct{ *state }
	orderStore    struct{ *state }
	paymentStore  struct{ *state }
	intentStore   struct{ *state }
	lockStore     struct{ *state }
)

// Store mirrors postgres.Store: every repository interface backed by one
// shared in-memory state.
type Store struct {
	*state
	repository.UserRepository
	repository.LocationRepository
	repository.CapacityLedger
	repository.OrderRepository
	repository.PaymentRepository
	repository.IntentRepository
	repository.VehicleLocker
}

func NewStore() *Store {
	st := &state{
		users:     make(map[string]domain.User),
		locations: make(map[string]domain.Location),
		orders:    make(map[string]domain.Order),
		payments:  make(map[string]domain.PaymentRecord),
		intents:   make(map[string]domain.CapacityIntent),
		now:       func() time.Time { return time.Now().UTC() },
		locks:     newKeyedMutex(),
	}
	return &Store{
		state:              st,
		UserRepository:     userStore{st},
		LocationRepository: locationStore{st},
		CapacityLedger:     ledgerStore{st},
		OrderRepository:    orderStore{st},
		PaymentRepository:  paymentStore{st},
		IntentRepository:   intentStore{st},
		VehicleLocker:      lockStore{st},
	}
}

// SetClock overrides the timestamp source used for created/updated fields.
func (s *state) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutUser seeds or replaces a user.
func (s *state) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutLocation seeds or replaces a location.
func (s *state) PutLocation(l domain.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.AcceptedCategories = append([]domain.VehicleCategory(nil), l.AcceptedCategories...)
	s.locations[l.ID] = l
}

// AvailableSpots returns the current counter for a location.
func (s *state) AvailableSpots(locationID string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations[locationID].AvailableSpots
}

// Users

func (s userStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

// Locations and capacity

func (s locationStore) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", id, domain.ErrNotFound)
	}
	l.AcceptedCategories = append([]domain.VehicleCategory(nil), l.AcceptedCategories...)
	return &l, nil
}

func (s ledgerStore) Reserve(ctx context.Context, locationID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[locationID]
	if !ok || !l.Bookable() || l.AvailableSpots <= 0 {
		return domain.ErrCapacityExhausted
	}
	in, ok := s.intents[intentID]
	if !ok || in.LocationID != locationID || in.Status != domain.IntentStatusPending {
		return domain.ErrIntentLost
	}
	l.AvailableSpots--
	s.locations[locationID] = l
	in.Status = domain.IntentStatusReserved
	in.UpdatedOn = s.now()
	s.intents[intentID] = in
	return nil
}

func (s ledgerStore) Release(ctx context.Context, locationID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[intentID]
	if !ok || in.LocationID != locationID {
		return nil
	}
	if in.Status != domain.IntentStatusReserved && in.Status != domain.IntentStatusCommitted {
		return nil
	}
	in.Status = domain.IntentStatusReleased
	in.UpdatedOn = s.now()
	s.intents[intentID] = in
	l, ok := s.locations[locationID]
	if !ok || l.AvailableSpots >= l.TotalSpots {
		logger.IntegrityIncident(ctx, "release_exceeds_total_spots", domain.ErrReleaseFailed,
			"location_id", locationID, "intent_id", intentID)
		return nil
	}
	l.AvailableSpots++
	s.locations[locationID] = l
	return nil
}

func (s ledgerStore) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	var out []domain.NearbyLocation
	for _, l := range s.locations {
		if !l.Bookable() {
			continue
		}
		var distance float64
		if q.HasCoordinate() {
			distance = utils.HaversineMeters(*q.Latitude, *q.Longitude, l.Latitude, l.Longitude)
			if q.MaxDistance > 0 && distance > q.MaxDistance {
				continue
			}
		}
		out = append(out, domain.NearbyLocation{Location: l, Distance: distance})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Orders

func (s orderStore) Create(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[o.CapacityIntentID]
	if !ok || in.Status != domain.IntentStatusReserved {
		return domain.ErrIntentLost
	}
	if s.overlapLocked(o.VehicleID, o.StartTime, o.EndTime) {
		return domain.ErrVehicleDoubleBooked
	}
	now := s.now()
	o.CreatedOn = now
	o.UpdatedOn = now
	s.orders[o.ID] = *o
	in.Status = domain.IntentStatusCommitted
	in.UpdatedOn = now
	s.intents[in.ID] = in
	return nil
}

func (s orderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

func (s orderStore) UpdateStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus, expectedPayment domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrNotFound)
	}
	if cur.Status != expected || cur.PaymentStatus != expectedPayment {
		return domain.ErrConcurrentUpdate
	}
	o.UpdatedOn = s.now()
	cur.Status = o.Status
	cur.PaymentStatus = o.PaymentStatus
	cur.PaymentRecordID = o.PaymentRecordID
	cur.UpdatedOn = o.UpdatedOn
	s.orders[o.ID] = cur
	return nil
}

func (s orderStore) HasOverlap(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlapLocked(vehicleID, start, end), nil
}

func (s *state) overlapLocked(vehicleID string, start, end time.Time) bool {
	for _, o := range s.orders {
		if o.VehicleID == vehicleID && !o.Status.Terminal() && domain.Overlaps(o.StartTime, o.EndTime, start, end) {
			return true
		}
	}
	return false
}

func (s orderStore) ListElapsed(ctx context.Context, now time.Time, skip []string, limit int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skipped := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipped[id] = true
	}
	var out []domain.Order
	for _, o := range s.orders {
		if !o.Status.Terminal() && !o.EndTime.After(now) && !skipped[o.ID] {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].EndTime.Before(out[j].EndTime)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Payments

func (s paymentStore) Create(ctx context.Context, p *domain.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.GatewayOrderID == p.GatewayOrderID {
			return fmt.Errorf("duplicate gateway order %s", p.GatewayOrderID)
		}
		if existing.OrderID == p.OrderID && existing.Status != domain.PaymentRecordFailed {
			return fmt.Errorf("order %s already has an open payment", p.OrderID)
		}
	}
	now := s.now()
	p.CreatedOn = now
	p.UpdatedOn = now
	s.payments[p.ID] = *p
	return nil
}

func (s paymentStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.GatewayOrderID == gatewayOrderID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("payment for gateway order %s: %w", gatewayOrderID, domain.ErrNotFound)
}

func (s paymentStore) GetOpenByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.PaymentRecord
	for _, p := range s.payments {
		if p.OrderID != orderID || p.Status == domain.PaymentRecordFailed {
			continue
		}
		if found == nil || p.CreatedOn.After(found.CreatedOn) {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("payment for order %s: %w", orderID, domain.ErrNotFound)
	}
	return found, nil
}

func (s paymentStore) Settle(ctx context.Context, p *domain.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.payments[p.ID]
	if !ok {
		return fmt.Errorf("payment %s: %w", p.ID, domain.ErrNotFound)
	}
	if cur.Status != domain.PaymentRecordCreated && cur.Status != domain.PaymentRecordAuthorized {
		return domain.ErrConcurrentUpdate
	}
	p.UpdatedOn = s.now()
	cur.Status = p.Status
	cur.GatewayPaymentID = p.GatewayPaymentID
	cur.Method = p.Method
	cur.UpdatedOn = p.UpdatedOn
	s.payments[p.ID] = cur
	return nil
}

// Capacity intents

func (s intentStore) Create(ctx context.Context, in *domain.CapacityIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	in.CreatedOn = now
	in.UpdatedOn = now
	s.intents[in.ID] = *in
	return nil
}

func (s intentStore) GetByID(ctx context.Context, id string) (*domain.CapacityIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[id]
	if !ok {
		return nil, fmt.Errorf("capacity intent %s: %w", id, domain.ErrNotFound)
	}
	return &in, nil
}

func (s intentStore) Transition(ctx context.Context, id string, from, to domain.IntentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[id]
	if !ok || in.Status != from {
		return false, nil
	}
	in.Status = to
	in.UpdatedOn = s.now()
	s.intents[id] = in
	return true, nil
}

func (s intentStore) ListStale(ctx context.Context, status domain.IntentStatus, olderThan time.Time, limit int) ([]domain.CapacityIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CapacityIntent
	for _, in := range s.intents {
		if in.Status == status && in.UpdatedOn.Before(olderThan) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedOn.Before(out[j].UpdatedOn) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s intentStore) ListUnreleasedCancelled(ctx context.Context, limit int) ([]domain.CapacityIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CapacityIntent
	for _, o := range s.orders {
		if o.Status != domain.OrderStatusCancelled {
			continue
		}
		if in, ok := s.intents[o.CapacityIntentID]; ok && in.Status == domain.IntentStatusCommitted {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Vehicle locks

func (s lockStore) Lock(ctx context.Context, vehicleID string) (func(), error) {
	return s.locks.lock(ctx, vehicleID)
}
