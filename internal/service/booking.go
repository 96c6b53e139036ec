package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/events"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/metrics"
	"parkit-backend/internal/utils"

	"github.com/google/uuid"
)

type bookingService struct {
	*engine
}

func NewBookingService(repos Repositories, publisher events.Publisher, opts Options) BookingService {
	return &bookingService{engine: newEngine(repos, publisher, opts)}
}

type reservationInput struct {
	start, end time.Time
	category   domain.VehicleCategory
	vehicleID  string
}

// validateRequest covers the input-only checks: required fields, time
// parsing, identifier shape and the effective window.
func (s *bookingService) validateRequest(req CreateReservationRequest, now time.Time) (reservationInput, error) {
	var in reservationInput
	required := map[string]string{
		"user_id":          req.UserID,
		"location_id":      req.LocationID,
		"start_time":       req.StartTime,
		"end_time":         req.EndTime,
		"vehicle_category": req.VehicleCategory,
		"vehicle_id":       req.VehicleID,
	}
	for _, field := range []string{"user_id", "location_id", "start_time", "end_time", "vehicle_category", "vehicle_id"} {
		if strings.TrimSpace(required[field]) == "" {
			return in, fmt.Errorf("%w: %s", domain.ErrMissingField, field)
		}
	}

	start, err := utils.ParseBookingTime(req.StartTime)
	if err != nil {
		return in, fmt.Errorf("%w: start_time: %v", domain.ErrInvalidTime, err)
	}
	end, err := utils.ParseBookingTime(req.EndTime)
	if err != nil {
		return in, fmt.Errorf("%w: end_time: %v", domain.ErrInvalidTime, err)
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		return in, fmt.Errorf("%w: user_id", domain.ErrInvalidIdentifier)
	}
	if _, err := uuid.Parse(req.LocationID); err != nil {
		return in, fmt.Errorf("%w: location_id", domain.ErrInvalidIdentifier)
	}
	if req.Amount != nil && *req.Amount < 0 {
		return in, domain.ErrInvalidAmount
	}

	vehicleID := domain.NormalizeVehicleID(req.VehicleID)
	if vehicleID == "" {
		return in, fmt.Errorf("%w: vehicle_id", domain.ErrMissingField)
	}

	in.start = utils.EffectiveStart(start, now)
	in.end = end
	if !in.end.After(in.start) {
		return in, domain.ErrInvalidTimeRange
	}
	in.category = domain.NormalizeCategory(req.VehicleCategory)
	in.vehicleID = vehicleID
	return in, nil
}

func (s *bookingService) CreateReservation(ctx context.Context, req CreateReservationRequest) (order *domain.Order, err error) {
	logger.EnterMethod("bookingService.CreateReservation", "userID", req.UserID, "locationID", req.LocationID)
	defer func() {
		outcome := "created"
		if err != nil {
			outcome = string(domain.Classify(err))
			logger.ExitMethodWithError("bookingService.CreateReservation", err, "userID", req.UserID)
		} else {
			logger.ExitMethod("bookingService.CreateReservation", "orderID", order.ID)
		}
		metrics.Booking().ObserveReservation(outcome)
	}()

	now := s.opts.Now()
	in, err := s.validateRequest(req, now)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s does not exist", domain.ErrUserNotAllowed, req.UserID)
		}
		return nil, err
	}
	if !user.CanBook() {
		return nil, domain.ErrUserNotAllowed
	}

	loc, err := s.repos.Locations.GetByID(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: location %s does not exist", domain.ErrLocationNotBookable, req.LocationID)
		}
		return nil, err
	}
	if !loc.Bookable() {
		return nil, domain.ErrLocationNotBookable
	}
	if !loc.Accepts(in.category) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotAccepted, in.category)
	}

	// the vehicle lock spans the overlap check and the insert
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	unlock, err := s.repos.Locker.Lock(lockCtx, in.vehicleID)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: vehicle lock busy", domain.ErrConcurrentUpdate)
		}
		return nil, fmt.Errorf("acquire vehicle lock: %w", err)
	}
	defer unlock()

	reqCtx := ctx
	ctx, cancelWork := context.WithTimeout(ctx, s.opts.ReservationTimeout)
	defer cancelWork()

	overlap, err := s.repos.Orders.HasOverlap(ctx, in.vehicleID, in.start, in.end)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, domain.ErrVehicleDoubleBooked
	}

	orderID := uuid.NewString()
	intent := &domain.CapacityIntent{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		LocationID: loc.ID,
		Status:     domain.IntentStatusPending,
	}
	if err := s.repos.Intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("record capacity intent: %w", err)
	}
	if err := s.repos.Ledger.Reserve(ctx, loc.ID, intent.ID); err != nil {
		if _, abandonErr := s.repos.Intents.Transition(ctx, intent.ID, domain.IntentStatusPending, domain.IntentStatusAbandoned); abandonErr != nil {
			logger.Warn("Failed to abandon capacity intent, sweep will retry", "intent_id", intent.ID, "error", abandonErr)
		}
		return nil, err
	}

	var amount int64
	if req.Amount != nil {
		amount = *req.Amount
	} else {
		amount = utils.CalculateBookingCost(in.start, in.end, loc.HourlyRate, loc.DailyRate).TotalCost
	}

	order = &domain.Order{
		ID:               orderID,
		UserID:           user.ID,
		LocationID:       loc.ID,
		StartTime:        in.start,
		EndTime:          in.end,
		VehicleCategory:  in.category,
		VehicleID:        in.vehicleID,
		Amount:           amount,
		Status:           domain.OrderStatusCreated,
		PaymentStatus:    domain.PaymentStatusPending,
		CapacityIntentID: intent.ID,
	}
	if err := s.repos.Orders.Create(ctx, order); err != nil {
		return nil, s.compensate(reqCtx, loc.ID, intent.ID, err)
	}

	logger.WithOrder(order.ID, loc.ID).Info("Reservation created", "vehicle_id", order.VehicleID, "amount", order.Amount,
		"start", order.StartTime, "end", order.EndTime)
	s.publish(reqCtx, events.OrderCreated, order)
	return order, nil
}

// compensate returns the spot reserved for a request whose order insert failed.
func (s *bookingService) compensate(ctx context.Context, locationID, intentID string, cause error) error {
	// the reservation deadline may be what failed the insert
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ReservationTimeout)
	defer cancel()
	relErr := s.repos.Ledger.Release(ctx, locationID, intentID)
	if relErr == nil {
		return cause
	}
	metrics.Booking().ReleaseFailed()
	logger.IntegrityIncident(ctx, "compensating_release_failed", relErr, "location_id", locationID, "intent_id", intentID, "cause", cause)
	return errors.Join(cause, fmt.Errorf("%w: %v", domain.ErrReleaseFailed, relErr))
}

func (s *bookingService) ApplyApprovalDecision(ctx context.Context, orderID, actorID string, approve bool) (*domain.Order, error) {
	event := domain.EventDecline
	if approve {
		event = domain.EventApprove
	}
	o, _, err := s.transition(ctx, orderID, event, s.participantRole(ctx, actorID), nil)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *bookingService) CancelOrder(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	o, _, err := s.transition(ctx, orderID, domain.EventCancel, s.participantRole(ctx, actorID), nil)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *bookingService) GetOrder(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	o, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	role, err := s.participantRole(ctx, actorID)(o)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleOwner && role != domain.RoleReserver {
		return nil, domain.ErrForbidden
	}
	return &OrderView{Order: o, RemainingTime: o.RemainingTime(s.opts.Now())}, nil
}

// CompleteElapsedOrders moves non-terminal orders whose window has ended to
// completed. Capacity stays consumed. Orders in skip are not considered.
func (s *bookingService) CompleteElapsedOrders(ctx context.Context, now time.Time, skip []string, limit int) (domain.ElapseReport, error) {
	var report domain.ElapseReport
	orders, err := s.repos.Orders.ListElapsed(ctx, now, skip, limit)
	if err != nil {
		return report, err
	}
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, _, err := s.transition(ctx, o.ID, domain.EventElapse, systemRole, nil); err != nil {
			logger.Warn("Failed to complete elapsed order", "order_id", o.ID, "error", err)
			report.FailedIDs = append(report.FailedIDs, o.ID)
			continue
		}
		report.Completed++
	}
	return report, nil
}

// SweepCapacityIntents repairs intents left behind by crashed or failed
// requests: stale pending intents are abandoned, stale reserved intents
// (reserve succeeded, order never written) are released, and committed
// intents of cancelled orders get their failed release retried.
func (s *bookingService) SweepCapacityIntents(ctx context.Context, olderThan time.Time, limit int) (domain.SweepReport, error) {
	var report domain.SweepReport

	pending, err := s.repos.Intents.ListStale(ctx, domain.IntentStatusPending, olderThan, limit)
	if err != nil {
		return report, err
	}
	for _, in := range pending {
		ok, err := s.repos.Intents.Transition(ctx, in.ID, domain.IntentStatusPending, domain.IntentStatusAbandoned)
		if err != nil {
			report.Failed++
			logger.Warn("Failed to abandon stale intent", "intent_id", in.ID, "error", err)
			continue
		}
		if ok {
			report.Abandoned++
		}
	}

	reserved, err := s.repos.Intents.ListStale(ctx, domain.IntentStatusReserved, olderThan, limit)
	if err != nil {
		return report, err
	}
	cancelled, err := s.repos.Intents.ListUnreleasedCancelled(ctx, limit)
	if err != nil {
		return report, err
	}
	for _, in := range append(reserved, cancelled...) {
		if err := s.repos.Ledger.Release(ctx, in.LocationID, in.ID); err != nil {
			report.Failed++
			logger.IntegrityIncident(ctx, "sweep_release_failed", err, "intent_id", in.ID, "location_id", in.LocationID, "order_id", in.OrderID)
			continue
		}
		report.Released++
	}

	metrics.Booking().ObserveSweep(report.Abandoned, report.Released, report.Failed)
	if report.Abandoned+report.Released+report.Failed > 0 {
		logger.Info("Capacity intent sweep finished", "abandoned", report.Abandoned, "released", report.Released, "failed", report.Failed)
	}
	return report, nil
}
