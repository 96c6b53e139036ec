package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/events"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/metrics"
	"parkit-backend/internal/payment"

	"github.com/google/uuid"
)

type paymentService struct {
	*engine
	gateway payment.Gateway
}

func NewPaymentService(repos Repositories, gateway payment.Gateway, publisher events.Publisher, opts Options) PaymentService {
	return &paymentService{engine: newEngine(repos, publisher, opts), gateway: gateway}
}

// InitializePayment registers the order with the gateway and returns what
// the client needs to open checkout. An open record is reused instead of
// creating a second gateway order.
func (s *paymentService) InitializePayment(ctx context.Context, orderID, actorID string) (*domain.PaymentInit, error) {
	o, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actorID {
		return nil, domain.ErrForbidden
	}
	if o.Status.Terminal() {
		return nil, &domain.StateError{Current: o.Status, Event: domain.EventPaymentConfirmed, Err: domain.ErrInvalidTransition}
	}
	if o.PaymentStatus == domain.PaymentStatusCompleted {
		return nil, &domain.StateError{Current: o.Status, Event: domain.EventPaymentConfirmed, Err: domain.ErrAlreadyPaid}
	}

	existing, err := s.repos.Payments.GetOpenByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		return &domain.PaymentInit{GatewayOrderID: existing.GatewayOrderID, Amount: existing.Amount, Currency: existing.Currency, KeyID: s.gateway.KeyID()}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	notes := map[string]string{"order_id": o.ID, "location_id": o.LocationID}
	gctx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	defer cancel()
	start := time.Now()
	gw, err := s.gateway.CreateOrder(gctx, payment.CreateOrderRequest{
		Amount:   o.Amount,
		Currency: s.opts.Currency,
		Receipt:  o.ID,
		Notes:    notes,
	})
	metrics.Booking().ObserveGateway("create_order", time.Since(start), err)
	if err != nil {
		return nil, asGatewayError(err)
	}

	record := &domain.PaymentRecord{
		ID:             uuid.NewString(),
		OrderID:        o.ID,
		GatewayOrderID: gw.ID,
		Amount:         gw.Amount,
		Currency:       gw.Currency,
		Status:         domain.PaymentRecordCreated,
		Notes:          notes,
	}
	if err := s.repos.Payments.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store payment record: %w", err)
	}

	o.PaymentRecordID = &record.ID
	if err := s.repos.Orders.UpdateStatus(ctx, o, o.Status, o.PaymentStatus); err != nil {
		// the record is still found through its gateway order id on reconcile
		logger.Warn("Failed to link payment record to order", "order_id", o.ID, "payment_record_id", record.ID, "error", err)
	}

	logger.WithOrder(o.ID, o.LocationID).Info("Payment initialized", "gateway_order_id", gw.ID, "amount", gw.Amount)
	return &domain.PaymentInit{GatewayOrderID: gw.ID, Amount: gw.Amount, Currency: gw.Currency, KeyID: s.gateway.KeyID()}, nil
}

// ReconcilePayment applies a gateway checkout callback. The signature is
// checked before anything is read or written. Replaying a callback that was
// already applied returns the order unchanged.
func (s *paymentService) ReconcilePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Order, error) {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return nil, fmt.Errorf("%w: gateway order id, payment id and signature are required", domain.ErrMissingField)
	}
	if !s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		metrics.Booking().SignatureFailed()
		logger.SecurityEvent(ctx, "payment_signature_mismatch", "gateway_order_id", gatewayOrderID, "gateway_payment_id", gatewayPaymentID)
		return nil, domain.ErrInvalidSignature
	}

	record, err := s.repos.Payments.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	if !record.Status.Settled() {
		if err := s.settle(ctx, record, gatewayPaymentID); err != nil {
			return nil, err
		}
	}

	switch {
	case record.Status == domain.PaymentRecordFailed:
		return nil, s.markPaymentFailed(ctx, record)
	case record.GatewayPaymentID != nil && *record.GatewayPaymentID != gatewayPaymentID:
		return nil, fmt.Errorf("%w: gateway order %s was settled by another payment", domain.ErrPaymentNotCaptured, gatewayOrderID)
	}

	o, _, err := s.transition(ctx, record.OrderID, domain.EventPaymentConfirmed, systemRole, func(o *domain.Order) {
		o.PaymentRecordID = &record.ID
	})
	if err != nil && o != nil && o.PaymentStatus == domain.PaymentStatusCompleted && domain.Classify(err) == domain.ClassState {
		// replayed callback
		return o, nil
	}
	return o, err
}

// settle asks the gateway for the payment outcome and records it once.
func (s *paymentService) settle(ctx context.Context, record *domain.PaymentRecord, gatewayPaymentID string) error {
	gctx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	defer cancel()
	start := time.Now()
	details, err := s.gateway.FetchPayment(gctx, gatewayPaymentID)
	metrics.Booking().ObserveGateway("fetch_payment", time.Since(start), err)
	if err != nil {
		return asGatewayError(err)
	}

	status := details.RecordStatus()
	if !status.Settled() {
		return fmt.Errorf("%w: gateway reports %q", domain.ErrPaymentNotCaptured, details.Status)
	}

	record.Status = status
	record.GatewayPaymentID = &gatewayPaymentID
	record.Method = details.Method
	if err := s.repos.Payments.Settle(ctx, record); err != nil {
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		// a concurrent callback settled it first
		latest, getErr := s.repos.Payments.GetByGatewayOrderID(ctx, record.GatewayOrderID)
		if getErr != nil {
			return getErr
		}
		*record = *latest
	}
	return nil
}

// markPaymentFailed flags the order so the reserver can start a new payment.
func (s *paymentService) markPaymentFailed(ctx context.Context, record *domain.PaymentRecord) error {
	o, err := s.repos.Orders.GetByID(ctx, record.OrderID)
	if err != nil {
		return err
	}
	if !o.Status.Terminal() && o.PaymentStatus == domain.PaymentStatusPending {
		o.PaymentStatus = domain.PaymentStatusFailed
		if err := s.repos.Orders.UpdateStatus(ctx, o, o.Status, domain.PaymentStatusPending); err != nil && !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
	}
	logger.WithOrder(o.ID, o.LocationID).Warn("Payment failed at gateway", "gateway_order_id", record.GatewayOrderID)
	return fmt.Errorf("%w: payment failed", domain.ErrPaymentNotCaptured)
}

func asGatewayError(err error) error {
	if errors.Is(err, domain.ErrGatewayUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
}
