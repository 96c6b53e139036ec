package service

import (
	"context"
	"errors"
	"fmt"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/events"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/metrics"
)

// maxTransitionAttempts bounds the reload-and-retry loop when another
// request updated the order between our read and our compare-and-set.
const maxTransitionAttempts = 3

// engine drives orders through the state machine. It is the only place that
// persists order transitions and releases capacity for them.
type engine struct {
	repos     Repositories
	publisher events.Publisher
	opts      Options
}

func newEngine(repos Repositories, publisher events.Publisher, opts Options) *engine {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &engine{repos: repos, publisher: publisher, opts: opts.withDefaults()}
}

type roleFunc func(o *domain.Order) (domain.ActorRole, error)

// transition loads the order, applies event as the resolved role and
// persists the result with a compare-and-set on the previous status. mutate,
// if set, runs after the state change and before persisting.
func (e *engine) transition(ctx context.Context, orderID string, event domain.OrderEvent, role roleFunc, mutate func(*domain.Order)) (*domain.Order, domain.Transition, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		o, err := e.repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, domain.Transition{}, err
		}
		r, err := role(o)
		if err != nil {
			return nil, domain.Transition{}, err
		}
		tr, err := domain.NextState(o.Status, event, r, o.PaymentStatus)
		if err != nil {
			return o, tr, err
		}

		prevStatus, prevPayment := o.Status, o.PaymentStatus
		o.Apply(tr)
		if mutate != nil {
			mutate(o)
		}
		err = e.repos.Orders.UpdateStatus(ctx, o, prevStatus, prevPayment)
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			logger.Debug("Order changed concurrently, retrying transition", "order_id", orderID, "event", event, "attempt", attempt+1)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, tr, err
		}

		log := logger.WithOrder(o.ID, o.LocationID)
		log.Info("Order transitioned", "event", event, "role", r.String(), "from", tr.From, "to", tr.To)
		metrics.Booking().ObserveTransition(string(event), string(tr.To))

		if tr.ReleaseCapacity {
			e.releaseCapacity(ctx, o)
		}
		if t, ok := events.ForTransition(tr); ok {
			e.publish(ctx, t, o)
		}
		return o, tr, nil
	}
	return nil, domain.Transition{}, lastErr
}

// releaseCapacity returns the order's spot. The ledger's intent guard makes
// a repeated release a no-op; a failed release leaves the intent committed
// for the sweep to retry.
func (e *engine) releaseCapacity(ctx context.Context, o *domain.Order) {
	err := e.repos.Ledger.Release(ctx, o.LocationID, o.CapacityIntentID)
	if err == nil {
		return
	}
	logger.Warn("Capacity release failed, retrying once", "order_id", o.ID, "error", err)
	if err = e.repos.Ledger.Release(ctx, o.LocationID, o.CapacityIntentID); err == nil {
		return
	}
	metrics.Booking().ReleaseFailed()
	logger.IntegrityIncident(ctx, "capacity_release_failed", fmt.Errorf("%w: %v", domain.ErrReleaseFailed, err),
		"order_id", o.ID, "location_id", o.LocationID, "intent_id", o.CapacityIntentID)
}

func (e *engine) publish(ctx context.Context, t events.Type, o *domain.Order) {
	if err := e.publisher.Publish(ctx, events.ForOrder(t, o)); err != nil {
		logger.Warn("Failed to publish order event", "event", t, "order_id", o.ID, "error", err)
	}
}

// participantRole resolves the actor against the order's reserver and the
// location's owner.
func (e *engine) participantRole(ctx context.Context, actorID string) roleFunc {
	var ownerID string
	return func(o *domain.Order) (domain.ActorRole, error) {
		if ownerID == "" {
			loc, err := e.repos.Locations.GetByID(ctx, o.LocationID)
			if err != nil {
				return domain.RoleOther, err
			}
			ownerID = loc.OwnerID
		}
		return domain.ResolveRole(actorID, o.UserID, ownerID), nil
	}
}

func systemRole(*domain.Order) (domain.ActorRole, error) {
	return domain.RoleSystem, nil
}
