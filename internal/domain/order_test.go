package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextState_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		current OrderStatus
		event   OrderEvent
		role    ActorRole
		payment PaymentStatus
		to      OrderStatus
		release bool
		paid    bool
	}{
		{"payment moves created to pending approval", OrderStatusCreated, EventPaymentConfirmed, RoleSystem, PaymentStatusPending, OrderStatusPendingApproval, false, true},
		{"payment after owner approval keeps confirmed", OrderStatusConfirmed, EventPaymentConfirmed, RoleSystem, PaymentStatusPending, OrderStatusConfirmed, false, true},
		{"owner approves created", OrderStatusCreated, EventApprove, RoleOwner, PaymentStatusPending, OrderStatusConfirmed, false, false},
		{"owner approves pending approval", OrderStatusPendingApproval, EventApprove, RoleOwner, PaymentStatusCompleted, OrderStatusConfirmed, false, false},
		{"reserver re-affirms created", OrderStatusCreated, EventApprove, RoleReserver, PaymentStatusPending, OrderStatusPendingApproval, false, false},
		{"reserver re-affirms pending approval", OrderStatusPendingApproval, EventApprove, RoleReserver, PaymentStatusPending, OrderStatusPendingApproval, false, false},
		{"owner declines created", OrderStatusCreated, EventDecline, RoleOwner, PaymentStatusPending, OrderStatusCancelled, true, false},
		{"owner declines pending approval", OrderStatusPendingApproval, EventDecline, RoleOwner, PaymentStatusCompleted, OrderStatusCancelled, true, false},
		{"reserver cancels confirmed", OrderStatusConfirmed, EventCancel, RoleReserver, PaymentStatusCompleted, OrderStatusCancelled, true, false},
		{"owner cancels created", OrderStatusCreated, EventCancel, RoleOwner, PaymentStatusPending, OrderStatusCancelled, true, false},
		{"clock completes confirmed", OrderStatusConfirmed, EventElapse, RoleSystem, PaymentStatusCompleted, OrderStatusCompleted, false, false},
		{"clock completes created", OrderStatusCreated, EventElapse, RoleSystem, PaymentStatusPending, OrderStatusCompleted, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NextState(tt.current, tt.event, tt.role, tt.payment)
			require.NoError(t, err)
			assert.Equal(t, tt.current, tr.From)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.release, tr.ReleaseCapacity)
			assert.Equal(t, tt.paid, tr.CompletePayment)
		})
	}
}

func TestNextState_ApprovalOnlyFromCreatedOrPending(t *testing.T) {
	for _, current := range []OrderStatus{OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled} {
		for _, event := range []OrderEvent{EventApprove, EventDecline} {
			_, err := NextState(current, event, RoleOwner, PaymentStatusPending)
			require.Error(t, err)

			var stateErr *StateError
			require.True(t, errors.As(err, &stateErr))
			assert.Equal(t, current, stateErr.Current)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, ClassState, Classify(err))
		}
	}
}

func TestNextState_RoleRestrictions(t *testing.T) {
	t.Run("Other cannot approve", func(t *testing.T) {
		_, err := NextState(OrderStatusCreated, EventApprove, RoleOther, PaymentStatusPending)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Reserver cannot decline", func(t *testing.T) {
		_, err := NextState(OrderStatusCreated, EventDecline, RoleReserver, PaymentStatusPending)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Other cannot cancel", func(t *testing.T) {
		_, err := NextState(OrderStatusConfirmed, EventCancel, RoleOther, PaymentStatusPending)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Only gateway confirms payment", func(t *testing.T) {
		_, err := NextState(OrderStatusCreated, EventPaymentConfirmed, RoleReserver, PaymentStatusPending)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestNextState_TerminalStatesRejectEverything(t *testing.T) {
	events := []OrderEvent{EventPaymentConfirmed, EventApprove, EventDecline, EventCancel, EventElapse}
	for _, current := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		for _, event := range events {
			role := RoleOwner
			if event == EventPaymentConfirmed || event == EventElapse {
				role = RoleSystem
			}
			_, err := NextState(current, event, role, PaymentStatusPending)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s/%s", current, event)
		}
	}
}

func TestNextState_DoublePaymentIsStateError(t *testing.T) {
	_, err := NextState(OrderStatusPendingApproval, EventPaymentConfirmed, RoleSystem, PaymentStatusCompleted)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, ClassState, Classify(err))
}

func TestNextState_UnknownStatus(t *testing.T) {
	_, err := NextState(OrderStatus("approved"), EventApprove, RoleOwner, PaymentStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolveRole(t *testing.T) {
	assert.Equal(t, RoleOwner, ResolveRole("o", "u", "o"))
	assert.Equal(t, RoleReserver, ResolveRole("u", "u", "o"))
	assert.Equal(t, RoleOther, ResolveRole("x", "u", "o"))
	assert.Equal(t, RoleOwner, ResolveRole("o", "o", "o"))
	assert.Equal(t, RoleOther, ResolveRole("", "", ""))
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h-10) * time.Hour) }

	assert.True(t, Overlaps(at(10), at(12), at(11), at(13)))
	assert.True(t, Overlaps(at(10), at(14), at(11), at(12)))
	assert.False(t, Overlaps(at(10), at(12), at(12), at(14)), "half-open intervals touching at the edge")
	assert.False(t, Overlaps(at(12), at(14), at(10), at(12)))
}

func TestOrder_RemainingTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := &Order{EndTime: now.Add(2*time.Hour + 35*time.Minute + 20*time.Second)}

	assert.Equal(t, RemainingTime{Hours: 2, Minutes: 35}, o.RemainingTime(now))
	assert.Equal(t, RemainingTime{Expired: true}, o.RemainingTime(now.Add(3*time.Hour)))
}

func TestNormalizeVehicleID(t *testing.T) {
	assert.Equal(t, "KA01AB1234", NormalizeVehicleID("ka01 ab-1234"))
	assert.Equal(t, "KA01AB1234", NormalizeVehicleID("KA01AB1234"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassConflict, Classify(ErrCapacityExhausted))
	assert.Equal(t, ClassConflict, Classify(ErrVehicleDoubleBooked))
	assert.Equal(t, ClassValidation, Classify(ErrInvalidTimeRange))
	assert.Equal(t, ClassSecurity, Classify(ErrInvalidSignature))
	assert.Equal(t, ClassExternal, Classify(ErrGatewayUnavailable))
	assert.Equal(t, ClassIntegrity, Classify(ErrReleaseFailed))
	assert.Equal(t, ClassInternal, Classify(errors.New("boom")))
	assert.Equal(t, ErrorClass(""), Classify(nil))
}

func TestLocation_AcceptsIgnoresCase(t *testing.T) {
	loc := Location{AcceptedCategories: []VehicleCategory{"Car", "suv"}}

	assert.True(t, loc.Accepts(VehicleCategoryCar))
	assert.True(t, loc.Accepts("SUV"))
	assert.True(t, loc.Accepts(" car "))
	assert.False(t, loc.Accepts(VehicleCategoryBike))
	assert.Equal(t, VehicleCategoryVan, NormalizeCategory(" Van"))
}
