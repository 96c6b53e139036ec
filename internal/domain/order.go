package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "created"
	OrderStatusPendingApproval OrderStatus = "pendingApproval"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// Valid reports whether s is one of the closed set of order states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPendingApproval, OrderStatusConfirmed,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are accepted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ActiveOrderStatuses are the non-terminal states considered by conflict detection.
func ActiveOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusCreated, OrderStatusPendingApproval, OrderStatusConfirmed}
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type OrderEvent string

const (
	EventPaymentConfirmed OrderEvent = "payment_confirmed"
	EventApprove          OrderEvent = "approve"
	EventDecline          OrderEvent = "decline"
	EventCancel           OrderEvent = "cancel"
	EventElapse           OrderEvent = "elapse"
)

// ActorRole is the actor's relation to an order. Approval outcomes dispatch on it.
type ActorRole int

const (
	RoleOther ActorRole = iota
	RoleOwner
	RoleReserver
	RoleSystem
)

func (r ActorRole) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleReserver:
		return "reserver"
	case RoleSystem:
		return "system"
	default:
		return "other"
	}
}

// ResolveRole determines how actorID relates to an order. The location owner
// wins when the owner also made the reservation.
func ResolveRole(actorID, reserverID, ownerID string) ActorRole {
	switch {
	case actorID == "":
		return RoleOther
	case actorID == ownerID:
		return RoleOwner
	case actorID == reserverID:
		return RoleReserver
	default:
		return RoleOther
	}
}

// Transition is the outcome of applying an event to an order.
type Transition struct {
	From            OrderStatus
	To              OrderStatus
	Event           OrderEvent
	ReleaseCapacity bool
	CompletePayment bool
}

// NextState is the booking state machine. Every (state, event, role)
// combination not listed in the transition table is rejected.
func NextState(current OrderStatus, event OrderEvent, role ActorRole, payment PaymentStatus) (Transition, error) {
	t := Transition{From: current, To: current, Event: event}
	if !current.Valid() {
		return t, &StateError{Current: current, Event: event, Err: ErrInvalidTransition}
	}
	reject := func(err error) (Transition, error) {
		return t, &StateError{Current: current, Event: event, Err: err}
	}

	switch event {
	case EventPaymentConfirmed:
		if role != RoleSystem {
			return t, ErrForbidden
		}
		switch current {
		case OrderStatusCreated:
			t.To = OrderStatusPendingApproval
			t.CompletePayment = true
			return t, nil
		case OrderStatusPendingApproval, OrderStatusConfirmed:
			if payment == PaymentStatusCompleted {
				return reject(ErrAlreadyPaid)
			}
			t.CompletePayment = true
			return t, nil
		default:
			return reject(ErrInvalidTransition)
		}

	case EventApprove, EventDecline:
		if current != OrderStatusCreated && current != OrderStatusPendingApproval {
			return reject(ErrInvalidTransition)
		}
		switch role {
		case RoleOwner:
			if event == EventApprove {
				t.To = OrderStatusConfirmed
			} else {
				t.To = OrderStatusCancelled
				t.ReleaseCapacity = true
			}
			return t, nil
		case RoleReserver:
			if event == EventApprove {
				// payer re-affirmation; owner approval is still required
				t.To = OrderStatusPendingApproval
				return t, nil
			}
			return t, ErrForbidden
		default:
			return t, ErrForbidden
		}

	case EventCancel:
		if current.Terminal() {
			return reject(ErrInvalidTransition)
		}
		if role != RoleOwner && role != RoleReserver {
			return t, ErrForbidden
		}
		t.To = OrderStatusCancelled
		t.ReleaseCapacity = true
		return t, nil

	case EventElapse:
		if current.Terminal() {
			return reject(ErrInvalidTransition)
		}
		if role != RoleSystem {
			return t, ErrForbidden
		}
		// capacity stays consumed for the reserved duration
		t.To = OrderStatusCompleted
		return t, nil
	}
	return reject(ErrInvalidTransition)
}

// Order is a single reservation against a Location over [StartTime, EndTime).
type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	LocationID       string          `json:"location_id"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	VehicleCategory  VehicleCategory `json:"vehicle_category"`
	VehicleID        string          `json:"vehicle_id"`
	Amount           int64           `json:"amount"`
	Status           OrderStatus     `json:"status"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentRecordID  *string         `json:"payment_record_id,omitempty"`
	CapacityIntentID string          `json:"-"`
	CreatedOn        time.Time       `json:"created_on"`
	UpdatedOn        time.Time       `json:"updated_on"`
}

// Apply moves the order to the transition's target state.
func (o *Order) Apply(t Transition) {
	o.Status = t.To
	if t.CompletePayment {
		o.PaymentStatus = PaymentStatusCompleted
	}
}

// RemainingTime is the time left in an order's window, floored at zero.
type RemainingTime struct {
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Expired bool `json:"expired"`
}

func (o *Order) RemainingTime(now time.Time) RemainingTime {
	left := o.EndTime.Sub(now)
	if left <= 0 {
		return RemainingTime{Expired: true}
	}
	return RemainingTime{
		Hours:   int(left / time.Hour),
		Minutes: int((left % time.Hour) / time.Minute),
	}
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// NormalizeVehicleID canonicalises a free-text plate so that spacing and
// case differences do not defeat conflict detection.
func NormalizeVehicleID(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if r == ' ' || r == '-' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
