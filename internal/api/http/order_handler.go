package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/service"

	"github.com/gorilla/mux"
)

const maxBodyBytes = int64(1 << 16)

type OrderHandler struct {
	booking  service.BookingService
	payments service.PaymentService
}

func NewOrderHandler(booking service.BookingService, payments service.PaymentService) *OrderHandler {
	return &OrderHandler{booking: booking, payments: payments}
}

type createOrderRequest struct {
	LocationID      string `json:"location_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	VehicleCategory string `json:"vehicle_category"`
	VehicleID       string `json:"vehicle_id"`
	Amount          *int64 `json:"amount,omitempty"`
}

type decisionRequest struct {
	Approve *bool `json:"approve"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrMissingField, err)
	}
	return nil
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromContext(r.Context())
	var body createOrderRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.booking.CreateReservation(r.Context(), service.CreateReservationRequest{
		UserID:          actor,
		LocationID:      body.LocationID,
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		VehicleCategory: body.VehicleCategory,
		VehicleID:       body.VehicleID,
		Amount:          body.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromContext(r.Context())
	view, err := h.booking.GetOrder(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) Decision(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromContext(r.Context())
	var body decisionRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Approve == nil {
		writeError(w, r, fmt.Errorf("%w: approve", domain.ErrMissingField))
		return
	}

	order, err := h.booking.ApplyApprovalDecision(r.Context(), mux.Vars(r)["id"], actor, *body.Approve)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromContext(r.Context())
	order, err := h.booking.CancelOrder(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromContext(r.Context())
	init, err := h.payments.InitializePayment(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, init)
}
