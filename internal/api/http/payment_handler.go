package http

import (
	"net/http"

	"parkit-backend/internal/service"
)

// PaymentHandler receives checkout callbacks relayed by the client. The
// request is unauthenticated; the gateway signature is the credential.
type PaymentHandler struct {
	payments service.PaymentService
}

func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type reconcileRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var body reconcileRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.payments.ReconcilePayment(r.Context(), body.GatewayOrderID, body.GatewayPaymentID, body.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
