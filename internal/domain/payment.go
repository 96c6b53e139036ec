package domain

import "time"

type PaymentRecordStatus string

const (
	PaymentRecordCreated    PaymentRecordStatus = "created"
	PaymentRecordAuthorized PaymentRecordStatus = "authorized"
	PaymentRecordCaptured   PaymentRecordStatus = "captured"
	PaymentRecordFailed     PaymentRecordStatus = "failed"
)

// Settled reports whether the gateway has reached a terminal outcome.
func (s PaymentRecordStatus) Settled() bool {
	return s == PaymentRecordCaptured || s == PaymentRecordFailed
}

// PaymentRecord mirrors one gateway payment attempt for an order.
type PaymentRecord struct {
	ID               string              `json:"id"`
	OrderID          string              `json:"order_id"`
	GatewayOrderID   string              `json:"gateway_order_id"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	Amount           int64               `json:"amount"`
	Currency         string              `json:"currency"`
	Status           PaymentRecordStatus `json:"status"`
	Method           string              `json:"method"`
	Notes            map[string]string   `json:"notes"`
	CreatedOn        time.Time           `json:"created_on"`
	UpdatedOn        time.Time           `json:"updated_on"`
}

// PaymentInit is returned to the client so it can open the gateway checkout.
type PaymentInit struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id,omitempty"`
}
