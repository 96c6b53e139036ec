package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkit-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_1", user)
		assert.Equal(t, "secret", pass)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(15000), req.Amount)
		assert.Equal(t, "order-1", req.Notes["order_id"])

		_ = json.NewEncoder(w).Encode(GatewayOrder{ID: "order_abc", Amount: req.Amount, Currency: req.Currency, Status: "created"})
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "key_1", "secret", time.Second)
	o, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		Amount: 15000, Currency: "INR", Receipt: "order-1", Notes: map[string]string{"order_id": "order-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", o.ID)
	assert.Equal(t, "INR", o.Currency)
}

func TestRazorpayClient_FetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pay_1","order_id":"order_abc","status":"captured","method":"upi","amount":15000}`))
	}))
	defer srv.Close()

	p, err := NewRazorpayClient(srv.URL, "key_1", "secret", time.Second).FetchPayment(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "upi", p.Method)
	assert.Equal(t, domain.PaymentRecordCaptured, p.RecordStatus())
}

func TestRazorpayClient_ServerErrorIsGatewayUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRazorpayClient(srv.URL, "key_1", "secret", time.Second).FetchPayment(context.Background(), "pay_1")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Equal(t, domain.ClassExternal, domain.Classify(err))
}

func TestRazorpayClient_TimeoutIsGatewayUnavailable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	_, err := NewRazorpayClient(srv.URL, "key_1", "secret", 50*time.Millisecond).FetchPayment(context.Background(), "pay_1")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestVerifySignature(t *testing.T) {
	c := NewRazorpayClient("", "key_1", "secret", 0)
	sig := Sign([]byte("secret"), "order_abc", "pay_1")

	assert.True(t, c.VerifySignature("order_abc", "pay_1", sig))
	assert.False(t, c.VerifySignature("order_abc", "pay_2", sig))
	assert.False(t, c.VerifySignature("order_abc", "pay_1", sig[:len(sig)-2]+"00"))
	assert.False(t, c.VerifySignature("order_abc", "pay_1", "not-hex"))
	assert.False(t, c.VerifySignature("order_abc", "pay_1", ""))
}

func TestMockGateway(t *testing.T) {
	g := NewMockGateway("secret")
	o, err := g.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR"})
	require.NoError(t, err)

	assert.True(t, g.VerifySignature(o.ID, "pay_1", g.Signature(o.ID, "pay_1")))

	g.SetPaymentStatus("pay_2", "failed")
	p, err := g.FetchPayment(context.Background(), "pay_2")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRecordFailed, p.RecordStatus())
}
