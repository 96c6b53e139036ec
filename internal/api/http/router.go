package http

import (
	"net/http"

	"parkit-backend/internal/config"
	"parkit-backend/internal/security"
	"parkit-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Booking   service.BookingService
	Payments  service.PaymentService
	Locations service.LocationService
}

// NewRouter registers every booking route with authentication, rate limiting
// and request metrics.
func NewRouter(svcs Services, tm security.TokenManager, limiter *RateLimiter) *mux.Router {
	orders := NewOrderHandler(svcs.Booking, svcs.Payments)
	payments := NewPaymentHandler(svcs.Payments)
	locations := NewLocationHandler(svcs.Locations)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name(config.RouteHealth)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name(config.RouteMetrics)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", orders.Create).Methods(http.MethodPost).Name(config.RouteCreateOrder)
	api.HandleFunc("/orders/{id}", orders.Get).Methods(http.MethodGet).Name(config.RouteGetOrder)
	api.HandleFunc("/orders/{id}/decision", orders.Decision).Methods(http.MethodPost).Name(config.RouteOrderDecision)
	api.HandleFunc("/orders/{id}/cancel", orders.Cancel).Methods(http.MethodPost).Name(config.RouteCancelOrder)
	api.HandleFunc("/orders/{id}/payment", orders.InitializePayment).Methods(http.MethodPost).Name(config.RouteInitPayment)
	api.HandleFunc("/payments/reconcile", payments.Reconcile).Methods(http.MethodPost).Name(config.RouteReconcilePayment)
	api.HandleFunc("/locations/nearby", locations.Nearby).Methods(http.MethodGet).Name(config.RouteNearbyLocations)

	router.Use(Observe)
	if limiter != nil {
		api.Use(limiter.Middleware)
	}
	router.Use(NewAuthMiddleware(tm).Middleware)
	return router
}
