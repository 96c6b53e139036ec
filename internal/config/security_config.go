package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// Route names registered by the HTTP router.
const (
	RouteHealth           = "health"
	RouteMetrics          = "metrics"
	RouteCreateOrder      = "orders.create"
	RouteGetOrder         = "orders.get"
	RouteOrderDecision    = "orders.decision"
	RouteCancelOrder      = "orders.cancel"
	RouteInitPayment      = "orders.payment"
	RouteReconcilePayment = "payments.reconcile"
	RouteNearbyLocations  = "locations.nearby"
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	RouteHealth:  SecurityPublic,
	RouteMetrics: SecurityPublic,
	// gateway callback, authenticated by its HMAC signature
	RouteReconcilePayment: SecurityPublic,

	RouteCreateOrder:     SecurityAccess,
	RouteGetOrder:        SecurityAccess,
	RouteOrderDecision:   SecurityAccess,
	RouteCancelOrder:     SecurityAccess,
	RouteInitPayment:     SecurityAccess,
	RouteNearbyLocations: SecurityAccess,
}

// GetSecurityLevel returns the security level for a route. Unknown routes
// require an access token.
func GetSecurityLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAccess
}
