package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBooking_Counters(t *testing.T) {
	m := Booking()
	assert.Same(t, m, Booking())

	before := testutil.ToFloat64(m.reservations.WithLabelValues("conflict"))
	m.ObserveReservation("conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(m.reservations.WithLabelValues("conflict")))

	m.ObserveSweep(2, 1, 0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.sweep.WithLabelValues("abandoned")), 2.0)

	m.ObserveJob("intent_sweep", errors.New("boom"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.jobRuns.WithLabelValues("intent_sweep", "error")), 1.0)

	m.ObserveHTTP("/api/v1/orders", 409, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/orders", "4xx")), 1.0)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *bookingMetrics
	m.ObserveReservation("created")
	m.ReleaseFailed()
	m.ObserveGateway("create_order", time.Second, nil)
}
