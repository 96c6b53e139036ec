package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"parkit-backend/internal/config"
	"parkit-backend/internal/domain"
	"parkit-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryBackends(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
users:
  - id: 11111111-1111-4111-8111-111111111111
  - id: 22222222-2222-4222-8222-222222222222
    role: OWNER
locations:
  - id: 33333333-3333-4333-8333-333333333333
    owner_id: 22222222-2222-4222-8222-222222222222
    hourly_rate: 10
    daily_rate: 80
    total_spots: 1
    accepted_categories: [car]
`), 0o600))

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Type: "memory", SeedFile: seed},
		JWT:     config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Gateway: config.GatewayConfig{Type: "mock", KeySecret: "whsec"},
	}
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	order, err := a.Booking.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID:          "11111111-1111-4111-8111-111111111111",
		LocationID:      "33333333-3333-4333-8333-333333333333",
		StartTime:       "2099-01-01T10:00:00Z",
		EndTime:         "2099-01-01T12:00:00Z",
		VehicleCategory: "car",
		VehicleID:       "MH12 XY 0001",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), order.Amount)

	init, err := a.Payments.InitializePayment(context.Background(), order.ID, order.UserID)
	require.NoError(t, err)
	assert.Equal(t, "mock_key", init.KeyID)

	_, err = a.Booking.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID:          "11111111-1111-4111-8111-111111111111",
		LocationID:      "33333333-3333-4333-8333-333333333333",
		StartTime:       "2099-01-01T10:00:00Z",
		EndTime:         "2099-01-01T12:00:00Z",
		VehicleCategory: "car",
		VehicleID:       "MH12 XY 0002",
	})
	assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
}

func TestNew_MissingSeedFile(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Type: "memory", SeedFile: "/does/not/exist.yaml"},
		JWT:     config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Gateway: config.GatewayConfig{Type: "mock", KeySecret: "whsec"},
	}
	require.NoError(t, cfg.Validate())

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "seed file")
}
