package memory

import (
	"context"
	"testing"

	"parkit-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
users:
  - id: u-1
    name: Asha
  - id: o-1
    role: OWNER
locations:
  - id: loc-1
    owner_id: o-1
    name: Mall P1
    latitude: 12.97
    longitude: 77.59
    hourly_rate: 40
    daily_rate: 300
    total_spots: 3
    accepted_categories: [Car, " SUV"]
  - id: loc-2
    owner_id: o-1
    total_spots: 1
    inactive: true
`

func TestLoadSeed(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.LoadSeed([]byte(seedYAML)))

	u, err := s.UserRepository.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleCustomer, u.Role)

	loc, err := s.LocationRepository.GetByID(context.Background(), "loc-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), loc.AvailableSpots)
	assert.Equal(t, []domain.VehicleCategory{domain.VehicleCategoryCar, domain.VehicleCategorySUV}, loc.AcceptedCategories)
	assert.True(t, loc.Accepts(domain.VehicleCategorySUV))
	assert.False(t, loc.Accepts(domain.VehicleCategoryVan))
	assert.True(t, loc.Bookable())

	inactive, err := s.LocationRepository.GetByID(context.Background(), "loc-2")
	require.NoError(t, err)
	assert.False(t, inactive.Bookable())
}

func TestLoadSeed_Rejects(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.LoadSeed([]byte("locations:\n  - id: x\n")))
	assert.Error(t, s.LoadSeed([]byte("users: [")))
}
