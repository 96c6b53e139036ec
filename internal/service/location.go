package service

import (
	"context"
	"fmt"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/repository"
)

const maxNearbyLimit = 100

type locationService struct {
	ledger repository.CapacityLedger
}

func NewLocationService(ledger repository.CapacityLedger) LocationService {
	return &locationService{ledger: ledger}
}

func (s *locationService) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyLocation, error) {
	if (q.Latitude == nil) != (q.Longitude == nil) {
		return nil, fmt.Errorf("%w: lat and lng must be given together", domain.ErrMissingField)
	}
	if q.HasCoordinate() && (*q.Latitude < -90 || *q.Latitude > 90 || *q.Longitude < -180 || *q.Longitude > 180) {
		return nil, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidIdentifier)
	}
	if q.MaxDistance < 0 {
		q.MaxDistance = 0
	}
	switch {
	case q.Limit <= 0:
		q.Limit = 20
	case q.Limit > maxNearbyLimit:
		q.Limit = maxNearbyLimit
	}
	return s.ledger.FindNearby(ctx, q)
}
