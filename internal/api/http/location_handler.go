package http

import (
	"fmt"
	"net/http"
	"strconv"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/service"
)

type LocationHandler struct {
	locations service.LocationService
}

func NewLocationHandler(locations service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type nearbyResponse struct {
	Locations []domain.NearbyLocation `json:"locations"`
}

func (h *LocationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	locs, err := h.locations.FindNearby(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if locs == nil {
		locs = []domain.NearbyLocation{}
	}
	writeJSON(w, http.StatusOK, nearbyResponse{Locations: locs})
}

func parseNearbyQuery(r *http.Request) (domain.NearbyQuery, error) {
	var q domain.NearbyQuery
	values := r.URL.Query()

	parseFloat := func(name string) (*float64, error) {
		raw := values.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidIdentifier, name)
		}
		return &v, nil
	}

	var err error
	if q.Latitude, err = parseFloat("lat"); err != nil {
		return q, err
	}
	if q.Longitude, err = parseFloat("lng"); err != nil {
		return q, err
	}
	maxDistance, err := parseFloat("max_distance")
	if err != nil {
		return q, err
	}
	if maxDistance != nil {
		q.MaxDistance = *maxDistance
	}
	if raw := values.Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			return q, fmt.Errorf("%w: limit", domain.ErrInvalidIdentifier)
		}
	}
	return q, nil
}
