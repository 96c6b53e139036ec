package domain

import "strings"

type VehicleCategory string

const (
	VehicleCategoryBike  VehicleCategory = "bike"
	VehicleCategoryCar   VehicleCategory = "car"
	VehicleCategorySUV   VehicleCategory = "suv"
	VehicleCategoryVan   VehicleCategory = "van"
	VehicleCategoryTruck VehicleCategory = "truck"
)

// NormalizeCategory trims and lowercases a category as entered by a user or an operator.
func NormalizeCategory(s string) VehicleCategory {
	return VehicleCategory(strings.ToLower(strings.TrimSpace(s)))
}

// Location is a parking venue with a finite spot pool.
// AvailableSpots is mutated only through the capacity ledger.
type Location struct {
	ID                 string            `json:"id"`
	OwnerID            string            `json:"owner_id"`
	Name               string            `json:"name"`
	Longitude          float64           `json:"longitude"`
	Latitude           float64           `json:"latitude"`
	HourlyRate         int64             `json:"hourly_rate"`
	DailyRate          int64             `json:"daily_rate"`
	TotalSpots         int32             `json:"total_spots"`
	AvailableSpots     int32             `json:"available_spots"`
	IsActive           bool              `json:"is_active"`
	IsDeleted          bool              `json:"is_deleted"`
	AcceptedCategories []VehicleCategory `json:"accepted_categories"`
}

// Bookable reports whether new reservations may target the location.
func (l *Location) Bookable() bool {
	return l.IsActive && !l.IsDeleted
}

// Accepts reports whether the category is in the accepted set.
func (l *Location) Accepts(category VehicleCategory) bool {
	category = NormalizeCategory(string(category))
	for _, c := range l.AcceptedCategories {
		if NormalizeCategory(string(c)) == category {
			return true
		}
	}
	return false
}

// NearbyLocation is a location annotated with its distance, in meters, from the query point.
type NearbyLocation struct {
	Location
	Distance float64 `json:"distance"`
}

// NearbyQuery describes a nearby lookup. A nil coordinate selects fallback
// mode: active locations in stable order with distance 0.
type NearbyQuery struct {
	Latitude    *float64
	Longitude   *float64
	MaxDistance float64
	Limit       int
}

// HasCoordinate reports whether both coordinates were supplied.
func (q NearbyQuery) HasCoordinate() bool {
	return q.Latitude != nil && q.Longitude != nil
}
