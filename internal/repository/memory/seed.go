package memory

import (
	"fmt"
	"os"

	"parkit-backend/internal/domain"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML fixture format used to populate a memory store.
type Seed struct {
	Users []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Email     string `yaml:"email"`
		Role      string `yaml:"role"`
		IsBlocked bool   `yaml:"is_blocked"`
	} `yaml:"users"`
	Locations []struct {
		ID                 string   `yaml:"id"`
		OwnerID            string   `yaml:"owner_id"`
		Name               string   `yaml:"name"`
		Latitude           float64  `yaml:"latitude"`
		Longitude          float64  `yaml:"longitude"`
		HourlyRate         int64    `yaml:"hourly_rate"`
		DailyRate          int64    `yaml:"daily_rate"`
		TotalSpots         int32    `yaml:"total_spots"`
		AcceptedCategories []string `yaml:"accepted_categories"`
		Inactive           bool     `yaml:"inactive"`
	} `yaml:"locations"`
}

// LoadSeedFile reads a YAML fixture and applies it to the store.
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	return s.LoadSeed(data)
}

// LoadSeed applies a YAML fixture. Every location starts with all spots free.
func (s *Store) LoadSeed(data []byte) error {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	for _, u := range seed.Users {
		if u.ID == "" {
			return fmt.Errorf("seed user without id")
		}
		role := domain.UserRole(u.Role)
		if role == "" {
			role = domain.UserRoleCustomer
		}
		s.PutUser(domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: role, IsBlocked: u.IsBlocked})
	}
	for _, l := range seed.Locations {
		if l.ID == "" || l.OwnerID == "" {
			return fmt.Errorf("seed location needs id and owner_id")
		}
		if l.TotalSpots < 0 {
			return fmt.Errorf("seed location %s: negative total_spots", l.ID)
		}
		cats := make([]domain.VehicleCategory, 0, len(l.AcceptedCategories))
		for _, c := range l.AcceptedCategories {
			cats = append(cats, domain.NormalizeCategory(c))
		}
		s.PutLocation(domain.Location{
			ID:                 l.ID,
			OwnerID:            l.OwnerID,
			Name:               l.Name,
			Latitude:           l.Latitude,
			Longitude:          l.Longitude,
			HourlyRate:         l.HourlyRate,
			DailyRate:          l.DailyRate,
			TotalSpots:         l.TotalSpots,
			AvailableSpots:     l.TotalSpots,
			IsActive:           !l.Inactive,
			AcceptedCategories: cats,
		})
	}
	return nil
}
