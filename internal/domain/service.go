package domain

import (
	"time"
)

// Service represents a bookable beauty service in the catalog.
// Services are never deleted, only deactivated, so historical reservations stay valid.
type Service struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Price           float64   `json:"price" db:"price"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	ImageRef        string    `json:"image_ref,omitempty" db:"image_ref"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ServicePatch carries a partial update. Nil fields are left untouched.
type ServicePatch struct {
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	ImageRef        *string  `json:"image_ref,omitempty"`
}

// ServiceSnapshot is the immutable copy of a service embedded in a reservation
type ServiceSnapshot struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

// Activate makes the service available for new bookings
func (s *Service) Activate() {
	s.Active = true
}

// Deactivate withdraws the service from new bookings
func (s *Service) Deactivate() {
	s.Active = false
}

// IsActive reports whether the service can be offered for new bookings
func (s *Service) IsActive() bool {
	return s.Active
}

// Update overwrites only the fields present in the patch.
// Cross-field checks such as a non-negative price are the caller's job.
func (s *Service) Update(patch ServicePatch) {
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Price != nil {
		s.Price = *patch.Price
	}
	if patch.DurationMinutes != nil {
		s.DurationMinutes = *patch.DurationMinutes
	}
	if patch.ImageRef != nil {
		s.ImageRef = *patch.ImageRef
	}
}

// GetPrice returns the price charged for the service
func (s *Service) GetPrice() float64 {
	return s.Price
}

// GetDuration returns the duration in minutes
func (s *Service) GetDuration() int {
	return s.DurationMinutes
}

// Snapshot returns the detail view denormalized into reservations
func (s *Service) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{
		ID:              s.ID,
		Name:            s.Name,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
	}
}
