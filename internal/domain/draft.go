package domain

import (
	"errors"
	"time"
)

var ErrIncompleteDraft = errors.New("draft reservation requires a service and a provider")

// DraftReservation is the unconfirmed booking intent staged before payment
type DraftReservation struct {
	Service  *Service  `json:"service"`
	Provider *Provider `json:"provider"`
	Date     string    `json:"date,omitempty"`
	Time     string    `json:"time,omitempty"`
}

// Validate checks that both the service and the provider are present
func (d *DraftReservation) Validate() error {
	if d == nil || d.Service == nil || d.Provider == nil {
		return ErrIncompleteDraft
	}
	return nil
}

// WithDefaults fills a missing date with today (formatted with layout) and a missing time with defaultTime
func (d DraftReservation) WithDefaults(now time.Time, layout, defaultTime string) DraftReservation {
	if d.Date == "" {
		d.Date = now.Format(layout)
	}
	if d.Time == "" {
		d.Time = defaultTime
	}
	return d
}
