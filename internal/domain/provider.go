package domain

import "time"

// Location is where a service is performed
type Location string

const (
	LocationSalon Location = "salon"
	LocationHome  Location = "home"
)

// Provider is a beautician offering services at a salon, at home, or both
type Provider struct {
	ID            int64     `json:"id" db:"id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Specialty     string    `json:"specialty" db:"specialty"`
	ServesAtSalon bool      `json:"serves_at_salon" db:"serves_at_salon"`
	ServesAtHome  bool      `json:"serves_at_home" db:"serves_at_home"`
	Address       string    `json:"address,omitempty" db:"address"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ProviderSnapshot is the copy of a provider embedded in a reservation
type ProviderSnapshot struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

func (p *Provider) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Offers reports whether the provider works at the given location
func (p *Provider) Offers(location Location) bool {
	switch location {
	case LocationSalon:
		return p.ServesAtSalon
	case LocationHome:
		return p.ServesAtHome
	default:
		return false
	}
}

func (p *Provider) Snapshot() ProviderSnapshot {
	return ProviderSnapshot{
		ID:        p.ID,
		Name:      p.FullName(),
		Specialty: p.Specialty,
	}
}
