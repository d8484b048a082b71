package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies how the client pays
type PaymentMethod string

const (
	MethodMobileMoneyA PaymentMethod = "mobileMoneyA"
	MethodMobileMoneyB PaymentMethod = "mobileMoneyB"
	MethodWalletC      PaymentMethod = "walletC"
	MethodMobileMoneyD PaymentMethod = "mobileMoneyD"
	MethodCard         PaymentMethod = "card"
)

// PaymentMethods lists every accepted method
var PaymentMethods = []PaymentMethod{
	MethodMobileMoneyA,
	MethodMobileMoneyB,
	MethodWalletC,
	MethodMobileMoneyD,
	MethodCard,
}

// IsValid reports whether m is one of the accepted methods
func (m PaymentMethod) IsValid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// RequiresPhone reports whether the method is charged against a phone number
func (m PaymentMethod) RequiresPhone() bool {
	return m != MethodCard
}

type ReservationStatus string

const ReservationConfirmed ReservationStatus = "confirmed"

type PaymentStatus string

const PaymentConfirmed PaymentStatus = "confirmed"

// Reservation is a confirmed booking. Provider and service are snapshots taken at
// booking time so later catalog edits do not rewrite history.
type Reservation struct {
	ID             uuid.UUID         `json:"id"`
	ClientID       int64             `json:"client_id"`
	ClientFullName string            `json:"client_full_name"`
	ProviderID     int64             `json:"provider_id"`
	Provider       ProviderSnapshot  `json:"provider"`
	ServiceID      int64             `json:"service_id"`
	Service        ServiceSnapshot   `json:"service"`
	Price          float64           `json:"price"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	Location       Location          `json:"location"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Payment records the settlement of exactly one reservation
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	ReservationID uuid.UUID     `json:"reservation_id"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewReservation builds a confirmed reservation from a completed draft
func NewReservation(id uuid.UUID, client Client, draft DraftReservation, location Location, now time.Time) Reservation {
	return Reservation{
		ID:             id,
		ClientID:       client.ID,
		ClientFullName: client.FullName(),
		ProviderID:     draft.Provider.ID,
		Provider:       draft.Provider.Snapshot(),
		ServiceID:      draft.Service.ID,
		Service:        draft.Service.Snapshot(),
		Price:          draft.Service.GetPrice(),
		Date:           draft.Date,
		Time:           draft.Time,
		Location:       location,
		Status:         ReservationConfirmed,
		CreatedAt:      now,
	}
}

// NewPayment builds the confirmed payment paired with reservation
func NewPayment(id uuid.UUID, reservation Reservation, method PaymentMethod, now time.Time) Payment {
	return Payment{
		ID:            id,
		ReservationID: reservation.ID,
		Amount:        reservation.Price,
		Method:        method,
		Status:        PaymentConfirmed,
		CreatedAt:     now,
	}
}
