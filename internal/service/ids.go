package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrIDOrdering = errors.New("payment id does not sort after reservation id")

// IDGenerator hands out time-ordered reservation and payment ids
type IDGenerator struct {
	newID func() (uuid.UUID, error)
}

// NewIDGenerator returns a generator backed by UUID version 7
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{newID: uuid.NewV7}
}

// NewPair returns a reservation id and a payment id that sorts after it
func (g *IDGenerator) NewPair() (reservationID, paymentID uuid.UUID, err error) {
	reservationID, err = g.newID()
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to generate reservation id: %w", err)
	}

	paymentID, err = g.newID()
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to generate payment id: %w", err)
	}

	if bytes.Compare(paymentID[:], reservationID[:]) <= 0 {
		return uuid.Nil, uuid.Nil, ErrIDOrdering
	}

	return reservationID, paymentID, nil
}
