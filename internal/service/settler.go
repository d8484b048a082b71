package service

import (
	"context"

	"beauty-booking/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementRequest is the charge handed to the payment backend
type SettlementRequest struct {
	ClientID int64
	Amount   float64
	Method   domain.PaymentMethod
	Phone    string
}

// SettlementResult is the backend's answer. A declined charge is not an error.
type SettlementResult struct {
	Approved  bool
	Reference string
	Reason    string
}

// Settler charges the client
type Settler interface {
	Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error)
}

// SimulatedSettler approves every charge
type SimulatedSettler struct {
	logger *zap.Logger
}

func NewSimulatedSettler(logger *zap.Logger) *SimulatedSettler {
	return &SimulatedSettler{logger: logger}
}

func (s *SimulatedSettler) Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error) {
	if err := ctx.Err(); err != nil {
		return SettlementResult{}, err
	}

	result := SettlementResult{
		Approved:  true,
		Reference: "sim_" + uuid.NewString(),
	}

	s.logger.Info("Simulated payment settled",
		zap.Int64("client_id", req.ClientID),
		zap.String("method", string(req.Method)),
		zap.Float64("amount", req.Amount),
		zap.String("reference", result.Reference),
	)
	return result, nil
}
