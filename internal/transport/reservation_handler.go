package transport

import (
	"net/http"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/metrics"
	"beauty-booking/internal/middleware"
	"beauty-booking/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuditResponse wraps a drift report with its verdict
type AuditResponse struct {
	Consistent bool                    `json:"consistent"`
	Report     *repository.DriftReport `json:"report"`
}

// ReservationHandler exposes committed reservations and payments
type ReservationHandler struct {
	reservations repository.ReservationRepository
	metrics      *metrics.Booking
	logger       *zap.Logger
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations repository.ReservationRepository, m *metrics.Booking, logger *zap.Logger) *ReservationHandler {
	if m == nil {
		m = metrics.NewNop()
	}
	return &ReservationHandler{
		reservations: reservations,
		metrics:      m,
		logger:       logger,
	}
}

// RegisterRoutes registers the session routes
func (h *ReservationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/reservations", h.ListMine)
}

// RegisterAdminRoutes registers the admin routes
func (h *ReservationHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/providers/{id}/reservations", h.ListByProvider)
	r.Get("/payments", h.ListPayments)
	r.Get("/reservations/audit", h.Audit)
	r.Post("/reservations/reindex", h.Reindex)
}

// ListMine returns the session client's reservations
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	reservations, err := h.reservations.ListByClient(r.Context(), client.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list reservations")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nonNil(reservations))
}

// ListByProvider returns a provider's reservations
func (h *ReservationHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "invalid provider ID")
	if !ok {
		return
	}

	reservations, err := h.reservations.ListByProvider(r.Context(), providerID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list reservations")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nonNil(reservations))
}

// ListPayments returns every recorded payment
func (h *ReservationHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.reservations.ListPayments(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list payments")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, payments)
}

// Audit compares the indices with the canonical collection
func (h *ReservationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.reservations.Audit(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to audit reservations")
		return
	}

	if !report.Consistent() {
		h.logger.Warn("Reservation indices drifted",
			zap.Int("missing_from_client", len(report.MissingFromClient)),
			zap.Int("missing_from_provider", len(report.MissingFromProvider)),
			zap.Int("orphaned", len(report.Orphaned)),
		)
	}

	middleware.RespondWithJSON(w, http.StatusOK, AuditResponse{
		Consistent: report.Consistent(),
		Report:     report,
	})
}

// Reindex rebuilds every index from the canonical collection
func (h *ReservationHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	result, err := h.reservations.Reindex(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to rebuild reservation indices")
		return
	}

	h.metrics.ReindexRuns.Inc()
	h.metrics.IndexRepairs.WithLabelValues("rewritten").Add(float64(result.ClientIndexes + result.ProviderIndexes))
	h.metrics.IndexRepairs.WithLabelValues("removed").Add(float64(result.Removed))

	h.logger.Info("Reservation indices rebuilt",
		zap.Int("client_indexes", result.ClientIndexes),
		zap.Int("provider_indexes", result.ProviderIndexes),
		zap.Int("removed", result.Removed),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func nonNil(reservations []domain.Reservation) []domain.Reservation {
	if reservations == nil {
		return []domain.Reservation{}
	}
	return reservations
}
