package transport

import (
	"net/http"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/middleware"
	"beauty-booking/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DraftRequest represents the service and provider picked on the catalog page
type DraftRequest struct {
	ServiceID  int64  `json:"service_id" validate:"required,gt=0"`
	ProviderID int64  `json:"provider_id" validate:"required,gt=0"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty" validate:"omitempty,hhmm"`
}

// PaymentRequest represents the payment form. Draft is optional: without it the
// draft saved earlier for the session is used.
type PaymentRequest struct {
	Draft    *DraftRequest        `json:"draft,omitempty"`
	Method   domain.PaymentMethod `json:"method"`
	Location domain.Location      `json:"location"`
	Phone    string               `json:"phone,omitempty"`
}

// AbandonResponse reports whether a pending settlement was dropped
type AbandonResponse struct {
	Cancelled bool `json:"cancelled"`
}

func (d DraftRequest) input() service.DraftInput {
	return service.DraftInput{
		ServiceID:  d.ServiceID,
		ProviderID: d.ProviderID,
		Date:       d.Date,
		Time:       d.Time,
	}
}

// CheckoutHandler handles HTTP requests for the booking checkout
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers the checkout routes. submitLimiter wraps the payment
// submission only.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, submitLimiter func(http.Handler) http.Handler) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/", h.GetStatus)
		r.Delete("/", h.Abandon)
		r.Post("/draft", h.SaveDraft)
		r.With(submitLimiter).Post("/payment", h.SubmitPayment)
	})
}

// SaveDraft stores the picked service and provider for the session
func (h *CheckoutHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	var req DraftRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Draft validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	draft, err := h.checkoutService.SaveDraft(r.Context(), client, req.input())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to save draft")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, draft)
}

// SubmitPayment starts the payment workflow. Settlement completes in the
// background; the client polls GetStatus.
func (h *CheckoutHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Payment request validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	submit := service.SubmitRequest{
		PaymentInput: service.PaymentInput{
			Method:   req.Method,
			Location: req.Location,
			Phone:    req.Phone,
		},
	}
	if req.Draft != nil {
		input := req.Draft.input()
		submit.Draft = &input
	}

	status, err := h.checkoutService.Submit(r.Context(), client, submit)
	if err != nil {
		h.logger.Debug("Payment submission refused",
			zap.Int64("client_id", client.ID),
			zap.String("state", string(status.State)),
			zap.Error(err),
		)
		respondServiceError(w, h.logger, err, "failed to submit payment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusAccepted, status)
}

// GetStatus returns the session's workflow snapshot
func (h *CheckoutHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	status, err := h.checkoutService.Status(client)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get checkout status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, status)
}

// Abandon tears down the session's checkout
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	cancelled, err := h.checkoutService.Abandon(r.Context(), client)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to abandon checkout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, AbandonResponse{Cancelled: cancelled})
}
