package transport

import (
	"net/http"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/middleware"
	"beauty-booking/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationHandler handles HTTP requests for the session's notifications
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// RegisterRoutes registers the notification routes
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/notifications", h.List)
	r.Post("/api/notifications/{id}/read", h.MarkRead)
}

// List returns the session client's notifications, newest first
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(r.Context(), client.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, notifications)
}

// MarkRead marks one of the session client's notifications as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	client, ok := sessionClient(w, r, h.logger)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), id, client.ID); err != nil {
		respondServiceError(w, h.logger, err, "failed to mark notification as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
