package transport

import (
	"errors"
	"net/http"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/middleware"
	"beauty-booking/internal/repository"
	"beauty-booking/internal/service"

	"go.uber.org/zap"
)

// respondServiceError maps errors from the service and repository layers onto
// the JSON error envelope. Anything unrecognised is logged and answered with 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var precondition *service.PreconditionError
	if errors.As(err, &precondition) {
		status := http.StatusNotFound
		if precondition.Reason == service.ReasonNoSession {
			status = http.StatusUnauthorized
		}
		details := map[string]interface{}{"redirect": precondition.Redirect}
		if precondition.RedirectAfter > 0 {
			details["redirect_after_ms"] = precondition.RedirectAfter.Milliseconds()
		}
		middleware.RespondWithErrorCode(w, status, precondition.Reason, precondition.Message, details)
		return
	}

	var invalid *service.ValidationError
	if errors.As(err, &invalid) {
		middleware.RespondWithErrorCode(w, http.StatusUnprocessableEntity, invalid.Code, invalid.Message, nil)
		return
	}

	switch {
	case errors.Is(err, service.ErrSubmissionInProgress):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWorkflowFinished), errors.Is(err, service.ErrWorkflowClosed):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrServiceInactive):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidService), errors.Is(err, domain.ErrIncompleteDraft):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrProviderNotFound),
		errors.Is(err, repository.ErrNotificationNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// sessionClient answers 401 when the request carries no session client
func sessionClient(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*domain.Client, bool) {
	client, ok := middleware.ClientFromContext(r.Context())
	if !ok {
		logger.Error("Client not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return client, true
}
