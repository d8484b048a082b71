package transport

import (
	"context"
	"net/http"
	"strconv"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/middleware"
	"beauty-booking/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateServiceRequest represents a new catalog service
type CreateServiceRequest struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Description     string  `json:"description" validate:"max=2000"`
	Price           float64 `json:"price" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	ImageRef        string  `json:"image_ref,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// UpdateServiceRequest represents a partial service update. Absent fields are kept.
type UpdateServiceRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes *int     `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	ImageRef        *string  `json:"image_ref,omitempty"`
}

// CatalogHandler handles HTTP requests for services and providers
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/services", h.ListServices)
	r.Get("/api/services/{id}", h.GetService)
	r.Get("/api/providers", h.ListProviders)
	r.Get("/api/providers/{id}", h.GetProvider)
}

// RegisterAdminRoutes registers the catalog management routes
func (h *CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/services", h.ListAllServices)
	r.Post("/services", h.CreateService)
	r.Patch("/services/{id}", h.UpdateService)
	r.Post("/services/{id}/activate", h.ActivateService)
	r.Post("/services/{id}/deactivate", h.DeactivateService)
}

// ListServices returns the bookable services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	h.listServices(w, r, true)
}

// ListAllServices returns every service, inactive ones included
func (h *CatalogHandler) ListAllServices(w http.ResponseWriter, r *http.Request) {
	h.listServices(w, r, false)
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	services, err := h.catalogService.ListServices(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list services")
		return
	}
	if services == nil {
		services = []*domain.Service{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, services)
}

// GetService returns one service
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid service ID")
	if !ok {
		return
	}

	svc, err := h.catalogService.GetService(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get service")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, svc)
}

// ListProviders returns every provider
func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.catalogService.ListProviders(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list providers")
		return
	}
	if providers == nil {
		providers = []*domain.Provider{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, providers)
}

// GetProvider returns one provider
func (h *CatalogHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid provider ID")
	if !ok {
		return
	}

	provider, err := h.catalogService.GetProvider(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get provider")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, provider)
}

// CreateService adds a service to the catalog
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Service validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	svc := &domain.Service{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		ImageRef:        req.ImageRef,
		Active:          req.Active == nil || *req.Active,
	}

	if err := h.catalogService.CreateService(r.Context(), svc); err != nil {
		respondServiceError(w, h.logger, err, "failed to create service")
		return
	}

	h.logger.Info("Service created", zap.Int64("service_id", svc.ID), zap.String("name", svc.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, svc)
}

// UpdateService applies a partial update
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid service ID")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Service update validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	svc, err := h.catalogService.UpdateService(r.Context(), id, domain.ServicePatch{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		ImageRef:        req.ImageRef,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update service")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, svc)
}

// ActivateService makes a service bookable again
func (h *CatalogHandler) ActivateService(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.catalogService.ActivateService)
}

// DeactivateService hides a service from booking. Past reservations keep their snapshot.
func (h *CatalogHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.catalogService.DeactivateService)
}

func (h *CatalogHandler) toggle(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64) (*domain.Service, error)) {
	id, ok := pathID(w, r, "invalid service ID")
	if !ok {
		return
	}

	svc, err := apply(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to change service availability")
		return
	}

	h.logger.Info("Service availability changed", zap.Int64("service_id", id), zap.Bool("active", svc.Active))
	middleware.RespondWithJSON(w, http.StatusOK, svc)
}

func pathID(w http.ResponseWriter, r *http.Request, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, message)
		return 0, false
	}
	return id, true
}
