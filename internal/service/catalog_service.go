package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrServiceInactive = errors.New("service is not available for booking")
	ErrInvalidService  = errors.New("invalid service attributes")
)

const (
	activeServicesKey = "services:active"
	allServicesKey    = "services:all"
	providersKey      = "providers"
)

// DraftInput identifies the catalog entries picked for a booking
type DraftInput struct {
	ServiceID  int64  `json:"service_id" validate:"required,gt=0"`
	ProviderID int64  `json:"provider_id" validate:"required,gt=0"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
}

// CatalogService defines the interface for service and provider lookups and edits.
// Services are never deleted, only deactivated.
type CatalogService interface {
	CreateService(ctx context.Context, service *domain.Service) error
	UpdateService(ctx context.Context, id int64, patch domain.ServicePatch) (*domain.Service, error)
	ActivateService(ctx context.Context, id int64) (*domain.Service, error)
	DeactivateService(ctx context.Context, id int64) (*domain.Service, error)
	GetService(ctx context.Context, id int64) (*domain.Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]*domain.Service, error)
	GetProvider(ctx context.Context, id int64) (*domain.Provider, error)
	ListProviders(ctx context.Context) ([]*domain.Provider, error)
	BuildDraft(ctx context.Context, input DraftInput) (*domain.DraftReservation, error)
}

type catalogService struct {
	serviceRepo  repository.ServiceRepository
	providerRepo repository.ProviderRepository
	cache        *cache.Cache
	logger       *zap.Logger
}

// NewCatalogService creates a CatalogService whose lookups are cached for ttl
func NewCatalogService(
	serviceRepo repository.ServiceRepository,
	providerRepo repository.ProviderRepository,
	ttl time.Duration,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		serviceRepo:  serviceRepo,
		providerRepo: providerRepo,
		cache:        cache.New(ttl, 2*ttl),
		logger:       logger,
	}
}

func serviceKey(id int64) string {
	return fmt.Sprintf("service:%d", id)
}

func providerKey(id int64) string {
	return fmt.Sprintf("provider:%d", id)
}

// CreateService validates and stores a new service
func (s *catalogService) CreateService(ctx context.Context, service *domain.Service) error {
	if err := checkService(service); err != nil {
		return err
	}

	now := time.Now().UTC()
	service.CreatedAt = now
	service.UpdatedAt = now

	if err := s.serviceRepo.Create(ctx, service); err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	s.invalidateService(service.ID)
	s.logger.Info("Service created", zap.Int64("service_id", service.ID), zap.String("name", service.Name))
	return nil
}

// UpdateService applies a partial update. Fields missing from the patch are kept.
func (s *catalogService) UpdateService(ctx context.Context, id int64, patch domain.ServicePatch) (*domain.Service, error) {
	return s.mutateService(ctx, id, func(service *domain.Service) error {
		service.Update(patch)
		return checkService(service)
	})
}

func (s *catalogService) ActivateService(ctx context.Context, id int64) (*domain.Service, error) {
	return s.mutateService(ctx, id, func(service *domain.Service) error {
		service.Activate()
		return nil
	})
}

// DeactivateService withdraws a service from new bookings. Existing reservations keep their snapshot.
func (s *catalogService) DeactivateService(ctx context.Context, id int64) (*domain.Service, error) {
	return s.mutateService(ctx, id, func(service *domain.Service) error {
		service.Deactivate()
		return nil
	})
}

func (s *catalogService) mutateService(ctx context.Context, id int64, mutate func(*domain.Service) error) (*domain.Service, error) {
	service, err := s.serviceRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}

	if err := mutate(service); err != nil {
		return nil, err
	}
	service.UpdatedAt = time.Now().UTC()

	if err := s.serviceRepo.Update(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.invalidateService(id)
	s.logger.Info("Service updated",
		zap.Int64("service_id", id),
		zap.Bool("active", service.IsActive()),
	)
	return service, nil
}

// GetService returns a service whether active or not
func (s *catalogService) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	if cached, found := s.cache.Get(serviceKey(id)); found {
		service := *cached.(*domain.Service)
		return &service, nil
	}

	service, err := s.serviceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(serviceKey(id), service, cache.DefaultExpiration)
	copied := *service
	return &copied, nil
}

func (s *catalogService) ListServices(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	key := allServicesKey
	if activeOnly {
		key = activeServicesKey
	}

	if cached, found := s.cache.Get(key); found {
		return copyServices(cached.([]*domain.Service)), nil
	}

	services, err := s.serviceRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	s.cache.Set(key, services, cache.DefaultExpiration)
	return copyServices(services), nil
}

func (s *catalogService) GetProvider(ctx context.Context, id int64) (*domain.Provider, error) {
	if cached, found := s.cache.Get(providerKey(id)); found {
		provider := *cached.(*domain.Provider)
		return &provider, nil
	}

	provider, err := s.providerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(providerKey(id), provider, cache.DefaultExpiration)
	copied := *provider
	return &copied, nil
}

func (s *catalogService) ListProviders(ctx context.Context) ([]*domain.Provider, error) {
	if cached, found := s.cache.Get(providersKey); found {
		return copyProviders(cached.([]*domain.Provider)), nil
	}

	providers, err := s.providerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	s.cache.Set(providersKey, providers, cache.DefaultExpiration)
	return copyProviders(providers), nil
}

// BuildDraft resolves the picked service and provider. An inactive service cannot be booked.
func (s *catalogService) BuildDraft(ctx context.Context, input DraftInput) (*domain.DraftReservation, error) {
	service, err := s.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.IsActive() {
		return nil, ErrServiceInactive
	}

	provider, err := s.GetProvider(ctx, input.ProviderID)
	if err != nil {
		return nil, err
	}

	draft := &domain.DraftReservation{
		Service:  service,
		Provider: provider,
		Date:     input.Date,
		Time:     input.Time,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *catalogService) invalidateService(id int64) {
	s.cache.Delete(serviceKey(id))
	s.cache.Delete(activeServicesKey)
	s.cache.Delete(allServicesKey)
}

func checkService(service *domain.Service) error {
	switch {
	case strings.TrimSpace(service.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	case service.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	case service.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidService)
	}
	return nil
}

func copyServices(services []*domain.Service) []*domain.Service {
	copied := make([]*domain.Service, 0, len(services))
	for _, service := range services {
		c := *service
		copied = append(copied, &c)
	}
	return copied
}

func copyProviders(providers []*domain.Provider) []*domain.Provider {
	copied := make([]*domain.Provider, 0, len(providers))
	for _, provider := range providers {
		c := *provider
		copied = append(copied, &c)
	}
	return copied
}
