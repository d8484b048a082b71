package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockServiceRepository struct {
	mu       sync.Mutex
	services map[int64]*domain.Service
	nextID   int64
	finds    int
	lists    int
}

func newMockServiceRepository(services ...*domain.Service) *mockServiceRepository {
	m := &mockServiceRepository{services: make(map[int64]*domain.Service)}
	for _, s := range services {
		c := *s
		m.services[s.ID] = &c
		if s.ID > m.nextID {
			m.nextID = s.ID
		}
	}
	return m
}

func (m *mockServiceRepository) Create(ctx context.Context, service *domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	service.ID = m.nextID
	c := *service
	m.services[service.ID] = &c
	return nil
}

func (m *mockServiceRepository) Update(ctx context.Context, service *domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[service.ID]; !ok {
		return repository.ErrServiceNotFound
	}
	c := *service
	m.services[service.ID] = &c
	return nil
}

func (m *mockServiceRepository) FindByID(ctx context.Context, id int64) (*domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	service, ok := m.services[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	c := *service
	return &c, nil
}

func (m *mockServiceRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	services := []*domain.Service{}
	for _, service := range m.services {
		if activeOnly && !service.Active {
			continue
		}
		c := *service
		services = append(services, &c)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

func (m *mockServiceRepository) findCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finds
}

type mockProviderRepository struct {
	providers map[int64]*domain.Provider
}

func newMockProviderRepository(providers ...*domain.Provider) *mockProviderRepository {
	m := &mockProviderRepository{providers: make(map[int64]*domain.Provider)}
	for _, p := range providers {
		c := *p
		m.providers[p.ID] = &c
	}
	return m
}

func (m *mockProviderRepository) Create(ctx context.Context, provider *domain.Provider) error {
	provider.ID = int64(len(m.providers) + 1)
	c := *provider
	m.providers[provider.ID] = &c
	return nil
}

func (m *mockProviderRepository) FindByID(ctx context.Context, id int64) (*domain.Provider, error) {
	provider, ok := m.providers[id]
	if !ok {
		return nil, repository.ErrProviderNotFound
	}
	c := *provider
	return &c, nil
}

func (m *mockProviderRepository) List(ctx context.Context) ([]*domain.Provider, error) {
	providers := []*domain.Provider{}
	for _, provider := range m.providers {
		c := *provider
		providers = append(providers, &c)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return providers, nil
}

type mockNotificationRepository struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*domain.Notification
	failCreate    bool
}

func newMockNotificationRepository() *mockNotificationRepository {
	return &mockNotificationRepository{notifications: make(map[uuid.UUID]*domain.Notification)}
}

func (m *mockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errors.New("notifications table unavailable")
	}
	c := *notification
	m.notifications[notification.ID] = &c
	return nil
}

func (m *mockNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification, ok := m.notifications[id]
	if !ok {
		return nil, repository.ErrNotificationNotFound
	}
	c := *notification
	return &c, nil
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	notifications := []*domain.Notification{}
	for _, notification := range m.notifications {
		if notification.UserID == userID {
			c := *notification
			notifications = append(notifications, &c)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification, ok := m.notifications[id]
	if !ok || notification.UserID != userID {
		return repository.ErrNotificationNotFound
	}
	notification.MarkRead()
	return nil
}

// decliningSettler refuses every charge
type decliningSettler struct {
	reason string
}

func (d decliningSettler) Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error) {
	return SettlementResult{Approved: false, Reason: d.reason}, nil
}

// countingSettler approves and counts calls
type countingSettler struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSettler) Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return SettlementResult{Approved: true, Reference: "test"}, nil
}

func (c *countingSettler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
