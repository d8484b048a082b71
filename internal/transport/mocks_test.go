package transport

import (
	"context"
	"sort"
	"sync"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/repository"

	"github.com/google/uuid"
)

// memoryCatalog implements both catalog repositories
type memoryCatalog struct {
	mu        sync.Mutex
	services  map[int64]*domain.Service
	providers map[int64]*domain.Provider
	nextID    int64
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		services:  make(map[int64]*domain.Service),
		providers: make(map[int64]*domain.Provider),
		nextID:    100,
	}
}

func (m *memoryCatalog) addService(s domain.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = &s
}

func (m *memoryCatalog) addProvider(p domain.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.ID] = &p
}

type memoryServices struct{ *memoryCatalog }

func (m memoryServices) Create(ctx context.Context, service *domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	service.ID = m.nextID
	c := *service
	m.services[service.ID] = &c
	return nil
}

func (m memoryServices) Update(ctx context.Context, service *domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[service.ID]; !ok {
		return repository.ErrServiceNotFound
	}
	c := *service
	m.services[service.ID] = &c
	return nil
}

func (m memoryServices) FindByID(ctx context.Context, id int64) (*domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	service, ok := m.services[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	c := *service
	return &c, nil
}

func (m memoryServices) List(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	services := []*domain.Service{}
	for _, service := range m.services {
		if activeOnly && !service.Active {
			continue
		}
		c := *service
		services = append(services, &c)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

type memoryProviders struct{ *memoryCatalog }

func (m memoryProviders) Create(ctx context.Context, provider *domain.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	provider.ID = m.nextID
	c := *provider
	m.providers[provider.ID] = &c
	return nil
}

func (m memoryProviders) FindByID(ctx context.Context, id int64) (*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	provider, ok := m.providers[id]
	if !ok {
		return nil, repository.ErrProviderNotFound
	}
	c := *provider
	return &c, nil
}

func (m memoryProviders) List(ctx context.Context) ([]*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	providers := []*domain.Provider{}
	for _, provider := range m.providers {
		c := *provider
		providers = append(providers, &c)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return providers, nil
}

type memoryNotifications struct {
	mu    sync.Mutex
	items []*domain.Notification
}

func (m *memoryNotifications) Create(ctx context.Context, notification *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *notification
	m.items = append(m.items, &c)
	return nil
}

func (m *memoryNotifications) FindByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id {
			c := *n
			return &c, nil
		}
	}
	return nil, repository.ErrNotificationNotFound
}

func (m *memoryNotifications) ListByUser(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].UserID == userID {
			c := *m.items[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memoryNotifications) MarkRead(ctx context.Context, id uuid.UUID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.MarkRead()
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}
