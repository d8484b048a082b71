package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beauty-booking/internal/domain"
)

var (
	ErrServiceNotFound = errors.New("service not found")
)

// ServiceRepository defines the interface for catalog service data access.
// There is no Delete: services are deactivated instead.
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) error
	Update(ctx context.Context, service *domain.Service) error
	FindByID(ctx context.Context, id int64) (*domain.Service, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Service, error)
}

type serviceRepository struct {
	db *sql.DB
}

// NewServiceRepository creates a new instance of ServiceRepository
func NewServiceRepository(db *sql.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

// Create inserts a new service and sets its generated id
func (r *serviceRepository) Create(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (name, description, price, duration_minutes, image_ref, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.ImageRef,
		service.Active,
		service.CreatedAt,
		service.UpdatedAt,
	).Scan(&service.ID)

	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return nil
}

// Update writes every mutable column of an existing service
func (r *serviceRepository) Update(ctx context.Context, service *domain.Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, price = $4, duration_minutes = $5,
		    image_ref = $6, active = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		service.ID,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.ImageRef,
		service.Active,
		service.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrServiceNotFound
	}

	return nil
}

// FindByID retrieves a service by ID, active or not
func (r *serviceRepository) FindByID(ctx context.Context, id int64) (*domain.Service, error) {
	query := `
		SELECT id, name, description, price, duration_minutes, image_ref, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`

	service := &domain.Service{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&service.ID,
		&service.Name,
		&service.Description,
		&service.Price,
		&service.DurationMinutes,
		&service.ImageRef,
		&service.Active,
		&service.CreatedAt,
		&service.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}

	return service, nil
}

// List returns services ordered by name, optionally only the active ones
func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	query := `
		SELECT id, name, description, price, duration_minutes, image_ref, active, created_at, updated_at
		FROM services
		WHERE ($1 = FALSE OR active = TRUE)
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*domain.Service{}
	for rows.Next() {
		service := &domain.Service{}
		err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.Description,
			&service.Price,
			&service.DurationMinutes,
			&service.ImageRef,
			&service.Active,
			&service.CreatedAt,
			&service.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, service)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return services, nil
}
