package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beauty-booking/internal/domain"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
)

// ProviderRepository defines the interface for provider data access
type ProviderRepository interface {
	Create(ctx context.Context, provider *domain.Provider) error
	FindByID(ctx context.Context, id int64) (*domain.Provider, error)
	List(ctx context.Context) ([]*domain.Provider, error)
}

type providerRepository struct {
	db *sql.DB
}

// NewProviderRepository creates a new instance of ProviderRepository
func NewProviderRepository(db *sql.DB) ProviderRepository {
	return &providerRepository{db: db}
}

// Create inserts a new provider and sets its generated id
func (r *providerRepository) Create(ctx context.Context, provider *domain.Provider) error {
	query := `
		INSERT INTO providers (first_name, last_name, specialty, serves_at_salon, serves_at_home, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		provider.FirstName,
		provider.LastName,
		provider.Specialty,
		provider.ServesAtSalon,
		provider.ServesAtHome,
		provider.Address,
		provider.CreatedAt,
	).Scan(&provider.ID)

	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

// FindByID retrieves a provider by ID
func (r *providerRepository) FindByID(ctx context.Context, id int64) (*domain.Provider, error) {
	query := `
		SELECT id, first_name, last_name, specialty, serves_at_salon, serves_at_home, address, created_at
		FROM providers
		WHERE id = $1
	`

	provider := &domain.Provider{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&provider.ID,
		&provider.FirstName,
		&provider.LastName,
		&provider.Specialty,
		&provider.ServesAtSalon,
		&provider.ServesAtHome,
		&provider.Address,
		&provider.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to find provider by ID: %w", err)
	}

	return provider, nil
}

// List returns all providers ordered by last name
func (r *providerRepository) List(ctx context.Context) ([]*domain.Provider, error) {
	query := `
		SELECT id, first_name, last_name, specialty, serves_at_salon, serves_at_home, address, created_at
		FROM providers
		ORDER BY last_name ASC, first_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	providers := []*domain.Provider{}
	for rows.Next() {
		provider := &domain.Provider{}
		err := rows.Scan(
			&provider.ID,
			&provider.FirstName,
			&provider.LastName,
			&provider.Specialty,
			&provider.ServesAtSalon,
			&provider.ServesAtHome,
			&provider.Address,
			&provider.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, provider)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}

	return providers, nil
}
