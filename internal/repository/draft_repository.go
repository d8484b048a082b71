package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/store"

	"go.uber.org/zap"
)

// DraftRepository persists the in-progress draft so it can be recovered after a reload
type DraftRepository interface {
	Save(ctx context.Context, clientID int64, draft *domain.DraftReservation) error
	// Load returns nil without error when no usable draft is stored
	Load(ctx context.Context, clientID int64) (*domain.DraftReservation, error)
	Clear(ctx context.Context, clientID int64) error
}

type draftRepository struct {
	store  store.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewDraftRepository creates a DraftRepository whose drafts expire after ttl
func NewDraftRepository(s store.Store, ttl time.Duration, logger *zap.Logger) DraftRepository {
	return &draftRepository{store: s, ttl: ttl, logger: logger}
}

func (r *draftRepository) Save(ctx context.Context, clientID int64, draft *domain.DraftReservation) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := r.store.Set(ctx, DraftKey(clientID), raw, r.ttl); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (r *draftRepository) Load(ctx context.Context, clientID int64) (*domain.DraftReservation, error) {
	raw, err := r.store.Get(ctx, DraftKey(clientID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var draft domain.DraftReservation
	if err := json.Unmarshal(raw, &draft); err != nil {
		r.logger.Warn("Discarding unparsable draft", zap.Int64("client_id", clientID), zap.Error(err))
		return nil, nil
	}
	if err := draft.Validate(); err != nil {
		r.logger.Warn("Discarding incomplete draft", zap.Int64("client_id", clientID))
		return nil, nil
	}
	return &draft, nil
}

func (r *draftRepository) Clear(ctx context.Context, clientID int64) error {
	if err := r.store.Delete(ctx, DraftKey(clientID)); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}
