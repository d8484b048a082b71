package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"beauty-booking/internal/store"

	"go.uber.org/zap"
)

// Collection keys in the key-value store
const (
	GlobalReservationsKey = "reservations"
	PaymentsKey           = "payments"

	clientReservationsPrefix   = "reservations:"
	providerReservationsPrefix = "reservations:provider:"
	draftPrefix                = "draftReservation:"
)

// ClientReservationsKey returns the per-client index key
func ClientReservationsKey(clientID int64) string {
	return clientReservationsPrefix + strconv.FormatInt(clientID, 10)
}

// ProviderReservationsKey returns the per-provider index key
func ProviderReservationsKey(providerID int64) string {
	return providerReservationsPrefix + strconv.FormatInt(providerID, 10)
}

// DraftKey returns the key of the persisted draft for one client session
func DraftKey(clientID int64) string {
	return draftPrefix + strconv.FormatInt(clientID, 10)
}

type indexKind int

const (
	indexNone indexKind = iota
	indexClient
	indexProvider
)

// parseIndexKey reports which index a key belongs to and the owner id
func parseIndexKey(key string) (indexKind, int64) {
	if rest, ok := strings.CutPrefix(key, providerReservationsPrefix); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return indexProvider, id
		}
		return indexNone, 0
	}
	if rest, ok := strings.CutPrefix(key, clientReservationsPrefix); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return indexClient, id
		}
	}
	return indexNone, 0
}

// CollectionStore reads and writes whole JSON collections by name
type CollectionStore interface {
	// GetCollection decodes the named collection into dst. An absent or
	// unparsable collection leaves dst zeroed and is not an error.
	GetCollection(ctx context.Context, name string, dst interface{}) error
	PutCollection(ctx context.Context, name string, value interface{}) error
	DeleteCollection(ctx context.Context, name string) error
	// ListCollections returns the names of stored collections matching pattern
	ListCollections(ctx context.Context, pattern string) ([]string, error)
}

type collectionStore struct {
	store  store.Store
	logger *zap.Logger
}

// NewCollectionStore creates a CollectionStore on top of a key-value store
func NewCollectionStore(s store.Store, logger *zap.Logger) CollectionStore {
	return &collectionStore{store: s, logger: logger}
}

func (c *collectionStore) GetCollection(ctx context.Context, name string, dst interface{}) error {
	raw, err := c.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("Unparsable collection, treating as empty",
			zap.String("collection", name),
			zap.Error(err),
		)
		// Unmarshal may have partially filled dst
		v := reflect.ValueOf(dst).Elem()
		v.Set(reflect.Zero(v.Type()))
	}
	return nil
}

func (c *collectionStore) PutCollection(ctx context.Context, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}
	if err := c.store.Set(ctx, name, raw, 0); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	return nil
}

func (c *collectionStore) DeleteCollection(ctx context.Context, name string) error {
	return c.store.Delete(ctx, name)
}

func (c *collectionStore) ListCollections(ctx context.Context, pattern string) ([]string, error) {
	return c.store.Keys(ctx, pattern)
}
