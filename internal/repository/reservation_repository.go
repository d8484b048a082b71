package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"beauty-booking/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCommit       = errors.New("invalid reservation commit")
	ErrDuplicateCommit     = errors.New("reservation already committed")
	ErrPersistenceDegraded = errors.New("reservation indices are out of sync with the canonical collection")
)

// CommitError reports which write of a commit failed.
// Steps are numbered from 1 in write order.
type CommitError struct {
	Step       int
	Collection string
	Err        error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit step %d (%s) failed: %v", e.Step, e.Collection, e.Err)
}

// StepName names the failed write without owner ids
func (e *CommitError) StepName() string {
	switch e.Step {
	case 1:
		return "reservations"
	case 2:
		return "client_index"
	case 3:
		return "provider_index"
	case 4:
		return "payments"
	default:
		return "unknown"
	}
}

// Unwrap exposes ErrPersistenceDegraded once the canonical collection has been written
func (e *CommitError) Unwrap() []error {
	if e.Step > 1 {
		return []error{ErrPersistenceDegraded, e.Err}
	}
	return []error{e.Err}
}

// IndexEntry points at a reservation id stored under an index key
type IndexEntry struct {
	Key           string    `json:"key"`
	ReservationID uuid.UUID `json:"reservation_id"`
}

// DriftReport lists the disagreements between the indices and the canonical collection
type DriftReport struct {
	Reservations               int          `json:"reservations"`
	MissingFromClient          []uuid.UUID  `json:"missing_from_client"`
	MissingFromProvider        []uuid.UUID  `json:"missing_from_provider"`
	Orphaned                   []IndexEntry `json:"orphaned"`
	PaymentsWithoutReservation []uuid.UUID  `json:"payments_without_reservation"`
	ReservationsWithoutPayment []uuid.UUID  `json:"reservations_without_payment"`
}

// Consistent reports whether no drift was found
func (r *DriftReport) Consistent() bool {
	return len(r.MissingFromClient) == 0 &&
		len(r.MissingFromProvider) == 0 &&
		len(r.Orphaned) == 0 &&
		len(r.PaymentsWithoutReservation) == 0 &&
		len(r.ReservationsWithoutPayment) == 0
}

// ReindexResult summarizes an index rebuild
type ReindexResult struct {
	ClientIndexes   int `json:"client_indexes"`
	ProviderIndexes int `json:"provider_indexes"`
	Removed         int `json:"removed"`
}

// ReservationRepository persists reservations and payments as a canonical
// collection plus per-client and per-provider indices
type ReservationRepository interface {
	CommitReservation(ctx context.Context, reservation *domain.Reservation, payment *domain.Payment, clientID, providerID int64) error
	ListAll(ctx context.Context) ([]domain.Reservation, error)
	ListByClient(ctx context.Context, clientID int64) ([]domain.Reservation, error)
	ListByProvider(ctx context.Context, providerID int64) ([]domain.Reservation, error)
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	Audit(ctx context.Context) (*DriftReport, error)
	Reindex(ctx context.Context) (*ReindexResult, error)
}

type reservationRepository struct {
	collections CollectionStore
	logger      *zap.Logger
}

// NewReservationRepository creates a new instance of ReservationRepository
func NewReservationRepository(collections CollectionStore, logger *zap.Logger) ReservationRepository {
	return &reservationRepository{collections: collections, logger: logger}
}

// CommitReservation appends the reservation to the global list and both indices and
// the payment to the ledger, in that order, then clears the client's draft.
// The store has no transactions: a failure part way leaves the earlier writes in
// place and is reported as a *CommitError; Reindex repairs the indices.
func (r *reservationRepository) CommitReservation(ctx context.Context, reservation *domain.Reservation, payment *domain.Payment, clientID, providerID int64) error {
	if err := checkCommit(reservation, payment, clientID, providerID); err != nil {
		return err
	}

	global, err := r.readReservations(ctx, GlobalReservationsKey)
	if err != nil {
		return err
	}
	for _, existing := range global {
		if existing.ID == reservation.ID {
			return ErrDuplicateCommit
		}
	}

	clientKey := ClientReservationsKey(clientID)
	byClient, err := r.readReservations(ctx, clientKey)
	if err != nil {
		return err
	}

	providerKey := ProviderReservationsKey(providerID)
	byProvider, err := r.readReservations(ctx, providerKey)
	if err != nil {
		return err
	}

	payments, err := r.ListPayments(ctx)
	if err != nil {
		return err
	}

	steps := []struct {
		key   string
		value interface{}
	}{
		{GlobalReservationsKey, append(global, *reservation)},
		{clientKey, append(byClient, *reservation)},
		{providerKey, append(byProvider, *reservation)},
		{PaymentsKey, append(payments, *payment)},
	}

	for i, step := range steps {
		if err := r.collections.PutCollection(ctx, step.key, step.value); err != nil {
			r.logger.Error("Commit write failed",
				zap.Int("step", i+1),
				zap.String("collection", step.key),
				zap.String("reservation_id", reservation.ID.String()),
				zap.Error(err),
			)
			return &CommitError{Step: i + 1, Collection: step.key, Err: err}
		}
	}

	// The commit is durable at this point; a leftover draft is only stale staging data
	if err := r.collections.DeleteCollection(ctx, DraftKey(clientID)); err != nil {
		r.logger.Warn("Failed to clear draft after commit",
			zap.Int64("client_id", clientID),
			zap.Error(err),
		)
	}

	r.logger.Info("Reservation committed",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.Int64("client_id", clientID),
		zap.Int64("provider_id", providerID),
	)
	return nil
}

func checkCommit(reservation *domain.Reservation, payment *domain.Payment, clientID, providerID int64) error {
	if reservation == nil || payment == nil {
		return fmt.Errorf("%w: reservation and payment are required", ErrInvalidCommit)
	}
	if reservation.ID == uuid.Nil || payment.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidCommit)
	}
	if payment.ReservationID != reservation.ID {
		return fmt.Errorf("%w: payment %s references %s, not %s", ErrInvalidCommit, payment.ID, payment.ReservationID, reservation.ID)
	}
	if bytes.Compare(payment.ID[:], reservation.ID[:]) <= 0 {
		return fmt.Errorf("%w: payment id must sort after reservation id", ErrInvalidCommit)
	}
	if reservation.ClientID != clientID || reservation.ProviderID != providerID {
		return fmt.Errorf("%w: reservation belongs to client %d / provider %d", ErrInvalidCommit, reservation.ClientID, reservation.ProviderID)
	}
	return nil
}

func (r *reservationRepository) readReservations(ctx context.Context, key string) ([]domain.Reservation, error) {
	reservations := []domain.Reservation{}
	if err := r.collections.GetCollection(ctx, key, &reservations); err != nil {
		return nil, err
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	return reservations, nil
}

func (r *reservationRepository) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return r.readReservations(ctx, GlobalReservationsKey)
}

func (r *reservationRepository) ListByClient(ctx context.Context, clientID int64) ([]domain.Reservation, error) {
	return r.readReservations(ctx, ClientReservationsKey(clientID))
}

func (r *reservationRepository) ListByProvider(ctx context.Context, providerID int64) ([]domain.Reservation, error) {
	return r.readReservations(ctx, ProviderReservationsKey(providerID))
}

func (r *reservationRepository) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	if err := r.collections.GetCollection(ctx, PaymentsKey, &payments); err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

// Audit compares every index and the payments ledger with the canonical collection
func (r *reservationRepository) Audit(ctx context.Context) (*DriftReport, error) {
	canonical, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := r.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := r.collections.ListCollections(ctx, clientReservationsPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list index collections: %w", err)
	}

	report := &DriftReport{Reservations: len(canonical)}

	owners := make(map[uuid.UUID]domain.Reservation, len(canonical))
	for _, res := range canonical {
		owners[res.ID] = res
	}

	// Which reservation ids each index key actually holds
	indexed := make(map[string]map[uuid.UUID]bool, len(keys))
	for _, key := range keys {
		kind, owner := parseIndexKey(key)
		if kind == indexNone {
			continue
		}
		entries, err := r.readReservations(ctx, key)
		if err != nil {
			return nil, err
		}
		ids := make(map[uuid.UUID]bool, len(entries))
		for _, entry := range entries {
			ids[entry.ID] = true
			res, ok := owners[entry.ID]
			switch {
			case !ok,
				kind == indexClient && res.ClientID != owner,
				kind == indexProvider && res.ProviderID != owner:
				report.Orphaned = append(report.Orphaned, IndexEntry{Key: key, ReservationID: entry.ID})
			}
		}
		indexed[key] = ids
	}

	paid := make(map[uuid.UUID]bool, len(payments))
	for _, payment := range payments {
		paid[payment.ReservationID] = true
		if _, ok := owners[payment.ReservationID]; !ok {
			report.PaymentsWithoutReservation = append(report.PaymentsWithoutReservation, payment.ID)
		}
	}

	for _, res := range canonical {
		if !indexed[ClientReservationsKey(res.ClientID)][res.ID] {
			report.MissingFromClient = append(report.MissingFromClient, res.ID)
		}
		if !indexed[ProviderReservationsKey(res.ProviderID)][res.ID] {
			report.MissingFromProvider = append(report.MissingFromProvider, res.ID)
		}
		if !paid[res.ID] {
			report.ReservationsWithoutPayment = append(report.ReservationsWithoutPayment, res.ID)
		}
	}

	return report, nil
}

// Reindex rebuilds every client and provider index from the canonical collection,
// keeping canonical order, and removes index keys that no longer own any reservation.
// The payments ledger is not rebuilt: a payment cannot be derived from its reservation.
func (r *reservationRepository) Reindex(ctx context.Context) (*ReindexResult, error) {
	canonical, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rebuilt := make(map[string][]domain.Reservation)
	var order []string
	add := func(key string, res domain.Reservation) {
		if _, ok := rebuilt[key]; !ok {
			order = append(order, key)
		}
		rebuilt[key] = append(rebuilt[key], res)
	}
	for _, res := range canonical {
		add(ClientReservationsKey(res.ClientID), res)
		add(ProviderReservationsKey(res.ProviderID), res)
	}

	result := &ReindexResult{}
	for _, key := range order {
		if err := r.collections.PutCollection(ctx, key, rebuilt[key]); err != nil {
			return result, fmt.Errorf("failed to rewrite index %s: %w", key, err)
		}
		if kind, _ := parseIndexKey(key); kind == indexProvider {
			result.ProviderIndexes++
		} else {
			result.ClientIndexes++
		}
	}

	keys, err := r.collections.ListCollections(ctx, clientReservationsPrefix+"*")
	if err != nil {
		return result, fmt.Errorf("failed to list index collections: %w", err)
	}
	for _, key := range keys {
		if kind, _ := parseIndexKey(key); kind == indexNone {
			continue
		}
		if _, ok := rebuilt[key]; ok {
			continue
		}
		if err := r.collections.DeleteCollection(ctx, key); err != nil {
			return result, fmt.Errorf("failed to remove stale index %s: %w", key, err)
		}
		result.Removed++
	}

	r.logger.Info("Reservation indices rebuilt",
		zap.Int("reservations", len(canonical)),
		zap.Int("client_indexes", result.ClientIndexes),
		zap.Int("provider_indexes", result.ProviderIndexes),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}
