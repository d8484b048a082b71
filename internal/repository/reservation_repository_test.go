package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errQuotaExceeded = errors.New("quota exceeded")

// flakyStore fails or silently drops writes to selected keys
type flakyStore struct {
	store.Store
	failKeys map[string]error
	dropKeys map[string]bool
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err, ok := f.failKeys[key]; ok {
		return err
	}
	if f.dropKeys[key] {
		return nil
	}
	return f.Store.Set(ctx, key, value, ttl)
}

func newRedisBackedStore(t *testing.T) (store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return store.NewRedisStore(client), mr
}

func newTestReservationRepository(s store.Store) ReservationRepository {
	logger := zap.NewNop()
	return NewReservationRepository(NewCollectionStore(s, logger), logger)
}

// newPair builds a reservation and its payment with time-ordered ids
func newPair(clientID, providerID int64, price float64, method domain.PaymentMethod) (domain.Reservation, domain.Payment) {
	service := &domain.Service{ID: 5, Name: "Soin visage", Price: price, DurationMinutes: 45, Active: true}
	provider := &domain.Provider{ID: providerID, FirstName: "Awa", LastName: "Kone", Specialty: "Esthetique", ServesAtSalon: true}
	draft := domain.DraftReservation{Service: service, Provider: provider, Date: "14/03/2026", Time: "10:00"}
	client := domain.Client{ID: clientID, FirstName: "Ada", LastName: "Yao"}

	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation := domain.NewReservation(uuid.Must(uuid.NewV7()), client, draft, domain.LocationSalon, now)
	payment := domain.NewPayment(uuid.Must(uuid.NewV7()), reservation, method, now)
	return reservation, payment
}

func reservationIDs(reservations []domain.Reservation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(reservations))
	for _, r := range reservations {
		ids = append(ids, r.ID)
	}
	return ids
}

// Feature: booking-core, Property 8: A commit produces exactly one paired reservation and payment
func TestProperty_CommitProducesPairedReservationAndPayment(t *testing.T) {
	s, _ := newRedisBackedStore(t)
	repo := newTestReservationRepository(s)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("commit adds one reservation and one payment referencing it", prop.ForAll(
		func(clientID int64, providerID int64, price float64, methodIdx int) bool {
			method := domain.PaymentMethods[methodIdx]

			before, err := repo.ListAll(ctx)
			if err != nil {
				return false
			}
			paymentsBefore, err := repo.ListPayments(ctx)
			if err != nil {
				return false
			}

			reservation, payment := newPair(clientID, providerID, price, method)
			if err := repo.CommitReservation(ctx, &reservation, &payment, clientID, providerID); err != nil {
				t.Logf("FAIL: commit: %v", err)
				return false
			}

			after, _ := repo.ListAll(ctx)
			paymentsAfter, _ := repo.ListPayments(ctx)
			if len(after) != len(before)+1 || len(paymentsAfter) != len(paymentsBefore)+1 {
				t.Logf("FAIL: expected exactly one new reservation and payment")
				return false
			}

			last := paymentsAfter[len(paymentsAfter)-1]
			return last.ReservationID == reservation.ID &&
				after[len(after)-1].ID == reservation.ID &&
				last.Amount == reservation.Price &&
				last.Method == method
		},
		gen.Int64Range(1, 50),
		gen.Int64Range(1, 50),
		gen.Float64Range(0, 500000),
		gen.IntRange(0, len(domain.PaymentMethods)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: booking-core, Property 9: A committed reservation lives in exactly three collections
func TestProperty_CommittedReservationAppearsInExactlyThreeCollections(t *testing.T) {
	s, mr := newRedisBackedStore(t)
	repo := newTestReservationRepository(s)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("reservation is indexed under its own client and provider only", prop.ForAll(
		func(clientIDs []int64, providerIDs []int64) bool {
			mr.FlushAll()

			n := len(clientIDs)
			if len(providerIDs) < n {
				n = len(providerIDs)
			}

			var committed []domain.Reservation
			for i := 0; i < n; i++ {
				reservation, payment := newPair(clientIDs[i], providerIDs[i], 15000, domain.MethodCard)
				if err := repo.CommitReservation(ctx, &reservation, &payment, clientIDs[i], providerIDs[i]); err != nil {
					t.Logf("FAIL: commit: %v", err)
					return false
				}
				committed = append(committed, reservation)
			}

			keys, err := s.Keys(ctx, "reservations*")
			if err != nil {
				return false
			}

			for _, reservation := range committed {
				holders := 0
				for _, key := range keys {
					var entries []domain.Reservation
					if err := NewCollectionStore(s, zap.NewNop()).GetCollection(ctx, key, &entries); err != nil {
						return false
					}
					for _, e := range entries {
						if e.ID != reservation.ID {
							continue
						}
						holders++
						if key != GlobalReservationsKey &&
							key != ClientReservationsKey(reservation.ClientID) &&
							key != ProviderReservationsKey(reservation.ProviderID) {
							t.Logf("FAIL: %s found under foreign key %s", reservation.ID, key)
							return false
						}
					}
				}
				if holders != 3 {
					t.Logf("FAIL: %s held by %d collections", reservation.ID, holders)
					return false
				}
			}

			report, err := repo.Audit(ctx)
			return err == nil && report.Consistent()
		},
		gen.SliceOfN(6, gen.Int64Range(1, 4)),
		gen.SliceOfN(6, gen.Int64Range(1, 4)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: booking-core, Property 10: Stored collections round-trip in order with snapshots intact
func TestProperty_CollectionRoundTripPreservesOrderAndSnapshots(t *testing.T) {
	s, _ := newRedisBackedStore(t)
	collections := NewCollectionStore(s, zap.NewNop())
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("put then get returns an identical sequence", prop.ForAll(
		func(prices []float64, name string) bool {
			var written []domain.Reservation
			for i, price := range prices {
				reservation, _ := newPair(int64(i+1), 9, price, domain.MethodWalletC)
				reservation.Service.Name = name
				written = append(written, reservation)
			}

			if err := collections.PutCollection(ctx, GlobalReservationsKey, written); err != nil {
				return false
			}

			var read []domain.Reservation
			if err := collections.GetCollection(ctx, GlobalReservationsKey, &read); err != nil {
				return false
			}
			if len(read) != len(written) {
				return false
			}
			for i := range written {
				if read[i].ID != written[i].ID ||
					read[i].Service != written[i].Service ||
					read[i].Provider != written[i].Provider ||
					read[i].ClientFullName != written[i].ClientFullName ||
					!read[i].CreatedAt.Equal(written[i].CreatedAt) {
					t.Logf("FAIL: entry %d differs after round trip", i)
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 100000)),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCommitScenarioMobileMoney(t *testing.T) {
	s, mr := newRedisBackedStore(t)
	repo := newTestReservationRepository(s)
	ctx := context.Background()

	require.NoError(t, mr.Set(DraftKey(1), `{"service":{"id":5},"provider":{"id":9}}`))

	reservation, payment := newPair(1, 9, 15000, domain.MethodMobileMoneyA)
	require.NoError(t, repo.CommitReservation(ctx, &reservation, &payment, 1, 9))

	payments, err := repo.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 15000.0, payments[0].Amount)
	assert.Equal(t, domain.MethodMobileMoneyA, payments[0].Method)
	assert.Equal(t, domain.PaymentConfirmed, payments[0].Status)

	byClient, err := repo.ListByClient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reservation.ID}, reservationIDs(byClient))

	byProvider, err := repo.ListByProvider(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reservation.ID}, reservationIDs(byProvider))

	assert.False(t, mr.Exists(DraftKey(1)), "draft should be cleared after commit")
}

func TestCommitRejectsInvalidPairs(t *testing.T) {
	s, mr := newRedisBackedStore(t)
	repo := newTestReservationRepository(s)
	ctx := context.Background()

	reservation, payment := newPair(1, 9, 100, domain.MethodCard)

	mismatched := payment
	mismatched.ReservationID = uuid.Must(uuid.NewV7())
	assert.ErrorIs(t, repo.CommitReservation(ctx, &reservation, &mismatched, 1, 9), ErrInvalidCommit)

	// Payment id must sort after the reservation id
	swapped := payment
	swapped.ID, reservation.ID = reservation.ID, payment.ID
	swapped.ReservationID = reservation.ID
	assert.ErrorIs(t, repo.CommitReservation(ctx, &reservation, &swapped, 1, 9), ErrInvalidCommit)

	reservation, payment = newPair(1, 9, 100, domain.MethodCard)
	assert.ErrorIs(t, repo.CommitReservation(ctx, &reservation, &payment, 2, 9), ErrInvalidCommit)
	assert.ErrorIs(t, repo.CommitReservation(ctx, nil, &payment, 1, 9), ErrInvalidCommit)

	assert.Empty(t, mr.Keys(), "rejected commits must not write")
}

func TestCommitRejectsDuplicateReservation(t *testing.T) {
	s, _ := newRedisBackedStore(t)
	repo := newTestReservationRepository(s)
	ctx := context.Background()

	reservation, payment := newPair(1, 9, 100, domain.MethodCard)
	require.NoError(t, repo.CommitReservation(ctx, &reservation, &payment, 1, 9))

	again := payment
	again.ID = uuid.Must(uuid.NewV7())
	assert.ErrorIs(t, repo.CommitReservation(ctx, &reservation, &again, 1, 9), ErrDuplicateCommit)

	payments, err := repo.ListPayments(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestUnparsableCollectionDefaultsToEmpty(t *testing.T) {
	s, mr := newRedisBackedStore(t)
	repo := newTestReservationRepository(s)
	ctx := context.Background()

	require.NoError(t, mr.Set(GlobalReservationsKey, "{not json"))
	require.NoError(t, mr.Set(PaymentsKey, `[{"id": 12}]`))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	payments, err := repo.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)

	reservation, payment := newPair(3, 4, 5000, domain.MethodMobileMoneyB)
	require.NoError(t, repo.CommitReservation(ctx, &reservation, &payment, 3, 4))

	all, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reservation.ID}, reservationIDs(all))
}

func TestCommitStopsAtFailedIndexWrite(t *testing.T) {
	base, mr := newRedisBackedStore(t)
	flaky := &flakyStore{
		Store:    base,
		failKeys: map[string]error{ProviderReservationsKey(9): errQuotaExceeded},
	}
	repo := newTestReservationRepository(flaky)
	ctx := context.Background()

	require.NoError(t, mr.Set(DraftKey(1), `{"service":{"id":5},"provider":{"id":9}}`))

	reservation, payment := newPair(1, 9, 15000, domain.MethodMobileMoneyD)
	err := repo.CommitReservation(ctx, &reservation, &payment, 1, 9)
	require.Error(t, err)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, 3, commitErr.Step)
	assert.Equal(t, ProviderReservationsKey(9), commitErr.Collection)
	assert.Equal(t, "provider_index", commitErr.StepName())
	assert.ErrorIs(t, err, ErrPersistenceDegraded)
	assert.ErrorIs(t, err, errQuotaExceeded)

	// Canonical collection was written first and survives
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reservation.ID}, reservationIDs(all))

	payments, err := repo.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments, "ledger is written after the indices")
	assert.True(t, mr.Exists(DraftKey(1)), "draft survives an incomplete commit")
}

func TestCanonicalWriteFailureIsNotDegraded(t *testing.T) {
	base, mr := newRedisBackedStore(t)
	flaky := &flakyStore{
		Store:    base,
		failKeys: map[string]error{GlobalReservationsKey: errQuotaExceeded},
	}
	repo := newTestReservationRepository(flaky)

	reservation, payment := newPair(1, 9, 15000, domain.MethodCard)
	err := repo.CommitReservation(context.Background(), &reservation, &payment, 1, 9)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPersistenceDegraded)
	assert.Empty(t, mr.Keys())
}

func TestAuditAndReindexRepairLostIndexWrites(t *testing.T) {
	base, _ := newRedisBackedStore(t)
	ctx := context.Background()

	healthy := newTestReservationRepository(base)
	first, firstPayment := newPair(1, 9, 1000, domain.MethodCard)
	require.NoError(t, healthy.CommitReservation(ctx, &first, &firstPayment, 1, 9))

	// The store silently loses the client index write for the second commit
	lossy := newTestReservationRepository(&flakyStore{
		Store:    base,
		dropKeys: map[string]bool{ClientReservationsKey(2): true},
	})
	second, secondPayment := newPair(2, 9, 2000, domain.MethodWalletC)
	require.NoError(t, lossy.CommitReservation(ctx, &second, &secondPayment, 2, 9))

	// A stale entry left under a client that owns nothing
	collections := NewCollectionStore(base, zap.NewNop())
	require.NoError(t, collections.PutCollection(ctx, ClientReservationsKey(7), []domain.Reservation{first}))

	report, err := healthy.Audit(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, 2, report.Reservations)
	assert.Equal(t, []uuid.UUID{second.ID}, report.MissingFromClient)
	assert.Empty(t, report.MissingFromProvider)
	assert.Equal(t, []IndexEntry{{Key: ClientReservationsKey(7), ReservationID: first.ID}}, report.Orphaned)
	assert.Empty(t, report.ReservationsWithoutPayment)

	result, err := healthy.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ClientIndexes)
	assert.Equal(t, 1, result.ProviderIndexes)
	assert.Equal(t, 1, result.Removed)

	report, err = healthy.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "indices should agree after reindex: %+v", report)

	byProvider, err := healthy.ListByProvider(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, reservationIDs(byProvider))
}

func TestReindexWrapsIndexWriteFailure(t *testing.T) {
	base, _ := newRedisBackedStore(t)
	ctx := context.Background()

	reservation, payment := newPair(3, 9, 1000, domain.MethodCard)
	require.NoError(t, newTestReservationRepository(base).CommitReservation(ctx, &reservation, &payment, 3, 9))

	failing := newTestReservationRepository(&flakyStore{
		Store:    base,
		failKeys: map[string]error{ProviderReservationsKey(9): errQuotaExceeded},
	})
	result, err := failing.Reindex(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errQuotaExceeded)
	assert.Contains(t, err.Error(), "failed to rewrite index "+ProviderReservationsKey(9))
	assert.Equal(t, 1, result.ClientIndexes, "the client index is rewritten before the failing key")
	assert.Equal(t, 0, result.ProviderIndexes)
}

func TestAuditReportsLedgerDrift(t *testing.T) {
	base, _ := newRedisBackedStore(t)
	ctx := context.Background()

	lossy := newTestReservationRepository(&flakyStore{
		Store:    base,
		dropKeys: map[string]bool{PaymentsKey: true},
	})
	reservation, payment := newPair(1, 9, 1000, domain.MethodCard)
	require.NoError(t, lossy.CommitReservation(ctx, &reservation, &payment, 1, 9))

	report, err := newTestReservationRepository(base).Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reservation.ID}, report.ReservationsWithoutPayment)
	assert.Empty(t, report.PaymentsWithoutReservation)
}

func TestParseIndexKey(t *testing.T) {
	kind, id := parseIndexKey("reservations:provider:42")
	assert.Equal(t, indexProvider, kind)
	assert.Equal(t, int64(42), id)

	kind, id = parseIndexKey("reservations:17")
	assert.Equal(t, indexClient, kind)
	assert.Equal(t, int64(17), id)

	kind, _ = parseIndexKey("reservations:provider:abc")
	assert.Equal(t, indexNone, kind)
	kind, _ = parseIndexKey("payments")
	assert.Equal(t, indexNone, kind)
}
