package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/service"
)

// ---- helpers ---------------------------------------------------------------

var bookedAt = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func bookingPeriod(t *testing.T, pickup, ret string) domain.BookingPeriod {
	t.Helper()
	p, err := domain.SearchPeriod(day(t, pickup), day(t, ret))
	require.NoError(t, err)
	return p
}

type fixture struct {
	store *memStore
	clock *testClock
	svc   *service.ReservationService
}

func newFixture() *fixture {
	store := newMemStore()
	clock := &testClock{now: bookedAt}
	return &fixture{
		store: store,
		clock: clock,
		svc:   service.NewReservationService(store.Repos(), store, clock, discardLogger()),
	}
}

func newReservation(t *testing.T, vehicleID uuid.UUID, pickup, ret string) domain.NewReservation {
	t.Helper()
	return domain.NewReservation{
		VehicleID:           vehicleID,
		CustomerID:          uuid.New(),
		PickupDate:          day(t, pickup),
		ReturnDate:          day(t, ret),
		PickupLocationCode:  "BER-HBF",
		DropoffLocationCode: "BER-HBF",
		TotalPrice:          domain.Money{Net: 20000, VAT: 3800, Gross: 23800, Currency: "EUR"},
	}
}

// ---- Create ----------------------------------------------------------------

func TestReservationService_Create_BlocksVehicle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := uuid.New()

	res, err := f.svc.Create(ctx, newReservation(t, v1, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, res.Status)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, uuid.Version(7), res.ID.Version())

	available, err := f.svc.IsVehicleAvailable(ctx, v1, bookingPeriod(t, "2025-06-03", "2025-06-04"))
	require.NoError(t, err)
	assert.False(t, available)

	available, err = f.svc.IsVehicleAvailable(ctx, v1, bookingPeriod(t, "2025-06-06", "2025-06-08"))
	require.NoError(t, err)
	assert.True(t, available)
}

func TestReservationService_Create_PersistsEventAndProjection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)

	history, err := f.svc.History(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.IsType(t, domain.ReservationCreated{}, history[0].Event)

	row, err := f.store.Repos().Reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, row)
}

func TestReservationService_Create_Unavailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := uuid.New()
	_, err := f.svc.Create(ctx, newReservation(t, v1, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, newReservation(t, v1, "2025-06-05", "2025-06-07"))

	assert.ErrorIs(t, err, domain.ErrUnavailable, "touching on the return date still conflicts")
	assert.Len(t, f.store.events, 1, "rejected booking must not leave an event stream")
}

func TestReservationService_Create_OtherVehicleUnaffected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))

	assert.NoError(t, err)
}

func TestReservationService_Create_CancelledDoesNotBlock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := uuid.New()
	first, err := f.svc.Create(ctx, newReservation(t, v1, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, first.ID, "changed plans")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, newReservation(t, v1, "2025-06-01", "2025-06-05"))

	assert.NoError(t, err)
}

func TestReservationService_Create_InvalidInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-05", "2025-06-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-05-19", "2025-05-22"))
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod, "pickup in the past")

	_, err = f.svc.Create(ctx, newReservation(t, uuid.Nil, "2025-06-01", "2025-06-05"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, f.store.txCount, "invalid input is rejected before any transaction")
}

func TestReservationService_Create_ConcurrentBookingsSameVehicle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := uuid.New()
	const attempts = 20
	in := newReservation(t, v1, "2025-06-01", "2025-06-05")

	var g errgroup.Group
	results := make([]error, attempts)
	for i := range attempts {
		g.Go(func() error {
			_, err := f.svc.Create(ctx, in)
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	}
	assert.Equal(t, 1, succeeded, "exactly one overlapping booking may win")

	booked, err := f.svc.BookedVehicleIDs(ctx, bookingPeriod(t, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{v1}, booked)
}

// ---- lifecycle -------------------------------------------------------------

func TestReservationService_Confirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)

	got, err := f.svc.Confirm(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedAt)
	assert.Equal(t, 2, got.Version)

	_, err = f.svc.Confirm(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestReservationService_Cancel_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)

	got, err := f.svc.Cancel(ctx, res.ID, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, "changed plans", got.CancellationReason)
	assert.False(t, got.LateCancellation)

	again, err := f.svc.Cancel(ctx, res.ID, "second thoughts")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	history, err := f.svc.History(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2, "repeat cancel must not append an event")
}

func TestReservationService_Cancel_Late(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	f.clock.Set(time.Date(2025, 5, 31, 9, 0, 0, 0, time.UTC))

	got, err := f.svc.Cancel(ctx, res.ID, "flight cancelled")

	require.NoError(t, err)
	assert.True(t, got.LateCancellation)
}

func TestReservationService_Activate_TooEarlyThenActive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, res.ID)
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC))
	_, err = f.svc.Activate(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrTooEarly)

	f.clock.Set(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC))
	got, err := f.svc.Activate(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	require.NotNil(t, got.ActivatedAt)
}

func TestReservationService_FullLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := uuid.New()
	res, err := f.svc.Create(ctx, newReservation(t, v1, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, res.ID)
	require.NoError(t, err)
	f.clock.Set(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	_, err = f.svc.Activate(ctx, res.ID)
	require.NoError(t, err)
	f.clock.Set(time.Date(2025, 6, 5, 17, 0, 0, 0, time.UTC))

	done, err := f.svc.Complete(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, 4, done.Version)

	_, err = f.svc.Cancel(ctx, res.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	available, err := f.svc.IsVehicleAvailable(ctx, v1, bookingPeriod(t, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	assert.True(t, available, "completed reservations release the vehicle")

	replayed, err := f.svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, done, replayed)
}

func TestReservationService_MarkNoShow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.svc.Create(ctx, newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, res.ID)
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC))
	_, err = f.svc.MarkNoShow(ctx, res.ID, "customer never arrived")
	assert.ErrorIs(t, err, domain.ErrTooEarly)

	f.clock.Set(time.Date(2025, 6, 2, 0, 30, 0, 0, time.UTC))
	got, err := f.svc.MarkNoShow(ctx, res.ID, "customer never arrived")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoShow, got.Status)
	assert.Equal(t, "customer never arrived", got.NoShowReason)
}

func TestReservationService_CommandOnUnknownReservation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Confirm(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- queries ---------------------------------------------------------------

func TestReservationService_Get_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationService_History_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.History(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationService_Get_RepoError(t *testing.T) {
	boom := errors.New("connection reset")
	events := &mockEventRepo{
		load: func(context.Context, uuid.UUID) ([]domain.RecordedEvent, error) { return nil, boom },
	}
	svc := service.NewReservationService(repo.Repos{Events: events}, newMemStore(), &testClock{now: bookedAt}, discardLogger())

	_, err := svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, boom)
}

func TestReservationService_BookedVehicleIDs_EmptyIsNonNil(t *testing.T) {
	f := newFixture()

	ids, err := f.svc.BookedVehicleIDs(context.Background(), bookingPeriod(t, "2025-06-01", "2025-06-05"))

	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestReservationService_BookedVehicleIDs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1, v2, v3 := uuid.New(), uuid.New(), uuid.New()
	_, err := f.svc.Create(ctx, newReservation(t, v1, "2025-06-01", "2025-06-05"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, newReservation(t, v2, "2025-06-04", "2025-06-10"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, newReservation(t, v3, "2025-06-20", "2025-06-22"))
	require.NoError(t, err)

	ids, err := f.svc.BookedVehicleIDs(ctx, bookingPeriod(t, "2025-06-05", "2025-06-06"))

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{v1, v2}, ids)
}

// ---- concurrency conflicts -------------------------------------------------

func TestReservationService_RetriesOnceOnConflict(t *testing.T) {
	store := newMemStore()
	clock := &testClock{now: bookedAt}
	setup := service.NewReservationService(store.Repos(), store, clock, discardLogger())
	res, err := setup.Create(context.Background(), newReservation(t, uuid.New(), "2025-06-01", "2025-06-05"))
	require.NoError(t, err)

	calls := 0
	flaky := txFunc(func(ctx context.Context, fn func(repo.Repos) error) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("repo.TxRunner.InTx: %w", domain.ErrConcurrencyConflict)
		}
		return store.InTx(ctx, fn)
	})
	svc := service.NewReservationService(store.Repos(), flaky, clock, discardLogger())

	got, err := svc.Confirm(context.Background(), res.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, 2, calls)
}

func TestReservationService_GivesUpAfterSecondConflict(t *testing.T) {
	calls := 0
	alwaysConflict := txFunc(func(context.Context, func(repo.Repos) error) error {
		calls++
		return domain.ErrConcurrencyConflict
	})
	svc := service.NewReservationService(newMemStore().Repos(), alwaysConflict, &testClock{now: bookedAt}, discardLogger())

	_, err := svc.Confirm(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Equal(t, 2, calls)
}

func TestReservationService_DoesNotRetryDomainErrors(t *testing.T) {
	calls := 0
	failing := txFunc(func(context.Context, func(repo.Repos) error) error {
		calls++
		return domain.ErrIllegalTransition
	})
	svc := service.NewReservationService(newMemStore().Repos(), failing, &testClock{now: bookedAt}, discardLogger())

	_, err := svc.Cancel(context.Background(), uuid.New(), "x")

	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, 1, calls)
}
