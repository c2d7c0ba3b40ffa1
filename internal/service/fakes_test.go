package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
)

// memStore is an in-memory stand-in for the Postgres repos. InTx holds the
// store mutex for the whole transaction and restores a snapshot if fn fails,
// which is enough to give each transaction the isolation the real vehicle
// lock provides.
type memStore struct {
	mu           sync.Mutex
	events       map[uuid.UUID][]domain.RecordedEvent
	reservations map[uuid.UUID]domain.Reservation
	vehicles     map[uuid.UUID]int64
	txCount      int
}

func newMemStore() *memStore {
	return &memStore{
		events:       map[uuid.UUID][]domain.RecordedEvent{},
		reservations: map[uuid.UUID]domain.Reservation{},
		vehicles:     map[uuid.UUID]int64{},
	}
}

// Repos returns repos that lock the store per call, for reads outside a transaction.
func (s *memStore) Repos() repo.Repos { return s.repos(true) }

func (s *memStore) repos(lock bool) repo.Repos {
	return repo.Repos{
		Events:       &memEvents{s: s, lock: lock},
		Reservations: &memReservations{s: s, lock: lock},
		Vehicles:     &memVehicles{s: s, lock: lock},
	}
}

func (s *memStore) InTx(_ context.Context, fn func(repo.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	events := make(map[uuid.UUID][]domain.RecordedEvent, len(s.events))
	for id, es := range s.events {
		events[id] = slices.Clone(es)
	}
	reservations := maps.Clone(s.reservations)
	vehicles := maps.Clone(s.vehicles)

	if err := fn(s.repos(false)); err != nil {
		s.events, s.reservations, s.vehicles = events, reservations, vehicles
		return err
	}
	return nil
}

func (s *memStore) guard(lock bool) func() {
	if !lock {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memEvents struct {
	s    *memStore
	lock bool
}

func (m *memEvents) Load(_ context.Context, id uuid.UUID) ([]domain.RecordedEvent, error) {
	defer m.s.guard(m.lock)()
	return slices.Clone(m.s.events[id]), nil
}

func (m *memEvents) Append(_ context.Context, id uuid.UUID, expectedVersion int, events []domain.Event) error {
	defer m.s.guard(m.lock)()
	stream := m.s.events[id]
	if len(stream) != expectedVersion {
		return fmt.Errorf("%w: reservation %s is at version %d, expected %d",
			domain.ErrConcurrencyConflict, id, len(stream), expectedVersion)
	}
	for i, e := range events {
		stream = append(stream, domain.RecordedEvent{
			ReservationID: id,
			Version:       expectedVersion + i + 1,
			Event:         e,
			RecordedAt:    e.OccurredAt(),
		})
	}
	m.s.events[id] = stream
	return nil
}

func (m *memEvents) ListReservationIDs(_ context.Context) ([]uuid.UUID, error) {
	defer m.s.guard(m.lock)()
	return slices.Collect(maps.Keys(m.s.events)), nil
}

type memReservations struct {
	s    *memStore
	lock bool
}

func (m *memReservations) Save(_ context.Context, r domain.Reservation) error {
	defer m.s.guard(m.lock)()
	if cur, ok := m.s.reservations[r.ID]; ok && cur.Version >= r.Version {
		return nil
	}
	m.s.reservations[r.ID] = r
	return nil
}

func (m *memReservations) GetByID(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	defer m.s.guard(m.lock)()
	r, ok := m.s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memReservations) ListBlockingByVehicle(_ context.Context, vehicleID uuid.UUID, p domain.BookingPeriod) ([]domain.Reservation, error) {
	defer m.s.guard(m.lock)()
	var out []domain.Reservation
	for _, r := range m.s.reservations {
		if r.VehicleID == vehicleID && r.Status.BlocksVehicle() && r.Period.Overlaps(p) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) BookedVehicleIDs(_ context.Context, p domain.BookingPeriod) ([]uuid.UUID, error) {
	defer m.s.guard(m.lock)()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, r := range m.s.reservations {
		if r.Status.BlocksVehicle() && r.Period.Overlaps(p) && !seen[r.VehicleID] {
			seen[r.VehicleID] = true
			out = append(out, r.VehicleID)
		}
	}
	return out, nil
}

func (m *memReservations) ListByStatusPickupBefore(_ context.Context, status domain.Status, before time.Time) ([]domain.Reservation, error) {
	defer m.s.guard(m.lock)()
	var out []domain.Reservation
	for _, r := range m.s.reservations {
		if r.Status == status && r.Period.PickupDate.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) DeleteAll(_ context.Context) error {
	defer m.s.guard(m.lock)()
	clear(m.s.reservations)
	return nil
}

type memVehicles struct {
	s    *memStore
	lock bool
}

func (m *memVehicles) LockForBooking(_ context.Context, vehicleID uuid.UUID) (int64, error) {
	defer m.s.guard(m.lock)()
	m.s.vehicles[vehicleID]++
	return m.s.vehicles[vehicleID], nil
}

var (
	_ repo.EventRepo       = (*memEvents)(nil)
	_ repo.ReservationRepo = (*memReservations)(nil)
	_ repo.VehicleRepo     = (*memVehicles)(nil)
	_ repo.TxRunner        = (*memStore)(nil)
)

// mockEventRepo is a hand-written test double for repo.EventRepo.
// Set only the function fields your test needs.
type mockEventRepo struct {
	load               func(ctx context.Context, id uuid.UUID) ([]domain.RecordedEvent, error)
	appendEvents       func(ctx context.Context, id uuid.UUID, expectedVersion int, events []domain.Event) error
	listReservationIDs func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockEventRepo) Load(ctx context.Context, id uuid.UUID) ([]domain.RecordedEvent, error) {
	return m.load(ctx, id)
}
func (m *mockEventRepo) Append(ctx context.Context, id uuid.UUID, expectedVersion int, events []domain.Event) error {
	return m.appendEvents(ctx, id, expectedVersion, events)
}
func (m *mockEventRepo) ListReservationIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.listReservationIDs(ctx)
}

var _ repo.EventRepo = (*mockEventRepo)(nil)

// txFunc adapts a function to repo.TxRunner.
type txFunc func(ctx context.Context, fn func(repo.Repos) error) error

func (f txFunc) InTx(ctx context.Context, fn func(repo.Repos) error) error { return f(ctx, fn) }

// testClock is a settable service.Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
