// Package service contains the reservation command handlers and queries.
// Services load state by replaying events, apply the domain rules, and append
// the resulting event. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
)

// maxAttempts bounds how often a command is tried when the event store
// reports a concurrency conflict: the first attempt plus one retry against
// freshly loaded state.
const maxAttempts = 2

// ReservationService implements the reservation lifecycle.
// Writes go through tx so each command's read-decide-append happens in one
// transaction; reads use repos directly.
type ReservationService struct {
	repos repo.Repos
	tx    repo.TxRunner
	clock Clock
	log   *slog.Logger
}

// NewReservationService constructs a ReservationService.
func NewReservationService(repos repo.Repos, tx repo.TxRunner, clock Clock, log *slog.Logger) *ReservationService {
	return &ReservationService{repos: repos, tx: tx, clock: clock, log: log}
}

// Create books a vehicle. The vehicle's booking row is locked first, so the
// availability check and the ReservationCreated append cannot interleave
// with another booking of the same vehicle.
// Returns domain.ErrValidation or domain.ErrInvalidPeriod for bad input and
// domain.ErrUnavailable if the period overlaps a blocking reservation.
func (s *ReservationService) Create(ctx context.Context, in domain.NewReservation) (domain.Reservation, error) {
	var result domain.Reservation

	err := s.retry(ctx, "Create", func() error {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		created, err := domain.Create(id, in, s.clock.Now())
		if err != nil {
			return err
		}

		return s.tx.InTx(ctx, func(r repo.Repos) error {
			if _, err := r.Vehicles.LockForBooking(ctx, created.VehicleID); err != nil {
				return err
			}
			existing, err := r.Reservations.ListBlockingByVehicle(ctx, created.VehicleID, created.Period)
			if err != nil {
				return err
			}
			if conflicts := domain.Conflicts(created.VehicleID, created.Period, existing); len(conflicts) > 0 {
				s.log.InfoContext(ctx, "booking rejected: vehicle unavailable",
					"vehicle_id", created.VehicleID,
					"period", created.Period.String(),
					"conflicting_reservation_id", conflicts[0].ID,
				)
				return fmt.Errorf("%w: vehicle %s is booked during %s", domain.ErrUnavailable, created.VehicleID, created.Period)
			}
			if err := r.Events.Append(ctx, id, 0, []domain.Event{created}); err != nil {
				return err
			}
			result = domain.Apply(domain.Reservation{}, created)
			return r.Reservations.Save(ctx, result)
		})
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}

	s.log.InfoContext(ctx, "reservation created",
		"reservation_id", result.ID,
		"vehicle_id", result.VehicleID,
		"period", result.Period.String(),
	)
	return result, nil
}

// Confirm moves a pending reservation to confirmed.
func (s *ReservationService) Confirm(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return s.execute(ctx, "Confirm", id, domain.Confirm)
}

// Cancel cancels a pending or confirmed reservation. Cancelling a cancelled
// reservation returns it unchanged.
func (s *ReservationService) Cancel(ctx context.Context, id uuid.UUID, reason string) (domain.Reservation, error) {
	return s.execute(ctx, "Cancel", id, func(r domain.Reservation, now time.Time) (domain.Event, error) {
		return domain.Cancel(r, reason, now)
	})
}

// Activate hands the vehicle over. Returns domain.ErrTooEarly before the
// pickup date.
func (s *ReservationService) Activate(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return s.execute(ctx, "Activate", id, domain.Activate)
}

// Complete closes an active rental.
func (s *ReservationService) Complete(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return s.execute(ctx, "Complete", id, domain.Complete)
}

// MarkNoShow records that the customer never collected the vehicle.
// Returns domain.ErrTooEarly until the day after pickup.
func (s *ReservationService) MarkNoShow(ctx context.Context, id uuid.UUID, reason string) (domain.Reservation, error) {
	return s.execute(ctx, "MarkNoShow", id, func(r domain.Reservation, now time.Time) (domain.Event, error) {
		return domain.MarkNoShow(r, reason, now)
	})
}

// Get returns the current state of a reservation, rebuilt from its events.
// Returns domain.ErrNotFound if the reservation has no event stream.
func (s *ReservationService) Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	recorded, err := s.repos.Events.Load(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Get: %w", err)
	}
	state, err := domain.ReplayRecorded(recorded)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Get: %w", err)
	}
	return state, nil
}

// History returns the reservation's events in order.
// Returns domain.ErrNotFound if the reservation has no event stream.
func (s *ReservationService) History(ctx context.Context, id uuid.UUID) ([]domain.RecordedEvent, error) {
	recorded, err := s.repos.Events.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.History: %w", err)
	}
	if len(recorded) == 0 {
		return nil, fmt.Errorf("service.ReservationService.History: %w", domain.ErrNotFound)
	}
	return recorded, nil
}

// IsVehicleAvailable reports whether the vehicle has no blocking reservation
// overlapping p. It is advisory: Create re-checks under the vehicle lock.
func (s *ReservationService) IsVehicleAvailable(ctx context.Context, vehicleID uuid.UUID, p domain.BookingPeriod) (bool, error) {
	existing, err := s.repos.Reservations.ListBlockingByVehicle(ctx, vehicleID, p)
	if err != nil {
		return false, fmt.Errorf("service.ReservationService.IsVehicleAvailable: %w", err)
	}
	return domain.IsAvailable(vehicleID, p, existing), nil
}

// BookedVehicleIDs lists vehicles with a blocking reservation overlapping p.
// Always returns a non-nil slice.
func (s *ReservationService) BookedVehicleIDs(ctx context.Context, p domain.BookingPeriod) ([]uuid.UUID, error) {
	ids, err := s.repos.Reservations.BookedVehicleIDs(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.BookedVehicleIDs: %w", err)
	}
	if ids == nil {
		return []uuid.UUID{}, nil
	}
	return ids, nil
}

// decider is the signature shared by the domain state machine functions.
type decider func(domain.Reservation, time.Time) (domain.Event, error)

// execute runs one per-aggregate command: load, replay, decide, append,
// project. A nil event from decide means the command was an accepted no-op.
func (s *ReservationService) execute(ctx context.Context, op string, id uuid.UUID, decide decider) (domain.Reservation, error) {
	var result domain.Reservation

	err := s.retry(ctx, op, func() error {
		return s.tx.InTx(ctx, func(r repo.Repos) error {
			recorded, err := r.Events.Load(ctx, id)
			if err != nil {
				return err
			}
			state, err := domain.ReplayRecorded(recorded)
			if err != nil {
				return err
			}

			event, err := decide(state, s.clock.Now())
			if err != nil {
				return err
			}
			if event == nil {
				result = state
				return nil
			}

			// Cancelling frees the vehicle, which changes its booking set.
			if _, ok := event.(domain.ReservationCancelled); ok {
				if _, err := r.Vehicles.LockForBooking(ctx, state.VehicleID); err != nil {
					return err
				}
			}
			if err := r.Events.Append(ctx, id, state.Version, []domain.Event{event}); err != nil {
				return err
			}
			result = domain.Apply(state, event)
			return r.Reservations.Save(ctx, result)
		})
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.%s: %w", op, err)
	}

	s.log.InfoContext(ctx, "reservation updated",
		"op", op,
		"reservation_id", id,
		"status", result.Status,
		"version", result.Version,
	)
	return result, nil
}

// retry runs fn until it succeeds, fails with anything other than a
// concurrency conflict, or maxAttempts is reached.
func (s *ReservationService) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		s.log.WarnContext(ctx, "concurrency conflict", "op", op, "attempt", attempt, "error", err)
	}
	return err
}
