package domain

import (
	"errors"
	"fmt"
	"time"
)

// errStreamOrder is returned by Replay when a stream does not begin with
// ReservationCreated, or contains a second one. That can only happen if the
// store has been corrupted, so it is deliberately not one of the sentinels
// callers are expected to handle.
var errStreamOrder = errors.New("event stream out of order")

// Apply folds a single event into state and returns the new state.
// It is pure: timestamps come from the event, never from the clock, so that
// replaying a stream always yields identical state.
//
// Apply panics on an event type it does not know. That is a programming
// error (a new event added without a reducer case) and must not be swallowed.
func Apply(state Reservation, event Event) Reservation {
	switch e := event.(type) {
	case ReservationCreated:
		state = Reservation{
			ID:                  e.ReservationID,
			VehicleID:           e.VehicleID,
			CustomerID:          e.CustomerID,
			Period:              e.Period,
			PickupLocationCode:  e.PickupLocationCode,
			DropoffLocationCode: e.DropoffLocationCode,
			TotalPrice:          e.TotalPrice,
			Status:              StatusPending,
			CreatedAt:           e.At,
		}
	case ReservationConfirmed:
		state.Status = StatusConfirmed
		state.ConfirmedAt = timePtr(e.At)
	case ReservationCancelled:
		state.Status = StatusCancelled
		state.CancellationReason = e.Reason
		state.LateCancellation = e.Late
		state.CancelledAt = timePtr(e.At)
	case ReservationActivated:
		state.Status = StatusActive
		state.ActivatedAt = timePtr(e.At)
	case ReservationCompleted:
		state.Status = StatusCompleted
		state.CompletedAt = timePtr(e.At)
	case ReservationMarkedNoShow:
		state.Status = StatusNoShow
		state.NoShowReason = e.Reason
		state.NoShowAt = timePtr(e.At)
	default:
		panic(fmt.Sprintf("domain.Apply: unhandled event type %T", event))
	}
	state.Version++
	return state
}

// Replay folds an ordered event stream into the current reservation state.
// Returns ErrNotFound for an empty stream.
func Replay(events []Event) (Reservation, error) {
	if len(events) == 0 {
		return Reservation{}, ErrNotFound
	}

	var state Reservation
	for i, e := range events {
		_, isCreate := e.(ReservationCreated)
		if (i == 0) != isCreate {
			return Reservation{}, fmt.Errorf("domain.Replay: %w: %s at position %d", errStreamOrder, e.EventType(), i+1)
		}
		state = Apply(state, e)
	}
	return state, nil
}

// ReplayRecorded is Replay for events read back from the store. Versions
// must run 1, 2, 3... without gaps.
func ReplayRecorded(recorded []RecordedEvent) (Reservation, error) {
	events := make([]Event, len(recorded))
	for i, r := range recorded {
		if r.Version != i+1 {
			return Reservation{}, fmt.Errorf("domain.ReplayRecorded: %w: version %d at position %d", errStreamOrder, r.Version, i+1)
		}
		events[i] = r.Event
	}
	return Replay(events)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
