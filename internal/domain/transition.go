package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LateCancellationWindow is how close to pickup a cancellation is flagged as
// late. Late cancellations are still accepted; the flag is for fee handling
// downstream.
const LateCancellationWindow = 48 * time.Hour

// NewReservation is the input for creating a reservation.
// VehicleID and CustomerID are opaque references to other services.
type NewReservation struct {
	VehicleID           uuid.UUID
	CustomerID          uuid.UUID
	PickupDate          time.Time
	ReturnDate          time.Time
	PickupLocationCode  string
	DropoffLocationCode string
	TotalPrice          Money
}

// Create validates a new reservation request and returns the event that opens
// its stream. now is the current time in the business time zone.
// Availability is not checked here; see IsAvailable.
func Create(id uuid.UUID, in NewReservation, now time.Time) (ReservationCreated, error) {
	if in.VehicleID == uuid.Nil {
		return ReservationCreated{}, fmt.Errorf("%w: vehicle_id is required", ErrValidation)
	}
	if in.CustomerID == uuid.Nil {
		return ReservationCreated{}, fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	pickupLoc := strings.TrimSpace(in.PickupLocationCode)
	dropoffLoc := strings.TrimSpace(in.DropoffLocationCode)
	if pickupLoc == "" || dropoffLoc == "" {
		return ReservationCreated{}, fmt.Errorf("%w: pickup and dropoff location codes are required", ErrValidation)
	}

	period, err := NewBookingPeriod(in.PickupDate, in.ReturnDate, now)
	if err != nil {
		return ReservationCreated{}, err
	}

	return ReservationCreated{
		ReservationID:       id,
		VehicleID:           in.VehicleID,
		CustomerID:          in.CustomerID,
		Period:              period,
		PickupLocationCode:  pickupLoc,
		DropoffLocationCode: dropoffLoc,
		TotalPrice:          in.TotalPrice,
		At:                  now.UTC(),
	}, nil
}

// Confirm is legal only from Pending.
func Confirm(r Reservation, now time.Time) (Event, error) {
	if r.Status != StatusPending {
		return nil, illegal("confirm", r.Status)
	}
	return ReservationConfirmed{At: now.UTC()}, nil
}

// Cancel is legal from Pending and Confirmed. Cancelling an already cancelled
// reservation succeeds without producing an event.
func Cancel(r Reservation, reason string, now time.Time) (Event, error) {
	switch r.Status {
	case StatusCancelled:
		return nil, nil
	case StatusPending, StatusConfirmed:
		return ReservationCancelled{
			Reason: strings.TrimSpace(reason),
			Late:   r.Period.UntilPickup(now) < LateCancellationWindow,
			At:     now.UTC(),
		}, nil
	default:
		return nil, illegal("cancel", r.Status)
	}
}

// Activate is legal from Confirmed once the pickup date has arrived.
func Activate(r Reservation, now time.Time) (Event, error) {
	if r.Status != StatusConfirmed {
		return nil, illegal("activate", r.Status)
	}
	if DateOf(now).Before(r.Period.PickupDate) {
		return nil, fmt.Errorf("%w: pickup date %s has not arrived", ErrTooEarly, FormatDate(r.Period.PickupDate))
	}
	return ReservationActivated{At: now.UTC()}, nil
}

// Complete is legal only from Active.
func Complete(r Reservation, now time.Time) (Event, error) {
	if r.Status != StatusActive {
		return nil, illegal("complete", r.Status)
	}
	return ReservationCompleted{At: now.UTC()}, nil
}

// MarkNoShow is legal from Confirmed once the pickup date has passed.
func MarkNoShow(r Reservation, reason string, now time.Time) (Event, error) {
	if r.Status != StatusConfirmed {
		return nil, illegal("mark no-show", r.Status)
	}
	if !DateOf(now).After(r.Period.PickupDate) {
		return nil, fmt.Errorf("%w: pickup date %s has not passed", ErrTooEarly, FormatDate(r.Period.PickupDate))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: no-show reason is required", ErrValidation)
	}
	return ReservationMarkedNoShow{Reason: reason, At: now.UTC()}, nil
}

func illegal(command string, from Status) error {
	return fmt.Errorf("%w: cannot %s a %s reservation", ErrIllegalTransition, command, from)
}
