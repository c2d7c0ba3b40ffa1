// Package domain contains the reservation aggregate, its events, and the pure
// rules that govern it: period validation, the status state machine, the
// availability resolver and the event-sourced projection.
// This package performs no I/O and never reads the wall clock.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// BlockingStatuses are the statuses whose reservations occupy the vehicle.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusActive}

// IsTerminal reports whether no further transition is defined from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// BlocksVehicle reports whether a reservation in status s prevents other
// bookings of the same vehicle for its period.
func (s Status) BlocksVehicle() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive:
		return true
	}
	return false
}

// Money is a price split into net, VAT and gross amounts in minor units.
type Money struct {
	Net      int64  `json:"net"`
	VAT      int64  `json:"vat"`
	Gross    int64  `json:"gross"`
	Currency string `json:"currency"`
}

// Reservation is the projected state of one reservation aggregate.
// It is produced only by folding the aggregate's events through Apply;
// callers must not construct or mutate it to change state.
//
// Version is the number of events folded so far and is the expected version
// for the next append.
type Reservation struct {
	ID                  uuid.UUID
	VehicleID           uuid.UUID
	CustomerID          uuid.UUID
	Period              BookingPeriod
	PickupLocationCode  string
	DropoffLocationCode string
	TotalPrice          Money
	Status              Status
	CancellationReason  string
	LateCancellation    bool
	NoShowReason        string
	CreatedAt           time.Time
	ConfirmedAt         *time.Time
	ActivatedAt         *time.Time
	CompletedAt         *time.Time
	CancelledAt         *time.Time
	NoShowAt            *time.Time
	Version             int
}

// HasBeenCreated reports whether a ReservationCreated event has been folded.
func (r Reservation) HasBeenCreated() bool {
	return r.Version > 0 && r.ID != uuid.Nil
}
