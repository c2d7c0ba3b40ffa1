package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event type names. These are persisted alongside each event payload and
// must never change once written.
const (
	EventReservationCreated      = "ReservationCreated"
	EventReservationConfirmed    = "ReservationConfirmed"
	EventReservationCancelled    = "ReservationCancelled"
	EventReservationActivated    = "ReservationActivated"
	EventReservationCompleted    = "ReservationCompleted"
	EventReservationMarkedNoShow = "ReservationMarkedNoShow"
)

// Event is a fact recorded on a reservation's stream.
// The set of implementations is closed: only the types in this file satisfy it.
type Event interface {
	EventType() string
	OccurredAt() time.Time
	isEvent()
}

// ReservationCreated opens a reservation stream. It carries the full initial state.
type ReservationCreated struct {
	ReservationID       uuid.UUID     `json:"reservation_id"`
	VehicleID           uuid.UUID     `json:"vehicle_id"`
	CustomerID          uuid.UUID     `json:"customer_id"`
	Period              BookingPeriod `json:"period"`
	PickupLocationCode  string        `json:"pickup_location_code"`
	DropoffLocationCode string        `json:"dropoff_location_code"`
	TotalPrice          Money         `json:"total_price"`
	At                  time.Time     `json:"occurred_at"`
}

type ReservationConfirmed struct {
	At time.Time `json:"occurred_at"`
}

// ReservationCancelled records a cancellation. Late is set when the
// cancellation happened inside the cutoff window before pickup.
type ReservationCancelled struct {
	Reason string    `json:"reason,omitempty"`
	Late   bool      `json:"late"`
	At     time.Time `json:"occurred_at"`
}

type ReservationActivated struct {
	At time.Time `json:"occurred_at"`
}

type ReservationCompleted struct {
	At time.Time `json:"occurred_at"`
}

type ReservationMarkedNoShow struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"occurred_at"`
}

func (ReservationCreated) EventType() string      { return EventReservationCreated }
func (ReservationConfirmed) EventType() string    { return EventReservationConfirmed }
func (ReservationCancelled) EventType() string    { return EventReservationCancelled }
func (ReservationActivated) EventType() string    { return EventReservationActivated }
func (ReservationCompleted) EventType() string    { return EventReservationCompleted }
func (ReservationMarkedNoShow) EventType() string { return EventReservationMarkedNoShow }

func (e ReservationCreated) OccurredAt() time.Time      { return e.At }
func (e ReservationConfirmed) OccurredAt() time.Time    { return e.At }
func (e ReservationCancelled) OccurredAt() time.Time    { return e.At }
func (e ReservationActivated) OccurredAt() time.Time    { return e.At }
func (e ReservationCompleted) OccurredAt() time.Time    { return e.At }
func (e ReservationMarkedNoShow) OccurredAt() time.Time { return e.At }

func (ReservationCreated) isEvent()      {}
func (ReservationConfirmed) isEvent()    {}
func (ReservationCancelled) isEvent()    {}
func (ReservationActivated) isEvent()    {}
func (ReservationCompleted) isEvent()    {}
func (ReservationMarkedNoShow) isEvent() {}

// RecordedEvent is an event as read back from the store, with its position
// in the reservation's stream.
type RecordedEvent struct {
	ReservationID uuid.UUID
	Version       int
	Event         Event
	RecordedAt    time.Time
}
