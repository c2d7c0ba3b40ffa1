package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Wire types for the reservation API. Field names and json tags are the
// public contract; keep them stable.

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// MoneyBody is a price in minor units.
type MoneyBody struct {
	Net      int64  `json:"net" validate:"gte=0"`
	VAT      int64  `json:"vat" validate:"gte=0"`
	Gross    int64  `json:"gross" validate:"gte=0,gtefield=Net"`
	Currency string `json:"currency" validate:"required,iso4217"`
}

// CreateReservationRequest is the body of POST /reservations.
type CreateReservationRequest struct {
	VehicleID           openapi_types.UUID  `json:"vehicle_id" validate:"required"`
	CustomerID          openapi_types.UUID  `json:"customer_id" validate:"required"`
	PickupDate          *openapi_types.Date `json:"pickup_date" validate:"required"`
	ReturnDate          *openapi_types.Date `json:"return_date" validate:"required"`
	PickupLocationCode  string              `json:"pickup_location_code" validate:"required,max=32"`
	DropoffLocationCode string              `json:"dropoff_location_code" validate:"required,max=32"`
	TotalPrice          MoneyBody           `json:"total_price"`
}

// CancelReservationRequest is the optional body of POST /reservations/{id}/cancel.
type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// NoShowRequest is the body of POST /reservations/{id}/no-show.
type NoShowRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Reservation is the API view of a reservation.
type Reservation struct {
	ID                  openapi_types.UUID `json:"id"`
	VehicleID           openapi_types.UUID `json:"vehicle_id"`
	CustomerID          openapi_types.UUID `json:"customer_id"`
	PickupDate          openapi_types.Date `json:"pickup_date"`
	ReturnDate          openapi_types.Date `json:"return_date"`
	RentalDays          int                `json:"rental_days"`
	PickupLocationCode  string             `json:"pickup_location_code"`
	DropoffLocationCode string             `json:"dropoff_location_code"`
	TotalPrice          MoneyBody          `json:"total_price"`
	Status              string             `json:"status"`
	CancellationReason  *string            `json:"cancellation_reason,omitempty"`
	LateCancellation    bool               `json:"late_cancellation"`
	NoShowReason        *string            `json:"no_show_reason,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	ConfirmedAt         *time.Time         `json:"confirmed_at,omitempty"`
	ActivatedAt         *time.Time         `json:"activated_at,omitempty"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
	CancelledAt         *time.Time         `json:"cancelled_at,omitempty"`
	NoShowAt            *time.Time         `json:"no_show_at,omitempty"`
	Version             int                `json:"version"`
}

// ReservationEvent is one entry of GET /reservations/{id}/events.
type ReservationEvent struct {
	Version    int       `json:"version"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
	Data       any       `json:"data"`
}

type ReservationEventList struct {
	Data []ReservationEvent `json:"data"`
}

type AvailabilityResponse struct {
	VehicleID  openapi_types.UUID `json:"vehicle_id"`
	PickupDate openapi_types.Date `json:"pickup_date"`
	ReturnDate openapi_types.Date `json:"return_date"`
	Available  bool               `json:"available"`
}

type BookedVehiclesResponse struct {
	PickupDate openapi_types.Date   `json:"pickup_date"`
	ReturnDate openapi_types.Date   `json:"return_date"`
	VehicleIDs []openapi_types.UUID `json:"vehicle_ids"`
}

type RebuildResponse struct {
	Reservations int `json:"reservations"`
}
