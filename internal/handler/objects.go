package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Request objects carry the bound path, query and body of one operation.
// The StrictHandler fills them in; Server methods only read them.

type GetHealthRequestObject struct{}

type GetOpenAPIRequestObject struct{}

type CreateReservationRequestObject struct {
	Body *CreateReservationRequest
}

type GetReservationRequestObject struct {
	ID openapi_types.UUID
}

// ListReservationEventsParams are the query parameters of
// GET /reservations/{id}/events.
type ListReservationEventsParams struct {
	// Format is "json" (default) or "csv".
	Format *string
}

type ListReservationEventsRequestObject struct {
	ID     openapi_types.UUID
	Params ListReservationEventsParams
}

// ReservationCommandRequestObject is shared by the body-less lifecycle
// commands: confirm, activate and complete.
type ReservationCommandRequestObject struct {
	ID openapi_types.UUID
}

// CancelReservationRequestObject has a nil Body when the client sent none.
type CancelReservationRequestObject struct {
	ID   openapi_types.UUID
	Body *CancelReservationRequest
}

type MarkReservationNoShowRequestObject struct {
	ID   openapi_types.UUID
	Body *NoShowRequest
}

// PeriodParams are the required pickup_date and return_date query parameters
// of the availability endpoints.
type PeriodParams struct {
	PickupDate openapi_types.Date
	ReturnDate openapi_types.Date
}

type GetVehicleAvailabilityRequestObject struct {
	VehicleID openapi_types.UUID
	Params    PeriodParams
}

type ListBookedVehiclesRequestObject struct {
	Params PeriodParams
}

type RebuildProjectionsRequestObject struct{}

// ResponseObject is what every Server method returns. The StrictHandler
// calls VisitResponse to write it.
type ResponseObject interface {
	VisitResponse(w http.ResponseWriter) error
}

type GetHealth200JSONResponse HealthResponse

func (response GetHealth200JSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, http.StatusOK, response)
}

// GetOpenAPI200YAMLResponse serves the raw API document.
type GetOpenAPI200YAMLResponse []byte

func (response GetOpenAPI200YAMLResponse) VisitResponse(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(response)
	return err
}

type CreateReservation201ResponseHeaders struct {
	Location string
}

type CreateReservation201JSONResponse struct {
	Body    Reservation
	Headers CreateReservation201ResponseHeaders
}

func (response CreateReservation201JSONResponse) VisitResponse(w http.ResponseWriter) error {
	w.Header().Set("Location", response.Headers.Location)
	return writeJSON(w, http.StatusCreated, response.Body)
}

// Reservation200JSONResponse is returned by the get and lifecycle operations.
type Reservation200JSONResponse Reservation

func (response Reservation200JSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, http.StatusOK, response)
}

type ListReservationEvents200JSONResponse ReservationEventList

func (response ListReservationEvents200JSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, http.StatusOK, response)
}

// ListReservationEvents200CSVResponse holds an encoded CSV document.
type ListReservationEvents200CSVResponse struct {
	Body *bytes.Buffer
}

func (response ListReservationEvents200CSVResponse) VisitResponse(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Length", strconv.Itoa(response.Body.Len()))
	w.WriteHeader(http.StatusOK)
	_, err := response.Body.WriteTo(w)
	return err
}

type GetVehicleAvailability200JSONResponse AvailabilityResponse

func (response GetVehicleAvailability200JSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, http.StatusOK, response)
}

type ListBookedVehicles200JSONResponse BookedVehiclesResponse

func (response ListBookedVehicles200JSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, http.StatusOK, response)
}

type RebuildProjections200JSONResponse RebuildResponse

func (response RebuildProjections200JSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, http.StatusOK, response)
}

// ErrorJSONResponse is any 4xx answer in the {"error": {...}} shape.
type ErrorJSONResponse struct {
	StatusCode int
	Body       ErrorResponse
}

func (response ErrorJSONResponse) VisitResponse(w http.ResponseWriter) error {
	return writeJSON(w, response.StatusCode, response.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
