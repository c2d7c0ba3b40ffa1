package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// StrictServerInterface is the API in request-object form. Server implements
// it; StrictHandler adapts it to net/http.
type StrictServerInterface interface {
	// (GET /healthz)
	GetHealth(ctx context.Context, request GetHealthRequestObject) (ResponseObject, error)
	// (GET /openapi.yaml)
	GetOpenAPI(ctx context.Context, request GetOpenAPIRequestObject) (ResponseObject, error)
	// (POST /reservations)
	CreateReservation(ctx context.Context, request CreateReservationRequestObject) (ResponseObject, error)
	// (GET /reservations/{id})
	GetReservation(ctx context.Context, request GetReservationRequestObject) (ResponseObject, error)
	// (GET /reservations/{id}/events)
	ListReservationEvents(ctx context.Context, request ListReservationEventsRequestObject) (ResponseObject, error)
	// (POST /reservations/{id}/confirm)
	ConfirmReservation(ctx context.Context, request ReservationCommandRequestObject) (ResponseObject, error)
	// (POST /reservations/{id}/cancel)
	CancelReservation(ctx context.Context, request CancelReservationRequestObject) (ResponseObject, error)
	// (POST /reservations/{id}/activate)
	ActivateReservation(ctx context.Context, request ReservationCommandRequestObject) (ResponseObject, error)
	// (POST /reservations/{id}/complete)
	CompleteReservation(ctx context.Context, request ReservationCommandRequestObject) (ResponseObject, error)
	// (POST /reservations/{id}/no-show)
	MarkReservationNoShow(ctx context.Context, request MarkReservationNoShowRequestObject) (ResponseObject, error)
	// (GET /vehicles/{vehicleId}/availability)
	GetVehicleAvailability(ctx context.Context, request GetVehicleAvailabilityRequestObject) (ResponseObject, error)
	// (GET /vehicles/booked)
	ListBookedVehicles(ctx context.Context, request ListBookedVehiclesRequestObject) (ResponseObject, error)
	// (POST /admin/projections/rebuild)
	RebuildProjections(ctx context.Context, request RebuildProjectionsRequestObject) (ResponseObject, error)
}

// StrictHTTPServerOptions customises how binding failures and unexpected
// handler errors are written. Nil funcs fall back to the defaults below.
type StrictHTTPServerOptions struct {
	RequestErrorHandlerFunc  func(w http.ResponseWriter, r *http.Request, err error)
	ResponseErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// StrictHandler binds requests into request objects, calls the
// StrictServerInterface and writes the returned ResponseObject.
type StrictHandler struct {
	ssi     StrictServerInterface
	options StrictHTTPServerOptions
}

// NewStrictHandler wraps ssi. options may be nil.
func NewStrictHandler(ssi StrictServerInterface, options *StrictHTTPServerOptions) *StrictHandler {
	h := &StrictHandler{ssi: ssi}
	if options != nil {
		h.options = *options
	}
	if h.options.RequestErrorHandlerFunc == nil {
		h.options.RequestErrorHandlerFunc = defaultRequestErrorHandler
	}
	if h.options.ResponseErrorHandlerFunc == nil {
		h.options.ResponseErrorHandlerFunc = defaultResponseErrorHandler
	}
	return h
}

// defaultRequestErrorHandler answers 413 for an oversized body and 400 for
// anything else that failed to bind.
func defaultRequestErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
}

// defaultResponseErrorHandler logs errors no domain sentinel accounts for and
// answers a bare 500 so internals never leak.
func defaultResponseErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.Default().ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}

// Handler returns the API mounted on a fresh chi router.
func Handler(h *StrictHandler) http.Handler {
	return HandlerFromMux(h, chi.NewRouter())
}

// HandlerFromMux registers every route on r and returns it.
// Middleware must already be attached to r.
func HandlerFromMux(h *StrictHandler, r chi.Router) http.Handler {
	r.Get("/healthz", h.GetHealth)
	r.Get("/openapi.yaml", h.GetOpenAPI)

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", h.CreateReservation)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetReservation)
			r.Get("/events", h.ListReservationEvents)
			r.Post("/confirm", h.ConfirmReservation)
			r.Post("/cancel", h.CancelReservation)
			r.Post("/activate", h.ActivateReservation)
			r.Post("/complete", h.CompleteReservation)
			r.Post("/no-show", h.MarkReservationNoShow)
		})
	})

	r.Get("/vehicles/booked", h.ListBookedVehicles)
	r.Get("/vehicles/{vehicleId}/availability", h.GetVehicleAvailability)

	r.Post("/admin/projections/rebuild", h.RebuildProjections)

	return r
}

// GetHealth operation middleware
func (h *StrictHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.ssi.GetHealth(r.Context(), GetHealthRequestObject{}))
}

// GetOpenAPI operation middleware
func (h *StrictHandler) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.ssi.GetOpenAPI(r.Context(), GetOpenAPIRequestObject{}))
}

// CreateReservation operation middleware
func (h *StrictHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var body CreateReservationRequest
	if err := decodeBody(r, &body); err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	h.respond(w, r)(h.ssi.CreateReservation(r.Context(), CreateReservationRequestObject{Body: &body}))
}

// GetReservation operation middleware
func (h *StrictHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := bindPathUUID(r, "id")
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	h.respond(w, r)(h.ssi.GetReservation(r.Context(), GetReservationRequestObject{ID: id}))
}

// ListReservationEvents operation middleware
func (h *StrictHandler) ListReservationEvents(w http.ResponseWriter, r *http.Request) {
	id, err := bindPathUUID(r, "id")
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	var params ListReservationEventsParams
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format); err != nil {
		h.options.RequestErrorHandlerFunc(w, r, fmt.Errorf("invalid format: %w", err))
		return
	}
	h.respond(w, r)(h.ssi.ListReservationEvents(r.Context(), ListReservationEventsRequestObject{ID: id, Params: params}))
}

// ConfirmReservation operation middleware
func (h *StrictHandler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.ssi.ConfirmReservation)
}

// CancelReservation operation middleware
func (h *StrictHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := bindPathUUID(r, "id")
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	request := CancelReservationRequestObject{ID: id}
	var body CancelReservationRequest
	switch err := decodeBody(r, &body); {
	case errors.Is(err, errMissingBody):
	case err != nil:
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	default:
		request.Body = &body
	}
	h.respond(w, r)(h.ssi.CancelReservation(r.Context(), request))
}

// ActivateReservation operation middleware
func (h *StrictHandler) ActivateReservation(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.ssi.ActivateReservation)
}

// CompleteReservation operation middleware
func (h *StrictHandler) CompleteReservation(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.ssi.CompleteReservation)
}

// MarkReservationNoShow operation middleware
func (h *StrictHandler) MarkReservationNoShow(w http.ResponseWriter, r *http.Request) {
	id, err := bindPathUUID(r, "id")
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	var body NoShowRequest
	if err := decodeBody(r, &body); err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	h.respond(w, r)(h.ssi.MarkReservationNoShow(r.Context(), MarkReservationNoShowRequestObject{ID: id, Body: &body}))
}

// GetVehicleAvailability operation middleware
func (h *StrictHandler) GetVehicleAvailability(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := bindPathUUID(r, "vehicleId")
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	params, err := bindPeriodParams(r.URL.Query())
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	h.respond(w, r)(h.ssi.GetVehicleAvailability(r.Context(), GetVehicleAvailabilityRequestObject{VehicleID: vehicleID, Params: params}))
}

// ListBookedVehicles operation middleware
func (h *StrictHandler) ListBookedVehicles(w http.ResponseWriter, r *http.Request) {
	params, err := bindPeriodParams(r.URL.Query())
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	h.respond(w, r)(h.ssi.ListBookedVehicles(r.Context(), ListBookedVehiclesRequestObject{Params: params}))
}

// RebuildProjections operation middleware
func (h *StrictHandler) RebuildProjections(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.ssi.RebuildProjections(r.Context(), RebuildProjectionsRequestObject{}))
}

// command handles the body-less lifecycle operations.
func (h *StrictHandler) command(w http.ResponseWriter, r *http.Request,
	op func(context.Context, ReservationCommandRequestObject) (ResponseObject, error)) {
	id, err := bindPathUUID(r, "id")
	if err != nil {
		h.options.RequestErrorHandlerFunc(w, r, err)
		return
	}
	h.respond(w, r)(op(r.Context(), ReservationCommandRequestObject{ID: id}))
}

// respond writes the outcome of a StrictServerInterface call.
func (h *StrictHandler) respond(w http.ResponseWriter, r *http.Request) func(ResponseObject, error) {
	return func(response ResponseObject, err error) {
		if err != nil {
			h.options.ResponseErrorHandlerFunc(w, r, err)
			return
		}
		if response == nil {
			h.options.ResponseErrorHandlerFunc(w, r, fmt.Errorf("unexpected response type: %T", response))
			return
		}
		if err := response.VisitResponse(w); err != nil {
			h.options.ResponseErrorHandlerFunc(w, r, err)
		}
	}
}

var errMissingBody = errors.New("request body is required")

// decodeBody parses a JSON body into dst. Returns errMissingBody for an empty
// body; an oversized body surfaces as *http.MaxBytesError.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return errMissingBody
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("can't decode JSON body: %w", err)
	}
}

func bindPathUUID(r *http.Request, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return id, nil
}

// bindPeriodParams binds pickup_date and return_date. Both are required; an
// absent or empty parameter is an error rather than the zero date.
func bindPeriodParams(q url.Values) (PeriodParams, error) {
	var params PeriodParams
	for _, p := range []struct {
		name string
		dst  *openapi_types.Date
	}{
		{"pickup_date", &params.PickupDate},
		{"return_date", &params.ReturnDate},
	} {
		var d *openapi_types.Date
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, &d); err != nil {
			return PeriodParams{}, fmt.Errorf("invalid format for parameter %s: %w", p.name, err)
		}
		if d == nil || d.IsZero() {
			return PeriodParams{}, fmt.Errorf("query parameter %s is required", p.name)
		}
		*p.dst = *d
	}
	return params, nil
}
