package handler

import (
	"context"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// CreateReservation handles POST /reservations.
func (s *Server) CreateReservation(ctx context.Context, req CreateReservationRequestObject) (ResponseObject, error) {
	if err := s.validate.Struct(req.Body); err != nil {
		return validationResponse(err), nil
	}

	created, err := s.reservations.Create(ctx, requestToNewReservation(*req.Body))
	if err != nil {
		return errorResponse(err)
	}

	return CreateReservation201JSONResponse{
		Body:    reservationToResponse(created),
		Headers: CreateReservation201ResponseHeaders{Location: "/reservations/" + created.ID.String()},
	}, nil
}

// GetReservation handles GET /reservations/{id}.
func (s *Server) GetReservation(ctx context.Context, req GetReservationRequestObject) (ResponseObject, error) {
	return reservationResult(s.reservations.Get(ctx, req.ID))
}

// ListReservationEvents handles GET /reservations/{id}/events.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ListReservationEvents(ctx context.Context, req ListReservationEventsRequestObject) (ResponseObject, error) {
	format, ok := exportFormat(req.Params.Format)
	if !ok {
		return badRequestResponse(`format must be "json" or "csv"`), nil
	}

	history, err := s.reservations.History(ctx, req.ID)
	if err != nil {
		return errorResponse(err)
	}

	if format == formatCSV {
		return ListReservationEvents200CSVResponse{Body: eventsToCSV(history)}, nil
	}

	data := make([]ReservationEvent, len(history))
	for i, e := range history {
		data[i] = ReservationEvent{
			Version:    e.Version,
			Type:       e.Event.EventType(),
			OccurredAt: e.Event.OccurredAt(),
			RecordedAt: e.RecordedAt,
			Data:       e.Event,
		}
	}
	return ListReservationEvents200JSONResponse{Data: data}, nil
}

// ConfirmReservation handles POST /reservations/{id}/confirm.
func (s *Server) ConfirmReservation(ctx context.Context, req ReservationCommandRequestObject) (ResponseObject, error) {
	return reservationResult(s.reservations.Confirm(ctx, req.ID))
}

// CancelReservation handles POST /reservations/{id}/cancel.
// The body is optional; without it the reservation is cancelled with no reason.
func (s *Server) CancelReservation(ctx context.Context, req CancelReservationRequestObject) (ResponseObject, error) {
	var reason string
	if req.Body != nil {
		if err := s.validate.Struct(req.Body); err != nil {
			return validationResponse(err), nil
		}
		reason = req.Body.Reason
	}
	return reservationResult(s.reservations.Cancel(ctx, req.ID, reason))
}

// ActivateReservation handles POST /reservations/{id}/activate.
func (s *Server) ActivateReservation(ctx context.Context, req ReservationCommandRequestObject) (ResponseObject, error) {
	return reservationResult(s.reservations.Activate(ctx, req.ID))
}

// CompleteReservation handles POST /reservations/{id}/complete.
func (s *Server) CompleteReservation(ctx context.Context, req ReservationCommandRequestObject) (ResponseObject, error) {
	return reservationResult(s.reservations.Complete(ctx, req.ID))
}

// MarkReservationNoShow handles POST /reservations/{id}/no-show.
func (s *Server) MarkReservationNoShow(ctx context.Context, req MarkReservationNoShowRequestObject) (ResponseObject, error) {
	if err := s.validate.Struct(req.Body); err != nil {
		return validationResponse(err), nil
	}
	return reservationResult(s.reservations.MarkNoShow(ctx, req.ID, req.Body.Reason))
}

// reservationResult turns a service result into a 200 or an error response.
func reservationResult(res domain.Reservation, err error) (ResponseObject, error) {
	if err != nil {
		return errorResponse(err)
	}
	return Reservation200JSONResponse(reservationToResponse(res)), nil
}

// --- mapping helpers --------------------------------------------------------

func requestToNewReservation(body CreateReservationRequest) domain.NewReservation {
	return domain.NewReservation{
		VehicleID:           body.VehicleID,
		CustomerID:          body.CustomerID,
		PickupDate:          body.PickupDate.Time,
		ReturnDate:          body.ReturnDate.Time,
		PickupLocationCode:  body.PickupLocationCode,
		DropoffLocationCode: body.DropoffLocationCode,
		TotalPrice: domain.Money{
			Net:      body.TotalPrice.Net,
			VAT:      body.TotalPrice.VAT,
			Gross:    body.TotalPrice.Gross,
			Currency: body.TotalPrice.Currency,
		},
	}
}

// reservationToResponse converts a domain.Reservation into its API view.
func reservationToResponse(r domain.Reservation) Reservation {
	resp := Reservation{
		ID:                  r.ID,
		VehicleID:           r.VehicleID,
		CustomerID:          r.CustomerID,
		PickupDate:          openapi_types.Date{Time: r.Period.PickupDate},
		ReturnDate:          openapi_types.Date{Time: r.Period.ReturnDate},
		RentalDays:          r.Period.Days(),
		PickupLocationCode:  r.PickupLocationCode,
		DropoffLocationCode: r.DropoffLocationCode,
		TotalPrice: MoneyBody{
			Net:      r.TotalPrice.Net,
			VAT:      r.TotalPrice.VAT,
			Gross:    r.TotalPrice.Gross,
			Currency: r.TotalPrice.Currency,
		},
		Status:           string(r.Status),
		LateCancellation: r.LateCancellation,
		CreatedAt:        r.CreatedAt,
		ConfirmedAt:      r.ConfirmedAt,
		ActivatedAt:      r.ActivatedAt,
		CompletedAt:      r.CompletedAt,
		CancelledAt:      r.CancelledAt,
		NoShowAt:         r.NoShowAt,
		Version:          r.Version,
	}
	if r.CancellationReason != "" {
		resp.CancellationReason = &r.CancellationReason
	}
	if r.NoShowReason != "" {
		resp.NoShowReason = &r.NoShowReason
	}
	return resp
}
