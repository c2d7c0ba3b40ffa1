package handler

import (
	"context"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// GetVehicleAvailability handles GET /vehicles/{vehicleId}/availability.
// A return date before the pickup date is a 422.
func (s *Server) GetVehicleAvailability(ctx context.Context, req GetVehicleAvailabilityRequestObject) (ResponseObject, error) {
	period, err := domain.SearchPeriod(req.Params.PickupDate.Time, req.Params.ReturnDate.Time)
	if err != nil {
		return errorResponse(err)
	}

	available, err := s.reservations.IsVehicleAvailable(ctx, req.VehicleID, period)
	if err != nil {
		return errorResponse(err)
	}

	return GetVehicleAvailability200JSONResponse{
		VehicleID:  req.VehicleID,
		PickupDate: openapi_types.Date{Time: period.PickupDate},
		ReturnDate: openapi_types.Date{Time: period.ReturnDate},
		Available:  available,
	}, nil
}

// ListBookedVehicles handles GET /vehicles/booked.
// Catalogue search uses it to exclude vehicles that are taken for the period.
func (s *Server) ListBookedVehicles(ctx context.Context, req ListBookedVehiclesRequestObject) (ResponseObject, error) {
	period, err := domain.SearchPeriod(req.Params.PickupDate.Time, req.Params.ReturnDate.Time)
	if err != nil {
		return errorResponse(err)
	}

	ids, err := s.reservations.BookedVehicleIDs(ctx, period)
	if err != nil {
		return errorResponse(err)
	}

	return ListBookedVehicles200JSONResponse{
		PickupDate: openapi_types.Date{Time: period.PickupDate},
		ReturnDate: openapi_types.Date{Time: period.ReturnDate},
		VehicleIDs: ids,
	}, nil
}
