// Package handler implements the HTTP API for the reservation service.
// All handlers are methods on Server, which implements StrictServerInterface.
// Methods are split into domain-specific files (health.go, reservation.go,
// availability.go, admin.go) but share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// ReservationServicer defines the reservation operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type ReservationServicer interface {
	Create(ctx context.Context, in domain.NewReservation) (domain.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.RecordedEvent, error)
	Confirm(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (domain.Reservation, error)
	Activate(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	Complete(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	MarkNoShow(ctx context.Context, id uuid.UUID, reason string) (domain.Reservation, error)
	IsVehicleAvailable(ctx context.Context, vehicleID uuid.UUID, p domain.BookingPeriod) (bool, error)
	BookedVehicleIDs(ctx context.Context, p domain.BookingPeriod) ([]uuid.UUID, error)
}

// ProjectionServicer defines the read-model maintenance the admin handler depends on.
type ProjectionServicer interface {
	RebuildProjections(ctx context.Context) (int, error)
}

// Server implements StrictServerInterface for all API endpoints.
// Wire it in main.go via HandlerFromMux(NewStrictHandler(server, nil), router).
type Server struct {
	reservations ReservationServicer
	projections  ProjectionServicer
	validate     *validator.Validate
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(reservations ReservationServicer, projections ProjectionServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reservations: reservations,
		projections:  projections,
		validate:     newValidator(),
		log:          log,
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil)
}

var _ StrictServerInterface = (*Server)(nil)
