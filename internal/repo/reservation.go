package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// ReservationRepo is the queryable read model projected from the event log.
// Only the service writes to it, and only with state obtained from replay.
type ReservationRepo interface {
	// Save upserts the projected state of one reservation.
	Save(ctx context.Context, r domain.Reservation) error

	// GetByID returns the projected row.
	// Returns domain.ErrNotFound if no reservation with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// ListBlockingByVehicle returns the vehicle's pending, confirmed and active
	// reservations whose period overlaps p. It is the pre-filter for the
	// availability resolver.
	ListBlockingByVehicle(ctx context.Context, vehicleID uuid.UUID, p domain.BookingPeriod) ([]domain.Reservation, error)

	// BookedVehicleIDs returns the distinct vehicles that have a blocking
	// reservation overlapping p.
	BookedVehicleIDs(ctx context.Context, p domain.BookingPeriod) ([]uuid.UUID, error)

	// ListByStatusPickupBefore returns reservations in status whose pickup
	// date is strictly before the given date, oldest pickup first.
	ListByStatusPickupBefore(ctx context.Context, status domain.Status, before time.Time) ([]domain.Reservation, error)

	// DeleteAll empties the read model ahead of a rebuild.
	DeleteAll(ctx context.Context) error
}

type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `
	id, vehicle_id, customer_id, pickup_date, return_date,
	pickup_location_code, dropoff_location_code,
	price_net, price_vat, price_gross, currency,
	status, cancellation_reason, late_cancellation, no_show_reason,
	created_at, confirmed_at, activated_at, completed_at, cancelled_at, no_show_at,
	version`

// Save writes the full projected row. The version guard keeps a stale
// projection from overwriting a newer one.
func (r *pgReservationRepo) Save(ctx context.Context, res domain.Reservation) error {
	const q = `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (
			@id, @vehicle_id, @customer_id, @pickup_date, @return_date,
			@pickup_location_code, @dropoff_location_code,
			@price_net, @price_vat, @price_gross, @currency,
			@status, @cancellation_reason, @late_cancellation, @no_show_reason,
			@created_at, @confirmed_at, @activated_at, @completed_at, @cancelled_at, @no_show_at,
			@version)
		ON CONFLICT (id) DO UPDATE SET
			status              = EXCLUDED.status,
			cancellation_reason = EXCLUDED.cancellation_reason,
			late_cancellation   = EXCLUDED.late_cancellation,
			no_show_reason      = EXCLUDED.no_show_reason,
			confirmed_at        = EXCLUDED.confirmed_at,
			activated_at        = EXCLUDED.activated_at,
			completed_at        = EXCLUDED.completed_at,
			cancelled_at        = EXCLUDED.cancelled_at,
			no_show_at          = EXCLUDED.no_show_at,
			version             = EXCLUDED.version
		WHERE reservations.version < EXCLUDED.version`

	args := pgx.NamedArgs{
		"id":                    res.ID,
		"vehicle_id":            res.VehicleID,
		"customer_id":           res.CustomerID,
		"pickup_date":           res.Period.PickupDate,
		"return_date":           res.Period.ReturnDate,
		"pickup_location_code":  res.PickupLocationCode,
		"dropoff_location_code": res.DropoffLocationCode,
		"price_net":             res.TotalPrice.Net,
		"price_vat":             res.TotalPrice.VAT,
		"price_gross":           res.TotalPrice.Gross,
		"currency":              res.TotalPrice.Currency,
		"status":                string(res.Status),
		"cancellation_reason":   res.CancellationReason,
		"late_cancellation":     res.LateCancellation,
		"no_show_reason":        res.NoShowReason,
		"created_at":            res.CreatedAt,
		"confirmed_at":          res.ConfirmedAt, // nil becomes NULL
		"activated_at":          res.ActivatedAt,
		"completed_at":          res.CompletedAt,
		"cancelled_at":          res.CancelledAt,
		"no_show_at":            res.NoShowAt,
		"version":               res.Version,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ReservationRepo.Save: %w", err)
	}
	return nil
}

func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id`

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", mapError(err))
	}
	return res, nil
}

func (r *pgReservationRepo) ListBlockingByVehicle(ctx context.Context, vehicleID uuid.UUID, p domain.BookingPeriod) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE vehicle_id = @vehicle_id
		  AND status = ANY(@statuses)
		  AND pickup_date <= @return_date
		  AND return_date >= @pickup_date
		ORDER BY pickup_date`

	args := pgx.NamedArgs{
		"vehicle_id":  vehicleID,
		"statuses":    blockingStatuses(),
		"pickup_date": p.PickupDate,
		"return_date": p.ReturnDate,
	}
	res, err := r.list(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListBlockingByVehicle: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepo) BookedVehicleIDs(ctx context.Context, p domain.BookingPeriod) ([]uuid.UUID, error) {
	const q = `
		SELECT DISTINCT vehicle_id
		FROM reservations
		WHERE status = ANY(@statuses)
		  AND pickup_date <= @return_date
		  AND return_date >= @pickup_date
		ORDER BY vehicle_id`

	args := pgx.NamedArgs{
		"statuses":    blockingStatuses(),
		"pickup_date": p.PickupDate,
		"return_date": p.ReturnDate,
	}
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.BookedVehicleIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.ReservationRepo.BookedVehicleIDs: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.BookedVehicleIDs: rows: %w", err)
	}
	return ids, nil
}

func (r *pgReservationRepo) ListByStatusPickupBefore(ctx context.Context, status domain.Status, before time.Time) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = @status
		  AND pickup_date < @before
		ORDER BY pickup_date, id`

	res, err := r.list(ctx, q, pgx.NamedArgs{"status": string(status), "before": before})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByStatusPickupBefore: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM reservations`); err != nil {
		return fmt.Errorf("repo.ReservationRepo.DeleteAll: %w", err)
	}
	return nil
}

func (r *pgReservationRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func blockingStatuses() []string {
	out := make([]string, len(domain.BlockingStatuses))
	for i, s := range domain.BlockingStatuses {
		out[i] = string(s)
	}
	return out
}

// scanReservation maps a reservations row into a domain.Reservation.
// It handles the UUID, DATE and nullable timestamp conversions.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res                   domain.Reservation
		id, vehicle, customer pgtype.UUID
		pickup, ret           pgtype.Date
		status                string
	)

	err := s.Scan(
		&id, &vehicle, &customer, &pickup, &ret,
		&res.PickupLocationCode, &res.DropoffLocationCode,
		&res.TotalPrice.Net, &res.TotalPrice.VAT, &res.TotalPrice.Gross, &res.TotalPrice.Currency,
		&status, &res.CancellationReason, &res.LateCancellation, &res.NoShowReason,
		&res.CreatedAt, &res.ConfirmedAt, &res.ActivatedAt, &res.CompletedAt, &res.CancelledAt, &res.NoShowAt,
		&res.Version,
	)
	if err != nil {
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.VehicleID = uuid.UUID(vehicle.Bytes)
	res.CustomerID = uuid.UUID(customer.Bytes)
	res.Period = domain.BookingPeriod{PickupDate: pickup.Time, ReturnDate: ret.Time}
	res.Status = domain.Status(status)
	return res, nil
}
