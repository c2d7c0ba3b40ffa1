package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VehicleRepo guards the set of bookings for each vehicle.
type VehicleRepo interface {
	// LockForBooking increments the vehicle's booking version and returns the
	// new value. The row stays locked until the surrounding transaction ends,
	// so every availability check and append that follows in the same
	// transaction is serialized against other writers for that vehicle.
	// Must be called inside a transaction.
	LockForBooking(ctx context.Context, vehicleID uuid.UUID) (int64, error)
}

type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo backed by the provided db connection.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

func (r *pgVehicleRepo) LockForBooking(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	const q = `
		INSERT INTO vehicle_booking_versions (vehicle_id, version)
		VALUES (@vehicle_id, 1)
		ON CONFLICT (vehicle_id) DO UPDATE
		SET version    = vehicle_booking_versions.version + 1,
		    updated_at = now()
		RETURNING version`

	var version int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"vehicle_id": vehicleID}).Scan(&version); err != nil {
		return 0, fmt.Errorf("repo.VehicleRepo.LockForBooking: %w", mapError(err))
	}
	return version, nil
}
