package domain

import "github.com/google/uuid"

// IsAvailable reports whether vehicleID is free for candidate given that
// vehicle's existing reservations. Reservations for other vehicles and
// reservations in a non-blocking status are ignored.
//
// Callers are expected to pass only the reservations of one vehicle,
// already narrowed by the persistence layer; the scan is linear.
func IsAvailable(vehicleID uuid.UUID, candidate BookingPeriod, existing []Reservation) bool {
	return len(Conflicts(vehicleID, candidate, existing)) == 0
}

// Conflicts returns the reservations that block vehicleID for candidate.
func Conflicts(vehicleID uuid.UUID, candidate BookingPeriod, existing []Reservation) []Reservation {
	var out []Reservation
	for _, r := range existing {
		if r.VehicleID != vehicleID || !r.Status.BlocksVehicle() {
			continue
		}
		if candidate.Overlaps(r.Period) {
			out = append(out, r)
		}
	}
	return out
}
