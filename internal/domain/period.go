package domain

import (
	"fmt"
	"time"
)

// MaxRentalDays is the longest booking period accepted, counted inclusively.
const MaxRentalDays = 90

const day = 24 * time.Hour

// BookingPeriod is an inclusive range of calendar dates from pickup to return.
// Both dates are normalised to midnight UTC. Values are constructed through
// NewBookingPeriod and never modified afterwards.
type BookingPeriod struct {
	PickupDate time.Time `json:"pickup_date"`
	ReturnDate time.Time `json:"return_date"`
}

// NewBookingPeriod validates and returns a BookingPeriod.
// today is the current calendar date in the business time zone; it is passed
// in rather than read from the clock so callers control "now".
// Returns ErrInvalidPeriod when pickup is before today, return is not after
// pickup, or the inclusive span exceeds MaxRentalDays.
func NewBookingPeriod(pickup, ret, today time.Time) (BookingPeriod, error) {
	p := BookingPeriod{PickupDate: DateOf(pickup), ReturnDate: DateOf(ret)}

	if p.PickupDate.Before(DateOf(today)) {
		return BookingPeriod{}, fmt.Errorf("%w: pickup date %s is in the past", ErrInvalidPeriod, FormatDate(p.PickupDate))
	}
	if !p.ReturnDate.After(p.PickupDate) {
		return BookingPeriod{}, fmt.Errorf("%w: return date must be after pickup date", ErrInvalidPeriod)
	}
	if d := p.Days(); d > MaxRentalDays {
		return BookingPeriod{}, fmt.Errorf("%w: %d days exceeds the maximum of %d", ErrInvalidPeriod, d, MaxRentalDays)
	}
	return p, nil
}

// SearchPeriod builds a period for availability queries. Unlike
// NewBookingPeriod it does not reject past dates, since looking up history
// is legitimate; return must still not precede pickup.
func SearchPeriod(pickup, ret time.Time) (BookingPeriod, error) {
	p := BookingPeriod{PickupDate: DateOf(pickup), ReturnDate: DateOf(ret)}
	if p.ReturnDate.Before(p.PickupDate) {
		return BookingPeriod{}, fmt.Errorf("%w: return date must not be before pickup date", ErrInvalidPeriod)
	}
	return p, nil
}

// Days returns the number of calendar days covered, counting both ends.
func (p BookingPeriod) Days() int {
	return int(p.ReturnDate.Sub(p.PickupDate)/day) + 1
}

// Overlaps reports whether p and other share at least one calendar day.
// Touching periods (one's return date equals the other's pickup date) overlap.
func (p BookingPeriod) Overlaps(other BookingPeriod) bool {
	return !p.PickupDate.After(other.ReturnDate) && !p.ReturnDate.Before(other.PickupDate)
}

// UntilPickup returns the time remaining from now until the start of the
// pickup date in now's location. Negative once the pickup date has begun.
func (p BookingPeriod) UntilPickup(now time.Time) time.Duration {
	y, m, d := p.PickupDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Sub(now)
}

func (p BookingPeriod) String() string {
	return FormatDate(p.PickupDate) + ".." + FormatDate(p.ReturnDate)
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The calendar date is taken from t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
