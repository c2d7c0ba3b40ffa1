package domain

import "errors"

// ErrNotFound is returned when a reservation has no event stream.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when command input fails a business rule that is
// not about the booking period (e.g. missing no-show reason).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidPeriod is returned when a booking period is malformed: pickup in
// the past, return on or before pickup, or longer than MaxRentalDays.
var ErrInvalidPeriod = errors.New("invalid period")

// ErrIllegalTransition is returned when a command is not valid for the
// reservation's current status.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrTooEarly is returned when activation or no-show is attempted before the
// pickup date allows it. Kept apart from ErrIllegalTransition so callers can
// tell a timing problem from a state problem.
var ErrTooEarly = errors.New("too early")

// ErrUnavailable is returned when the requested vehicle already has a
// blocking reservation overlapping the requested period.
var ErrUnavailable = errors.New("vehicle unavailable")

// ErrConcurrencyConflict is returned by the event store when the expected
// stream version no longer matches, or when the database aborts a
// transaction due to a serialization failure.
var ErrConcurrencyConflict = errors.New("concurrency conflict")
