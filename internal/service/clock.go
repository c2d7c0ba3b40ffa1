package service

import "time"

// Clock supplies the current time. Guards such as "has the pickup date
// arrived" read it through this interface so tests can choose "today".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the business time zone. The zone
// decides which calendar date counts as today.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
