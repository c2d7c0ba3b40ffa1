package repo

import (
	"encoding/json"
	"fmt"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// encodeEvent serializes an event payload for the jsonb column.
func encodeEvent(e domain.Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.EventType(), err)
	}
	return b, nil
}

// decodeEvent is the inverse of encodeEvent. An unknown event type means the
// log was written by a newer or foreign writer; it is reported, not skipped.
func decodeEvent(eventType string, payload []byte) (domain.Event, error) {
	var (
		e   domain.Event
		err error
	)
	switch eventType {
	case domain.EventReservationCreated:
		e, err = unmarshal[domain.ReservationCreated](payload)
	case domain.EventReservationConfirmed:
		e, err = unmarshal[domain.ReservationConfirmed](payload)
	case domain.EventReservationCancelled:
		e, err = unmarshal[domain.ReservationCancelled](payload)
	case domain.EventReservationActivated:
		e, err = unmarshal[domain.ReservationActivated](payload)
	case domain.EventReservationCompleted:
		e, err = unmarshal[domain.ReservationCompleted](payload)
	case domain.EventReservationMarkedNoShow:
		e, err = unmarshal[domain.ReservationMarkedNoShow](payload)
	default:
		return nil, fmt.Errorf("decode: unknown event type %q", eventType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return e, nil
}

func unmarshal[T domain.Event](payload []byte) (domain.Event, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}
