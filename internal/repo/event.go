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

// EventRepo is the append-only event store. Each reservation owns one stream.
type EventRepo interface {
	// Load returns the reservation's events ordered by version.
	// An unknown reservation yields an empty slice, not an error.
	Load(ctx context.Context, reservationID uuid.UUID) ([]domain.RecordedEvent, error)

	// Append writes events to the end of the stream. expectedVersion is the
	// version the caller's decision was based on (0 for a new stream).
	// Returns domain.ErrConcurrencyConflict if the stream has moved on.
	Append(ctx context.Context, reservationID uuid.UUID, expectedVersion int, events []domain.Event) error

	// ListReservationIDs returns the id of every stream, oldest first.
	ListReservationIDs(ctx context.Context) ([]uuid.UUID, error)
}

// pgEventRepo is the Postgres implementation of EventRepo.
type pgEventRepo struct {
	db db
}

// NewEventRepo constructs an EventRepo backed by the provided db connection.
func NewEventRepo(db db) EventRepo {
	return &pgEventRepo{db: db}
}

// Load reads a stream in version order.
func (r *pgEventRepo) Load(ctx context.Context, reservationID uuid.UUID) ([]domain.RecordedEvent, error) {
	const q = `
		SELECT reservation_id, version, event_type, payload, recorded_at
		FROM reservation_events
		WHERE reservation_id = @id
		ORDER BY version`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"id": reservationID})
	if err != nil {
		return nil, fmt.Errorf("repo.EventRepo.Load: %w", err)
	}
	defer rows.Close()

	var out []domain.RecordedEvent
	for rows.Next() {
		e, err := scanRecordedEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.EventRepo.Load: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EventRepo.Load: rows: %w", err)
	}
	return out, nil
}

// Append checks the current stream version and inserts the new events with
// consecutive versions. The unique (reservation_id, version) constraint
// catches a writer that slips in between the check and the insert.
func (r *pgEventRepo) Append(ctx context.Context, reservationID uuid.UUID, expectedVersion int, events []domain.Event) error {
	const current = `
		SELECT COALESCE(MAX(version), 0)
		FROM reservation_events
		WHERE reservation_id = @id`

	var version int
	if err := r.db.QueryRow(ctx, current, pgx.NamedArgs{"id": reservationID}).Scan(&version); err != nil {
		return fmt.Errorf("repo.EventRepo.Append: %w", err)
	}
	if version != expectedVersion {
		return fmt.Errorf("repo.EventRepo.Append: %w: stream %s at version %d, expected %d",
			domain.ErrConcurrencyConflict, reservationID, version, expectedVersion)
	}

	const insert = `
		INSERT INTO reservation_events (reservation_id, version, event_type, payload, occurred_at)
		VALUES (@id, @version, @event_type, @payload, @occurred_at)`

	for i, e := range events {
		payload, err := encodeEvent(e)
		if err != nil {
			return fmt.Errorf("repo.EventRepo.Append: %w", err)
		}
		args := pgx.NamedArgs{
			"id":          reservationID,
			"version":     expectedVersion + i + 1,
			"event_type":  e.EventType(),
			"payload":     payload,
			"occurred_at": e.OccurredAt(),
		}
		if _, err := r.db.Exec(ctx, insert, args); err != nil {
			return fmt.Errorf("repo.EventRepo.Append: %w", mapError(err))
		}
	}
	return nil
}

// ListReservationIDs returns stream ids ordered by their first event.
func (r *pgEventRepo) ListReservationIDs(ctx context.Context) ([]uuid.UUID, error) {
	const q = `
		SELECT reservation_id
		FROM reservation_events
		WHERE version = 1
		ORDER BY sequence`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.EventRepo.ListReservationIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.EventRepo.ListReservationIDs: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EventRepo.ListReservationIDs: rows: %w", err)
	}
	return ids, nil
}

// scanRecordedEvent maps one reservation_events row and decodes its payload.
func scanRecordedEvent(s scanner) (domain.RecordedEvent, error) {
	var (
		id         pgtype.UUID
		version    int
		eventType  string
		payload    []byte
		recordedAt time.Time
	)
	if err := s.Scan(&id, &version, &eventType, &payload, &recordedAt); err != nil {
		return domain.RecordedEvent{}, err
	}
	e, err := decodeEvent(eventType, payload)
	if err != nil {
		return domain.RecordedEvent{}, err
	}
	return domain.RecordedEvent{
		ReservationID: uuid.UUID(id.Bytes),
		Version:       version,
		Event:         e,
		RecordedAt:    recordedAt,
	}, nil
}
