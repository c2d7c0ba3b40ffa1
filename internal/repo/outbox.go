package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// OutboxEvent is a stored event that has not yet been handed to the broker.
// Payload is the raw jsonb document, passed through unchanged.
type OutboxEvent struct {
	Sequence      int64
	ReservationID uuid.UUID
	Version       int
	EventType     string
	Payload       []byte
	OccurredAt    time.Time
}

// OutboxRepo reads and acknowledges unpublished events. The event log itself
// is the outbox: published_at is the only column ever updated.
type OutboxRepo interface {
	// TryLockRelay takes the relay's transaction-scoped advisory lock without
	// waiting. It reports false when another relay, possibly in another
	// process, holds it. Only the holder may list and publish, which keeps
	// each reservation's events in version order on the broker.
	TryLockRelay(ctx context.Context) (bool, error)

	// ListUnpublished returns up to limit unpublished events in global order.
	// Rows are locked for the life of the surrounding transaction.
	ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error)

	// MarkPublished stamps published_at on the given sequences.
	MarkPublished(ctx context.Context, sequences []int64) error
}

type pgOutboxRepo struct {
	db db
}

// NewOutboxRepo constructs an OutboxRepo backed by the provided db connection.
func NewOutboxRepo(db db) OutboxRepo {
	return &pgOutboxRepo{db: db}
}

// relayLockKey identifies the outbox relay among advisory locks.
const relayLockKey int64 = 0x6f7574626f78 // "outbox"

func (r *pgOutboxRepo) TryLockRelay(ctx context.Context) (bool, error) {
	const q = `SELECT pg_try_advisory_xact_lock(@key)`

	var locked bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": relayLockKey}).Scan(&locked); err != nil {
		return false, fmt.Errorf("repo.OutboxRepo.TryLockRelay: %w", err)
	}
	return locked, nil
}

func (r *pgOutboxRepo) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	const q = `
		SELECT sequence, reservation_id, version, event_type, payload, occurred_at
		FROM reservation_events
		WHERE published_at IS NULL
		ORDER BY sequence
		LIMIT @limit
		FOR UPDATE`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.OutboxRepo.ListUnpublished: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var (
			e  OutboxEvent
			id pgtype.UUID
		)
		if err := rows.Scan(&e.Sequence, &id, &e.Version, &e.EventType, &e.Payload, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("repo.OutboxRepo.ListUnpublished: scan: %w", err)
		}
		e.ReservationID = uuid.UUID(id.Bytes)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.OutboxRepo.ListUnpublished: rows: %w", err)
	}
	return out, nil
}

func (r *pgOutboxRepo) MarkPublished(ctx context.Context, sequences []int64) error {
	if len(sequences) == 0 {
		return nil
	}
	const q = `
		UPDATE reservation_events
		SET published_at = now()
		WHERE sequence = ANY(@sequences)`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"sequences": sequences}); err != nil {
		return fmt.Errorf("repo.OutboxRepo.MarkPublished: %w", err)
	}
	return nil
}
