package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repos bundles every repo bound to the same connection or transaction.
type Repos struct {
	Events       EventRepo
	Reservations ReservationRepo
	Vehicles     VehicleRepo
	Outbox       OutboxRepo
}

// NewRepos constructs all repos on db.
func NewRepos(db db) Repos {
	return Repos{
		Events:       NewEventRepo(db),
		Reservations: NewReservationRepo(db),
		Vehicles:     NewVehicleRepo(db),
		Outbox:       NewOutboxRepo(db),
	}
}

// TxRunner runs a function against repos bound to a single transaction.
type TxRunner interface {
	// InTx commits if fn returns nil and rolls back otherwise.
	// Serialization failures at commit surface as domain.ErrConcurrencyConflict.
	InTx(ctx context.Context, fn func(Repos) error) error
}

// beginner is satisfied by *pgxpool.Pool and by pgx.Tx (which nests via
// savepoints), so tests can run the runner inside a rolled-back transaction.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTxRunner struct {
	db beginner
}

// NewTxRunner constructs a TxRunner. In production pass *pgxpool.Pool.
func NewTxRunner(db beginner) TxRunner {
	return &pgTxRunner{db: db}
}

func (r *pgTxRunner) InTx(ctx context.Context, fn func(Repos) error) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.TxRunner.InTx: %w", mapError(err))
	}
	return nil
}
