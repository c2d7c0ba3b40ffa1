package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
)

// NoShowReason is recorded on reservations closed by SweepNoShows.
const NoShowReason = "not picked up"

// ProjectionService maintains the read model and runs time-driven commands
// over it.
type ProjectionService struct {
	tx           repo.TxRunner
	reservations repo.ReservationRepo
	commands     *ReservationService
	clock        Clock
	log          *slog.Logger
}

// NewProjectionService constructs a ProjectionService.
func NewProjectionService(repos repo.Repos, tx repo.TxRunner, commands *ReservationService, clock Clock, log *slog.Logger) *ProjectionService {
	return &ProjectionService{
		tx:           tx,
		reservations: repos.Reservations,
		commands:     commands,
		clock:        clock,
		log:          log,
	}
}

// RebuildProjections discards the read model and replays every event stream
// into it. It runs in one transaction so readers never see a half-built table.
// Returns the number of reservations projected.
func (s *ProjectionService) RebuildProjections(ctx context.Context) (int, error) {
	var n int
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		n = 0
		if err := r.Reservations.DeleteAll(ctx); err != nil {
			return err
		}
		ids, err := r.Events.ListReservationIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			recorded, err := r.Events.Load(ctx, id)
			if err != nil {
				return err
			}
			state, err := domain.ReplayRecorded(recorded)
			if err != nil {
				return fmt.Errorf("reservation %s: %w", id, err)
			}
			if err := r.Reservations.Save(ctx, state); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("service.ProjectionService.RebuildProjections: %w", err)
	}
	s.log.InfoContext(ctx, "projections rebuilt", "reservations", n)
	return n, nil
}

// SweepNoShows marks every confirmed reservation whose pickup date has
// passed as a no-show. Each reservation is its own command; one failure does
// not stop the sweep. Returns how many reservations were marked.
func (s *ProjectionService) SweepNoShows(ctx context.Context) (int, error) {
	today := domain.DateOf(s.clock.Now())
	overdue, err := s.reservations.ListByStatusPickupBefore(ctx, domain.StatusConfirmed, today)
	if err != nil {
		return 0, fmt.Errorf("service.ProjectionService.SweepNoShows: %w", err)
	}

	var (
		marked int
		errs   []error
	)
	for _, r := range overdue {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		_, err := s.commands.MarkNoShow(ctx, r.ID, NoShowReason)
		switch {
		case err == nil:
			marked++
		case errors.Is(err, domain.ErrIllegalTransition):
			// Moved on since the read model was queried; nothing to do.
			s.log.DebugContext(ctx, "no-show sweep skipped reservation", "reservation_id", r.ID, "error", err)
		default:
			s.log.ErrorContext(ctx, "no-show sweep failed", "reservation_id", r.ID, "error", err)
			errs = append(errs, err)
		}
	}

	s.log.InfoContext(ctx, "no-show sweep finished", "candidates", len(overdue), "marked", marked)
	if len(errs) > 0 {
		return marked, fmt.Errorf("service.ProjectionService.SweepNoShows: %w", errors.Join(errs...))
	}
	return marked, nil
}
