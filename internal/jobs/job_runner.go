// Package jobs holds the background work the API process runs on a schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/publisher"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
)

// NoShowSweeper closes out confirmed reservations whose pickup date has passed.
type NoShowSweeper interface {
	SweepNoShows(ctx context.Context) (int, error)
}

// JobRunner coordinates all scheduled jobs.
type JobRunner struct {
	tx        repo.TxRunner
	publisher publisher.Publisher
	sweeper   NoShowSweeper
	batchSize int
	timeout   time.Duration
	log       *slog.Logger
}

// NewJobRunner creates a job runner. batchSize bounds how many outbox events
// are published per transaction.
func NewJobRunner(tx repo.TxRunner, pub publisher.Publisher, sweeper NoShowSweeper, batchSize int, log *slog.Logger) *JobRunner {
	return &JobRunner{
		tx:        tx,
		publisher: pub,
		sweeper:   sweeper,
		batchSize: batchSize,
		timeout:   time.Minute,
		log:       log,
	}
}

// RelayOutbox publishes pending events. Scheduled entry point.
func (jr *JobRunner) RelayOutbox() {
	jr.runWithRecovery("RelayOutbox", func(ctx context.Context) error {
		n, err := jr.RelayOnce(ctx)
		if n > 0 {
			jr.log.InfoContext(ctx, "outbox relayed", "events", n)
		}
		return err
	})
}

// SweepNoShows marks overdue confirmed reservations as no-shows. Scheduled
// entry point.
func (jr *JobRunner) SweepNoShows() {
	jr.runWithRecovery("SweepNoShows", func(ctx context.Context) error {
		_, err := jr.sweeper.SweepNoShows(ctx)
		return err
	})
}

// RelayOnce drains the outbox batch by batch until it is empty or a batch
// fails. Each batch is locked, published and marked in one transaction, so
// a crash between publish and commit re-sends the batch: delivery is at
// least once. A batch starts only under the relay advisory lock; if another
// relay holds it, RelayOnce stops and leaves the outbox to that relay.
// Returns the number of events published.
func (jr *JobRunner) RelayOnce(ctx context.Context) (int, error) {
	total := 0
	for {
		var (
			n    int
			busy bool
		)
		err := jr.tx.InTx(ctx, func(r repo.Repos) error {
			locked, err := r.Outbox.TryLockRelay(ctx)
			if err != nil {
				return err
			}
			if !locked {
				busy = true
				return nil
			}
			pending, err := r.Outbox.ListUnpublished(ctx, jr.batchSize)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				return nil
			}
			if err := jr.publisher.Publish(ctx, pending); err != nil {
				return err
			}
			seqs := make([]int64, len(pending))
			for i, e := range pending {
				seqs[i] = e.Sequence
			}
			if err := r.Outbox.MarkPublished(ctx, seqs); err != nil {
				return err
			}
			n = len(pending)
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("jobs.JobRunner.RelayOnce: %w", err)
		}
		if busy {
			jr.log.DebugContext(ctx, "outbox relay skipped: another relay holds the lock")
			return total, nil
		}
		total += n
		if n < jr.batchSize {
			return total, nil
		}
	}
}

// runWithRecovery wraps job execution with a timeout and panic recovery.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			jr.log.ErrorContext(ctx, "job panicked", "job", jobName, "panic", r)
		}
	}()

	start := time.Now()
	jr.log.DebugContext(ctx, "starting job", "job", jobName)
	if err := jobFunc(ctx); err != nil {
		jr.log.ErrorContext(ctx, "job failed", "job", jobName, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	jr.log.DebugContext(ctx, "job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}
