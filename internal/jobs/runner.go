package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/service"
)

// RevokedRetention is how long revoked sessions are kept before purging.
const RevokedRetention = 24 * time.Hour

// JobRunner holds the dependencies of scheduled maintenance jobs.
type JobRunner struct {
	repo     *repo.GormRepo
	listings *service.ListingService
	log      *slog.Logger
	clock    func() time.Time
}

// NewJobRunner builds a runner. listings may be nil, in which case released
// listings are neither re-indexed nor announced.
func NewJobRunner(r *repo.GormRepo, listings *service.ListingService, log *slog.Logger, clock func() time.Time) *JobRunner {
	if clock == nil {
		clock = time.Now
	}
	return &JobRunner{repo: r, listings: listings, log: log, clock: clock}
}

// runWithRecovery keeps a panicking job from taking the scheduler down.
func (jr *JobRunner) runWithRecovery(name string, job func(ctx context.Context) error) {
	l := jr.log.With("job", name)
	defer func() {
		if r := recover(); r != nil {
			l.Error("job_panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logging.IntoContext(ctx, l)

	start := time.Now()
	if err := job(ctx); err != nil {
		l.Error("job_failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}
	l.Info("job_completed", "duration_ms", time.Since(start).Milliseconds())
}

// PurgeExpiredSessions deletes expired sessions and old revoked ones.
func (jr *JobRunner) PurgeExpiredSessions() {
	jr.runWithRecovery("purge_expired_sessions", func(ctx context.Context) error {
		now := jr.clock().UTC()
		n, err := jr.repo.PurgeSessions(ctx, now, now.Add(-RevokedRetention))
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("sessions_purged", "count", n)
		return nil
	})
}

// ReleaseFinishedStays frees listings whose confirmed stays have ended.
func (jr *JobRunner) ReleaseFinishedStays() {
	jr.runWithRecovery("release_finished_stays", func(ctx context.Context) error {
		released, err := jr.repo.ReleaseFinishedStays(ctx, jr.clock().UTC())
		if err != nil {
			return err
		}
		if jr.listings != nil {
			for i := range released {
				jr.listings.StatusChanged(ctx, &released[i])
			}
		}
		logging.FromContext(ctx).Info("listings_released", "count", len(released))
		return nil
	})
}
