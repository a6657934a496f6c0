package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/stayfinder/internal/config"
)

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler registers the runner's jobs on a UTC, seconds-precision cron.
func NewScheduler(cfg config.SchedulerConfig, jr *JobRunner, log *slog.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"purge_expired_sessions", cfg.PurgeSessions, jr.PurgeExpiredSessions},
		{"release_finished_stays", cfg.ReleaseStays, jr.ReleaseFinishedStays},
	}
	for _, j := range jobs {
		if j.spec == "" {
			log.Info("job_disabled", "job", j.name)
			continue
		}
		if _, err := c.AddFunc(j.spec, j.fn); err != nil {
			return nil, fmt.Errorf("register %s: %w", j.name, err)
		}
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler_started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler_stopped")
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
