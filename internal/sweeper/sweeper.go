// Package sweeper runs the background overdue-job sweep: on a cron
// schedule it counts jobs sitting in an active status past a configured
// threshold and reports them via log and metric. The sweep is
// observational only; it never mutates job status.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldserve/jobtrack-backend/internal/core"
	"github.com/fieldserve/jobtrack-backend/internal/metrics"
	"github.com/fieldserve/jobtrack-backend/internal/state"
)

// sweptStatuses are the statuses the sweep inspects: a job parked in one
// of these is work somebody is waiting on.
var sweptStatuses = []core.JobStatus{
	core.StatusDispatched, core.StatusInProgress,
}

// JobLister is the slice of the state store the sweep reads. The sweeper
// scans raw records rather than going through the lifecycle service: it
// has no acting user and must see every job.
type JobLister interface {
	ListJobsByStatus(ctx context.Context, status string, limit int) ([]*state.JobRecord, error)
}

// Sweeper periodically scans for overdue jobs.
type Sweeper struct {
	store        JobLister
	schedule     cron.Schedule
	overdueAfter time.Duration
	logger       *slog.Logger
	stop         chan struct{}
	stopOnce     sync.Once
}

// New creates a sweeper from a standard five-field cron expression.
func New(store JobLister, scheduleExpr string, overdueAfter time.Duration, logger *slog.Logger) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(scheduleExpr)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		store:        store,
		schedule:     schedule,
		overdueAfter: overdueAfter,
		logger:       logger,
		stop:         make(chan struct{}),
	}, nil
}

// Start begins the sweep loop in a background goroutine.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop signals the sweep loop to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Sweeper) run() {
	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("overdue sweep failed", "error", err)
			}
			cancel()
		}
	}
}

// Sweep runs one pass over the swept statuses and records how many jobs
// have not been touched within the overdue threshold.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.overdueAfter)

	for _, status := range sweptStatuses {
		jobs, err := s.store.ListJobsByStatus(ctx, string(status), 0)
		if err != nil {
			return err
		}

		overdue := 0
		for _, job := range jobs {
			stamp := job.UpdatedAt
			if stamp == "" {
				stamp = job.CreatedAt
			}
			t, err := time.Parse(core.TimeFormat, stamp)
			if err != nil {
				continue
			}
			if t.Before(cutoff) {
				overdue++
				s.logger.Warn("job overdue",
					"job_id", job.ID, "status", status,
					"idle_since", stamp, "technician", job.AssignedTechnician)
			}
		}
		metrics.OverdueJobs.WithLabelValues(string(status)).Set(float64(overdue))
	}
	return nil
}
