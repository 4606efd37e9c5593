package cron

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/metrics"
)

// Job is one named unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Service drives the registered jobs on a fixed interval. Each run of a job
// is guarded by a distributed lock so only one worker instance executes it.
type Service struct {
	jobs     []Job
	lock     *Lock
	interval time.Duration
	metrics  *metrics.CronJobMetrics
	logg     *logger.Logger
}

// NewService wires the cron runner.
func NewService(jobs []Job, lock *Lock, interval time.Duration, jobMetrics *metrics.CronJobMetrics, logg *logger.Logger) (*Service, error) {
	if len(jobs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: at least one job is required")
	}
	if lock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: lock is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: logger is required")
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Service{
		jobs:     jobs,
		lock:     lock,
		interval: interval,
		metrics:  jobMetrics,
		logg:     logg,
	}, nil
}

// Run executes the job loop until the context is canceled. Jobs run once at
// startup, then on every tick.
func (s *Service) Run(ctx context.Context) error {
	s.runAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron: context canceled, stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	for _, job := range s.jobs {
		s.runOne(ctx, job)
	}
}

func (s *Service) runOne(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())

	release, acquired, err := s.lock.Acquire(ctx, job.Name())
	if err != nil {
		s.logg.Error(jobCtx, "cron: lock acquire failed", err)
		return
	}
	if !acquired {
		s.logg.Info(jobCtx, "cron: job held by another worker, skipping")
		return
	}
	defer release()

	started := time.Now()
	err = job.Run(jobCtx)
	s.metrics.ObserveDuration(job.Name(), time.Since(started))
	if err != nil {
		s.metrics.IncFailure(job.Name())
		s.logg.Error(jobCtx, fmt.Sprintf("cron: job %s failed", job.Name()), err)
		return
	}
	s.metrics.IncSuccess(job.Name())
	s.logg.Info(jobCtx, fmt.Sprintf("cron: job %s finished in %s", job.Name(), time.Since(started).Round(time.Millisecond)))
}
