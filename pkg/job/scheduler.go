package job

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// Scheduler executes a job periodically, skipping ticks while it is running
	Scheduler struct {
		l        *zap.Logger
		job      *Job
		interval time.Duration
		onStart  bool
	}
	SchedulerOption func(*Scheduler)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewScheduler(l *zap.Logger, job *Job, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	inst := &Scheduler{
		l:        l.Named("scheduler"),
		job:      job,
		interval: interval,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// SchedulerWithRunOnStart executes the job right away instead of after the
// first interval
func SchedulerWithRunOnStart(v bool) SchedulerOption {
	return func(o *Scheduler) {
		o.onStart = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Start blocks until ctx is done, a running job is stopped on shutdown
func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}

	opts := []gocron.JobOption{
		gocron.WithName("generate-sitemaps"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if s.onStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.execute(ctx) }),
		opts...,
	); err != nil {
		return errors.Wrap(err, "failed to schedule sitemap generation")
	}

	s.l.Info("starting scheduler", zap.Duration("interval", s.interval))
	scheduler.Start()
	<-ctx.Done()

	s.l.Info("stopping scheduler")
	s.job.Stop()
	if err := scheduler.Shutdown(); err != nil {
		return errors.Wrap(err, "failed to shut down scheduler")
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Scheduler) execute(ctx context.Context) {
	message, err := s.job.Execute(ctx)
	if errors.Is(err, ErrJobRunning) {
		s.l.Info("skipping scheduled run, job is already running")
		return
	}
	if err != nil {
		s.l.Warn("scheduled run failed", zap.String("message", message), zap.Error(err))
		return
	}
	s.l.Info("scheduled run done", zap.String("message", message))
}
