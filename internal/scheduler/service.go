package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// DefaultFirstRunDelay postpones the first scheduled run after the schedule is enabled.
const DefaultFirstRunDelay = time.Minute

// Status describes the recurring migration schedule.
type Status struct {
	Enabled  bool
	Interval runtimeconfig.Interval
	NextRun  time.Time
	JobID    string
	Attempt  int
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the clock used to compute run times.
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithFirstRunDelay overrides DefaultFirstRunDelay.
func WithFirstRunDelay(delay time.Duration) ServiceOption {
	return func(s *Service) {
		if delay >= 0 {
			s.firstRunDelay = delay
		}
	}
}

// WithServiceLogger sets the scheduler logger.
func WithServiceLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service owns the single recurring migration job on top of a Scheduler.
type Service struct {
	scheduler     interfaces.Scheduler
	now           func() time.Time
	firstRunDelay time.Duration
	logger        interfaces.Logger
}

// NewService wraps scheduler. A nil scheduler falls back to NewNoOp.
func NewService(scheduler interfaces.Scheduler, opts ...ServiceOption) *Service {
	if scheduler == nil {
		scheduler = NewNoOp()
	}
	s := &Service{
		scheduler:     scheduler,
		now:           time.Now,
		firstRunDelay: DefaultFirstRunDelay,
		logger:        logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Scheduler exposes the underlying scheduler.
func (s *Service) Scheduler() interfaces.Scheduler {
	return s.scheduler
}

// Enable clears any pending run and schedules the first run after the
// configured delay. Unknown intervals fall back to the default one.
func (s *Service) Enable(ctx context.Context, interval runtimeconfig.Interval) (*interfaces.Job, error) {
	if err := s.Disable(ctx); err != nil {
		return nil, err
	}
	return s.enqueue(ctx, runtimeconfig.ParseInterval(string(interval)), s.now().Add(s.firstRunDelay), "enable")
}

// Disable removes any pending migration run.
func (s *Service) Disable(ctx context.Context) error {
	err := s.scheduler.CancelByKey(ctx, MigrationRunJobKey)
	if err != nil && !errors.Is(err, interfaces.ErrJobNotFound) {
		return err
	}
	if err == nil {
		s.logger.Info("scheduler.migration.disabled")
	}
	return nil
}

// Apply schedules or unschedules runs so they reflect settings.
func (s *Service) Apply(ctx context.Context, settings interfaces.MigrationSettings) error {
	if !settings.ScheduleEnabled {
		return s.Disable(ctx)
	}
	_, err := s.Enable(ctx, runtimeconfig.Interval(settings.ScheduleInterval))
	return err
}

// Ensure schedules a run when settings enable the schedule and nothing is
// pending. An existing job keeps its run time.
func (s *Service) Ensure(ctx context.Context, settings interfaces.MigrationSettings) error {
	if !settings.ScheduleEnabled {
		return s.Disable(ctx)
	}
	interval := runtimeconfig.ParseInterval(settings.ScheduleInterval)
	job, err := s.scheduler.GetByKey(ctx, MigrationRunJobKey)
	switch {
	case errors.Is(err, interfaces.ErrJobNotFound):
	case err != nil:
		return err
	case job.Status == interfaces.JobStatusPending && IntervalOf(job) == interval:
		return nil
	}
	_, err = s.Enable(ctx, interval)
	return err
}

// ScheduleNext enqueues the run following one that was due at previous. Runs
// missed while the process was down are collapsed into one.
func (s *Service) ScheduleNext(ctx context.Context, interval runtimeconfig.Interval, previous time.Time) (*interfaces.Job, error) {
	interval = runtimeconfig.ParseInterval(string(interval))
	now := s.now()
	next := previous.Add(interval.Duration())
	if !next.After(now) {
		next = now.Add(interval.Duration())
	}
	return s.enqueue(ctx, interval, next, "recurring")
}

// Status reports whether a run is pending and when.
func (s *Service) Status(ctx context.Context) (Status, error) {
	job, err := s.scheduler.GetByKey(ctx, MigrationRunJobKey)
	if errors.Is(err, interfaces.ErrJobNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	if job.Status != interfaces.JobStatusPending {
		return Status{}, nil
	}
	return Status{
		Enabled:  true,
		Interval: IntervalOf(job),
		NextRun:  job.RunAt,
		JobID:    job.ID,
		Attempt:  job.Attempt,
	}, nil
}

func (s *Service) enqueue(ctx context.Context, interval runtimeconfig.Interval, runAt time.Time, source string) (*interfaces.Job, error) {
	job, err := s.scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:   MigrationRunJobKey,
		Type:  JobTypeMigrationRun,
		RunAt: runAt,
		Payload: map[string]any{
			PayloadInterval: interval.String(),
			PayloadSource:   source,
		},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scheduler.migration.scheduled",
		"interval", interval.String(),
		"run_at", runAt,
		"source", source,
	)
	return job, nil
}

// IntervalOf reads the interval recorded on a migration job.
func IntervalOf(job *interfaces.Job) runtimeconfig.Interval {
	if job == nil {
		return runtimeconfig.DefaultInterval
	}
	raw, _ := job.Payload[PayloadInterval].(string)
	return runtimeconfig.ParseInterval(raw)
}
