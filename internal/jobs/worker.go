package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/engine"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// ErrSchedulerRequired is returned when the worker has no schedule to poll.
var ErrSchedulerRequired = errors.New("jobs: schedule service is nil")

// ErrRunnerRequired is returned when a due job finds no engine to run.
var ErrRunnerRequired = errors.New("jobs: migration runner is nil")

// Runner executes one migration run.
type Runner interface {
	Run(ctx context.Context, req engine.Request) (*report.RunResult, error)
}

// SettingsSource supplies the persisted migration settings.
type SettingsSource interface {
	Load(ctx context.Context) (interfaces.MigrationSettings, error)
}

// Worker polls the scheduler for due migration jobs, runs them in APPLY mode
// with the stored settings and queues the next occurrence.
type Worker struct {
	schedule  *scheduler.Service
	runner    Runner
	settings  SettingsSource
	audit     AuditRecorder
	logger    interfaces.Logger
	now       func() time.Time
	batchSize int
	onResult  func(*report.RunResult)
}

type Option func(*Worker)

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithResultHandler receives every completed scheduled run.
func WithResultHandler(fn func(*report.RunResult)) Option {
	return func(w *Worker) {
		w.onResult = fn
	}
}

func NewWorker(schedule *scheduler.Service, runner Runner, source SettingsSource, opts ...Option) *Worker {
	w := &Worker{
		schedule:  schedule,
		runner:    runner,
		settings:  source,
		logger:    logging.NoOp(),
		now:       time.Now,
		batchSize: 10,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process handles every job due now.
func (w *Worker) Process(ctx context.Context) error {
	if w.schedule == nil {
		return ErrSchedulerRequired
	}
	sched := w.schedule.Scheduler()
	due, err := sched.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		next, runErr := w.handleJob(ctx, job)
		if runErr != nil {
			w.logger.Error("jobs.migration.failed", "job_id", job.ID, "attempt", job.Attempt+1, "error", runErr)
			_ = sched.MarkFailed(ctx, job.ID, runErr)
			if job.MaxAttempts > 0 && job.Attempt+1 >= job.MaxAttempts {
				w.reschedule(ctx, job, next)
			}
			continue
		}
		_ = sched.MarkDone(ctx, job.ID)
		w.reschedule(ctx, job, next)
	}
	return nil
}

// Run polls every interval until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := w.Process(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("jobs.poll.failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// handleJob returns whether the job should recur along with the run error.
func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job) (bool, error) {
	if job.Type != scheduler.JobTypeMigrationRun {
		return false, nil
	}
	if w.runner == nil {
		return false, ErrRunnerRequired
	}
	stored := settings.Defaults()
	if w.settings != nil {
		loaded, err := w.settings.Load(ctx)
		if err != nil {
			return true, err
		}
		stored = loaded
	}
	if !stored.ScheduleEnabled {
		w.logger.Info("jobs.migration.skipped", "job_id", job.ID, "reason", "schedule disabled")
		return false, nil
	}

	result, err := w.runner.Run(ctx, engine.Request{
		Mode:    report.ModeApply,
		Trigger: report.TriggerScheduled,
		Config:  settings.RunConfig(stored),
	})
	if errors.Is(err, interfaces.ErrRunInProgress) {
		w.logger.Warn("jobs.migration.skipped", "job_id", job.ID, "reason", "run in progress")
		w.recordAudit(ctx, AuditEvent{
			EntityType: "migration_run",
			EntityID:   job.ID,
			Action:     "skipped",
			OccurredAt: w.now(),
			Metadata:   jobMetadata(job),
		})
		return true, nil
	}
	if result != nil {
		w.recordRun(ctx, job, result)
		if w.onResult != nil {
			w.onResult(result)
		}
	}
	return true, err
}

func (w *Worker) reschedule(ctx context.Context, job *interfaces.Job, recur bool) {
	if !recur {
		return
	}
	interval := scheduler.IntervalOf(job)
	if w.settings != nil {
		if stored, err := w.settings.Load(ctx); err == nil {
			if !stored.ScheduleEnabled {
				return
			}
			interval = runtimeconfig.ParseInterval(stored.ScheduleInterval)
		}
	}
	if _, err := w.schedule.ScheduleNext(ctx, interval, job.RunAt); err != nil {
		w.logger.Error("jobs.migration.reschedule_failed", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) recordRun(ctx context.Context, job *interfaces.Job, result *report.RunResult) {
	meta := jobMetadata(job)
	meta["scanned"] = result.Scanned
	meta["matched"] = result.Matched
	meta["changed"] = result.Changed
	meta["blocks_converted"] = result.BlocksConverted
	meta["checkpoint"] = result.Checkpoint
	meta["errors"] = len(result.Errors)
	w.recordAudit(ctx, AuditEvent{
		EntityType: "migration_run",
		EntityID:   result.RunID,
		Action:     "apply",
		OccurredAt: w.now(),
		Metadata:   meta,
	})
	w.logger.Info("jobs.migration.completed",
		"job_id", job.ID,
		"run_id", result.RunID,
		"changed", result.Changed,
		"errors", len(result.Errors),
	)
}

func (w *Worker) recordAudit(ctx context.Context, event AuditEvent) {
	if w.audit == nil {
		return
	}
	_ = w.audit.Record(ctx, event)
}

func jobMetadata(job *interfaces.Job) map[string]any {
	return map[string]any{
		"job_id":   job.ID,
		"job_type": job.Type,
		"run_at":   job.RunAt,
		"attempt":  job.Attempt,
		"interval": scheduler.IntervalOf(job).String(),
	}
}
