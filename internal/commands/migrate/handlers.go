package migratecmd

import (
	"context"
	"errors"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-faqmigrate/internal/commands"
	"github.com/goliatone/go-faqmigrate/internal/engine"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

const (
	runOperation            = "migrate.run"
	runScheduledOperation   = "migrate.run_scheduled"
	resetOperation          = "migrate.reset_progress"
	updateSettingsOperation = "migrate.settings.update"
)

var (
	// ErrRunnerRequired is returned when a run handler has no engine.
	ErrRunnerRequired = errors.New("migrate command: runner is nil")
	// ErrSettingsRequired is returned when a handler needs the settings service.
	ErrSettingsRequired = errors.New("migrate command: settings service is nil")
	// ErrCheckpointsRequired is returned when the reset handler has no checkpoint store.
	ErrCheckpointsRequired = errors.New("migrate command: checkpoint store is nil")
)

var (
	_ command.Commander[RunMigrationCommand]                 = (*RunMigrationHandler)(nil)
	_ command.Commander[RunScheduledCommand]                 = (*RunScheduledHandler)(nil)
	_ command.CronCommand                                    = (*RunScheduledHandler)(nil)
	_ command.Commander[ResetProgressCommand]                = (*ResetProgressHandler)(nil)
	_ command.Commander[UpdateSettingsCommand]               = (*UpdateSettingsHandler)(nil)
	_ command.Querier[ScheduleStatusQuery, scheduler.Status] = (*ScheduleStatusHandler)(nil)
)

// Runner executes migration runs.
type Runner interface {
	Run(ctx context.Context, req engine.Request) (*report.RunResult, error)
}

// ResultSink receives the report of every run a handler starts.
type ResultSink func(*report.RunResult)

// RunMigrationHandler runs a manual DRY or APPLY pass.
type RunMigrationHandler struct {
	inner *commands.Handler[RunMigrationCommand]
}

// NewRunMigrationHandler binds a run handler to runner and the stored settings.
func NewRunMigrationHandler(runner Runner, store *settings.Service, sink ResultSink, logger interfaces.Logger, opts ...commands.HandlerOption[RunMigrationCommand]) *RunMigrationHandler {
	baseLogger := commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg RunMigrationCommand) error {
		mode := report.Mode(strings.ToLower(strings.TrimSpace(msg.Mode)))
		return run(ctx, runner, store, sink, baseLogger, mode, report.TriggerManual)
	}
	handlerOpts := []commands.HandlerOption[RunMigrationCommand]{
		commands.WithLogger[RunMigrationCommand](baseLogger),
		commands.WithOperation[RunMigrationCommand](runOperation),
		commands.WithMessageFields(func(msg RunMigrationCommand) map[string]any {
			return map[string]any{"mode": msg.Mode}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RunMigrationCommand](baseLogger)),
	}
	return &RunMigrationHandler{
		inner: commands.NewHandler(exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[RunMigrationCommand].
func (h *RunMigrationHandler) Execute(ctx context.Context, msg RunMigrationCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RunScheduledHandler runs APPLY passes with scheduled semantics and exposes
// itself to go-command cron registries.
type RunScheduledHandler struct {
	inner    *commands.Handler[RunScheduledCommand]
	interval func() runtimeconfig.Interval
	enabled  func() bool
}

// NewRunScheduledHandler binds a scheduled run handler. interval supplies the
// cron cadence and may be nil for the default interval.
func NewRunScheduledHandler(runner Runner, store *settings.Service, sink ResultSink, interval func() runtimeconfig.Interval, logger interfaces.Logger, opts ...commands.HandlerOption[RunScheduledCommand]) *RunScheduledHandler {
	baseLogger := commands.EnsureLogger(logger)
	exec := func(ctx context.Context, _ RunScheduledCommand) error {
		return run(ctx, runner, store, sink, baseLogger, report.ModeApply, report.TriggerScheduled)
	}
	handlerOpts := []commands.HandlerOption[RunScheduledCommand]{
		commands.WithLogger[RunScheduledCommand](baseLogger),
		commands.WithOperation[RunScheduledCommand](runScheduledOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[RunScheduledCommand](baseLogger)),
	}
	if interval == nil {
		interval = func() runtimeconfig.Interval { return runtimeconfig.DefaultInterval }
	}
	return &RunScheduledHandler{
		inner:    commands.NewHandler(exec, append(handlerOpts, opts...)...),
		interval: interval,
	}
}

// Execute satisfies command.Commander[RunScheduledCommand].
func (h *RunScheduledHandler) Execute(ctx context.Context, msg RunScheduledCommand) error {
	return h.inner.Execute(ctx, msg)
}

// WithScheduleGate makes cron ticks no-ops while enabled reports false.
func (h *RunScheduledHandler) WithScheduleGate(enabled func() bool) *RunScheduledHandler {
	h.enabled = enabled
	return h
}

// CronHandler satisfies command.CronCommand.
func (h *RunScheduledHandler) CronHandler() func() error {
	return func() error {
		if h.enabled != nil && !h.enabled() {
			return nil
		}
		err := h.Execute(context.Background(), RunScheduledCommand{})
		if errors.Is(err, interfaces.ErrRunInProgress) {
			return nil
		}
		return err
	}
}

// CronOptions satisfies command.CronCommand.
func (h *RunScheduledHandler) CronOptions() command.HandlerConfig {
	return command.HandlerConfig{
		Expression: h.interval().CronExpression(),
		Timeout:    commands.DefaultCommandTimeout,
	}
}

func run(ctx context.Context, runner Runner, store *settings.Service, sink ResultSink, logger interfaces.Logger, mode report.Mode, trigger report.Trigger) error {
	if runner == nil {
		return ErrRunnerRequired
	}
	cfg := runtimeconfig.DefaultRunConfig()
	if store != nil {
		loaded, err := store.RunConfig(ctx)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	result, err := runner.Run(ctx, engine.Request{Mode: mode, Trigger: trigger, Config: cfg})
	if result != nil {
		logging.WithFields(logger, map[string]any{
			"run_id":           result.RunID,
			"scanned":          result.Scanned,
			"matched":          result.Matched,
			"changed":          result.Changed,
			"blocks_converted": result.BlocksConverted,
			"error_count":      len(result.Errors),
			"checkpoint":       result.Checkpoint,
		}).Info("migrate.command.run.completed")
		if sink != nil {
			sink(result)
		}
	}
	return err
}

// ResetProgressHandler rewinds the checkpoint so the next run starts over.
type ResetProgressHandler struct {
	inner *commands.Handler[ResetProgressCommand]
}

// NewResetProgressHandler binds a reset handler to checkpoints.
func NewResetProgressHandler(checkpoints interfaces.CheckpointStore, logger interfaces.Logger, opts ...commands.HandlerOption[ResetProgressCommand]) *ResetProgressHandler {
	baseLogger := commands.EnsureLogger(logger)
	exec := func(ctx context.Context, _ ResetProgressCommand) error {
		if checkpoints == nil {
			return ErrCheckpointsRequired
		}
		return checkpoints.Save(ctx, 0)
	}
	handlerOpts := []commands.HandlerOption[ResetProgressCommand]{
		commands.WithLogger[ResetProgressCommand](baseLogger),
		commands.WithOperation[ResetProgressCommand](resetOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[ResetProgressCommand](baseLogger)),
	}
	return &ResetProgressHandler{
		inner: commands.NewHandler(exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[ResetProgressCommand].
func (h *ResetProgressHandler) Execute(ctx context.Context, msg ResetProgressCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UpdateSettingsHandler persists settings and syncs the recurring schedule.
type UpdateSettingsHandler struct {
	inner *commands.Handler[UpdateSettingsCommand]
}

// NewUpdateSettingsHandler binds a settings handler. schedule may be nil when
// recurring runs are not wired.
func NewUpdateSettingsHandler(store *settings.Service, schedule *scheduler.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UpdateSettingsCommand]) *UpdateSettingsHandler {
	baseLogger := commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg UpdateSettingsCommand) error {
		if store == nil {
			return ErrSettingsRequired
		}
		saved, err := store.Save(ctx, interfaces.MigrationSettings{
			PostType:         strings.TrimSpace(msg.PostType),
			Status:           strings.TrimSpace(msg.Status),
			BatchSize:        msg.BatchSize,
			MaxPerRun:        msg.MaxPerRun,
			ScheduleEnabled:  msg.ScheduleEnabled,
			ScheduleInterval: strings.ToLower(strings.TrimSpace(msg.ScheduleInterval)),
		})
		if err != nil {
			return err
		}
		if schedule == nil {
			return nil
		}
		return schedule.Apply(ctx, saved)
	}
	handlerOpts := []commands.HandlerOption[UpdateSettingsCommand]{
		commands.WithLogger[UpdateSettingsCommand](baseLogger),
		commands.WithOperation[UpdateSettingsCommand](updateSettingsOperation),
		commands.WithMessageFields(func(msg UpdateSettingsCommand) map[string]any {
			return map[string]any{
				"schedule_enabled":  msg.ScheduleEnabled,
				"schedule_interval": msg.ScheduleInterval,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UpdateSettingsCommand](baseLogger)),
	}
	return &UpdateSettingsHandler{
		inner: commands.NewHandler(exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[UpdateSettingsCommand].
func (h *UpdateSettingsHandler) Execute(ctx context.Context, msg UpdateSettingsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ScheduleStatusHandler answers ScheduleStatusQuery.
type ScheduleStatusHandler struct {
	schedule *scheduler.Service
	timeout  time.Duration
}

// NewScheduleStatusHandler binds the status query to schedule.
func NewScheduleStatusHandler(schedule *scheduler.Service) *ScheduleStatusHandler {
	return &ScheduleStatusHandler{schedule: schedule, timeout: 5 * time.Second}
}

// Query satisfies command.Querier[ScheduleStatusQuery, scheduler.Status].
func (h *ScheduleStatusHandler) Query(ctx context.Context, _ ScheduleStatusQuery) (scheduler.Status, error) {
	if h.schedule == nil {
		return scheduler.Status{}, nil
	}
	ctx, cancel := commands.WithCommandTimeout(commands.EnsureContext(ctx), h.timeout)
	defer cancel()
	status, err := h.schedule.Status(ctx)
	return status, commands.WrapExecuteError(err)
}
