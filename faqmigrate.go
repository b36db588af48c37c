// Package faqmigrate migrates legacy Rank Math FAQ blocks embedded in post
// content into SEOPress FAQ blocks, in resumable batches.
package faqmigrate

import (
	"context"

	"github.com/goliatone/go-command/cron"
	"github.com/goliatone/go-faqmigrate/commands"
	migratecmd "github.com/goliatone/go-faqmigrate/internal/commands/migrate"
	"github.com/goliatone/go-faqmigrate/internal/di"
	"github.com/goliatone/go-faqmigrate/internal/engine"
	"github.com/goliatone/go-faqmigrate/internal/jobs"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// RunResult exports the run report.
type RunResult = report.RunResult

// ItemResult exports the per document report entry.
type ItemResult = report.ItemResult

// Mode selects dry or apply runs.
type Mode = report.Mode

// Settings exports the persisted migration settings.
type Settings = interfaces.MigrationSettings

// AuditEvent exports the audit trail entry.
type AuditEvent = jobs.AuditEvent

// ScheduleStatus exports the recurring schedule status.
type ScheduleStatus = scheduler.Status

const (
	ModeDry   = report.ModeDry
	ModeApply = report.ModeApply
)

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = interfaces.ErrRunInProgress

// Module represents the top level migrator facade.
type Module struct {
	container     *di.Container
	registrations *commands.RegistrationResult
	cron          *cron.Scheduler
}

// New constructs a module using the provided configuration and optional DI
// overrides. When the commands layer is enabled the handlers are subscribed to
// the go-command dispatcher and, with AutoRegisterCron, the scheduled run is
// registered on a cron scheduler driven by Serve.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	m := &Module{container: container}
	if err := m.registerCommands(); err != nil {
		_ = container.Close(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Module) registerCommands() error {
	cfg := m.container.Config.Commands
	if !cfg.Enabled {
		return nil
	}
	opts := commands.RegistrationOptions{}
	if cfg.AutoRegisterDispatcher {
		opts.Dispatcher = commands.NewDispatcher()
	}
	if cfg.AutoRegisterCron {
		m.cron = cron.NewScheduler()
		opts.CronRegistrar = commands.CronRegistrarFor(m.cron)
	}
	result, err := commands.RegisterContainerCommands(m.container, opts)
	m.registrations = result
	return err
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Run executes a manual run with the stored settings.
func (m *Module) Run(ctx context.Context, mode Mode) (*RunResult, error) {
	return m.run(ctx, mode, report.TriggerManual)
}

// RunScheduledNow executes an apply run with scheduled semantics: stored
// settings and the scheduled item cap.
func (m *Module) RunScheduledNow(ctx context.Context) (*RunResult, error) {
	return m.run(ctx, ModeApply, report.TriggerScheduled)
}

func (m *Module) run(ctx context.Context, mode Mode, trigger report.Trigger) (*RunResult, error) {
	cfg, err := m.container.SettingsService().RunConfig(ctx)
	if err != nil {
		return nil, err
	}
	return m.container.Engine().Run(ctx, engine.Request{Mode: mode, Trigger: trigger, Config: cfg})
}

// ResetProgress rewinds the checkpoint to zero.
func (m *Module) ResetProgress(ctx context.Context) error {
	return m.container.Handlers().Reset.Execute(ctx, migratecmd.ResetProgressCommand{})
}

// Checkpoint returns the highest processed document id.
func (m *Module) Checkpoint(ctx context.Context) (int64, error) {
	return m.container.CheckpointStore().Load(ctx)
}

// Settings returns the stored settings merged with defaults.
func (m *Module) Settings(ctx context.Context) (Settings, error) {
	return m.container.SettingsService().Load(ctx)
}

// UpdateSettings validates and persists settings, then reschedules the
// recurring run to match them.
func (m *Module) UpdateSettings(ctx context.Context, settings Settings) (Settings, error) {
	err := m.container.Handlers().UpdateSettings.Execute(ctx, migratecmd.UpdateSettingsCommand{
		PostType:         settings.PostType,
		Status:           settings.Status,
		BatchSize:        settings.BatchSize,
		MaxPerRun:        settings.MaxPerRun,
		ScheduleEnabled:  settings.ScheduleEnabled,
		ScheduleInterval: settings.ScheduleInterval,
	})
	if err != nil {
		return Settings{}, err
	}
	current, err := m.container.SettingsService().Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	m.container.SettingsState().Set(current)
	return current, nil
}

// ScheduleStatus reports whether a scheduled run is pending and when.
func (m *Module) ScheduleStatus(ctx context.Context) (ScheduleStatus, error) {
	return m.container.Handlers().ScheduleStatus.Query(ctx, migratecmd.ScheduleStatusQuery{})
}

// CronExpression returns the expression the scheduled run is registered with
// on the cron scheduler, empty when cron registration is off or the schedule
// is disabled.
func (m *Module) CronExpression() string {
	return m.registrations.CronExpression()
}

// AuditEvents lists the audit trail recorded by runs and the worker.
func (m *Module) AuditEvents(ctx context.Context) ([]AuditEvent, error) {
	return m.container.AuditRecorder().List(ctx)
}

// Serve drives scheduled runs until ctx is done. With cron registration it
// runs the go-command cron scheduler, otherwise it polls the job worker.
func (m *Module) Serve(ctx context.Context) error {
	logger := logging.SchedulerLogger(m.container.LoggerProvider())
	if m.cron != nil {
		if err := m.cron.Start(ctx); err != nil {
			return err
		}
		logger.Info("serve.started", "driver", "cron")
		<-ctx.Done()
		return m.cron.Stop(context.WithoutCancel(ctx))
	}
	if err := m.container.SyncSchedule(ctx); err != nil {
		return err
	}
	logger.Info("serve.started", "driver", "worker", "poll", m.container.PollInterval().String())
	return m.container.Worker().Run(ctx, m.container.PollInterval())
}

// Close releases dispatcher subscriptions and adapter connections.
func (m *Module) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.registrations.Unsubscribe()
	return m.container.Close(ctx)
}
