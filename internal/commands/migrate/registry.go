package migratecmd

import (
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-faqmigrate/internal/commands"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract for handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// Services groups the collaborators the migration handlers need.
type Services struct {
	Runner      Runner
	Settings    *settings.Service
	Checkpoints interfaces.CheckpointStore
	Schedule    *scheduler.Service
	// Interval supplies the cron cadence of the scheduled handler.
	Interval func() runtimeconfig.Interval
	// Enabled gates cron ticks of the scheduled handler on the schedule toggle.
	Enabled func() bool
	// Results receives every run report produced by the handlers.
	Results ResultSink
}

// HandlerSet groups the handlers built by RegisterMigrationCommands.
type HandlerSet struct {
	Run            *RunMigrationHandler
	RunScheduled   *RunScheduledHandler
	Reset          *ResetProgressHandler
	UpdateSettings *UpdateSettingsHandler
	ScheduleStatus *ScheduleStatusHandler
}

// Commanders lists the command handlers of the set.
func (s *HandlerSet) Commanders() []any {
	if s == nil {
		return nil
	}
	return []any{s.Run, s.RunScheduled, s.Reset, s.UpdateSettings}
}

// RegisterMigrationCommands builds the migration handlers and registers the
// command handlers with reg when provided.
func RegisterMigrationCommands(reg CommandRegistry, services Services, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if services.Runner == nil {
		return nil, errors.New("migrate command registration: runner is nil")
	}
	logger := commands.CommandLogger(provider, "migrate")

	set := &HandlerSet{
		Run:            NewRunMigrationHandler(services.Runner, services.Settings, services.Results, logger),
		RunScheduled:   NewRunScheduledHandler(services.Runner, services.Settings, services.Results, services.Interval, logger).WithScheduleGate(services.Enabled),
		Reset:          NewResetProgressHandler(services.Checkpoints, logger),
		UpdateSettings: NewUpdateSettingsHandler(services.Settings, services.Schedule, logger),
		ScheduleStatus: NewScheduleStatusHandler(services.Schedule),
	}
	if reg != nil {
		for _, handler := range set.Commanders() {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterMigrationCron wires the scheduled run handler into a cron registrar.
func RegisterMigrationCron(reg CronRegistrar, handler *RunScheduledHandler) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(handler.CronOptions(), handler.CronHandler())
}
