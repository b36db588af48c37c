package di

import (
	"context"
	"errors"
	"time"

	migratecmd "github.com/goliatone/go-faqmigrate/internal/commands/migrate"
	"github.com/goliatone/go-faqmigrate/internal/engine"
	"github.com/goliatone/go-faqmigrate/internal/jobs"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/logging/console"
	"github.com/goliatone/go-faqmigrate/internal/logging/gologger"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/uptrace/bun"
)

// Container wires the migrator: adapters selected by configuration, the batch
// engine, the schedule and the command handlers.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	documents   interfaces.DocumentStore
	checkpoints interfaces.CheckpointStore
	settings    interfaces.SettingsStore
	runLock     interfaces.RunLock
	scheduler   interfaces.Scheduler

	bunDB *bun.DB

	settingsSvc   *settings.Service
	settingsState *settings.State
	schedule      *scheduler.Service
	engine        *engine.Engine
	worker        *jobs.Worker
	audit         jobs.AuditRecorder
	handlers      *migratecmd.HandlerSet
	results       func(*report.RunResult)

	cancel  context.CancelFunc
	closers []func(context.Context) error
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithDocumentStore overrides the document store selected by the storage driver.
func WithDocumentStore(store interfaces.DocumentStore) Option {
	return func(c *Container) {
		if store != nil {
			c.documents = store
		}
	}
}

// WithCheckpointStore overrides the checkpoint store.
func WithCheckpointStore(store interfaces.CheckpointStore) Option {
	return func(c *Container) {
		if store != nil {
			c.checkpoints = store
		}
	}
}

// WithSettingsStore overrides the settings store.
func WithSettingsStore(store interfaces.SettingsStore) Option {
	return func(c *Container) {
		if store != nil {
			c.settings = store
		}
	}
}

// WithRunLock overrides the lock selected by the lock provider.
func WithRunLock(lock interfaces.RunLock) Option {
	return func(c *Container) {
		if lock != nil {
			c.runLock = lock
		}
	}
}

// WithScheduler overrides the in-memory scheduler.
func WithScheduler(s interfaces.Scheduler) Option {
	return func(c *Container) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithBunDB supplies the database used by the sql document driver instead of
// opening one from the dsn.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithAuditRecorder overrides the in-memory audit recorder.
func WithAuditRecorder(recorder jobs.AuditRecorder) Option {
	return func(c *Container) {
		if recorder != nil {
			c.audit = recorder
		}
	}
}

// WithResultHandler receives every run report produced by the worker and the
// command handlers.
func WithResultHandler(fn func(*report.RunResult)) Option {
	return func(c *Container) {
		c.results = fn
	}
}

// NewContainer validates cfg and builds every collaborator. Adapters that dial
// external services are connected eagerly so misconfiguration surfaces here.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	steps := []func(context.Context) error{
		c.configureLogger,
		c.configureDocuments,
		c.configureState,
		c.configureLock,
		c.configureSchedule,
		c.configureEngine,
		c.configureCommands,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close(context.Background())
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLogger(context.Context) error {
	if c.loggerProvider != nil {
		return nil
	}
	if c.Config.Features.Logger && c.Config.Logging.Provider == "gologger" {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
		return nil
	}
	level := console.ParseLevel(c.Config.Logging.Level)
	c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	return nil
}

func (c *Container) configureSchedule(ctx context.Context) error {
	logger := logging.SchedulerLogger(c.loggerProvider)
	provider := "custom"
	if c.scheduler == nil {
		c.scheduler = scheduler.NewInMemory()
		provider = "in-memory"
	}
	delay := c.Config.Schedule.FirstRunDelay
	if delay <= 0 {
		delay = scheduler.DefaultFirstRunDelay
	}
	c.schedule = scheduler.NewService(c.scheduler,
		scheduler.WithFirstRunDelay(delay),
		scheduler.WithServiceLogger(logger),
	)
	logger.Info("scheduler.configured", "provider", provider, "first_run_delay", delay.String())
	return c.SyncSchedule(ctx)
}

func (c *Container) configureEngine(context.Context) error {
	if c.audit == nil {
		c.audit = jobs.NewInMemoryAuditRecorder()
	}
	eng, err := engine.New(c.documents, c.checkpoints,
		engine.WithRunLock(c.runLock, c.Config.Lock.TTL),
		engine.WithLogger(logging.EngineLogger(c.loggerProvider)),
		engine.WithRecorder(jobs.EngineRecorder(c.audit)),
	)
	if err != nil {
		return err
	}
	c.engine = eng
	c.worker = jobs.NewWorker(c.schedule, eng, c.settingsSvc,
		jobs.WithAuditRecorder(c.audit),
		jobs.WithLogger(logging.SchedulerLogger(c.loggerProvider)),
		jobs.WithResultHandler(c.results),
	)
	return nil
}

func (c *Container) configureCommands(context.Context) error {
	set, err := migratecmd.RegisterMigrationCommands(nil, migratecmd.Services{
		Runner:      c.engine,
		Settings:    c.settingsSvc,
		Checkpoints: c.checkpoints,
		Schedule:    c.schedule,
		Interval:    c.Interval,
		Enabled:     c.settingsState.ScheduleEnabled,
		Results:     c.results,
	}, c.loggerProvider)
	if err != nil {
		return err
	}
	c.handlers = set
	return nil
}

// SyncSchedule reloads the settings into the snapshot and makes the pending
// scheduled run match them.
func (c *Container) SyncSchedule(ctx context.Context) error {
	current, err := c.settingsSvc.Load(ctx)
	if err != nil {
		return err
	}
	c.settingsState.Set(current)
	return c.schedule.Ensure(ctx, current)
}

// Interval returns the schedule cadence of the current settings snapshot.
func (c *Container) Interval() runtimeconfig.Interval {
	return runtimeconfig.ParseInterval(c.settingsState.Snapshot().ScheduleInterval)
}

// Close stops background watchers and releases every connection the
// container opened.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	var errs error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = errors.Join(errs, c.closers[i](ctx))
	}
	c.closers = nil
	return errs
}

func (c *Container) onClose(fn func(context.Context) error) {
	c.closers = append(c.closers, fn)
}

// LoggerProvider exposes the resolved logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// DocumentStore returns the configured document store.
func (c *Container) DocumentStore() interfaces.DocumentStore {
	return c.documents
}

// CheckpointStore returns the configured checkpoint store.
func (c *Container) CheckpointStore() interfaces.CheckpointStore {
	return c.checkpoints
}

// SettingsService returns the settings service.
func (c *Container) SettingsService() *settings.Service {
	return c.settingsSvc
}

// SettingsState returns the live settings snapshot.
func (c *Container) SettingsState() *settings.State {
	return c.settingsState
}

// RunLock returns the configured run lock.
func (c *Container) RunLock() interfaces.RunLock {
	return c.runLock
}

// Schedule returns the schedule service.
func (c *Container) Schedule() *scheduler.Service {
	return c.schedule
}

// Engine returns the batch engine.
func (c *Container) Engine() *engine.Engine {
	return c.engine
}

// Worker returns the scheduled run worker.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// AuditRecorder returns the audit recorder shared by the engine and worker.
func (c *Container) AuditRecorder() jobs.AuditRecorder {
	return c.audit
}

// Handlers returns the migration command handlers.
func (c *Container) Handlers() *migratecmd.HandlerSet {
	return c.handlers
}

// PollInterval returns the worker poll interval, defaulting to 30 seconds.
func (c *Container) PollInterval() time.Duration {
	if c.Config.Schedule.PollInterval > 0 {
		return c.Config.Schedule.PollInterval
	}
	return 30 * time.Second
}
