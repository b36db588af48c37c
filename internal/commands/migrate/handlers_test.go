package migratecmd_test

import (
	"context"
	"errors"
	"testing"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	migratecmd "github.com/goliatone/go-faqmigrate/internal/commands/migrate"
	"github.com/goliatone/go-faqmigrate/internal/engine"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

type recordingRunner struct {
	requests []engine.Request
	err      error
}

func (r *recordingRunner) Run(_ context.Context, req engine.Request) (*report.RunResult, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return report.New("run-1", req.Mode, req.Trigger, time.Now()), nil
}

type registry struct {
	handlers []any
}

func (r *registry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func newServices(runner migratecmd.Runner) (migratecmd.Services, *[]*report.RunResult) {
	var results []*report.RunResult
	return migratecmd.Services{
		Runner:      runner,
		Settings:    settings.NewService(settings.NewMemoryRepository(), settings.Defaults()),
		Checkpoints: settings.NewMemoryCheckpointStore(),
		Schedule:    scheduler.NewService(scheduler.NewInMemory()),
		Results:     func(r *report.RunResult) { results = append(results, r) },
	}, &results
}

func TestRegisterMigrationCommandsRegistersHandlers(t *testing.T) {
	reg := &registry{}
	services, _ := newServices(&recordingRunner{})
	set, err := migratecmd.RegisterMigrationCommands(reg, services, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(reg.handlers) != 4 {
		t.Fatalf("expected 4 registered handlers, got %d", len(reg.handlers))
	}
	if _, ok := reg.handlers[1].(command.CronCommand); !ok {
		t.Fatalf("expected scheduled handler to be a cron command")
	}
	if set.ScheduleStatus == nil {
		t.Fatalf("expected schedule status handler")
	}
}

func TestRegisterRequiresRunner(t *testing.T) {
	if _, err := migratecmd.RegisterMigrationCommands(nil, migratecmd.Services{}, nil); err == nil {
		t.Fatalf("expected error without runner")
	}
}

func TestRunMigrationUsesStoredSettings(t *testing.T) {
	ctx := context.Background()
	runner := &recordingRunner{}
	services, results := newServices(runner)
	stored := settings.Defaults()
	stored.PostType = "page"
	stored.BatchSize = 5
	if _, err := services.Settings.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)

	if err := set.Run.Execute(ctx, migratecmd.RunMigrationCommand{Mode: "DRY"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(runner.requests) != 1 {
		t.Fatalf("expected one run, got %d", len(runner.requests))
	}
	req := runner.requests[0]
	if req.Mode != report.ModeDry || req.Trigger != report.TriggerManual {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Config.PostType != "page" || req.Config.BatchSize != 5 {
		t.Fatalf("expected stored settings in run config, got %+v", req.Config)
	}
	if len(*results) != 1 {
		t.Fatalf("expected result delivered to sink")
	}
}

func TestRunMigrationRejectsUnknownMode(t *testing.T) {
	runner := &recordingRunner{}
	services, _ := newServices(runner)
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)

	err := set.Run.Execute(context.Background(), migratecmd.RunMigrationCommand{Mode: "preview"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.requests) != 0 {
		t.Fatalf("runner must not be called on invalid input")
	}
}

func TestRunScheduledIsApplyWithScheduledTrigger(t *testing.T) {
	runner := &recordingRunner{}
	services, _ := newServices(runner)
	services.Interval = func() runtimeconfig.Interval { return runtimeconfig.IntervalTwiceDaily }
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)

	if err := set.RunScheduled.CronHandler()(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}
	req := runner.requests[0]
	if req.Mode != report.ModeApply || req.Trigger != report.TriggerScheduled {
		t.Fatalf("unexpected request %+v", req)
	}
	if expr := set.RunScheduled.CronOptions().Expression; expr != "@every 12h" {
		t.Fatalf("unexpected cron expression %q", expr)
	}
}

func TestCronHandlerIgnoresRunInProgress(t *testing.T) {
	services, _ := newServices(&recordingRunner{err: interfaces.ErrRunInProgress})
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)
	if err := set.RunScheduled.CronHandler()(); err != nil {
		t.Fatalf("expected locked runs to be ignored by cron, got %v", err)
	}
	if err := set.RunScheduled.Execute(context.Background(), migratecmd.RunScheduledCommand{}); !errors.Is(err, interfaces.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress from direct execution, got %v", err)
	}
}

func TestCronHandlerSkipsWhileScheduleDisabled(t *testing.T) {
	runner := &recordingRunner{}
	services, _ := newServices(runner)
	enabled := false
	services.Enabled = func() bool { return enabled }
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)

	if err := set.RunScheduled.CronHandler()(); err != nil {
		t.Fatalf("cron tick: %v", err)
	}
	if len(runner.requests) != 0 {
		t.Fatalf("expected no run while disabled, got %d", len(runner.requests))
	}

	enabled = true
	if err := set.RunScheduled.CronHandler()(); err != nil {
		t.Fatalf("cron tick: %v", err)
	}
	if len(runner.requests) != 1 {
		t.Fatalf("expected one run once enabled, got %d", len(runner.requests))
	}
}

func TestResetProgressRewindsCheckpoint(t *testing.T) {
	ctx := context.Background()
	services, _ := newServices(&recordingRunner{})
	_ = services.Checkpoints.Save(ctx, 99)
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)

	if err := set.Reset.Execute(ctx, migratecmd.ResetProgressCommand{}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cp, _ := services.Checkpoints.Load(ctx); cp != 0 {
		t.Fatalf("expected checkpoint 0, got %d", cp)
	}
}

func TestUpdateSettingsTogglesSchedule(t *testing.T) {
	ctx := context.Background()
	services, _ := newServices(&recordingRunner{})
	set, _ := migratecmd.RegisterMigrationCommands(nil, services, nil)

	err := set.UpdateSettings.Execute(ctx, migratecmd.UpdateSettingsCommand{
		PostType:         "post",
		Status:           "any",
		BatchSize:        0,
		MaxPerRun:        250,
		ScheduleEnabled:  true,
		ScheduleInterval: "Daily",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := services.Settings.Load(ctx)
	if stored.BatchSize != runtimeconfig.DefaultBatchSize || stored.MaxPerRun != 250 || stored.ScheduleInterval != "daily" {
		t.Fatalf("unexpected stored settings %+v", stored)
	}
	status, err := set.ScheduleStatus.Query(ctx, migratecmd.ScheduleStatusQuery{})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Enabled || status.Interval != runtimeconfig.IntervalDaily {
		t.Fatalf("expected daily schedule, got %+v", status)
	}

	err = set.UpdateSettings.Execute(ctx, migratecmd.UpdateSettingsCommand{ScheduleEnabled: false})
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	status, _ = set.ScheduleStatus.Query(ctx, migratecmd.ScheduleStatusQuery{})
	if status.Enabled {
		t.Fatalf("expected schedule disabled, got %+v", status)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	cases := []migratecmd.UpdateSettingsCommand{
		{ScheduleInterval: "weekly"},
		{PostType: "Post Type"},
		{BatchSize: runtimeconfig.MaxBatchSize + 1},
	}
	for _, msg := range cases {
		if err := msg.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", msg)
		}
	}
	if err := (migratecmd.UpdateSettingsCommand{PostType: "any", Status: "publish", ScheduleInterval: "fifteen_minutes"}).Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}
}
