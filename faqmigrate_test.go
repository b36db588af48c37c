package faqmigrate_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	faqmigrate "github.com/goliatone/go-faqmigrate"
	migratecmd "github.com/goliatone/go-faqmigrate/internal/commands/migrate"
	"github.com/goliatone/go-faqmigrate/internal/di"
	"github.com/goliatone/go-faqmigrate/internal/documents"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

const legacyFAQ = `<p>Intro</p><!-- wp:rank-math/faq-block {"questions":[{"id":"q1","title":"What is it?","content":"A <strong>test</strong>."}]} --><div class="rank-math-faq"></div><!-- /wp:rank-math/faq-block -->`

func newModule(t *testing.T, cfg faqmigrate.Config, docs ...interfaces.Document) (*faqmigrate.Module, *documents.MemoryStore) {
	t.Helper()
	store := documents.NewMemoryStore(docs...)
	module, err := faqmigrate.New(cfg, di.WithDocumentStore(store))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = module.Close(context.Background()) })
	return module, store
}

func publishedPost(id int64, content string) interfaces.Document {
	return interfaces.Document{ID: id, Title: "Post", PostType: "post", Status: "publish", Content: content}
}

func TestModuleDryRunThenApply(t *testing.T) {
	ctx := context.Background()
	module, store := newModule(t, faqmigrate.DefaultConfig(), publishedPost(10, legacyFAQ))

	dry, err := module.Run(ctx, faqmigrate.ModeDry)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Matched != 1 || dry.Changed != 1 || dry.BlocksConverted != 1 {
		t.Fatalf("unexpected dry counters %+v", dry)
	}
	if len(dry.Items) != 1 || dry.Items[0].Preview == "" {
		t.Fatalf("expected a dry run preview, got %+v", dry.Items)
	}
	if doc, _ := store.Fetch(ctx, 10); doc.Content != legacyFAQ {
		t.Fatal("dry run must leave the document untouched")
	}

	if err := module.ResetProgress(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cp, _ := module.Checkpoint(ctx); cp != 0 {
		t.Fatalf("expected checkpoint 0 after reset, got %d", cp)
	}

	applied, err := module.Run(ctx, faqmigrate.ModeApply)
	if err != nil {
		t.Fatalf("apply run: %v", err)
	}
	if applied.Changed != 1 || applied.Items[0].Preview != "" {
		t.Fatalf("unexpected apply result %+v", applied)
	}
	doc, _ := store.Fetch(ctx, 10)
	if !strings.HasPrefix(doc.Content, "<p>Intro</p><!-- wp:wpseopress/faq-block-v2 -->") {
		t.Fatalf("expected converted content, got %q", doc.Content)
	}
	if strings.Contains(doc.Content, "rank-math") {
		t.Fatalf("expected legacy block to be gone, got %q", doc.Content)
	}

	events, err := module.AuditEvents(ctx)
	if err != nil {
		t.Fatalf("audit events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected audit events from the runs")
	}
}

func TestModuleRunScheduledNowUsesScheduledTrigger(t *testing.T) {
	module, _ := newModule(t, faqmigrate.DefaultConfig(), publishedPost(1, legacyFAQ))

	result, err := module.RunScheduledNow(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Mode != faqmigrate.ModeApply || result.Trigger != "scheduled" {
		t.Fatalf("expected scheduled apply run, got %s/%s", result.Mode, result.Trigger)
	}
}

func TestModuleUpdateSettingsSchedulesRuns(t *testing.T) {
	ctx := context.Background()
	module, _ := newModule(t, faqmigrate.DefaultConfig())

	defaults, err := module.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if defaults.PostType != "any" || defaults.Status != "publish" || defaults.BatchSize != 20 || defaults.MaxPerRun != 100 {
		t.Fatalf("unexpected defaults %+v", defaults)
	}

	defaults.ScheduleEnabled = true
	defaults.ScheduleInterval = string(faqmigrate.IntervalFifteenMinutes)
	updated, err := module.UpdateSettings(ctx, defaults)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !updated.ScheduleEnabled {
		t.Fatalf("expected schedule enabled, got %+v", updated)
	}

	status, err := module.ScheduleStatus(ctx)
	if err != nil {
		t.Fatalf("schedule status: %v", err)
	}
	if !status.Enabled || status.Interval != faqmigrate.IntervalFifteenMinutes {
		t.Fatalf("unexpected status %+v", status)
	}
	if until := time.Until(status.NextRun); until <= 0 || until > time.Minute {
		t.Fatalf("expected first run within a minute, got %s", until)
	}

	defaults.BatchSize = 10_000
	if _, err := module.UpdateSettings(ctx, defaults); err == nil {
		t.Fatal("expected batch size above the bound to be rejected")
	}
}

func TestModuleLockedRunReturnsErrRunInProgress(t *testing.T) {
	cfg := faqmigrate.DefaultConfig()
	cfg.Lock.Provider = "memory"
	module, _ := newModule(t, cfg)
	ctx := context.Background()

	if ok, err := module.Container().RunLock().Acquire(ctx, "other", time.Minute); !ok || err != nil {
		t.Fatalf("acquire: %v %v", ok, err)
	}
	if _, err := module.Run(ctx, faqmigrate.ModeDry); !errors.Is(err, faqmigrate.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestModuleAutoRegistersDispatcher(t *testing.T) {
	dispatcher.Reset()
	t.Cleanup(dispatcher.Reset)

	cfg := faqmigrate.DefaultConfig()
	cfg.Commands.Enabled = true
	cfg.Commands.AutoRegisterDispatcher = true
	module, store := newModule(t, cfg, publishedPost(3, legacyFAQ))
	ctx := context.Background()

	if err := dispatcher.Dispatch(ctx, migratecmd.RunMigrationCommand{Mode: "apply"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	doc, _ := store.Fetch(ctx, 3)
	if !strings.Contains(doc.Content, "wp:wpseopress/faq-block-v2") {
		t.Fatalf("expected dispatched apply run to convert the document, got %q", doc.Content)
	}
	if cp, _ := module.Checkpoint(ctx); cp != 3 {
		t.Fatalf("expected checkpoint 3, got %d", cp)
	}
}

func TestModuleCronFollowsScheduleUpdates(t *testing.T) {
	cfg := faqmigrate.DefaultConfig()
	cfg.Schedule.Enabled = true
	cfg.Schedule.Interval = string(faqmigrate.IntervalHourly)
	cfg.Commands.Enabled = true
	cfg.Commands.AutoRegisterCron = true
	module, _ := newModule(t, cfg)
	ctx := context.Background()

	if got := module.CronExpression(); got != "@hourly" {
		t.Fatalf("expected hourly cron entry, got %q", got)
	}

	current, err := module.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	current.ScheduleInterval = string(faqmigrate.IntervalDaily)
	if _, err := module.UpdateSettings(ctx, current); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if got := module.CronExpression(); got != "@daily" {
		t.Fatalf("expected cron entry to move to daily, got %q", got)
	}

	current.ScheduleEnabled = false
	if _, err := module.UpdateSettings(ctx, current); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if got := module.CronExpression(); got != "" {
		t.Fatalf("expected cron entry removed, got %q", got)
	}
}

func TestModuleServeStopsOnCancel(t *testing.T) {
	cfg := faqmigrate.DefaultConfig()
	cfg.Schedule.PollInterval = 10 * time.Millisecond
	module, _ := newModule(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := module.Serve(ctx); err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestConfigValidateRejectsCronWithoutSchedule(t *testing.T) {
	cfg := faqmigrate.DefaultConfig()
	cfg.Commands.AutoRegisterCron = true
	if err := cfg.Validate(); !errors.Is(err, faqmigrate.ErrCommandsCronRequiresSchedule) {
		t.Fatalf("expected ErrCommandsCronRequiresSchedule, got %v", err)
	}
}

func TestConfigValidateRequiresRedisAddr(t *testing.T) {
	cfg := faqmigrate.DefaultConfig()
	cfg.Lock.Provider = "redis"
	if err := cfg.Validate(); !errors.Is(err, faqmigrate.ErrRedisAddrRequired) {
		t.Fatalf("expected ErrRedisAddrRequired, got %v", err)
	}
}
