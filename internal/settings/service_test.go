package settings

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

func TestServiceLoadReturnsDefaultsWhenUnset(t *testing.T) {
	svc := NewService(NewMemoryRepository(), interfaces.MigrationSettings{})

	got, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := interfaces.MigrationSettings{
		PostType:         "any",
		Status:           "publish",
		BatchSize:        20,
		MaxPerRun:        100,
		ScheduleEnabled:  false,
		ScheduleInterval: "hourly",
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestServiceLoadMergesPartialSettings(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, interfaces.MigrationSettings{PostType: "page", BatchSize: 5, ScheduleInterval: "weekly"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	svc := NewService(repo, interfaces.MigrationSettings{MaxPerRun: 40})

	got, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.PostType != "page" || got.Status != "publish" || got.BatchSize != 5 || got.MaxPerRun != 40 {
		t.Fatalf("unexpected merge %+v", got)
	}
	if got.ScheduleInterval != "hourly" {
		t.Fatalf("expected unknown interval to fall back to hourly, got %s", got.ScheduleInterval)
	}
}

func TestServiceSaveClampsBounds(t *testing.T) {
	svc := NewService(nil, interfaces.MigrationSettings{})
	ctx := context.Background()

	saved, err := svc.Save(ctx, interfaces.MigrationSettings{BatchSize: -4, MaxPerRun: 10000, ScheduleInterval: "daily"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.BatchSize != 1 || saved.MaxPerRun != 5000 || saved.ScheduleInterval != "daily" {
		t.Fatalf("unexpected normalized settings %+v", saved)
	}

	run, err := svc.RunConfig(ctx)
	if err != nil {
		t.Fatalf("RunConfig() error = %v", err)
	}
	want := runtimeconfig.RunConfig{PostType: "any", Status: "publish", BatchSize: 1, MaxPerRun: 5000}
	if run != want {
		t.Fatalf("RunConfig() = %+v, want %+v", run, want)
	}
}

func TestServiceResetIgnoresMissing(t *testing.T) {
	svc := NewService(NewMemoryRepository(), interfaces.MigrationSettings{})
	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
}

func TestStateWatchFollowsChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewService(NewMemoryRepository(), interfaces.MigrationSettings{})
	state := NewState(svc.Defaults())
	if err := state.Watch(ctx, svc); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	current := svc.Defaults()
	current.ScheduleEnabled = true
	if _, err := svc.Save(ctx, current); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	waitFor(t, func() bool { return state.ScheduleEnabled() })

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	waitFor(t, func() bool { return !state.ScheduleEnabled() })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestStateOnChangeNotifiesUntilRemoved(t *testing.T) {
	state := NewState(Defaults())
	var seen []string
	remove := state.OnChange(func(s interfaces.MigrationSettings) {
		seen = append(seen, s.ScheduleInterval)
	})

	next := Defaults()
	next.ScheduleInterval = "daily"
	state.Set(next)
	remove()
	next.ScheduleInterval = "hourly"
	state.Set(next)

	if len(seen) != 1 || seen[0] != "daily" {
		t.Fatalf("expected a single daily notification, got %v", seen)
	}
}
