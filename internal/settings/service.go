package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// Defaults returns the stock migration settings.
func Defaults() interfaces.MigrationSettings {
	run := runtimeconfig.DefaultRunConfig()
	return interfaces.MigrationSettings{
		PostType:         run.PostType,
		Status:           run.Status,
		BatchSize:        run.BatchSize,
		MaxPerRun:        run.MaxPerRun,
		ScheduleEnabled:  false,
		ScheduleInterval: string(runtimeconfig.DefaultInterval),
	}
}

// Merge fills empty fields of stored with the supplied defaults. Booleans are
// taken from stored as is.
func Merge(stored, defaults interfaces.MigrationSettings) interfaces.MigrationSettings {
	out := stored
	if strings.TrimSpace(out.PostType) == "" {
		out.PostType = defaults.PostType
	}
	if strings.TrimSpace(out.Status) == "" {
		out.Status = defaults.Status
	}
	if out.BatchSize == 0 {
		out.BatchSize = defaults.BatchSize
	}
	if out.MaxPerRun == 0 {
		out.MaxPerRun = defaults.MaxPerRun
	}
	if strings.TrimSpace(out.ScheduleInterval) == "" {
		out.ScheduleInterval = defaults.ScheduleInterval
	}
	return out
}

// Normalize clamps run bounds and resolves the schedule interval.
func Normalize(settings interfaces.MigrationSettings) interfaces.MigrationSettings {
	run := RunConfig(settings)
	settings.PostType = run.PostType
	settings.Status = run.Status
	settings.BatchSize = run.BatchSize
	settings.MaxPerRun = run.MaxPerRun
	settings.ScheduleInterval = string(runtimeconfig.ParseInterval(settings.ScheduleInterval))
	return settings
}

// RunConfig projects settings onto a normalized run configuration.
func RunConfig(settings interfaces.MigrationSettings) runtimeconfig.RunConfig {
	return runtimeconfig.RunConfig{
		PostType:  settings.PostType,
		Status:    settings.Status,
		BatchSize: settings.BatchSize,
		MaxPerRun: settings.MaxPerRun,
	}.Normalize()
}

// Service reads and writes settings through a store, merging defaults on load.
type Service struct {
	store    interfaces.SettingsStore
	defaults interfaces.MigrationSettings
}

// NewService constructs a settings service. Zero fields of defaults fall back
// to Defaults().
func NewService(store interfaces.SettingsStore, defaults interfaces.MigrationSettings) *Service {
	if store == nil {
		store = NewMemoryRepository()
	}
	return &Service{
		store:    store,
		defaults: Normalize(Merge(defaults, Defaults())),
	}
}

// Defaults returns the defaults merged into every load.
func (s *Service) Defaults() interfaces.MigrationSettings {
	return s.defaults
}

// Load returns the stored settings merged with defaults. Missing settings
// yield the defaults.
func (s *Service) Load(ctx context.Context) (interfaces.MigrationSettings, error) {
	stored, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrSettingsNotFound) {
			return s.defaults, nil
		}
		return interfaces.MigrationSettings{}, err
	}
	return Normalize(Merge(stored, s.defaults)), nil
}

// Save normalizes and persists settings.
func (s *Service) Save(ctx context.Context, settings interfaces.MigrationSettings) (interfaces.MigrationSettings, error) {
	stored, err := s.store.Upsert(ctx, Normalize(Merge(settings, s.defaults)))
	if err != nil {
		return interfaces.MigrationSettings{}, err
	}
	return stored, nil
}

// RunConfig loads settings and projects them onto a run configuration.
func (s *Service) RunConfig(ctx context.Context) (runtimeconfig.RunConfig, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return runtimeconfig.RunConfig{}, err
	}
	return RunConfig(current), nil
}

// Reset removes stored settings so defaults apply again.
func (s *Service) Reset(ctx context.Context) error {
	err := s.store.Delete(ctx)
	if errors.Is(err, interfaces.ErrSettingsNotFound) {
		return nil
	}
	return err
}

// Subscribe forwards store change events.
func (s *Service) Subscribe(ctx context.Context) (<-chan interfaces.SettingsChangeEvent, error) {
	return s.store.Subscribe(ctx)
}
