package interfaces

import (
	"context"
	"errors"
)

// ErrSettingsNotFound indicates migration settings have not been persisted yet.
var ErrSettingsNotFound = errors.New("settings: migration settings not found")

// MigrationSettings is the persisted configuration mapping of the migrator.
type MigrationSettings struct {
	PostType         string
	Status           string
	BatchSize        int
	MaxPerRun        int
	ScheduleEnabled  bool
	ScheduleInterval string
}

// SettingsChangeType enumerates settings change events.
type SettingsChangeType string

const (
	SettingsCreated SettingsChangeType = "created"
	SettingsUpdated SettingsChangeType = "updated"
	SettingsDeleted SettingsChangeType = "deleted"
)

// SettingsChangeEvent reports settings mutations to subscribers.
type SettingsChangeEvent struct {
	Type     SettingsChangeType
	Settings MigrationSettings
}

// SettingsStore persists migration settings and emits change notifications.
type SettingsStore interface {
	Get(ctx context.Context) (MigrationSettings, error)
	Upsert(ctx context.Context, settings MigrationSettings) (MigrationSettings, error)
	Delete(ctx context.Context) error
	Subscribe(ctx context.Context) (<-chan SettingsChangeEvent, error)
}
