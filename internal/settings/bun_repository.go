package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/uptrace/bun"
)

var errBunDatabaseRequired = errors.New("settings: bun repository requires a database")

// BunRepository persists migration settings using a Bun-backed database.
type BunRepository struct {
	db          *bun.DB
	broadcaster *changeBroadcaster
}

var _ interfaces.SettingsStore = (*BunRepository)(nil)

// NewBunRepository constructs a Bun-backed repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:          db,
		broadcaster: newChangeBroadcaster(),
	}
}

// Get returns the persisted settings.
func (r *BunRepository) Get(ctx context.Context) (interfaces.MigrationSettings, error) {
	if r.db == nil {
		return interfaces.MigrationSettings{}, errBunDatabaseRequired
	}
	var model settingsModel
	if err := r.db.NewSelect().Model(&model).Where("id = ?", 1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interfaces.MigrationSettings{}, interfaces.ErrSettingsNotFound
		}
		return interfaces.MigrationSettings{}, err
	}
	return modelToSettings(&model), nil
}

// Upsert creates or updates the persisted settings.
func (r *BunRepository) Upsert(ctx context.Context, settings interfaces.MigrationSettings) (interfaces.MigrationSettings, error) {
	if r.db == nil {
		return interfaces.MigrationSettings{}, errBunDatabaseRequired
	}

	var existing settingsModel
	err := r.db.NewSelect().Model(&existing).Where("id = ?", 1).Scan(ctx)
	created := false
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			created = true
		} else {
			return interfaces.MigrationSettings{}, err
		}
	}
	if !created && modelToSettings(&existing) == settings {
		return settings, nil
	}

	model := modelFromSettings(settings)
	model.ID = 1
	model.UpdatedAt = time.Now().UTC()

	if created {
		if _, err := r.db.NewInsert().Model(&model).Exec(ctx); err != nil {
			return interfaces.MigrationSettings{}, err
		}
	} else {
		if _, err := r.db.NewUpdate().
			Model(&model).
			Column("post_type", "status", "batch_size", "max_per_run", "schedule_enabled", "schedule_interval", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return interfaces.MigrationSettings{}, err
		}
	}

	stored, err := r.Get(ctx)
	if err != nil {
		return interfaces.MigrationSettings{}, err
	}

	eventType := interfaces.SettingsUpdated
	if created {
		eventType = interfaces.SettingsCreated
	}
	r.broadcaster.Broadcast(newChangeEvent(eventType, stored))
	return stored, nil
}

// Delete clears persisted settings.
func (r *BunRepository) Delete(ctx context.Context) error {
	if r.db == nil {
		return errBunDatabaseRequired
	}
	res, err := r.db.NewDelete().Model((*settingsModel)(nil)).Where("id = ?", 1).Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return interfaces.ErrSettingsNotFound
	}
	r.broadcaster.Broadcast(newChangeEvent(interfaces.SettingsDeleted, interfaces.MigrationSettings{}))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *BunRepository) Subscribe(ctx context.Context) (<-chan interfaces.SettingsChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}

type settingsModel struct {
	bun.BaseModel `bun:"table:faqmigrate_settings"`

	ID               int       `bun:",pk"`
	PostType         string    `bun:"post_type,notnull"`
	Status           string    `bun:"status,notnull"`
	BatchSize        int       `bun:"batch_size,notnull"`
	MaxPerRun        int       `bun:"max_per_run,notnull"`
	ScheduleEnabled  bool      `bun:"schedule_enabled,notnull"`
	ScheduleInterval string    `bun:"schedule_interval,notnull"`
	UpdatedAt        time.Time `bun:"updated_at"`
}

func modelFromSettings(settings interfaces.MigrationSettings) settingsModel {
	return settingsModel{
		PostType:         settings.PostType,
		Status:           settings.Status,
		BatchSize:        settings.BatchSize,
		MaxPerRun:        settings.MaxPerRun,
		ScheduleEnabled:  settings.ScheduleEnabled,
		ScheduleInterval: settings.ScheduleInterval,
	}
}

func modelToSettings(model *settingsModel) interfaces.MigrationSettings {
	if model == nil {
		return interfaces.MigrationSettings{}
	}
	return interfaces.MigrationSettings{
		PostType:         model.PostType,
		Status:           model.Status,
		BatchSize:        model.BatchSize,
		MaxPerRun:        model.MaxPerRun,
		ScheduleEnabled:  model.ScheduleEnabled,
		ScheduleInterval: model.ScheduleInterval,
	}
}
