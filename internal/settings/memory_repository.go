package settings

import (
	"context"
	"sync"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// MemoryRepository stores migration settings in-memory.
type MemoryRepository struct {
	mu          sync.RWMutex
	settings    *interfaces.MigrationSettings
	broadcaster *changeBroadcaster
}

var _ interfaces.SettingsStore = (*MemoryRepository)(nil)

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		broadcaster: newChangeBroadcaster(),
	}
}

// Get returns the stored settings or interfaces.ErrSettingsNotFound.
func (r *MemoryRepository) Get(context.Context) (interfaces.MigrationSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return interfaces.MigrationSettings{}, interfaces.ErrSettingsNotFound
	}
	return *r.settings, nil
}

// Upsert stores settings, emitting a change event when they differ.
func (r *MemoryRepository) Upsert(_ context.Context, settings interfaces.MigrationSettings) (interfaces.MigrationSettings, error) {
	r.mu.Lock()
	created := r.settings == nil
	previous := interfaces.MigrationSettings{}
	if r.settings != nil {
		previous = *r.settings
	}
	copied := settings
	r.settings = &copied
	r.mu.Unlock()

	if !created && previous == settings {
		return settings, nil
	}
	changeType := interfaces.SettingsUpdated
	if created {
		changeType = interfaces.SettingsCreated
	}
	r.broadcaster.Broadcast(newChangeEvent(changeType, settings))
	return settings, nil
}

// Delete clears stored settings and emits a change event.
func (r *MemoryRepository) Delete(context.Context) error {
	r.mu.Lock()
	if r.settings == nil {
		r.mu.Unlock()
		return interfaces.ErrSettingsNotFound
	}
	r.settings = nil
	r.mu.Unlock()

	r.broadcaster.Broadcast(newChangeEvent(interfaces.SettingsDeleted, interfaces.MigrationSettings{}))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *MemoryRepository) Subscribe(ctx context.Context) (<-chan interfaces.SettingsChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}
