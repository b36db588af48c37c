package settings

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// State provides a concurrency-safe snapshot of the current settings.
type State struct {
	current atomic.Pointer[interfaces.MigrationSettings]

	mu        sync.Mutex
	listeners map[int]func(interfaces.MigrationSettings)
	nextID    int
}

// NewState constructs a state seeded with settings.
func NewState(settings interfaces.MigrationSettings) *State {
	st := &State{}
	st.Set(settings)
	return st
}

// Snapshot returns the current settings.
func (s *State) Snapshot() interfaces.MigrationSettings {
	if s == nil {
		return Defaults()
	}
	if current := s.current.Load(); current != nil {
		return *current
	}
	return Defaults()
}

// ScheduleEnabled reports whether scheduled runs are enabled.
func (s *State) ScheduleEnabled() bool {
	return s.Snapshot().ScheduleEnabled
}

// Set replaces the snapshot.
func (s *State) Set(settings interfaces.MigrationSettings) {
	if s == nil {
		return
	}
	copied := settings
	s.current.Store(&copied)

	s.mu.Lock()
	listeners := make([]func(interfaces.MigrationSettings), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(copied)
	}
}

// OnChange registers fn to run after every Set. The returned func removes it.
func (s *State) OnChange(fn func(interfaces.MigrationSettings)) func() {
	if s == nil || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(interfaces.MigrationSettings))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Watch keeps the state in sync with service change events until ctx is done.
// Deleted settings reset the snapshot to the service defaults.
func (s *State) Watch(ctx context.Context, service *Service) error {
	events, err := service.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for evt := range events {
			if evt.Type == interfaces.SettingsDeleted {
				s.Set(service.Defaults())
				continue
			}
			s.Set(Normalize(Merge(evt.Settings, service.Defaults())))
		}
	}()
	return nil
}
