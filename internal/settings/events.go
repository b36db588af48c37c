package settings

import (
	"context"
	"sync"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

type changeBroadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan interfaces.SettingsChangeEvent
	nextID   uint64
}

func newChangeBroadcaster() *changeBroadcaster {
	return &changeBroadcaster{
		watchers: make(map[uint64]chan interfaces.SettingsChangeEvent),
	}
}

func (b *changeBroadcaster) Subscribe(ctx context.Context) (<-chan interfaces.SettingsChangeEvent, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		ch := make(chan interfaces.SettingsChangeEvent)
		close(ch)
		return ch, nil
	}
	ch := make(chan interfaces.SettingsChangeEvent, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Broadcast never blocks; slow subscribers miss intermediate events.
func (b *changeBroadcaster) Broadcast(evt interfaces.SettingsChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}

func newChangeEvent(changeType interfaces.SettingsChangeType, settings interfaces.MigrationSettings) interfaces.SettingsChangeEvent {
	return interfaces.SettingsChangeEvent{
		Type:     changeType,
		Settings: settings,
	}
}
