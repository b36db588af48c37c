package jobs

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/engine"
)

// AuditEvent captures an action taken by the migration worker or engine.
type AuditEvent struct {
	EntityType string
	EntityID   string
	Action     string
	OccurredAt time.Time
	Metadata   map[string]any
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
	List(ctx context.Context) ([]AuditEvent, error)
	Clear(ctx context.Context) error
}

// InMemoryAuditRecorder accumulates audit events in-memory.
type InMemoryAuditRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
	err    error
}

// NewInMemoryAuditRecorder constructs an empty recorder.
func NewInMemoryAuditRecorder() *InMemoryAuditRecorder {
	return &InMemoryAuditRecorder{}
}

// Record stores the supplied event.
func (r *InMemoryAuditRecorder) Record(_ context.Context, event AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	event.Metadata = maps.Clone(event.Metadata)
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of recorded audit entries.
func (r *InMemoryAuditRecorder) Events() []AuditEvent {
	events, _ := r.List(context.Background())
	return events
}

// Fail makes subsequent Record calls return err.
func (r *InMemoryAuditRecorder) Fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// List returns the audit events recorded so far.
func (r *InMemoryAuditRecorder) List(context.Context) ([]AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	copy(out, r.events)
	return out, nil
}

// Clear removes all recorded events.
func (r *InMemoryAuditRecorder) Clear(context.Context) error {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
	return nil
}

// EngineRecorder forwards per-document engine decisions to recorder as
// "document" audit events.
func EngineRecorder(recorder AuditRecorder) engine.Recorder {
	return engine.RecorderFunc(func(ctx context.Context, event engine.AuditEvent) error {
		if recorder == nil {
			return nil
		}
		meta := maps.Clone(event.Metadata)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["run_id"] = event.RunID
		return recorder.Record(ctx, AuditEvent{
			EntityType: "document",
			EntityID:   strconv.FormatInt(event.DocumentID, 10),
			Action:     event.Action,
			OccurredAt: event.OccurredAt,
			Metadata:   meta,
		})
	})
}
