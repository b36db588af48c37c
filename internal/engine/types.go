package engine

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
)

// Request describes one invocation of the batch engine.
type Request struct {
	Mode    report.Mode
	Trigger report.Trigger
	Config  runtimeconfig.RunConfig
}

// Audit actions emitted per document.
const (
	ActionSkippedMissing = "skipped_missing"
	ActionNoMarker       = "no_marker"
	ActionUnchanged      = "unchanged"
	ActionPreviewed      = "previewed"
	ActionWritten        = "written"
	ActionWriteFailed    = "write_failed"
	ActionFetchFailed    = "fetch_failed"
)

// AuditEvent captures the decision taken for one document.
type AuditEvent struct {
	RunID      string
	DocumentID int64
	Action     string
	OccurredAt time.Time
	Metadata   map[string]any
}

// Recorder receives per-document audit events.
type Recorder interface {
	Record(ctx context.Context, event AuditEvent) error
}

// InMemoryRecorder accumulates audit events in-memory.
type InMemoryRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
}

// NewInMemoryRecorder constructs an empty recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Record stores the supplied event.
func (r *InMemoryRecorder) Record(_ context.Context, event AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of recorded events.
func (r *InMemoryRecorder) Events() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Actions returns the recorded actions in order.
func (r *InMemoryRecorder) Actions() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.Action
	}
	return out
}

// RecorderFunc adapts a function into a Recorder.
type RecorderFunc func(ctx context.Context, event AuditEvent) error

// Record implements Recorder.
func (fn RecorderFunc) Record(ctx context.Context, event AuditEvent) error {
	return fn(ctx, event)
}
