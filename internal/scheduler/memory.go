package scheduler

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// ErrRunAtRequired is returned when a job spec has no execution time.
var ErrRunAtRequired = errors.New("scheduler: run_at is required")

// Option customises the in-memory scheduler.
type Option func(*Memory)

// WithClock overrides the clock stamping job timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Memory) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(generator func() string) Option {
	return func(m *Memory) {
		if generator != nil {
			m.newID = generator
		}
	}
}

// WithDefaultMaxAttempts sets the retry budget for specs that leave it unset.
func WithDefaultMaxAttempts(limit int) Option {
	return func(m *Memory) {
		if limit > 0 {
			m.maxAttempts = limit
		}
	}
}

// Memory is a process-local scheduler. Jobs sharing a key replace each other.
type Memory struct {
	mu          sync.Mutex
	now         func() time.Time
	newID       func() string
	maxAttempts int
	jobs        map[string]*interfaces.Job
	byKey       map[string]string
}

var _ interfaces.Scheduler = (*Memory)(nil)

// NewInMemory creates an empty in-memory scheduler.
func NewInMemory(opts ...Option) *Memory {
	m := &Memory{
		now:         time.Now,
		newID:       uuid.NewString,
		maxAttempts: defaultMaxAttempts,
		jobs:        make(map[string]*interfaces.Job),
		byKey:       make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Memory) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, ErrRunAtRequired
	}
	spec.Payload = maps.Clone(spec.Payload)
	if spec.MaxAttempts == 0 {
		spec.MaxAttempts = m.maxAttempts
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if spec.Key != "" {
		if previous, ok := m.byKey[spec.Key]; ok {
			delete(m.jobs, previous)
		}
	}
	now := m.now()
	job := &interfaces.Job{
		JobSpec:   spec,
		ID:        m.newID(),
		Status:    interfaces.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[job.ID] = job
	if job.Key != "" {
		m.byKey[job.Key] = job.ID
	}
	return copyJob(job), nil
}

func (m *Memory) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	m.settle(job, interfaces.JobStatusCanceled)
	return nil
}

func (m *Memory) CancelByKey(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.lookupKey(key)
	if job == nil {
		return interfaces.ErrJobNotFound
	}
	m.settle(job, interfaces.JobStatusCanceled)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*interfaces.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return copyJob(job), nil
}

func (m *Memory) GetByKey(_ context.Context, key string) (*interfaces.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.lookupKey(key)
	if job == nil {
		return nil, interfaces.ErrJobNotFound
	}
	return copyJob(job), nil
}

// ListDue returns pending jobs due at or before until, oldest first.
func (m *Memory) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*interfaces.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if job.Status == interfaces.JobStatusPending && !job.RunAt.After(until) {
			due = append(due, copyJob(job))
		}
	}
	slices.SortStableFunc(due, func(a, b *interfaces.Job) int {
		if c := a.RunAt.Compare(b.RunAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *Memory) MarkDone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	m.settle(job, interfaces.JobStatusCompleted)
	return nil
}

// MarkFailed records a failed attempt. The job stays pending until its retry
// budget is spent.
func (m *Memory) MarkFailed(_ context.Context, id string, failure error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job.Attempt++
	job.LastError = ""
	if failure != nil {
		job.LastError = failure.Error()
	}
	job.UpdatedAt = m.now()
	if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts {
		m.settle(job, interfaces.JobStatusFailed)
	}
	return nil
}

func (m *Memory) lookupKey(key string) *interfaces.Job {
	id, ok := m.byKey[key]
	if !ok {
		return nil
	}
	return m.jobs[id]
}

// settle moves a job into a terminal status and frees its key.
func (m *Memory) settle(job *interfaces.Job, status interfaces.JobStatus) {
	job.Status = status
	job.UpdatedAt = m.now()
	if job.Key != "" && m.byKey[job.Key] == job.ID {
		delete(m.byKey, job.Key)
	}
}

func copyJob(job *interfaces.Job) *interfaces.Job {
	if job == nil {
		return nil
	}
	out := *job
	out.Payload = maps.Clone(job.Payload)
	return &out
}
