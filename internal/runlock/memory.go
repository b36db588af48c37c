package runlock

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// Memory is a process-local run lock with lease expiry.
type Memory struct {
	mu        sync.Mutex
	owner     string
	expiresAt time.Time
	now       func() time.Time
}

var _ interfaces.RunLock = (*Memory)(nil)

// NewMemory constructs an unlocked in-memory run lock.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	if now != nil {
		m.now = now
	}
	return m
}

// Acquire takes the lease when it is free, expired or already held by owner.
func (m *Memory) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if owner == "" {
		return false, ErrOwnerRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if m.owner != "" && m.owner != owner && now.Before(m.expiresAt) {
		return false, nil
	}
	m.owner = owner
	m.expiresAt = now.Add(ttl)
	return true, nil
}

// Release drops the lease when owner still holds it.
func (m *Memory) Release(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner == owner {
		m.owner = ""
		m.expiresAt = time.Time{}
	}
	return nil
}

// Holder returns the current owner, empty when free or expired.
func (m *Memory) Holder() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner == "" || !m.now().Before(m.expiresAt) {
		return ""
	}
	return m.owner
}
