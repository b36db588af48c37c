// Package runlock provides exclusive-run guards so two migration runs never
// interleave checkpoint updates.
package runlock

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// DefaultTTL bounds how long a crashed run can keep the lock.
const DefaultTTL = 10 * time.Minute

// ErrOwnerRequired is returned when acquiring without an owner token.
var ErrOwnerRequired = errors.New("runlock: owner is required")

// Noop never blocks; it is used when no lock provider is configured.
type Noop struct{}

var _ interfaces.RunLock = Noop{}

func (Noop) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string) error                        { return nil }
