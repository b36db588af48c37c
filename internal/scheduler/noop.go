package scheduler

import (
	"context"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// NewNoOp returns a scheduler that accepts jobs and never runs them. It backs
// deployments with scheduling disabled.
func NewNoOp() interfaces.Scheduler {
	return noOp{}
}

type noOp struct{}

func (noOp) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	return &interfaces.Job{JobSpec: spec, Status: interfaces.JobStatusCanceled}, nil
}

func (noOp) Cancel(context.Context, string) error      { return nil }
func (noOp) CancelByKey(context.Context, string) error { return nil }

func (noOp) Get(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (noOp) GetByKey(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (noOp) ListDue(context.Context, time.Time, int) ([]*interfaces.Job, error) { return nil, nil }
func (noOp) MarkDone(context.Context, string) error                             { return nil }
func (noOp) MarkFailed(context.Context, string, error) error                    { return nil }
