package commands

import (
	"sync"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/cron"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// CronRegistrarFor adapts a go-command cron scheduler to a CronRegistrar.
func CronRegistrarFor(scheduler *cron.Scheduler) CronRegistrar {
	if scheduler == nil {
		return nil
	}
	return func(cfg command.HandlerConfig, handler any) (CommandSubscription, error) {
		return scheduler.AddHandler(cfg, handler)
	}
}

// cronBinding keeps one cron entry for the scheduled run in line with the
// live schedule settings: removed while disabled, re-added when the
// expression changes.
type cronBinding struct {
	mu         sync.Mutex
	register   CronRegistrar
	handler    command.CronCommand
	enabled    func() bool
	logger     interfaces.Logger
	current    CommandSubscription
	expression string
}

// sync reconciles the registered entry with the current settings.
func (b *cronBinding) sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled() {
		b.removeLocked()
		return nil
	}
	opts := b.handler.CronOptions()
	if b.current != nil && opts.Expression == b.expression {
		return nil
	}
	b.removeLocked()
	sub, err := b.register(opts, b.handler.CronHandler())
	if err != nil {
		b.logger.Error("commands.cron.register_failed", "expression", opts.Expression, "error", err)
		return err
	}
	if sub == nil {
		sub = noopSubscription{}
	}
	b.current = sub
	b.expression = opts.Expression
	b.logger.Info("commands.cron.registered", "expression", opts.Expression)
	return nil
}

// Expression returns the registered cron expression, empty when none.
func (b *cronBinding) Expression() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expression
}

func (b *cronBinding) Unsubscribe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked()
}

func (b *cronBinding) removeLocked() {
	if b.current == nil {
		return
	}
	b.current.Unsubscribe()
	b.current = nil
	b.expression = ""
	b.logger.Info("commands.cron.removed")
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
