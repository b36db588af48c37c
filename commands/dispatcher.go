package commands

import (
	"fmt"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	migratecmd "github.com/goliatone/go-faqmigrate/internal/commands/migrate"
	"github.com/goliatone/go-faqmigrate/internal/scheduler"
)

// Dispatcher subscribes migration handlers to the go-command dispatcher so
// hosts can trigger them with dispatcher.Dispatch and dispatcher.Query.
type Dispatcher struct {
	opts []runner.Option
}

var _ CommandDispatcher = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher applying opts to every subscription.
func NewDispatcher(opts ...runner.Option) *Dispatcher {
	return &Dispatcher{opts: opts}
}

// RegisterCommand subscribes a known migration handler.
func (d *Dispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	switch h := handler.(type) {
	case *migratecmd.RunMigrationHandler:
		return dispatcher.SubscribeCommand[migratecmd.RunMigrationCommand](h, d.opts...), nil
	case *migratecmd.RunScheduledHandler:
		return dispatcher.SubscribeCommand[migratecmd.RunScheduledCommand](h, d.opts...), nil
	case *migratecmd.ResetProgressHandler:
		return dispatcher.SubscribeCommand[migratecmd.ResetProgressCommand](h, d.opts...), nil
	case *migratecmd.UpdateSettingsHandler:
		return dispatcher.SubscribeCommand[migratecmd.UpdateSettingsCommand](h, d.opts...), nil
	case *migratecmd.ScheduleStatusHandler:
		return dispatcher.SubscribeQuery[migratecmd.ScheduleStatusQuery, scheduler.Status](h, d.opts...), nil
	default:
		return nil, fmt.Errorf("commands: unsupported handler %T", handler)
	}
}
