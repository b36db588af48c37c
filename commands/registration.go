package commands

import (
	"errors"

	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-faqmigrate/internal/commands"
	"github.com/goliatone/go-faqmigrate/internal/di"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler. The
// returned subscription removes the entry again.
type CronRegistrar func(command.HandlerConfig, any) (CommandSubscription, error)

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
}

// RegistrationResult captures the registered command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription

	cron      *cronBinding
	stopWatch func()
}

// CronExpression returns the expression the scheduled run is currently
// registered with, empty when no cron entry exists.
func (r *RegistrationResult) CronExpression() string {
	if r == nil || r.cron == nil {
		return ""
	}
	return r.cron.Expression()
}

// Unsubscribe tears down every dispatcher subscription and the cron entry.
func (r *RegistrationResult) Unsubscribe() {
	if r == nil {
		return
	}
	if r.stopWatch != nil {
		r.stopWatch()
		r.stopWatch = nil
	}
	if r.cron != nil {
		r.cron.Unsubscribe()
	}
	for _, sub := range r.Subscriptions {
		sub.Unsubscribe()
	}
	r.Subscriptions = nil
}

// RegisterContainerCommands registers the migration handlers built by the
// container with the registry, dispatcher and cron integrations supplied in
// opts. The scheduled run is registered with the cron registrar while the
// schedule is enabled and follows later settings changes.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}
	logger := internalcommands.CommandLogger(provider, "registration")

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(func(cfg command.HandlerConfig, handler any) error {
				_, err := opts.CronRegistrar(cfg, handler)
				return err
			})
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	set := container.Handlers()
	if set == nil {
		return result, errors.New("no command handlers registered; container has no migration handlers")
	}

	var errs error
	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	register(set.Run)
	register(set.RunScheduled)
	register(set.Reset)
	register(set.UpdateSettings)
	if opts.CronRegistrar != nil && set.RunScheduled != nil {
		state := container.SettingsState()
		result.cron = &cronBinding{
			register: opts.CronRegistrar,
			handler:  set.RunScheduled,
			enabled:  state.ScheduleEnabled,
			logger:   logger,
		}
		if err := result.cron.sync(); err != nil {
			errs = errors.Join(errs, err)
		}
		result.stopWatch = state.OnChange(func(interfaces.MigrationSettings) {
			_ = result.cron.sync()
		})
	}
	if opts.Dispatcher != nil {
		subscription, err := opts.Dispatcher.RegisterCommand(set.ScheduleStatus)
		if err != nil {
			errs = errors.Join(errs, err)
		} else if subscription != nil {
			result.Subscriptions = append(result.Subscriptions, subscription)
		}
	}

	logger.Debug("commands.registered",
		"handlers", len(result.Handlers),
		"subscriptions", len(result.Subscriptions),
		"cron", result.CronExpression(),
	)
	return result, errs
}
