package logging

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

const (
	rootModule      = "faqmigrate"
	engineModule    = "faqmigrate.engine"
	scannerModule   = "faqmigrate.scanner"
	schedulerModule = "faqmigrate.scheduler"
	storageModule   = "faqmigrate.storage"
)

const (
	fieldRunID   = "run_id"
	fieldRunMode = "mode"
	fieldTrigger = "trigger"
	fieldPostID  = "post_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// EngineLogger returns the logger namespace reserved for the batch engine.
func EngineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, engineModule)
}

// ScannerLogger returns the logger namespace reserved for block scanning.
func ScannerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scannerModule)
}

// SchedulerLogger returns the logger namespace reserved for scheduler workers.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// StorageLogger returns the logger namespace reserved for storage adapters.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithRunContext enriches the logger with the run identifier, mode and trigger.
// Empty values are ignored.
func WithRunContext(logger interfaces.Logger, runID, mode, trigger string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(runID); trimmed != "" {
		fields[fieldRunID] = trimmed
	}
	if trimmed := strings.TrimSpace(mode); trimmed != "" {
		fields[fieldRunMode] = trimmed
	}
	if trimmed := strings.TrimSpace(trigger); trimmed != "" {
		fields[fieldTrigger] = trimmed
	}
	return WithFields(logger, fields)
}

// WithDocument scopes the logger to a single document.
func WithDocument(logger interfaces.Logger, id int64) interfaces.Logger {
	if id <= 0 {
		return logger
	}
	return WithFields(logger, map[string]any{
		fieldPostID: strconv.FormatInt(id, 10),
	})
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
