package migratecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
)

const (
	runMessageType            = "faqmigrate.run"
	runScheduledMessageType   = "faqmigrate.run_scheduled"
	resetMessageType          = "faqmigrate.reset_progress"
	updateSettingsMessageType = "faqmigrate.settings.update"
	scheduleStatusMessageType = "faqmigrate.schedule.status"
)

// RunMigrationCommand starts a manual run with the stored settings.
type RunMigrationCommand struct {
	// Mode is either "dry" or "apply".
	Mode string `json:"mode"`
}

// Type implements command.Message.
func (RunMigrationCommand) Type() string { return runMessageType }

// Validate ensures the mode is known.
func (cmd RunMigrationCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Mode, validation.Required, validation.By(func(value any) error {
			if !report.Mode(strings.ToLower(strings.TrimSpace(value.(string)))).Valid() {
				return validation.NewError("faqmigrate.run.mode_invalid", "mode must be dry or apply")
			}
			return nil
		})),
	)
}

// RunScheduledCommand runs one APPLY pass with scheduled semantics: stored
// settings and a capped item list. It backs both cron and the manual
// "run once like cron" action.
type RunScheduledCommand struct{}

// Type implements command.Message.
func (RunScheduledCommand) Type() string { return runScheduledMessageType }

// Validate satisfies command.Message.
func (RunScheduledCommand) Validate() error { return nil }

// ResetProgressCommand rewinds the checkpoint to zero.
type ResetProgressCommand struct{}

// Type implements command.Message.
func (ResetProgressCommand) Type() string { return resetMessageType }

// Validate satisfies command.Message.
func (ResetProgressCommand) Validate() error { return nil }

// UpdateSettingsCommand replaces the stored migration settings and
// reschedules recurring runs to match. Numeric values are clamped on save.
type UpdateSettingsCommand struct {
	PostType         string `json:"post_type"`
	Status           string `json:"status"`
	BatchSize        int    `json:"batch_size"`
	MaxPerRun        int    `json:"max_per_run"`
	ScheduleEnabled  bool   `json:"schedule_enabled"`
	ScheduleInterval string `json:"schedule_interval,omitempty"`
}

// Type implements command.Message.
func (UpdateSettingsCommand) Type() string { return updateSettingsMessageType }

// Validate rejects unknown intervals and malformed filters.
func (cmd UpdateSettingsCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.PostType, validation.Length(0, 20), validation.By(filterValue("post_type"))),
		validation.Field(&cmd.Status, validation.Length(0, 20), validation.By(filterValue("status"))),
		validation.Field(&cmd.BatchSize, validation.Max(runtimeconfig.MaxBatchSize)),
		validation.Field(&cmd.MaxPerRun, validation.Max(runtimeconfig.MaxMaxPerRun)),
		validation.Field(&cmd.ScheduleInterval, validation.By(func(value any) error {
			raw := strings.TrimSpace(value.(string))
			if raw != "" && !runtimeconfig.Interval(strings.ToLower(raw)).Known() {
				return validation.NewError("faqmigrate.settings.interval_invalid", "unknown schedule interval")
			}
			return nil
		})),
	)
}

// ScheduleStatusQuery asks for the recurring run status.
type ScheduleStatusQuery struct{}

// Type implements command.Message.
func (ScheduleStatusQuery) Type() string { return scheduleStatusMessageType }

// filterValue accepts the key characters the source CMS allows for post
// types and statuses.
func filterValue(field string) validation.RuleFunc {
	return func(value any) error {
		for _, r := range value.(string) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			default:
				return validation.NewError("faqmigrate.settings."+field+"_invalid", field+" may only contain lowercase letters, digits, dashes and underscores")
			}
		}
		return nil
	}
}
