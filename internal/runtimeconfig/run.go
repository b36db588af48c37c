package runtimeconfig

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

const (
	DefaultPostType  = interfaces.AnyFilter
	DefaultStatus    = "publish"
	DefaultBatchSize = 20
	DefaultMaxPerRun = 100

	MaxBatchSize = 500
	MaxMaxPerRun = 5000
)

// RunConfig bounds one invocation of the batch engine. It is immutable for the
// duration of a run.
type RunConfig struct {
	PostType  string
	Status    string
	BatchSize int
	MaxPerRun int
}

// DefaultRunConfig returns the stock run configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		PostType:  DefaultPostType,
		Status:    DefaultStatus,
		BatchSize: DefaultBatchSize,
		MaxPerRun: DefaultMaxPerRun,
	}
}

// Normalize clamps numeric values into their bounds and fills empty filters
// with defaults. Values below one become one.
func (c RunConfig) Normalize() RunConfig {
	c.PostType = strings.TrimSpace(c.PostType)
	if c.PostType == "" {
		c.PostType = DefaultPostType
	}
	c.Status = strings.TrimSpace(c.Status)
	if c.Status == "" {
		c.Status = DefaultStatus
	}
	c.BatchSize = clamp(c.BatchSize, 1, MaxBatchSize)
	c.MaxPerRun = clamp(c.MaxPerRun, 1, MaxMaxPerRun)
	return c
}

// Validate reports values outside the accepted bounds without clamping them.
func (c RunConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PostType, validation.Required),
		validation.Field(&c.Status, validation.Required),
		validation.Field(&c.BatchSize,
			validation.Required.Error("batch size must be at least 1"),
			validation.Min(1),
			validation.Max(MaxBatchSize),
		),
		validation.Field(&c.MaxPerRun,
			validation.Required.Error("max per run must be at least 1"),
			validation.Min(1),
			validation.Max(MaxMaxPerRun),
		),
	)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Interval names a schedule recurrence.
type Interval string

const (
	IntervalFifteenMinutes Interval = "fifteen_minutes"
	IntervalHourly         Interval = "hourly"
	IntervalTwiceDaily     Interval = "twice_daily"
	IntervalDaily          Interval = "daily"

	DefaultInterval = IntervalHourly
)

var intervals = map[Interval]struct {
	every time.Duration
	cron  string
}{
	IntervalFifteenMinutes: {15 * time.Minute, "@every 15m"},
	IntervalHourly:         {time.Hour, "@hourly"},
	IntervalTwiceDaily:     {12 * time.Hour, "@every 12h"},
	IntervalDaily:          {24 * time.Hour, "@daily"},
}

// Intervals lists the supported intervals from shortest to longest.
func Intervals() []Interval {
	return []Interval{IntervalFifteenMinutes, IntervalHourly, IntervalTwiceDaily, IntervalDaily}
}

// ParseInterval resolves a named interval. Unknown names fall back to hourly.
func ParseInterval(name string) Interval {
	candidate := Interval(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := intervals[candidate]; ok {
		return candidate
	}
	return DefaultInterval
}

// Known reports whether the interval is supported as is.
func (i Interval) Known() bool {
	_, ok := intervals[i]
	return ok
}

// Duration returns the recurrence period.
func (i Interval) Duration() time.Duration {
	return intervals[ParseInterval(string(i))].every
}

// CronExpression returns the cron spec understood by go-command cron runners.
func (i Interval) CronExpression() string {
	return intervals[ParseInterval(string(i))].cron
}

func (i Interval) String() string {
	return string(i)
}
