package faqmigrate

import "github.com/goliatone/go-faqmigrate/internal/runtimeconfig"

var (
	ErrStorageDriverUnknown         = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired           = runtimeconfig.ErrStorageDSNRequired
	ErrStorageDirRequired           = runtimeconfig.ErrStorageDirRequired
	ErrMongoURIRequired             = runtimeconfig.ErrMongoURIRequired
	ErrStateDriverUnknown           = runtimeconfig.ErrStateDriverUnknown
	ErrLockProviderUnknown          = runtimeconfig.ErrLockProviderUnknown
	ErrLockTTLInvalid               = runtimeconfig.ErrLockTTLInvalid
	ErrRedisAddrRequired            = runtimeconfig.ErrRedisAddrRequired
	ErrScheduleIntervalUnknown      = runtimeconfig.ErrScheduleIntervalUnknown
	ErrCommandsCronRequiresSchedule = runtimeconfig.ErrCommandsCronRequiresSchedule
	ErrLoggingProviderRequired      = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown       = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid          = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid         = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	RunConfig      = runtimeconfig.RunConfig
	ScheduleConfig = runtimeconfig.ScheduleConfig
	StorageConfig  = runtimeconfig.StorageConfig
	MongoConfig    = runtimeconfig.MongoConfig
	StateConfig    = runtimeconfig.StateConfig
	LockConfig     = runtimeconfig.LockConfig
	RedisConfig    = runtimeconfig.RedisConfig
	CommandsConfig = runtimeconfig.CommandsConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	Features       = runtimeconfig.Features
	Interval       = runtimeconfig.Interval
)

const (
	IntervalFifteenMinutes = runtimeconfig.IntervalFifteenMinutes
	IntervalHourly         = runtimeconfig.IntervalHourly
	IntervalTwiceDaily     = runtimeconfig.IntervalTwiceDaily
	IntervalDaily          = runtimeconfig.IntervalDaily
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
