package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrStorageDriverUnknown = errors.New("faqmigrate config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("faqmigrate config: storage dsn is required for sql drivers")
var ErrStorageDirRequired = errors.New("faqmigrate config: storage directory is required for the file driver")
var ErrMongoURIRequired = errors.New("faqmigrate config: mongo uri is required for the mongo driver")
var ErrStateDriverUnknown = errors.New("faqmigrate config: state driver is invalid")
var ErrLockProviderUnknown = errors.New("faqmigrate config: lock provider is invalid")
var ErrLockTTLInvalid = errors.New("faqmigrate config: lock ttl must be positive")
var ErrRedisAddrRequired = errors.New("faqmigrate config: redis address is required for the redis lock")
var ErrScheduleIntervalUnknown = errors.New("faqmigrate config: schedule interval is invalid")

// ErrCommandsCronRequiresSchedule keeps cron auto-registration behind the schedule toggle.
var ErrCommandsCronRequiresSchedule = errors.New("faqmigrate config: command cron auto-registration requires the schedule to be enabled")
var ErrLoggingProviderRequired = errors.New("faqmigrate config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("faqmigrate config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("faqmigrate config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("faqmigrate config: logging format is invalid")

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageFile     = "file"

	LockNone   = "none"
	LockMemory = "memory"
	LockRedis  = "redis"

	DefaultLockTTL = 10 * time.Minute
)

// Config aggregates run defaults and adapter bindings for the migrator.
type Config struct {
	Run      RunConfig
	Schedule ScheduleConfig
	Storage  StorageConfig
	Lock     LockConfig
	Commands CommandsConfig
	Logging  LoggingConfig
	Features Features
}

// ScheduleConfig seeds the persisted schedule settings and tunes the worker.
type ScheduleConfig struct {
	Enabled      bool
	Interval     string
	PollInterval time.Duration
	// FirstRunDelay postpones the first scheduled run after enabling.
	FirstRunDelay time.Duration
}

// StorageConfig selects the document store and the state store holding
// settings and the checkpoint.
type StorageConfig struct {
	Driver string
	DSN    string
	// Table is the posts table read by the sql drivers.
	Table string
	// Dir is the export directory used by the file driver.
	Dir   string
	Mongo MongoConfig
	State StateConfig
}

// MongoConfig configures the mongo document store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// StateConfig configures where settings and the checkpoint live. An empty
// driver reuses the document database for sql drivers and memory otherwise.
type StateConfig struct {
	Driver string
	DSN    string
}

// LockConfig configures the exclusive-run guard.
type LockConfig struct {
	Provider string
	TTL      time.Duration
	Key      string
	Redis    RedisConfig
}

// RedisConfig carries redis connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
	AutoRegisterCron       bool
}

// Features toggles optional functionality.
type Features struct {
	Logger bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the stock configuration: in-memory storage, no lock
// and the schedule disabled.
func DefaultConfig() Config {
	return Config{
		Run: DefaultRunConfig(),
		Schedule: ScheduleConfig{
			Enabled:       false,
			Interval:      string(DefaultInterval),
			PollInterval:  30 * time.Second,
			FirstRunDelay: time.Minute,
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
			Table:  "wp_posts",
			Mongo: MongoConfig{
				Database:   "wordpress",
				Collection: "posts",
			},
		},
		Lock: LockConfig{
			Provider: LockNone,
			TTL:      DefaultLockTTL,
			Key:      "faqmigrate:run-lock",
		},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if err := cfg.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if name := strings.TrimSpace(cfg.Schedule.Interval); name != "" && !Interval(strings.ToLower(name)).Known() {
		return fmt.Errorf("%w: %s", ErrScheduleIntervalUnknown, name)
	}
	if cfg.Commands.AutoRegisterCron && !cfg.Schedule.Enabled {
		return ErrCommandsCronRequiresSchedule
	}
	if err := cfg.Storage.validate(); err != nil {
		return err
	}
	if err := cfg.Lock.validate(); err != nil {
		return err
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// DriverName returns the normalized document driver.
func (s StorageConfig) DriverName() string {
	driver := normalizeProvider(s.Driver)
	if driver == "" {
		return StorageMemory
	}
	return driver
}

// StateDriverName resolves the state driver, defaulting to the document
// database for sql drivers.
func (s StorageConfig) StateDriverName() string {
	if driver := normalizeProvider(s.State.Driver); driver != "" {
		return driver
	}
	switch s.DriverName() {
	case StorageSQLite, StoragePostgres:
		return s.DriverName()
	default:
		return StorageMemory
	}
}

// StateDSN resolves the state dsn, defaulting to the document dsn.
func (s StorageConfig) StateDSN() string {
	if dsn := strings.TrimSpace(s.State.DSN); dsn != "" {
		return dsn
	}
	return strings.TrimSpace(s.DSN)
}

func (s StorageConfig) validate() error {
	switch s.DriverName() {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(s.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, s.DriverName())
		}
	case StorageMongo:
		if strings.TrimSpace(s.Mongo.URI) == "" {
			return ErrMongoURIRequired
		}
	case StorageFile:
		if strings.TrimSpace(s.Dir) == "" {
			return ErrStorageDirRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, s.DriverName())
	}

	switch s.StateDriverName() {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if s.StateDSN() == "" {
			return fmt.Errorf("%w: state %s", ErrStorageDSNRequired, s.StateDriverName())
		}
	default:
		return fmt.Errorf("%w: %s", ErrStateDriverUnknown, s.StateDriverName())
	}
	return nil
}

// ProviderName returns the normalized lock provider.
func (l LockConfig) ProviderName() string {
	provider := normalizeProvider(l.Provider)
	if provider == "" {
		return LockNone
	}
	return provider
}

func (l LockConfig) validate() error {
	switch l.ProviderName() {
	case LockNone:
		return nil
	case LockMemory:
	case LockRedis:
		if strings.TrimSpace(l.Redis.Addr) == "" {
			return ErrRedisAddrRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrLockProviderUnknown, l.ProviderName())
	}
	if l.TTL <= 0 {
		return ErrLockTTLInvalid
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
