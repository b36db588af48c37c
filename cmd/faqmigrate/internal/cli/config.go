package cli

import (
	"errors"
	"fmt"
	"strings"

	faqmigrate "github.com/goliatone/go-faqmigrate"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FAQMIGRATE_STORAGE_DSN.
const EnvPrefix = "FAQMIGRATE"

// newViper returns a viper instance seeded with the stock configuration so
// every key resolves from file, environment or default.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := faqmigrate.DefaultConfig()
	v.SetDefault("run.post_type", def.Run.PostType)
	v.SetDefault("run.status", def.Run.Status)
	v.SetDefault("run.batch_size", def.Run.BatchSize)
	v.SetDefault("run.max_per_run", def.Run.MaxPerRun)

	v.SetDefault("schedule.enabled", def.Schedule.Enabled)
	v.SetDefault("schedule.interval", def.Schedule.Interval)
	v.SetDefault("schedule.poll_interval", def.Schedule.PollInterval)
	v.SetDefault("schedule.first_run_delay", def.Schedule.FirstRunDelay)

	v.SetDefault("storage.driver", def.Storage.Driver)
	v.SetDefault("storage.dsn", def.Storage.DSN)
	v.SetDefault("storage.table", def.Storage.Table)
	v.SetDefault("storage.dir", def.Storage.Dir)
	v.SetDefault("storage.mongo.uri", def.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", def.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", def.Storage.Mongo.Collection)
	v.SetDefault("storage.state.driver", def.Storage.State.Driver)
	v.SetDefault("storage.state.dsn", def.Storage.State.DSN)

	v.SetDefault("lock.provider", def.Lock.Provider)
	v.SetDefault("lock.ttl", def.Lock.TTL)
	v.SetDefault("lock.key", def.Lock.Key)
	v.SetDefault("lock.redis.addr", def.Lock.Redis.Addr)
	v.SetDefault("lock.redis.username", def.Lock.Redis.Username)
	v.SetDefault("lock.redis.password", def.Lock.Redis.Password)
	v.SetDefault("lock.redis.db", def.Lock.Redis.DB)

	v.SetDefault("commands.enabled", def.Commands.Enabled)
	v.SetDefault("commands.auto_register_dispatcher", def.Commands.AutoRegisterDispatcher)
	v.SetDefault("commands.auto_register_cron", def.Commands.AutoRegisterCron)

	v.SetDefault("features.logger", def.Features.Logger)
	v.SetDefault("logging.provider", def.Logging.Provider)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.add_source", def.Logging.AddSource)
	v.SetDefault("logging.focus", def.Logging.Focus)
	return v
}

// loadConfig reads file when set and projects v onto the module config.
func loadConfig(v *viper.Viper, file string) (faqmigrate.Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return faqmigrate.Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("faqmigrate")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return faqmigrate.Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := faqmigrate.DefaultConfig()
	cfg.Run.PostType = v.GetString("run.post_type")
	cfg.Run.Status = v.GetString("run.status")
	cfg.Run.BatchSize = v.GetInt("run.batch_size")
	cfg.Run.MaxPerRun = v.GetInt("run.max_per_run")

	cfg.Schedule.Enabled = v.GetBool("schedule.enabled")
	cfg.Schedule.Interval = v.GetString("schedule.interval")
	cfg.Schedule.PollInterval = v.GetDuration("schedule.poll_interval")
	cfg.Schedule.FirstRunDelay = v.GetDuration("schedule.first_run_delay")

	cfg.Storage.Driver = v.GetString("storage.driver")
	cfg.Storage.DSN = v.GetString("storage.dsn")
	cfg.Storage.Table = v.GetString("storage.table")
	cfg.Storage.Dir = v.GetString("storage.dir")
	cfg.Storage.Mongo.URI = v.GetString("storage.mongo.uri")
	cfg.Storage.Mongo.Database = v.GetString("storage.mongo.database")
	cfg.Storage.Mongo.Collection = v.GetString("storage.mongo.collection")
	cfg.Storage.State.Driver = v.GetString("storage.state.driver")
	cfg.Storage.State.DSN = v.GetString("storage.state.dsn")

	cfg.Lock.Provider = v.GetString("lock.provider")
	cfg.Lock.TTL = v.GetDuration("lock.ttl")
	cfg.Lock.Key = v.GetString("lock.key")
	cfg.Lock.Redis.Addr = v.GetString("lock.redis.addr")
	cfg.Lock.Redis.Username = v.GetString("lock.redis.username")
	cfg.Lock.Redis.Password = v.GetString("lock.redis.password")
	cfg.Lock.Redis.DB = v.GetInt("lock.redis.db")

	cfg.Commands.Enabled = v.GetBool("commands.enabled")
	cfg.Commands.AutoRegisterDispatcher = v.GetBool("commands.auto_register_dispatcher")
	cfg.Commands.AutoRegisterCron = v.GetBool("commands.auto_register_cron")

	cfg.Features.Logger = v.GetBool("features.logger")
	cfg.Logging.Provider = v.GetString("logging.provider")
	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Format = v.GetString("logging.format")
	cfg.Logging.AddSource = v.GetBool("logging.add_source")
	cfg.Logging.Focus = v.GetStringSlice("logging.focus")

	if err := cfg.Validate(); err != nil {
		return faqmigrate.Config{}, err
	}
	return cfg, nil
}
