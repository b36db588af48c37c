package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/documents"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/runlock"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/uptrace/bun"
)

const dialTimeout = 10 * time.Second

func (c *Container) configureDocuments(ctx context.Context) error {
	logger := logging.StorageLogger(c.loggerProvider)
	storage := c.Config.Storage
	driver := storage.DriverName()
	if c.documents != nil {
		logger.Info("storage.configured", "driver", "custom")
		return nil
	}

	switch driver {
	case runtimeconfig.StorageMemory:
		c.documents = documents.NewMemoryStore()
	case runtimeconfig.StorageSQLite, runtimeconfig.StoragePostgres:
		if c.bunDB == nil {
			db, err := documents.OpenBun(driver, storage.DSN)
			if err != nil {
				return err
			}
			c.bunDB = db
			c.onClose(func(context.Context) error { return db.Close() })
		}
		c.documents = documents.NewBunStore(c.bunDB, documents.WithTable(storage.Table))
	case runtimeconfig.StorageMongo:
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		conn, err := documents.ConnectMongo(dialCtx, storage.Mongo.URI, storage.Mongo.Database, storage.Mongo.Collection)
		if err != nil {
			return err
		}
		c.documents = conn.Store
		c.onClose(conn.Close)
	case runtimeconfig.StorageFile:
		c.documents = documents.NewFileStore(storage.Dir)
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrStorageDriverUnknown, driver)
	}
	logger.Info("storage.configured", "driver", driver)
	return nil
}

func (c *Container) configureState(ctx context.Context) error {
	logger := logging.StorageLogger(c.loggerProvider)
	storage := c.Config.Storage
	driver := storage.StateDriverName()

	if c.settings == nil || c.checkpoints == nil {
		switch driver {
		case runtimeconfig.StorageMemory:
			if c.settings == nil {
				c.settings = settings.NewMemoryRepository()
			}
			if c.checkpoints == nil {
				c.checkpoints = settings.NewMemoryCheckpointStore()
			}
		case runtimeconfig.StorageSQLite, runtimeconfig.StoragePostgres:
			db, err := c.openStateDB(driver, storage.StateDSN())
			if err != nil {
				return err
			}
			if err := settings.EnsureSchema(ctx, db); err != nil {
				return err
			}
			if c.settings == nil {
				c.settings = settings.NewBunRepository(db)
			}
			if c.checkpoints == nil {
				c.checkpoints = settings.NewBunCheckpointStore(db, settings.DefaultCheckpointName)
			}
		default:
			return fmt.Errorf("%w: %s", runtimeconfig.ErrStateDriverUnknown, driver)
		}
	}

	c.settingsSvc = settings.NewService(c.settings, c.settingsDefaults())
	c.settingsState = settings.NewState(c.settingsSvc.Defaults())
	if err := c.settingsState.Watch(ctx, c.settingsSvc); err != nil {
		return err
	}
	logger.Info("state.configured", "driver", driver)
	return nil
}

// openStateDB reuses the document database when the state lives next to it.
func (c *Container) openStateDB(driver, dsn string) (*bun.DB, error) {
	storage := c.Config.Storage
	if c.bunDB != nil && driver == storage.DriverName() && strings.TrimSpace(dsn) == strings.TrimSpace(storage.DSN) {
		return c.bunDB, nil
	}
	db, err := documents.OpenBun(driver, dsn)
	if err != nil {
		return nil, err
	}
	c.onClose(func(context.Context) error { return db.Close() })
	return db, nil
}

func (c *Container) settingsDefaults() interfaces.MigrationSettings {
	run := c.Config.Run
	return interfaces.MigrationSettings{
		PostType:         run.PostType,
		Status:           run.Status,
		BatchSize:        run.BatchSize,
		MaxPerRun:        run.MaxPerRun,
		ScheduleEnabled:  c.Config.Schedule.Enabled,
		ScheduleInterval: c.Config.Schedule.Interval,
	}
}

func (c *Container) configureLock(ctx context.Context) error {
	logger := logging.StorageLogger(c.loggerProvider)
	if c.runLock != nil {
		logger.Info("lock.configured", "provider", "custom")
		return nil
	}
	lock := c.Config.Lock
	switch lock.ProviderName() {
	case runtimeconfig.LockNone:
		c.runLock = runlock.Noop{}
	case runtimeconfig.LockMemory:
		c.runLock = runlock.NewMemory()
	case runtimeconfig.LockRedis:
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		client, err := runlock.DialRedis(dialCtx, runlock.RedisOptions{
			Addr:     lock.Redis.Addr,
			Username: lock.Redis.Username,
			Password: lock.Redis.Password,
			DB:       lock.Redis.DB,
		})
		if err != nil {
			return err
		}
		c.runLock = runlock.NewRedis(client, lock.Key)
		c.onClose(func(context.Context) error { return client.Close() })
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrLockProviderUnknown, lock.ProviderName())
	}
	logger.Info("lock.configured", "provider", lock.ProviderName())
	return nil
}
