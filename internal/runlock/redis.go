package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the lease owner.
const DefaultRedisKey = "faqmigrate:run-lock"

// releaseScript deletes the key only when it still carries the owner token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// RedisClient is the subset of the go-redis client used by Redis.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Redis is a lease lock shared by every process pointing at the same redis.
type Redis struct {
	client RedisClient
	key    string
}

var _ interfaces.RunLock = (*Redis)(nil)

// NewRedis constructs a lock over client. An empty key uses DefaultRedisKey.
func NewRedis(client RedisClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// RedisOptions carries connection settings for DialRedis.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// DialRedis creates a client and verifies the connection.
func DialRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("runlock: connect redis: %w", err)
	}
	return client, nil
}

// Acquire sets the key when absent with the supplied ttl.
func (r *Redis) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	if owner == "" {
		return false, ErrOwnerRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ok, err := r.client.SetNX(ctx, r.key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("runlock: acquire: %w", err)
	}
	return ok, nil
}

// Release deletes the key when owner still holds it.
func (r *Redis) Release(ctx context.Context, owner string) error {
	if err := r.client.Eval(ctx, releaseScript, []string{r.key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("runlock: release: %w", err)
	}
	return nil
}
