package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/utils"
)

const (
	KeyPrefix = "velastools"
	// scanCount is the SCAN page size used while invalidating.
	scanCount = 100
)

// ErrCacheMiss is returned by GetJSON when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Client wraps the Redis client used as the dashboard read-through cache and for
// reconcile notifications.
type Client struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewClient creates a new Redis client using environment variables for configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
//   - REDIS_DIAL_TIMEOUT: dial and initial ping timeout (default: "5s")
//
// ttl bounds how long cached tables live when no reconcile invalidates them.
func NewClient(ctx context.Context, logger *zap.Logger, ttl time.Duration) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)
	dialTimeout := utils.EnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Connection pool
		PoolSize:     10,
		MinIdleConns: 2,

		// Timeouts
		DialTimeout:  dialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", addr),
		zap.Int("db", db),
		zap.Duration("ttl", ttl))

	return New(rdb, logger, ttl), nil
}

// New wraps an existing go-redis client.
func New(rdb *redis.Client, logger *zap.Logger, ttl time.Duration) *Client {
	return &Client{client: rdb, logger: logger, ttl: ttl}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// TableKey is the cache key of a dashboard table.
func TableKey(kind models.RecordKind, cl cluster.Cluster, window int) string {
	return fmt.Sprintf("%s:%s:%s:%d", KeyPrefix, kind, cl, window)
}

// ReconciledChannel is the Pub/Sub channel announcing finished passes of kind on cl.
func ReconciledChannel(kind models.RecordKind, cl cluster.Cluster) string {
	return fmt.Sprintf("%s:%s:%s.reconciled", KeyPrefix, cl, kind)
}

// GetJSON decodes the value at key into dest. A missing key yields ErrCacheMiss.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON stores v at key with the client's TTL.
func (c *Client) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// InvalidateCluster drops every cached table of kind on cl, whatever its window, and
// announces the pass on ReconciledChannel.
func (c *Client) InvalidateCluster(ctx context.Context, kind models.RecordKind, cl cluster.Cluster) error {
	pattern := fmt.Sprintf("%s:%s:%s:*", KeyPrefix, kind, cl)

	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("delete %d keys: %w", len(keys), err)
			}
			deleted += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	c.logger.Debug("Invalidated dashboard cache",
		zap.String("pattern", pattern),
		zap.Int64("deleted", deleted))

	c.Publish(ctx, ReconciledChannel(kind, cl), time.Now().UTC().Format(time.RFC3339))
	return nil
}

// Publish publishes a message to a Redis Pub/Sub channel.
// This is a best-effort operation - errors are logged but not returned.
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) {
	if err := c.client.Publish(ctx, channel, message).Err(); err != nil {
		c.logger.Warn("Failed to publish Redis message",
			zap.String("channel", channel),
			zap.Error(err))
	}
}
