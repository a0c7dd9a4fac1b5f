// Package redis wraps the go-redis client with an explicit connection state
// and per-installation namespace prefixing. Operations on a client that has
// not connected return ErrNotConnected instead of panicking or throwing,
// so callers handle the disconnected state as a normal typed result.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"panicconf/pkg/rediskeys"
)

// ErrNotConnected is returned by every operation invoked before Connect or
// after Disconnect.
var ErrNotConnected = errors.New("redis: client not connected")

// Options configures the wrapper.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace is prepended to every key as "<namespace>:<key>" so several
	// installations can share one Redis instance.
	Namespace string
}

// Client is a namespaced Redis client with explicit connection state.
// Connect and Disconnect may run concurrently with operations; mu guards
// the handle.
type Client struct {
	opts   Options
	logger *zap.Logger

	mu  sync.RWMutex
	rdb *redis.Client
}

// NewClient constructs a client in the disconnected state.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{opts: opts, logger: logger}
}

// Connect dials Redis and verifies the connection with a ping.
func (c *Client) Connect(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.opts.Addr,
		Password: c.opts.Password,
		DB:       c.opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	c.mu.Lock()
	prev := c.rdb
	c.rdb = rdb
	c.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	c.logger.Info("redis connected", zap.String("addr", c.opts.Addr), zap.Int("db", c.opts.DB))
	return nil
}

// Disconnect closes the connection and returns the client to the
// disconnected state. Disconnecting twice is a no-op.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	rdb := c.rdb
	c.rdb = nil
	c.mu.Unlock()
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	c.logger.Info("redis disconnected", zap.String("addr", c.opts.Addr))
	return err
}

// Connected reports whether the client currently holds a connection.
func (c *Client) Connected() bool {
	return c.conn() != nil
}

func (c *Client) conn() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rdb
}

func (c *Client) namespaced(key string) string {
	if c.opts.Namespace == "" {
		return key
	}
	return c.opts.Namespace + ":" + key
}

// Set stores a value under a namespaced key.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	rdb := c.conn()
	if rdb == nil {
		return ErrNotConnected
	}
	return rdb.Set(ctx, c.namespaced(key), value, ttl).Err()
}

// Get fetches a namespaced key. A missing key returns redis.Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	rdb := c.conn()
	if rdb == nil {
		return "", ErrNotConnected
	}
	return rdb.Get(ctx, c.namespaced(key)).Result()
}

// Delete removes namespaced keys and reports how many existed.
func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	rdb := c.conn()
	if rdb == nil {
		return 0, ErrNotConnected
	}
	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = c.namespaced(key)
	}
	return rdb.Del(ctx, namespaced...).Result()
}

// Exists reports whether a namespaced key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	rdb := c.conn()
	if rdb == nil {
		return false, ErrNotConnected
	}
	n, err := rdb.Exists(ctx, c.namespaced(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HSet stores fields inside a namespaced hash.
func (c *Client) HSet(ctx context.Context, hash string, fields map[string]any) error {
	rdb := c.conn()
	if rdb == nil {
		return ErrNotConnected
	}
	flat := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		flat = append(flat, field, value)
	}
	return rdb.HSet(ctx, c.namespaced(hash), flat...).Err()
}

// HGet fetches one field from a namespaced hash.
func (c *Client) HGet(ctx context.Context, hash, field string) (string, error) {
	rdb := c.conn()
	if rdb == nil {
		return "", ErrNotConnected
	}
	return rdb.HGet(ctx, c.namespaced(hash), field).Result()
}

// HGetAll fetches every field of a namespaced hash.
func (c *Client) HGetAll(ctx context.Context, hash string) (map[string]string, error) {
	rdb := c.conn()
	if rdb == nil {
		return nil, ErrNotConnected
	}
	return rdb.HGetAll(ctx, c.namespaced(hash)).Result()
}

// HDelete removes fields from a namespaced hash.
func (c *Client) HDelete(ctx context.Context, hash string, fields ...string) error {
	rdb := c.conn()
	if rdb == nil {
		return ErrNotConnected
	}
	return rdb.HDel(ctx, c.namespaced(hash), fields...).Err()
}

// MuteChain raises the per-chain mute flag inside the chain's parent hash.
func (c *Client) MuteChain(ctx context.Context, chainID string) error {
	return c.HSet(ctx, rediskeys.ParentHash(chainID), map[string]any{
		rediskeys.ChainMuteAlerts(): "true",
	})
}

// UnmuteChain clears the per-chain mute flag.
func (c *Client) UnmuteChain(ctx context.Context, chainID string) error {
	return c.HDelete(ctx, rediskeys.ParentHash(chainID), rediskeys.ChainMuteAlerts())
}

// ChainMuted reports whether a chain's alerts are muted.
func (c *Client) ChainMuted(ctx context.Context, chainID string) (bool, error) {
	value, err := c.HGet(ctx, rediskeys.ParentHash(chainID), rediskeys.ChainMuteAlerts())
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// MuteAll raises the global mute flag covering every chain.
func (c *Client) MuteAll(ctx context.Context) error {
	return c.Set(ctx, rediskeys.AlerterMute(), "true", 0)
}

// UnmuteAll clears the global mute flag.
func (c *Client) UnmuteAll(ctx context.Context) error {
	_, err := c.Delete(ctx, rediskeys.AlerterMute())
	return err
}

// AllMuted reports whether the global mute flag is raised.
func (c *Client) AllMuted(ctx context.Context) (bool, error) {
	value, err := c.Get(ctx, rediskeys.AlerterMute())
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}
