// Package cache wraps the redis client used for webhook dedupe keys and
// hot settings. Nothing durable lives here; redis being down degrades to
// database lookups, it never loses money state.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Service is the application-facing cache API.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService returns a cache service with the given default TTL.
func NewService(client *redis.Client, defaultTTL time.Duration) *Service {
	return &Service{client: client, ttl: defaultTTL}
}

// Seen reports whether the dedupe key exists. Used as the fast path for
// webhook dedupe; the database unique index remains the backstop.
func (s *Service) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records a dedupe key. Callers mark only after the work the key
// guards has committed, so a failed transaction leaves the delivery
// replayable.
func (s *Service) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// Get returns the cached string for key, or redis.Nil when absent.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// Set stores a string value under key with the default TTL.
func (s *Service) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

// Delete removes a key.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// HealthCheck pings redis.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// WebhookKey builds the dedupe key for a gateway event.
func WebhookKey(gatewayName, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", gatewayName, eventID)
}
