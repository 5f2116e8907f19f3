// Package dedupe drops gateway webhook redeliveries. Evolution API retries a
// webhook it considers unacknowledged, so the same message can arrive more
// than once; remembering (instance, message id) pairs for a day is enough to
// make the inbound path idempotent.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// RedisDedupeStore remembers seen message ids in Redis with a TTL. The
// first Seen call for a pair claims it atomically via SETNX, so concurrent
// deliveries of the same webhook cannot both pass.
type RedisDedupeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedupeStore(addr, password string, db int, ttl time.Duration) (*RedisDedupeStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisDedupeStore{client: client, ttl: ttl}, nil
}

// Seen reports whether the (instance, messageID) pair was claimed before and
// claims it when it was not.
func (s *RedisDedupeStore) Seen(ctx context.Context, instance, messageID string) (bool, error) {
	claimed, err := s.client.SetNX(ctx, Key(instance, messageID), "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

func (s *RedisDedupeStore) Close() error {
	return s.client.Close()
}

// Key builds the Redis key for one delivery.
func Key(instance, messageID string) string {
	return fmt.Sprintf("bridge:dedupe:%s:%s", instance, messageID)
}

// NoopDedupeStore reports every delivery as unseen. It stands in when Redis
// is not configured; the inbound path then relies on the self-origin echo
// check alone.
type NoopDedupeStore struct{}

func NewNoopDedupeStore() *NoopDedupeStore {
	return &NoopDedupeStore{}
}

func (NoopDedupeStore) Seen(ctx context.Context, instance, messageID string) (bool, error) {
	return false, nil
}
