package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisSessionCache implements domain.SessionCache using Redis. Values are
// JSON-serialized snapshots; TTL is enforced by Redis.
type RedisSessionCache struct {
	client *redis.Client
}

// NewRedisSessionCache creates a new Redis session cache
func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{
		client: client,
	}
}

// Set stores a snapshot under key with TTL, overwriting any previous value.
func (r *RedisSessionCache) Set(ctx context.Context, key string, snapshot *domain.SessionSnapshot, ttl time.Duration) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	data, err := json.Marshal(snapshot)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to cache session snapshot: %w", err)
	}

	return nil
}

// Get retrieves the snapshot for key. A cache miss returns (nil, nil).
func (r *RedisSessionCache) Get(ctx context.Context, key string) (*domain.SessionSnapshot, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session snapshot: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}

	return &snapshot, nil
}

// Delete removes the snapshot for key.
func (r *RedisSessionCache) Delete(ctx context.Context, key string) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Delete",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}

	return nil
}
