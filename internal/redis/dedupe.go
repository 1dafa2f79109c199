package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper is used by the reminder worker so that a patient is reminded at
// most once per appointment even when multiple worker instances run.
type Deduper interface {
	// Claim returns true if the caller is the first to claim the key
	// within the TTL window.
	Claim(ctx context.Context, key string) (bool, error)
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) Deduper {
	return &redisDeduper{client: client, ttl: ttl}
}

func (d *redisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, fmt.Sprintf("dedupe:%s", key), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim dedupe key: %w", err)
	}
	return ok, nil
}
