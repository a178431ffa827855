// Package cache stores finished verdicts in Redis keyed by the SHA-256
// file hash. Re-running OCR on identical bytes yields the identical
// result, so a hit skips the whole pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input.
// Supporting both formats keeps local/dev and container config paths simple.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// VerdictCache caches serialized verification responses by file hash.
// All methods degrade gracefully: a cache failure is logged and treated
// as a miss, never surfaced to the verification flow.
type VerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerdictCache wraps an existing client. ttl <= 0 disables expiry.
func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCache {
	return &VerdictCache{client: client, ttl: ttl}
}

func key(fileHash string) string {
	return "proofcheck:verdict:" + fileHash
}

// Get loads a cached verdict into dest. Returns false on miss or any error.
func (c *VerdictCache) Get(ctx context.Context, fileHash string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key(fileHash)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache: get failed", "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("cache: corrupt verdict entry", "hash", fileHash, "error", err)
		return false
	}
	return true
}

// Set stores a verdict. Failures are logged and ignored.
func (c *VerdictCache) Set(ctx context.Context, fileHash string, value any) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache: marshal verdict", "error", err)
		return
	}
	if err := c.client.Set(ctx, key(fileHash), raw, c.ttl).Err(); err != nil {
		slog.Warn("cache: set failed", "error", err)
	}
}
