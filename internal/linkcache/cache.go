// Package linkcache caches short-code resolutions in front of the database.
//
// Hits on active links are stored as JSON with a long positive TTL; lookups
// for codes that do not exist are stored as a short-lived negative sentinel
// so repeated probes for missing codes do not reach the database.
package linkcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// keyPrefix namespaces all redirect cache keys in Redis.
const keyPrefix = "redirect:"

// negativeSentinel marks a cached "code does not exist" entry. It can never
// collide with a positive entry because those are JSON objects.
const negativeSentinel = "!"

// Result classifies the outcome of a cache lookup.
type Result int

const (
	// Miss means the cache holds nothing for the code.
	Miss Result = iota
	// Hit means the cache holds a resolution for the code.
	Hit
	// Negative means the cache remembers the code as nonexistent.
	Negative
)

// Resolution is the cached payload for an active link.
type Resolution struct {
	LinkID  uuid.UUID `json:"link_id"`
	LongURL string    `json:"long_url"`
}

// Cache is the redirect cache consumed by the resolve path.
type Cache interface {
	// Get looks up a code. The Resolution is only meaningful when the
	// Result is Hit.
	Get(ctx context.Context, code string) (Result, Resolution, error)
	// PutPositive caches a resolution, replacing any negative entry.
	PutPositive(ctx context.Context, code string, res Resolution) error
	// PutNegative remembers that a code does not exist.
	PutNegative(ctx context.Context, code string) error
	// Invalidate removes any entry for a code.
	Invalidate(ctx context.Context, code string) error
}

// ErrNoKey is returned by a KV when a key is absent.
var ErrNoKey = fmt.Errorf("linkcache: key not found")

// KV is the minimal key-value surface the cache needs from Redis.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type cache struct {
	kv          KV
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// New returns a Cache backed by kv with the given TTLs.
func New(kv KV, positiveTTL, negativeTTL time.Duration) Cache {
	return &cache{
		kv:          kv,
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
	}
}

func key(code string) string {
	return keyPrefix + code
}

func (c *cache) Get(ctx context.Context, code string) (Result, Resolution, error) {
	raw, err := c.kv.Get(ctx, key(code))
	if err != nil {
		if err == ErrNoKey {
			return Miss, Resolution{}, nil
		}
		return Miss, Resolution{}, fmt.Errorf("cache get: %w", err)
	}

	if raw == negativeSentinel {
		return Negative, Resolution{}, nil
	}

	var res Resolution
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		// Corrupt entry. Treat as a miss so the database remains the
		// source of truth.
		return Miss, Resolution{}, nil
	}

	return Hit, res, nil
}

func (c *cache) PutPositive(ctx context.Context, code string, res Resolution) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.kv.Set(ctx, key(code), string(payload), c.positiveTTL); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *cache) PutNegative(ctx context.Context, code string) error {
	if err := c.kv.Set(ctx, key(code), negativeSentinel, c.negativeTTL); err != nil {
		return fmt.Errorf("cache set negative: %w", err)
	}
	return nil
}

func (c *cache) Invalidate(ctx context.Context, code string) error {
	if err := c.kv.Del(ctx, key(code)); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
