package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// countScript increments the window counter and, when this hit created the
// key, starts its expiry in the same atomic step. Splitting INCR and
// EXPIRE into two round trips would leave an immortal counter if the
// EXPIRE was lost.
var countScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`)

// redisCounter adapts a go-redis client to the Counter interface.
type redisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps client as a Counter.
func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (r *redisCounter) Count(ctx context.Context, key string, window time.Duration) (int64, error) {
	return countScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64()
}
