package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// heartbeatScript sets the last-seen value only when it is not older than
// the stored one, so retries and reordered deliveries never regress state.
// The key TTL equals the freshness window: stale entries expire on their own.
var heartbeatScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur or tonumber(ARGV[1]) >= tonumber(cur) then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
end
return 1
`)

// RedisTracker keeps heartbeat state in Redis so presence survives process
// restarts when configured.
type RedisTracker struct {
	client *redis.Client
	window time.Duration
	prefix string
}

// NewRedisTracker builds a Redis-backed tracker.
func NewRedisTracker(addr, password string, window time.Duration) *RedisTracker {
	return &RedisTracker{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		window: window,
		prefix: "tuckertrips:presence:",
	}
}

// Heartbeat writes the last-seen timestamp with TTL equal to the window.
func (t *RedisTracker) Heartbeat(userID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return heartbeatScript.Run(
		ctx,
		t.client,
		[]string{t.prefix + userID},
		at.UnixMilli(),
		t.window.Milliseconds(),
	).Err()
}

// LastSeen returns the stored heartbeat time; absent once the TTL elapsed.
func (t *RedisTracker) LastSeen(userID string) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := t.client.Get(ctx, t.prefix+userID).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// Online reports whether the user's last heartbeat is within the window.
func (t *RedisTracker) Online(userID string, now time.Time) (bool, error) {
	ls, ok, err := t.LastSeen(userID)
	if err != nil || !ok {
		return false, err
	}
	return Fresh(now, ls, t.window), nil
}
