// Package checkpoint tracks the timestamp of the last fully-completed
// autonomous cycle. The value is monotonic, advances only after a cycle
// finishes with no unrecovered error, and survives restarts via Redis.
//
// Persistence failure freezes durability but never the process: the
// in-memory value stays authoritative and the write is retried on every
// scheduler poll.
package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKey = "agent:last_cycle_at"

// Checkpoint is safe for concurrent use.
type Checkpoint struct {
	mu     sync.Mutex
	rdb    *redis.Client // nil disables persistence
	logger *zap.SugaredLogger
	last   time.Time
	dirty  bool // last has not been persisted yet
}

// New loads the persisted value when Redis is available. rdb may be nil.
func New(ctx context.Context, rdb *redis.Client, logger *zap.SugaredLogger) *Checkpoint {
	c := &Checkpoint{rdb: rdb, logger: logger}
	if rdb == nil {
		return c
	}

	val, err := rdb.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return c
	}
	if err != nil {
		logger.Warnw("checkpoint load failed, starting from zero", "err", err)
		return c
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		logger.Warnw("checkpoint value unparseable, starting from zero", "value", val, "err", err)
		return c
	}
	c.last = t
	return c
}

// Last returns the last completed-cycle timestamp; zero when no cycle has
// ever completed.
func (c *Checkpoint) Last() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Advance moves the checkpoint to t. Calls with t at or before the current
// value are ignored: the checkpoint never moves backward.
func (c *Checkpoint) Advance(ctx context.Context, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.After(c.last) {
		return
	}
	c.last = t
	c.persistLocked(ctx)
}

// Flush retries persistence for a value that could not be written when it
// was set. Called on every scheduler poll.
func (c *Checkpoint) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty {
		c.persistLocked(ctx)
	}
}

func (c *Checkpoint) persistLocked(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	err := c.rdb.Set(ctx, redisKey, c.last.UTC().Format(time.RFC3339), 0).Err()
	if err != nil {
		c.dirty = true
		c.logger.Warnw("checkpoint not persisted, will retry on next poll", "err", err)
		return
	}
	c.dirty = false
}
