// Package rank mirrors leaderboard totals into Redis sorted sets so
// top-N queries don't touch Postgres. The database accumulator stays
// the source of truth; this cache is best effort.
package rank

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "commentrating:rank"

// Entry is one leaderboard position read from the cache.
type Entry struct {
	SenderID string  `json:"sender_id"`
	Score    float64 `json:"score"`
}

// Cache keeps one sorted set per channel, member = sender id,
// score = accumulated rating total.
type Cache struct {
	client *redis.Client
	prefix string
}

// New connects a rank cache to Redis.
func New(addr, password, prefix string) (*Cache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rank cache redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}, nil
}

func (c *Cache) key(channel string) string {
	return c.prefix + ":" + channel
}

// Set overwrites the sender's cached total. The rating path writes
// the store's accumulated total rather than an increment, so a
// flushed or lost cache converges again on the sender's next rating.
func (c *Cache) Set(ctx context.Context, channel, senderID string, value float64) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.ZAdd(ctx, c.key(channel), redis.Z{Score: value, Member: senderID}).Err()
}

// Top returns up to limit senders for a channel, best score first.
func (c *Cache) Top(ctx context.Context, channel string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	zs, err := c.client.ZRevRangeWithScores(ctx, c.key(channel), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, Entry{SenderID: member, Score: z.Score})
	}
	return entries, nil
}

// Score returns the cached total for one sender; ok is false when the
// sender has no cached entry.
func (c *Cache) Score(ctx context.Context, channel, senderID string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	score, err := c.client.ZScore(ctx, c.key(channel), senderID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// Ping verifies connectivity, used at startup.
func (c *Cache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}
