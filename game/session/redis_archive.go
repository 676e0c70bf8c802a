package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

// RedisArchive keeps snapshots as JSON strings under prefix+id, plus a set
// of ids under prefix+"index".
type RedisArchive struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisArchive wraps an existing client. A zero ttl keeps keys forever.
func NewRedisArchive(rdb *redis.Client, prefix string, ttl time.Duration) *RedisArchive {
	if strings.TrimSpace(prefix) == "" {
		prefix = "arena:"
	}
	return &RedisArchive{rdb: rdb, prefix: prefix, ttl: ttl}
}

// DialRedisArchive parses a redis:// URL and pings the server.
func DialRedisArchive(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisArchive, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisArchive(rdb, prefix, ttl), nil
}

func (a *RedisArchive) Close() error {
	if a == nil || a.rdb == nil {
		return nil
	}
	return a.rdb.Close()
}

func (a *RedisArchive) key(id string) string { return a.prefix + "session:" + id }
func (a *RedisArchive) indexKey() string     { return a.prefix + "index" }

func (a *RedisArchive) Save(ctx context.Context, snap *engine.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := a.rdb.Set(ctx, a.key(snap.ID), raw, a.ttl).Err(); err != nil {
		return err
	}
	return a.rdb.SAdd(ctx, a.indexKey(), snap.ID).Err()
}

func (a *RedisArchive) Load(ctx context.Context, id string) (*engine.Snapshot, error) {
	raw, err := a.rdb.Get(ctx, a.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (a *RedisArchive) Exists(ctx context.Context, id string) (bool, error) {
	n, err := a.rdb.Exists(ctx, a.key(id)).Result()
	return n > 0, err
}

// ListAll returns indexed ids whose snapshot key has not expired.
func (a *RedisArchive) ListAll(ctx context.Context) ([]string, error) {
	ids, err := a.rdb.SMembers(ctx, a.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := a.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		} else {
			_ = a.rdb.SRem(ctx, a.indexKey(), id).Err()
		}
	}
	return out, nil
}
