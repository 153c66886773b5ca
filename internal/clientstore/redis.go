package clientstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "patentmate:session:"

// RedisStore keeps one hash per session.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore connects to addr. A positive ttl expires a session after
// that long without writes.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "clientstore: ping redis %s", addr)
	}
	return newRedisStore(rdb, ttl), nil
}

func newRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(session string) string {
	return redisKeyPrefix + session
}

func (r *RedisStore) Get(ctx context.Context, session string, key Key) (string, error) {
	v, err := r.rdb.HGet(ctx, redisKey(session), string(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "clientstore: get %s", key)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, session string, key Key, value string) error {
	hk := redisKey(session)
	if err := r.rdb.HSet(ctx, hk, string(key), value).Err(); err != nil {
		return eris.Wrapf(err, "clientstore: set %s", key)
	}
	if r.ttl > 0 {
		if err := r.rdb.Expire(ctx, hk, r.ttl).Err(); err != nil {
			return eris.Wrapf(err, "clientstore: expire %s", hk)
		}
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, session string, key Key) error {
	if err := r.rdb.HDel(ctx, redisKey(session), string(key)).Err(); err != nil {
		return eris.Wrapf(err, "clientstore: delete %s", key)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if c, ok := r.rdb.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
