package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// RedisStore keeps credentials in Redis under "<prefix>:access_token" and
// "<prefix>:refresh_token". It lets several dashboard processes on one host
// or cluster share a login.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix defaults to
// "sevenshift:session".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sevenshift:session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// DialRedisStore connects to addr and pings it, retrying with exponential
// backoff for up to maxWait before giving up.
func DialRedisStore(ctx context.Context, addr, prefix string, maxWait time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = maxWait

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Debug().Err(err).Str("addr", addr).Int("attempt", attempt).Msg("redis credential store not ready")
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis credential store %s: %w", addr, err)
	}
	return NewRedisStore(rdb, prefix), nil
}

func (r *RedisStore) key(name string) string {
	return r.prefix + ":" + name
}

func (r *RedisStore) Load(ctx context.Context) (*oauth2.Token, error) {
	vals, err := r.rdb.MGet(ctx, r.key(KeyAccessToken), r.key(KeyRefreshToken)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials from redis: %w", err)
	}
	access, _ := vals[0].(string)
	refresh, _ := vals[1].(string)
	if access == "" && refresh == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

func (r *RedisStore) Save(ctx context.Context, tok *oauth2.Token) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(KeyAccessToken), tok.AccessToken, 0)
		p.Set(ctx, r.key(KeyRefreshToken), tok.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save credentials to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key(KeyAccessToken), r.key(KeyRefreshToken)).Err(); err != nil {
		return fmt.Errorf("clear credentials in redis: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
