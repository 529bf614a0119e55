package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

const defaultKeyPrefix = "trivia"

// Redis stores slots as plain string values. A zero TTL keeps them forever.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var (
	_ quiz.Store   = (*Redis)(nil)
	_ quiz.Swapper = (*Redis)(nil)
)

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, quiz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Swap deletes one key and sets another inside MULTI/EXEC.
func (r *Redis) Swap(ctx context.Context, deleteKey, setKey string, value []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(deleteKey))
		pipe.Set(ctx, r.key(setKey), value, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis swap %s -> %s: %w", deleteKey, setKey, err)
	}
	return nil
}
