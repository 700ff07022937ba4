// ABOUTME: Token backend stored in a Redis hash shared between terminals or machines
// ABOUTME: Mutations publish the writer's origin on a channel that Watch subscribes to

package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps the session in one hash and announces changes over pub/sub.
type RedisBackend struct {
	client  *redis.Client
	key     string
	channel string
}

// NewRedisBackend wraps client. All keys live under prefix.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "academix"
	}
	return &RedisBackend{
		client:  client,
		key:     prefix + ":session",
		channel: prefix + ":session:changed",
	}
}

// DialRedis parses a redis:// URL and returns a backend after a PING.
func DialRedis(ctx context.Context, url, prefix string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cannot connect to redis at %s: %w", opt.Addr, err)
	}
	return NewRedisBackend(client, prefix), nil
}

// Channel returns the pub/sub channel used for change notifications.
func (r *RedisBackend) Channel() string {
	return r.channel
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, origin string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, args...)
		pipe.Publish(ctx, r.channel, origin)
		return nil
	})
	return err
}

func (r *RedisBackend) Delete(ctx context.Context, origin string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.key, keys...)
		pipe.Publish(ctx, r.channel, origin)
		return nil
	})
	return err
}

// Watch subscribes to the change channel and calls fn with each published origin.
func (r *RedisBackend) Watch(ctx context.Context, fn ChangeFunc) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				slog.Warn("Redis change channel closed", "channel", r.channel)
				return nil
			}
			fn(msg.Payload)
		}
	}
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
