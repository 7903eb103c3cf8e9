package settings

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// HashKey is the redis hash that stores overridden settings.
const HashKey = "notifier:settings"

type RedisProvider struct {
	client redis.UniversalClient
}

func NewRedisProvider(client redis.UniversalClient) *RedisProvider {
	return &RedisProvider{client: client}
}

func (p *RedisProvider) Get(ctx context.Context, key string) (string, error) {
	d, ok := lookup(key)
	if !ok {
		return "", ErrUnknownKey
	}
	v, err := p.client.HGet(ctx, HashKey, key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && v == "") {
		return d.Default, nil
	}
	return v, err
}

func (p *RedisProvider) Set(ctx context.Context, values map[string]string) error {
	update, err := normalizeUpdate(values)
	if err != nil {
		return err
	}
	if len(update) == 0 {
		return nil
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range update {
			if value == "" {
				pipe.HDel(ctx, HashKey, key)
				continue
			}
			pipe.HSet(ctx, HashKey, key, value)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("keys", len(update)).Info("settings updated")
	return nil
}

func (p *RedisProvider) All(ctx context.Context) (map[string]string, error) {
	stored, err := p.client.HGetAll(ctx, HashKey).Result()
	if err != nil {
		return nil, err
	}
	values := Defaults()
	for key, value := range stored {
		if _, ok := lookup(key); ok && value != "" {
			values[key] = value
		}
	}
	return values, nil
}

// Reset removes every override.
func (p *RedisProvider) Reset(ctx context.Context) error {
	return p.client.Del(ctx, HashKey).Err()
}
