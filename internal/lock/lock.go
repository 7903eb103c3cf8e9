// Package redlock provides a single-holder redis lock. Only the holder, as
// identified by its token, can release it.
package redlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// ErrLockHeld is wrapped by Lock when another holder owns the key.
var ErrLockHeld = errors.New("already held")

type Locker struct {
	client redis.UniversalClient
	key    string
	token  string
}

func NewLocker(client redis.UniversalClient, key, token string) *Locker {
	return &Locker{client: client, key: key, token: token}
}

// Acquire takes the lock on key for ttl with a fresh token.
func Acquire(ctx context.Context, client redis.UniversalClient, key string, ttl time.Duration) (*Locker, error) {
	l := NewLocker(client, key, uuid.NewString())
	if err := l.Lock(ctx, ttl); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Locker) Key() string {
	return l.key
}

func (l *Locker) Lock(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock %s is %w", l.key, ErrLockHeld)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	released, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Result()
	if err != nil {
		return err
	}
	if released == int64(0) {
		return fmt.Errorf("lock %s expired or is held by someone else", l.key)
	}
	return nil
}
