// Package lock provides short-lived named locks for work that several server
// instances could otherwise start at the same time, such as seeding.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("lock not obtained")

// Release frees a held lock.
type Release func(ctx context.Context) error

type Locker interface {
	// Acquire waits until key is free or ctx is done.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Local serializes holders inside one process.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]chan struct{})}
}

func (l *Local) Acquire(ctx context.Context, key string, _ time.Duration) (Release, error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return func(context.Context) error {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				close(done)
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ErrNotObtained
		}
	}
}

type Redis struct {
	client *redislock.Client
	retry  time.Duration
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{client: redislock.New(rdb), retry: 100 * time.Millisecond}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	held, err := r.client.Obtain(ctx, "studioledger:lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return held.Release, nil
}
