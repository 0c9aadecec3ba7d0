// Package lock provides the critical sections used by tier configuration
// writes and per-vendor credit history updates.
package lock

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(New),
)

var (
	ErrEmptyKey       = errors.New("lock key is empty")
	ErrInvalidTTL     = errors.New("lock ttl must be positive")
	ErrNotConfigured  = errors.New("lock client not configured")
	ErrAcquireTimeout = errors.New("lock acquire timeout")
)

// Locker acquires an exclusive section for a key. The returned release
// function must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type Params struct {
	fx.In

	Redis *redis.Client `optional:"true"`
	Log   *zap.Logger
}

// New returns a redis-backed locker when a client is available, otherwise an
// in-process locker. The redis locker is still fronted by the local one so
// goroutines in the same process queue locally instead of polling redis.
func New(p Params) Locker {
	local := NewLocalLocker()
	if p.Redis == nil {
		p.Log.Named("lock").Info("redis not configured, using in-process locks")
		return local
	}
	return &chained{first: local, second: NewRedisLocker(p.Redis)}
}

type chained struct {
	first  Locker
	second Locker
}

func (c *chained) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	releaseFirst, err := c.first.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	releaseSecond, err := c.second.Acquire(ctx, key, ttl)
	if err != nil {
		releaseFirst()
		return nil, err
	}
	return func() {
		releaseSecond()
		releaseFirst()
	}, nil
}
