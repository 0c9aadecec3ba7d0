package lock

import (
	"context"
	"hash/fnv"
	"time"
)

const shardCount = 256

// LocalLocker is a fixed pool of channel-based mutexes keyed by string hash.
// Unrelated keys may share a shard; that only costs throughput.
type LocalLocker struct {
	shards [shardCount]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	l := &LocalLocker{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
		l.shards[i] <- struct{}{}
	}
	return l
}

// Acquire blocks until the shard for key is free or ctx is done. ttl is
// ignored for in-process locks.
func (l *LocalLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	shard := l.shards[shardIndex(key)]

	select {
	case <-shard:
		released := false
		return func() {
			if released {
				return
			}
			released = true
			shard <- struct{}{}
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
