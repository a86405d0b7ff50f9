package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL       = 60 * time.Second
	minRetryInterval = 25 * time.Millisecond
	maxRetryInterval = 500 * time.Millisecond
)

// Deletes the key only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Extends the expiry only while the key still carries the caller's token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX so replicas share one lock per key.
// The lease is refreshed every ttl/3 while held, so the ttl bounds how long a
// crashed holder blocks the key, not how long a live holder may work.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a locker storing keys as prefix+key with the given expiry.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl}
}

// Acquire polls with exponential backoff until the key is free or ctx is done.
func (r *RedisLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	fullKey := r.prefix + key

	wait := minRetryInterval
	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		if wait > maxRetryInterval {
			wait = maxRetryInterval
		}
	}

	stop := r.keepAlive(fullKey, token)

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(stop)
		deleted, err := releaseScript.Run(ctx, r.client, []string{fullKey}, token).Int()
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}

// keepAlive refreshes the lease until the returned stop is called or the
// token is no longer the holder.
func (r *RedisLocker) keepAlive(fullKey, token string) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	interval := r.ttl / 3
	if interval < minRetryInterval {
		interval = minRetryInterval
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := refreshScript.Run(ctx, r.client, []string{fullKey}, token, r.ttl.Milliseconds()).Int()
				if err == nil && held == 0 {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
