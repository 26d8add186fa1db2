package devserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations records token IDs that must no longer validate.
type Revocations interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

type memoryRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{ids: make(map[string]time.Time), now: time.Now}
}

func (r *memoryRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.ids {
		if now.After(exp) {
			delete(r.ids, id)
		}
	}
	r.ids[jti] = until
	return nil
}

func (r *memoryRevocations) Revoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.ids[jti]
	return ok, nil
}

// RedisRevocations keeps revoked token IDs as expiring Redis keys.
type RedisRevocations struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevocations returns a Redis-backed revocation set. Keys are
// "<prefix>:revoked:<jti>".
func NewRedisRevocations(client redis.UniversalClient, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "attend-dev"
	}
	return &RedisRevocations{client: client, prefix: prefix}
}

func (r *RedisRevocations) key(jti string) string {
	return r.prefix + ":revoked:" + jti
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(jti), "1", ttl).Err()
}

func (r *RedisRevocations) Revoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, r.key(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
