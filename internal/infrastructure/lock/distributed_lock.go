package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis SET NX EX lock. The value identifies the holder so an expired
// holder cannot release a lock someone else has since acquired; the
// unlock check-and-delete runs as a Lua script to stay atomic.

var ErrLockFailed = errors.New("failed to acquire distributed lock")

type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string // holder token, verified on release
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts a non-blocking acquire.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock acquires with retries, honoring context cancellation.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock only if this holder still owns it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================
// Service-facing locker
// ============================================================

// RedisLocker adapts the lock primitive to the key/token interface the
// services consume. Locks are scoped per payment order (verification)
// or per user (ledger-adjacent flows), so unrelated requests never
// contend.
type RedisLocker struct {
	client     *redis.Client
	expiration time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, expiration: 30 * time.Second}
}

func (r *RedisLocker) Lock(ctx context.Context, key, token string) error {
	return NewDistributedLock(r.client, key, token, r.expiration).
		Lock(ctx, 100*time.Millisecond, 30)
}

func (r *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	return NewDistributedLock(r.client, key, token, r.expiration).Unlock(ctx)
}

// VerifyLockKey is the lock key guarding payment-callback processing
// for one gateway order.
func VerifyLockKey(orderID string) string {
	return fmt.Sprintf("verify:lock:order:%s", orderID)
}
