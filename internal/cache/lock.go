// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "publish-lock:"

// DefaultLockTTL bounds how long a crashed publisher can hold the lock.
const DefaultLockTTL = 30 * time.Minute

// ErrPublishLocked is returned when another process holds the publish lock
// for the same cache root.
var ErrPublishLocked = errors.New("publish already running for this cache root")

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// PublishLock serializes publishes of the same cache root across hosts.
type PublishLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// NewPublishLock creates a lock keyed by the cache root.
func NewPublishLock(client *redis.Client, root string, ttl time.Duration) *PublishLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &PublishLock{client: client, key: lockKeyPrefix + root, ttl: ttl}
}

// Acquire takes the lock or returns ErrPublishLocked.
func (l *PublishLock) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire publish lock: %w", err)
	}
	if !ok {
		return ErrPublishLocked
	}
	l.token = token
	slog.Debug("publish lock acquired", "key", l.key, "ttl", l.ttl)
	return nil
}

// Release gives the lock back. Releasing a lock that expired or was never
// taken is a no-op.
func (l *PublishLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release publish lock: %w", err)
	}
	slog.Debug("publish lock released", "key", l.key)
	return nil
}
