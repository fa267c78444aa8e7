// Package lock serializes provider-mutating operations per post. At most
// one schedule/cancel/update may hold a post's lease at a time, so
// concurrent callers cannot race a cancel against a schedule.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLeaseHeld = errors.New("post lease is held by another operation")

// releaseScript deletes the lease only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type PostLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPostLocker(rdb *redis.Client, ttl time.Duration) *PostLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PostLocker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lease for a post and returns a release func. The lease
// expires on its own after the TTL in case the holder dies mid-operation.
func (l *PostLocker) Acquire(ctx context.Context, postID int64) (func(), error) {
	key := fmt.Sprintf("crosspost:post_lease:%d", postID)
	token := newToken()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("acquire post lease: %w", err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	release := func() {
		// Release is best-effort; an expired lease is already gone.
		if err := releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
			slog.Info(err.Error())
		}
	}
	return release, nil
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
