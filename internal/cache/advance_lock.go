package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AdvanceLock serializes workflow advancement per referral ID across
// service instances. It is advisory: the optimistic version check on
// the referral row remains the correctness guarantee, the lock just
// avoids doing doomed work.
type AdvanceLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAdvanceLock builds a lock helper with the given lease TTL.
func NewAdvanceLock(client *redis.Client, ttl time.Duration) *AdvanceLock {
	return &AdvanceLock{client: client, ttl: ttl}
}

func lockKey(referralID string) string {
	return fmt.Sprintf("workflow:advance:%s", referralID)
}

// Acquire attempts to take the per-referral lock. It returns a release
// token on success and ok=false when another advancement holds it.
// When Redis is unreachable the lock degrades to a no-op.
func (l *AdvanceLock) Acquire(ctx context.Context, referralID string) (string, bool) {
	if l == nil || l.client == nil {
		return "", true
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(referralID), token, l.ttl).Result()
	if err != nil {
		return "", true
	}
	if !ok {
		return "", false
	}
	return token, true
}

// releaseScript deletes the lock only when the token still matches, so
// an expired lease taken over by another instance is never released by
// the original holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

// Release frees the lock if token still owns it.
func (l *AdvanceLock) Release(ctx context.Context, referralID, token string) {
	if l == nil || l.client == nil || token == "" {
		return
	}
	_ = releaseScript.Run(ctx, l.client, []string{lockKey(referralID)}, token).Err()
}
