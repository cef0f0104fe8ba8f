package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
)

const defaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient creates a Redis client for the given address.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SubmissionGuard rejects a second save of the same project while the first is in flight.
type SubmissionGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewSubmissionGuard(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *SubmissionGuard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if prefix == "" {
		prefix = "checklist:save:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionGuard{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (g *SubmissionGuard) key(k application.ProjectKey) string {
	return fmt.Sprintf("%s%s:%s", g.prefix, k.CompanyID, k.ProjectID)
}

// Acquire takes the per-project lock. The returned release is safe to call once the lock
// has expired or been taken over; it never deletes someone else's lock.
func (g *SubmissionGuard) Acquire(ctx context.Context, k application.ProjectKey) (func(), error) {
	key := g.key(k)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, application.ErrSubmissionInProgress
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.Warn("Failed to release submission lock", zap.String("key", key), zap.Error(err))
		}
	}
	return release, nil
}

// Ping tests the connection.
func (g *SubmissionGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
