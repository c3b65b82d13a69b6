package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactkeep/contactkeep/internal/user"
)

// SessionCache maps an authenticated user's email to a cached snapshot
// of the user row, so the common authenticated request does no database
// read. Entries expire by TTL only; there is no invalidation on user
// update, so a snapshot may be stale for up to the TTL. Populated lazily
// by the auth gate on cache miss, never eagerly on write. Concurrent
// misses for the same email both write; last write wins, which is fine
// because the value is always reconstructible from storage.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

// sessionKey generates the Redis key for a cached user snapshot
func sessionKey(email string) string {
	return fmt.Sprintf("user:%s", email)
}

// Get returns the cached snapshot for the email, or nil on a miss.
// A corrupt entry counts as a miss; the next Put overwrites it.
func (c *SessionCache) Get(ctx context.Context, email string) (*user.User, error) {
	data, err := c.client.Get(ctx, sessionKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	cached := new(user.User)
	if err := json.Unmarshal(data, cached); err != nil {
		return nil, nil
	}

	return cached, nil
}

// Put stores a user snapshot with the configured TTL
func (c *SessionCache) Put(ctx context.Context, email string, u *user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user snapshot: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(email), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}
