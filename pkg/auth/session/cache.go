package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnadiscipleship/dna-backend/pkg/config"
	redisclient "github.com/dnadiscipleship/dna-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

// ErrCacheMiss signals the email has no cached session entry.
var ErrCacheMiss = errors.New("session cache miss")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(email string) string
}

// Cache is the short-TTL Redis cache for resolved sessions, keyed by
// normalized email. The database stays the source of truth; the cache only
// shaves a round trip per request.
type Cache struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewCache builds the session cache from the shared Redis client.
func NewCache(client *redisclient.Client, cfg config.SessionConfig) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Cache{store: client, keyer: client, ttl: ttl}, nil
}

// Get returns the cached session for the email, or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, email string) (*UserSession, error) {
	raw, err := c.store.Get(ctx, c.keyer.SessionKey(email))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("read session cache: %w", err)
	}
	var sess UserSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return &sess, nil
}

// Put stores the resolved session under the normalized email.
func (c *Cache) Put(ctx context.Context, sess *UserSession) error {
	if sess == nil || strings.TrimSpace(sess.Email) == "" {
		return fmt.Errorf("session with email is required")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return c.store.Set(ctx, c.keyer.SessionKey(sess.Email), payload, c.ttl)
}

// Invalidate drops the cached entry for the email.
func (c *Cache) Invalidate(ctx context.Context, email string) error {
	return c.store.Del(ctx, c.keyer.SessionKey(email))
}
