package services

import (
	"context"
	"time"

	"github.com/skyreachair/leadfunnel/internal/cache"
)

const revokedSessionPrefix = "session:revoked:"

// SessionStore caches revoked session ids in Redis so most requests skip the
// database lookup. A nil store or nil client disables the cache.
type SessionStore struct {
	client *cache.Client
}

func NewSessionStore(client *cache.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) enabled() bool {
	return s != nil && s.client != nil
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, revokedSessionPrefix+sessionID, "1", ttl)
}

func (s *SessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if !s.enabled() {
		return false, nil
	}
	return s.client.Exists(ctx, revokedSessionPrefix+sessionID)
}
